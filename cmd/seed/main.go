package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ms-scanner/internal/config"
	"ms-scanner/internal/models"
	"ms-scanner/internal/utils"
)

// Seed tool: drops and recreates the schema, then loads sample attendees.
// Pass a JSON file of users as the first argument to import real data.

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx := context.Background()

	var sqldb *sql.DB
	var err error
	var db *bun.DB

	switch cfg.Database.Driver {
	case "postgres":
		sqldb, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			log.Fatalf("Failed to open PostgreSQL: %v", err)
		}
		db = bun.NewDB(sqldb, pgdialect.New())
	case "sqlite":
		sqldb, err = sql.Open(sqliteshim.ShimName, cfg.Database.DSN)
		if err != nil {
			log.Fatalf("Failed to open SQLite: %v", err)
		}
		db = bun.NewDB(sqldb, sqlitedialect.New())
	default:
		log.Fatalf("Unknown DB_DRIVER %q", cfg.Database.Driver)
	}
	defer db.Close()

	if err := sqldb.PingContext(ctx); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Println("Dropping tables...")
	dropTables(ctx, db)

	log.Println("Creating tables...")
	createTables(ctx, db)

	log.Println("Seeding sample data...")
	seedData(ctx, db)

	log.Println("Done.")
}

func dropTables(ctx context.Context, db *bun.DB) {
	// Reverse dependency order: scans reference users and activities
	tables := []interface{}{(*models.Scan)(nil), (*models.Activity)(nil), (*models.User)(nil)}
	for _, m := range tables {
		_, _ = db.NewDropTable().Model(m).IfExists().Exec(ctx)
	}
}

func createTables(ctx context.Context, db *bun.DB) {
	tables := []interface{}{(*models.User)(nil), (*models.Activity)(nil), (*models.Scan)(nil)}
	for _, m := range tables {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			log.Fatalf("Failed to create table for %T: %v", m, err)
		}
	}
}

func seedData(ctx context.Context, db *bun.DB) {
	users := sampleUsers()

	if len(os.Args) > 1 {
		imported, err := loadUsersFromFile(os.Args[1])
		if err != nil {
			log.Fatalf("Failed to load users from %s: %v", os.Args[1], err)
		}
		users = imported
		log.Printf("Loaded %d users from %s", len(users), os.Args[1])
	}

	now := time.Now()
	for i := range users {
		if users[i].BadgeCode == "" {
			users[i].BadgeCode = utils.GenerateBadgeCode()
		}
		if users[i].UpdatedAt.IsZero() {
			users[i].UpdatedAt = now
		}
	}

	if _, err := db.NewInsert().Model(&users).Exec(ctx); err != nil {
		log.Fatalf("Failed to seed users: %v", err)
	}
	log.Printf("Seeded %d users", len(users))
}

func loadUsersFromFile(path string) ([]models.User, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var users []models.User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func sampleUsers() []models.User {
	return []models.User{
		{Name: "John Doe", Email: "john.doe@example.com", Phone: "1234567890", BadgeCode: "give-seven-food-trade"},
		{Name: "Alice Wonderland", Email: "alice@example.com", Phone: "2345678901"},
		{Name: "Bob Builder", Email: "bob@example.com", Phone: "3456789012"},
	}
}
