package db

import (
	"context"

	"github.com/uptrace/bun"
	"ms-scanner/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// GetUserByID → fetch one user by id
func (d *DB) GetUserByID(id int64) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers → every user in id order
func (d *DB) ListUsers() ([]models.User, error) {
	var users []models.User
	err := d.Bun.NewSelect().
		Model(&users).
		Order("id ASC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUser → persist only the named columns. Unique constraint violations
// (email, phone, badge_code) come back as store errors, not silently dropped.
func (d *DB) UpdateUser(user models.User, columns []string) error {
	_, err := d.Bun.NewUpdate().
		Model(&user).
		Column(columns...).
		Where("id = ?", user.ID).
		Exec(context.Background())
	return err
}

// CreateUser → insert new user; the generated id is scanned back
func (d *DB) CreateUser(user *models.User) error {
	_, err := d.Bun.NewInsert().Model(user).Exec(context.Background())
	return err
}
