package users

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ms-scanner/internal/badges"
	"ms-scanner/internal/models"
	"ms-scanner/internal/utils"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrNoBadgeCode  = errors.New("user has no badge code")
)

type UserDBLayer interface {
	GetUserByID(id int64) (*models.User, error)
	ListUsers() ([]models.User, error)
	UpdateUser(user models.User, columns []string) error
}

// ScanHistory assembles a user's scan entries; implemented by the scan
// service so user views carry their full history.
type ScanHistory interface {
	ScansForUser(userID int64) ([]models.ScanEntry, error)
}

type KafkaPublisher interface {
	PublishUserUpdated(user models.User) error
}

type UserService struct {
	DB      UserDBLayer
	History ScanHistory
	Kafka   KafkaPublisher
	Badges  *badges.Generator
}

func NewUserService(db UserDBLayer, history ScanHistory, kafka KafkaPublisher, badgeGen *badges.Generator) *UserService {
	return &UserService{DB: db, History: history, Kafka: kafka, Badges: badgeGen}
}

func (s *UserService) getUser(id int64) (*models.User, error) {
	user, err := s.DB.GetUserByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up user %d: %w", id, err)
	}
	return user, nil
}

func (s *UserService) viewFor(user *models.User) (*models.UserView, error) {
	scans, err := s.History.ScansForUser(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble scans for user %d: %w", user.ID, err)
	}
	return &models.UserView{
		Name:      user.Name,
		Email:     user.Email,
		Phone:     user.Phone,
		BadgeCode: user.BadgeCode,
		UpdatedAt: utils.FormatTimestamp(user.UpdatedAt),
		Scans:     scans,
	}, nil
}

// GetUser returns one user with their full scan history attached.
func (s *UserService) GetUser(id int64) (*models.UserView, error) {
	user, err := s.getUser(id)
	if err != nil {
		return nil, err
	}
	return s.viewFor(user)
}

// ListUsers returns every user, each with their scan history assembled in
// the same pass. Users with no scans get an empty scans array.
func (s *UserService) ListUsers() ([]models.UserView, error) {
	users, err := s.DB.ListUsers()
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	views := make([]models.UserView, 0, len(users))
	for i := range users {
		view, err := s.viewFor(&users[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

// UpdateUser applies a partial update: only fields present in the request
// change, and updated_at always moves forward on success.
func (s *UserService) UpdateUser(id int64, update models.UserUpdate) (*models.UserView, error) {
	user, err := s.getUser(id)
	if err != nil {
		return nil, err
	}

	columns := []string{"updated_at"}
	if update.Name != nil {
		user.Name = *update.Name
		columns = append(columns, "name")
	}
	if update.Email != nil {
		user.Email = *update.Email
		columns = append(columns, "email")
	}
	if update.Phone != nil {
		user.Phone = *update.Phone
		columns = append(columns, "phone")
	}
	if update.BadgeCode != nil {
		user.BadgeCode = *update.BadgeCode
		columns = append(columns, "badge_code")
	}
	user.UpdatedAt = time.Now()

	if err := s.DB.UpdateUser(*user, columns); err != nil {
		return nil, fmt.Errorf("failed to update user %d: %w", id, err)
	}

	if s.Kafka != nil {
		if err := s.Kafka.PublishUserUpdated(*user); err != nil {
			fmt.Printf("Kafka publish error (user updated): %v\n", err)
		}
	}

	return s.viewFor(user)
}

// BadgeQR renders the user's badge as an encrypted QR PNG.
func (s *UserService) BadgeQR(id int64) ([]byte, error) {
	user, err := s.getUser(id)
	if err != nil {
		return nil, err
	}
	if user.BadgeCode == "" {
		return nil, ErrNoBadgeCode
	}

	png, err := s.Badges.GenerateEncryptedBadge(models.Badge{
		UserID:    user.ID,
		Name:      user.Name,
		BadgeCode: user.BadgeCode,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate badge for user %d: %w", id, err)
	}
	return png, nil
}
