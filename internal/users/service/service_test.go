package users_test

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"ms-scanner/internal/badges"
	"ms-scanner/internal/models"
	users "ms-scanner/internal/users/service"
)

// MockUserDBLayer is a mock implementation of the UserDBLayer interface
type MockUserDBLayer struct {
	mock.Mock
}

func (m *MockUserDBLayer) GetUserByID(id int64) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserDBLayer) ListUsers() ([]models.User, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserDBLayer) UpdateUser(user models.User, columns []string) error {
	args := m.Called(user, columns)
	return args.Error(0)
}

// MockHistory serves canned scan entries per user
type MockHistory struct {
	entries map[int64][]models.ScanEntry
}

func NewMockHistory() *MockHistory {
	return &MockHistory{entries: make(map[int64][]models.ScanEntry)}
}

func (m *MockHistory) ScansForUser(userID int64) ([]models.ScanEntry, error) {
	if entries, ok := m.entries[userID]; ok {
		return entries, nil
	}
	return []models.ScanEntry{}, nil
}

func testUser() *models.User {
	return &models.User{
		ID:        1,
		Name:      "Test User",
		Email:     "test@example.com",
		Phone:     "1234567890",
		BadgeCode: "give-seven-food-trade",
		UpdatedAt: time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC),
	}
}

func newService(db users.UserDBLayer, history users.ScanHistory) *users.UserService {
	return users.NewUserService(db, history, nil, badges.NewGenerator("test-secret"))
}

func TestGetUser(t *testing.T) {
	mockDB := new(MockUserDBLayer)
	history := NewMockHistory()
	history.entries[1] = []models.ScanEntry{
		{ActivityName: "giving_go_a_go", ActivityCategory: "workshop", ScannedAt: "2025-01-10T13:00:00Z"},
	}
	svc := newService(mockDB, history)

	mockDB.On("GetUserByID", int64(1)).Return(testUser(), nil)

	view, err := svc.GetUser(1)

	assert.NoError(t, err)
	assert.Equal(t, "Test User", view.Name)
	assert.Equal(t, "test@example.com", view.Email)
	assert.Equal(t, "give-seven-food-trade", view.BadgeCode)
	assert.Equal(t, 1, len(view.Scans))
	assert.Equal(t, "giving_go_a_go", view.Scans[0].ActivityName)
}

func TestGetUserNotFound(t *testing.T) {
	mockDB := new(MockUserDBLayer)
	svc := newService(mockDB, NewMockHistory())

	mockDB.On("GetUserByID", int64(999)).Return(nil, sql.ErrNoRows)

	view, err := svc.GetUser(999)

	assert.Nil(t, view)
	assert.True(t, errors.Is(err, users.ErrUserNotFound))
}

func TestListUsersEmptyScans(t *testing.T) {
	mockDB := new(MockUserDBLayer)
	svc := newService(mockDB, NewMockHistory())

	mockDB.On("ListUsers").Return([]models.User{*testUser()}, nil)

	views, err := svc.ListUsers()

	assert.NoError(t, err)
	assert.Equal(t, 1, len(views))
	// No scans yet: the history is an empty array, never null
	assert.NotNil(t, views[0].Scans)
	assert.Equal(t, 0, len(views[0].Scans))
}

func TestUpdateUserPartial(t *testing.T) {
	mockDB := new(MockUserDBLayer)
	svc := newService(mockDB, NewMockHistory())

	before := testUser()
	mockDB.On("GetUserByID", int64(1)).Return(before, nil)

	var savedUser models.User
	var savedColumns []string
	mockDB.On("UpdateUser", mock.AnythingOfType("models.User"), mock.AnythingOfType("[]string")).
		Run(func(args mock.Arguments) {
			savedUser = args.Get(0).(models.User)
			savedColumns = args.Get(1).([]string)
		}).
		Return(nil)

	name := "Updated Name"
	view, err := svc.UpdateUser(1, models.UserUpdate{Name: &name})

	assert.NoError(t, err)
	assert.Equal(t, "Updated Name", view.Name)
	// Untouched fields keep their values
	assert.Equal(t, "test@example.com", view.Email)
	assert.Equal(t, "1234567890", view.Phone)

	// Only the supplied field plus updated_at are written
	assert.ElementsMatch(t, []string{"updated_at", "name"}, savedColumns)
	assert.Equal(t, "Updated Name", savedUser.Name)
	assert.True(t, savedUser.UpdatedAt.After(time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)))
}

func TestUpdateUserAllFields(t *testing.T) {
	mockDB := new(MockUserDBLayer)
	svc := newService(mockDB, NewMockHistory())

	mockDB.On("GetUserByID", int64(1)).Return(testUser(), nil)

	var savedColumns []string
	mockDB.On("UpdateUser", mock.AnythingOfType("models.User"), mock.AnythingOfType("[]string")).
		Run(func(args mock.Arguments) {
			savedColumns = args.Get(1).([]string)
		}).
		Return(nil)

	name := "New Name"
	email := "new@example.com"
	phone := "0987654321"
	badge := "new-badge-code"
	view, err := svc.UpdateUser(1, models.UserUpdate{Name: &name, Email: &email, Phone: &phone, BadgeCode: &badge})

	assert.NoError(t, err)
	assert.Equal(t, "new@example.com", view.Email)
	assert.ElementsMatch(t, []string{"updated_at", "name", "email", "phone", "badge_code"}, savedColumns)
}

func TestUpdateUserEmptyUpdateStillTouchesTimestamp(t *testing.T) {
	mockDB := new(MockUserDBLayer)
	svc := newService(mockDB, NewMockHistory())

	mockDB.On("GetUserByID", int64(1)).Return(testUser(), nil)

	var savedColumns []string
	mockDB.On("UpdateUser", mock.AnythingOfType("models.User"), mock.AnythingOfType("[]string")).
		Run(func(args mock.Arguments) {
			savedColumns = args.Get(1).([]string)
		}).
		Return(nil)

	_, err := svc.UpdateUser(1, models.UserUpdate{})

	assert.NoError(t, err)
	assert.Equal(t, []string{"updated_at"}, savedColumns)
}

func TestUpdateUserNotFound(t *testing.T) {
	mockDB := new(MockUserDBLayer)
	svc := newService(mockDB, NewMockHistory())

	mockDB.On("GetUserByID", int64(999)).Return(nil, sql.ErrNoRows)

	name := "Updated Name"
	view, err := svc.UpdateUser(999, models.UserUpdate{Name: &name})

	assert.Nil(t, view)
	assert.True(t, errors.Is(err, users.ErrUserNotFound))
	mockDB.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything)
}

func TestUpdateUserStoreConflictSurfaces(t *testing.T) {
	mockDB := new(MockUserDBLayer)
	svc := newService(mockDB, NewMockHistory())

	mockDB.On("GetUserByID", int64(1)).Return(testUser(), nil)
	conflict := errors.New("UNIQUE constraint failed: users.email")
	mockDB.On("UpdateUser", mock.Anything, mock.Anything).Return(conflict)

	email := "taken@example.com"
	view, err := svc.UpdateUser(1, models.UserUpdate{Email: &email})

	assert.Nil(t, view)
	assert.True(t, errors.Is(err, conflict))
}

func TestBadgeQR(t *testing.T) {
	mockDB := new(MockUserDBLayer)
	svc := newService(mockDB, NewMockHistory())

	mockDB.On("GetUserByID", int64(1)).Return(testUser(), nil)

	png, err := svc.BadgeQR(1)

	assert.NoError(t, err)
	assert.NotEmpty(t, png)
	// PNG magic bytes
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}

func TestBadgeQRNoBadgeCode(t *testing.T) {
	mockDB := new(MockUserDBLayer)
	svc := newService(mockDB, NewMockHistory())

	user := testUser()
	user.BadgeCode = ""
	mockDB.On("GetUserByID", int64(1)).Return(user, nil)

	png, err := svc.BadgeQR(1)

	assert.Nil(t, png)
	assert.True(t, errors.Is(err, users.ErrNoBadgeCode))
}
