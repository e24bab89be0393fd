package services

import (
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/teovin/minipost/internal/models"
)

// ErrUserNotFound means no user record matched the lookup.
var ErrUserNotFound = errors.New("user not found")

// UserServiceProvider defines the interface for the credential store.
type UserServiceProvider interface {
	Create(name, password string) (models.User, error)
	GetByID(id int) (models.User, error)
	GetByName(name string) (models.User, error)
	List() ([]models.User, error)
	Promote(id int) (models.User, error)
	Delete(id int) error
	VerifyPassword(user models.User, password string) bool
}

// UserService provides business logic for user management.
type UserService struct {
	db *sql.DB
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

// Create stores a new user, hashing their password. The plaintext is
// never stored or logged.
func (s *UserService) Create(name, password string) (models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	res, err := s.db.Exec("INSERT INTO users(name, password_hash) VALUES(?, ?)", name, string(hashed))
	if err != nil {
		return models.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, err
	}

	return models.User{ID: int(id), Name: name, PasswordHash: string(hashed)}, nil
}

// GetByID retrieves a single user by their ID.
func (s *UserService) GetByID(id int) (models.User, error) {
	var user models.User
	row := s.db.QueryRow("SELECT id, name, password_hash FROM users WHERE id = ?", id)
	err := row.Scan(&user.ID, &user.Name, &user.PasswordHash)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// GetByName retrieves the first user with the given name. Names are
// not unique; insertion order decides which record wins.
func (s *UserService) GetByName(name string) (models.User, error) {
	var user models.User
	row := s.db.QueryRow("SELECT id, name, password_hash FROM users WHERE name = ? ORDER BY id LIMIT 1", name)
	err := row.Scan(&user.ID, &user.Name, &user.PasswordHash)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// List retrieves every user record, password hash included.
func (s *UserService) List() ([]models.User, error) {
	rows, err := s.db.Query("SELECT id, name, password_hash FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Name, &user.PasswordHash); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// Promote touches a user record without changing any field. The
// original service commits a no-op update here; the statement below
// reproduces that round trip to the store.
func (s *UserService) Promote(id int) (models.User, error) {
	user, err := s.GetByID(id)
	if err != nil {
		return models.User{}, err
	}
	if _, err := s.db.Exec("UPDATE users SET id = id WHERE id = ?", id); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Delete removes a user from the database. Their posts are left in
// place, dangling.
func (s *UserService) Delete(id int) error {
	_, err := s.db.Exec("DELETE FROM users WHERE id = ?", id)
	return err
}

// VerifyPassword checks a plaintext password against the stored hash
// using bcrypt's constant-time comparison.
func (s *UserService) VerifyPassword(user models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}
