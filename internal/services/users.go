package services

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"freeradical-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const userColumns = `id, email, password_hash, first_name, last_name, status, created_at, updated_at, last_login_at`

func GetUser(db *sqlx.DB, userID string) (models.User, error) {
	var user models.User
	err := db.Get(&user, db.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound("User not found")
	}
	return user, err
}

func FindUserByEmail(db *sqlx.DB, email string) (models.User, error) {
	var user models.User
	err := db.Get(&user, db.Rebind(`SELECT `+userColumns+` FROM users WHERE lower(email) = ?`), normalizeEmail(email))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound("User not found")
	}
	return user, err
}

func CreateUser(db *sqlx.DB, tokens TokenService, email, password, firstName, lastName string) (models.User, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return models.User{}, ErrBadRequest("A valid email is required")
	}
	if len(password) < 8 {
		return models.User{}, ErrBadRequest("Password must have at least 8 characters")
	}
	var exists bool
	if err := db.Get(&exists, db.Rebind(`SELECT EXISTS(SELECT 1 FROM users WHERE lower(email) = ?)`), email); err != nil {
		return models.User{}, err
	}
	if exists {
		return models.User{}, ErrConflict("Email already registered")
	}
	hash, err := tokens.HashPassword(password)
	if err != nil {
		return models.User{}, WrapError(err, "hash password")
	}
	now := time.Now().UTC()
	user := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		Status:       "ACTIVE",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err = db.NamedExec(`
INSERT INTO users (id, email, password_hash, first_name, last_name, status, created_at, updated_at)
VALUES (:id, :email, :password_hash, :first_name, :last_name, :status, :created_at, :updated_at)
`, user)
	if isUniqueViolation(err) {
		return models.User{}, ErrConflict("Email already registered")
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// EnsureAdmin creates the bootstrap account unless the email already exists.
func EnsureAdmin(db *sqlx.DB, tokens TokenService, email, password string) (bool, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return false, nil
	}
	_, err := FindUserByEmail(db, email)
	if err == nil {
		return false, nil
	}
	if _, ok := AsServiceError(err); !ok {
		return false, err
	}
	if _, err := CreateUser(db, tokens, email, password, "Admin", ""); err != nil {
		return false, err
	}
	return true, nil
}

// Login checks credentials and returns the user with a fresh access token.
func Login(db *sqlx.DB, tokens TokenService, email, password string) (models.User, string, error) {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return models.User{}, "", ErrBadRequest("Email and password are required")
	}
	user, err := FindUserByEmail(db, email)
	if err != nil {
		if _, ok := AsServiceError(err); ok {
			return models.User{}, "", ErrUnauthorized("Invalid credentials")
		}
		return models.User{}, "", err
	}
	if !tokens.VerifyPassword(password, user.PasswordHash) {
		return models.User{}, "", ErrUnauthorized("Invalid credentials")
	}
	if user.Status != "ACTIVE" {
		return models.User{}, "", ErrForbidden("Account disabled")
	}
	token, _, err := tokens.CreateAccessToken(user.ID, user.Email)
	if err != nil {
		return models.User{}, "", WrapError(err, "sign token")
	}
	_ = SetLastLogin(db, user.ID)
	return user, token, nil
}

func SetLastLogin(db *sqlx.DB, userID string) error {
	_, err := db.Exec(db.Rebind(`UPDATE users SET last_login_at = ? WHERE id = ?`), time.Now().UTC(), userID)
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
