// Package user provides the concrete SQL-based implementations
// for account, email capture, and consent persistence.
package user

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/speakaboutai/micdrop-go/internal/domain/user"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/observability/logging"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/persistence/database"
	"github.com/speakaboutai/micdrop-go/internal/infrastructure/security"
)

// ErrUserNotFound is returned when no account matches the lookup.
var ErrUserNotFound = fmt.Errorf("user not found")

// ErrEmailTaken is returned when an account already exists for the email.
var ErrEmailTaken = fmt.Errorf("email already registered")

// SQLUserRepository handles account persistence to the database.
type SQLUserRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLUserRepository creates a new instance of the repository.
func NewSQLUserRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLUserRepository {
	return &SQLUserRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new account. The user's ID and CreatedAt are assigned here.
func (r *SQLUserRepository) Create(u *user.User) error {
	u.ID = security.GenerateULID()
	u.CreatedAt = time.Now().UTC()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))

	const query = `INSERT INTO users (id, name, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`

	start := time.Now()
	_, err := r.db.Exec(query, u.ID, u.Name, u.Email, u.PasswordHash, database.FormatTime(u.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		r.logger.Database().Error("User insert failed", "error", err.Error(), "email", u.Email)
		return fmt.Errorf("failed to create user: %w", err)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	r.logger.Auth().Info("User account created", "userId", u.ID, "email", u.Email)
	return nil
}

// FindByEmail retrieves an account by email, case-insensitively.
func (r *SQLUserRepository) FindByEmail(email string) (*user.User, error) {
	return r.findOne(`SELECT id, name, email, password_hash, created_at FROM users WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(email)))
}

// FindByID retrieves an account by its ID.
func (r *SQLUserRepository) FindByID(id string) (*user.User, error) {
	return r.findOne(`SELECT id, name, email, password_hash, created_at FROM users WHERE id = ?`, id)
}

func (r *SQLUserRepository) findOne(query string, arg string) (*user.User, error) {
	var u user.User
	var createdAtStr string

	err := r.db.QueryRow(query, arg).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &createdAtStr)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		r.logger.Database().Error("User lookup failed", "error", err.Error())
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if u.CreatedAt, err = database.ParseTimestamp(createdAtStr); err != nil {
		return nil, err
	}
	return &u, nil
}

// isUniqueViolation matches the constraint error text shared by the sqlite3
// and libsql drivers, so duplicate detection works on both backends.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint")
}
