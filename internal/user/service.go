package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"schemad/internal/db"
)

// User is one row of the users table.
type User struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// NotFoundError reports that no user exists with the given id.
type NotFoundError struct {
	UserID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("user with id %d not found", e.UserID)
}

// EmailExistsError reports an attempt to register an email twice.
type EmailExistsError struct {
	Email string
}

func (e *EmailExistsError) Error() string {
	return fmt.Sprintf("email %s already registered", e.Email)
}

// Store is the database surface the service needs: plain queries plus
// transactions for user creation. *pgxpool.Pool satisfies it.
type Store interface {
	db.Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Service manages user rows and their paired ledger rows.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a user service.
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// Get returns the user with the given id.
func (s *Service) Get(ctx context.Context, userID int64) (*User, error) {
	query := `
		SELECT user_id, email, name, created_at
		FROM users
		WHERE user_id = $1
	`

	var u User
	err := s.store.QueryRow(ctx, query, userID).Scan(&u.UserID, &u.Email, &u.Name, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{UserID: userID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user %d: %w", userID, err)
	}
	return &u, nil
}

// Create inserts a user and a zero-balance ledger row in one transaction.
func (s *Service) Create(ctx context.Context, email, name string) (*User, error) {
	var exists bool
	err := s.store.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check email %s: %w", email, err)
	}
	if exists {
		return nil, &EmailExistsError{Email: email}
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	u := User{Email: email, Name: name}
	err = tx.QueryRow(ctx,
		`INSERT INTO users (email, name) VALUES ($1, $2) RETURNING user_id, created_at`,
		email, name).Scan(&u.UserID, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO credits (user_id, credits) VALUES ($1, 0)`, u.UserID); err != nil {
		return nil, fmt.Errorf("failed to create ledger row: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit user creation: %w", err)
	}

	s.logger.Info("user created", "user_id", u.UserID, "email", email)
	return &u, nil
}
