package credit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"schemad/internal/db"
)

// Account is one ledger row. Credits never go below zero; the deduct
// statement's WHERE clause enforces the floor.
type Account struct {
	UserID      int64     `json:"user_id"`
	Credits     int64     `json:"credits"`
	LastUpdated time.Time `json:"last_updated"`
}

// UserNotFoundError reports that no ledger row exists for the user.
type UserNotFoundError struct {
	UserID int64
}

func (e *UserNotFoundError) Error() string {
	return fmt.Sprintf("user with id %d not found", e.UserID)
}

// InsufficientCreditsError reports a deduction larger than the balance.
type InsufficientCreditsError struct {
	Current   int64
	Requested int64
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: current %d, requested %d", e.Current, e.Requested)
}

// Service mutates ledger rows with single atomic statements, so two
// concurrent deductions against the same account cannot both pass the
// balance precondition.
type Service struct {
	q      db.Querier
	logger *slog.Logger
}

// NewService creates a credit service.
func NewService(q db.Querier, logger *slog.Logger) *Service {
	return &Service{
		q:      q,
		logger: logger,
	}
}

// Balance returns the current ledger row for the user.
func (s *Service) Balance(ctx context.Context, userID int64) (*Account, error) {
	query := `
		SELECT user_id, credits, last_updated
		FROM credits
		WHERE user_id = $1
	`

	var acct Account
	err := s.q.QueryRow(ctx, query, userID).Scan(&acct.UserID, &acct.Credits, &acct.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &UserNotFoundError{UserID: userID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read balance for user %d: %w", userID, err)
	}
	return &acct, nil
}

// Add increments the balance. The amount is validated at the API boundary.
func (s *Service) Add(ctx context.Context, userID, amount int64) (*Account, error) {
	query := `
		UPDATE credits
		SET credits = credits + $2, last_updated = now()
		WHERE user_id = $1
		RETURNING user_id, credits, last_updated
	`

	var acct Account
	err := s.q.QueryRow(ctx, query, userID, amount).Scan(&acct.UserID, &acct.Credits, &acct.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &UserNotFoundError{UserID: userID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to add credits for user %d: %w", userID, err)
	}

	s.logger.Info("credits added", "user_id", userID, "amount", amount, "balance", acct.Credits)
	return &acct, nil
}

// Deduct decrements the balance when it covers the amount. The conditional
// update leaves the row untouched on a short balance.
func (s *Service) Deduct(ctx context.Context, userID, amount int64) (*Account, error) {
	query := `
		UPDATE credits
		SET credits = credits - $2, last_updated = now()
		WHERE user_id = $1 AND credits >= $2
		RETURNING user_id, credits, last_updated
	`

	var acct Account
	err := s.q.QueryRow(ctx, query, userID, amount).Scan(&acct.UserID, &acct.Credits, &acct.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		// Either the user is missing or the balance was short; a balance
		// read tells the two apart.
		current, berr := s.Balance(ctx, userID)
		if berr != nil {
			return nil, berr
		}
		return nil, &InsufficientCreditsError{Current: current.Credits, Requested: amount}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to deduct credits for user %d: %w", userID, err)
	}

	s.logger.Info("credits deducted", "user_id", userID, "amount", amount, "balance", acct.Credits)
	return &acct, nil
}

// Reset zeroes the balance.
func (s *Service) Reset(ctx context.Context, userID int64) (*Account, error) {
	query := `
		UPDATE credits
		SET credits = 0, last_updated = now()
		WHERE user_id = $1
		RETURNING user_id, credits, last_updated
	`

	var acct Account
	err := s.q.QueryRow(ctx, query, userID).Scan(&acct.UserID, &acct.Credits, &acct.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &UserNotFoundError{UserID: userID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to reset credits for user %d: %w", userID, err)
	}

	s.logger.Info("credits reset", "user_id", userID)
	return &acct, nil
}
