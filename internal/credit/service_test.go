package credit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	scan func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error {
	return r.scan(dest...)
}

// fakeLedger simulates the credits table for a single user, dispatching on
// the statement text the service issues.
type fakeLedger struct {
	exists  bool
	userID  int64
	credits int64
	updated time.Time
}

func (f *fakeLedger) row() pgx.Row {
	return fakeRow{scan: func(dest ...any) error {
		*dest[0].(*int64) = f.userID
		*dest[1].(*int64) = f.credits
		*dest[2].(*time.Time) = f.updated
		return nil
	}}
}

func noRows() pgx.Row {
	return fakeRow{scan: func(...any) error { return pgx.ErrNoRows }}
}

func (f *fakeLedger) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	switch {
	case strings.Contains(sql, "credits + "):
		if !f.exists {
			return noRows()
		}
		f.credits += args[1].(int64)
		f.updated = time.Now()
		return f.row()
	case strings.Contains(sql, "credits - "):
		amount := args[1].(int64)
		if !f.exists || f.credits < amount {
			return noRows()
		}
		f.credits -= amount
		f.updated = time.Now()
		return f.row()
	case strings.Contains(sql, "credits = 0"):
		if !f.exists {
			return noRows()
		}
		f.credits = 0
		f.updated = time.Now()
		return f.row()
	default: // balance read
		if !f.exists {
			return noRows()
		}
		return f.row()
	}
}

func (f *fakeLedger) Exec(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("unexpected Exec")
}

func (f *fakeLedger) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	return nil, errors.New("unexpected Query")
}

func newTestService(ledger *fakeLedger) *Service {
	return NewService(ledger, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestBalance(t *testing.T) {
	t.Run("missing user", func(t *testing.T) {
		svc := newTestService(&fakeLedger{})
		_, err := svc.Balance(context.Background(), 42)
		var notFound *UserNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, int64(42), notFound.UserID)
	})

	t.Run("existing user", func(t *testing.T) {
		svc := newTestService(&fakeLedger{exists: true, userID: 7, credits: 30})
		acct, err := svc.Balance(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, int64(30), acct.Credits)
	})
}

func TestAddThenDeductRestoresBalance(t *testing.T) {
	ledger := &fakeLedger{exists: true, userID: 7, credits: 25}
	svc := newTestService(ledger)
	ctx := context.Background()

	acct, err := svc.Add(ctx, 7, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(35), acct.Credits)

	acct, err = svc.Deduct(ctx, 7, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(25), acct.Credits)
}

func TestDeductInsufficientLeavesBalanceUnchanged(t *testing.T) {
	ledger := &fakeLedger{exists: true, userID: 7, credits: 5}
	svc := newTestService(ledger)
	ctx := context.Background()

	_, err := svc.Deduct(ctx, 7, 10)
	var short *InsufficientCreditsError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, int64(5), short.Current)
	assert.Equal(t, int64(10), short.Requested)

	// Balance unchanged after the refused deduction.
	acct, err := svc.Balance(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(5), acct.Credits)
}

func TestDeductMissingUser(t *testing.T) {
	svc := newTestService(&fakeLedger{})
	_, err := svc.Deduct(context.Background(), 42, 10)
	var notFound *UserNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestReset(t *testing.T) {
	ledger := &fakeLedger{exists: true, userID: 7, credits: 90}
	svc := newTestService(ledger)

	acct, err := svc.Reset(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(0), acct.Credits)

	svc = newTestService(&fakeLedger{})
	_, err = svc.Reset(context.Background(), 42)
	var notFound *UserNotFoundError
	require.ErrorAs(t, err, &notFound)
}
