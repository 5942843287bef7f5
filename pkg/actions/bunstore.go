package actions

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// DeclineRecord is one customer decline as persisted for later review.
type DeclineRecord struct {
	LogID    string
	CaseID   string
	Reason   string
	LoggedAt time.Time
}

// DeclineStore persists decline records outside the process.
type DeclineStore interface {
	Save(ctx context.Context, rec DeclineRecord) error
}

type declineRow struct {
	bun.BaseModel `bun:"table:decline_logs"`

	LogID    string    `bun:"log_id,pk"`
	CaseID   string    `bun:"case_id"`
	Reason   string    `bun:"reason"`
	LoggedAt time.Time `bun:"logged_at"`
}

// BunDeclineStore writes decline records to Postgres.
type BunDeclineStore struct {
	db *bun.DB
}

// NewBunDeclineStore connects to Postgres with the given DSN and ensures
// the decline_logs table exists.
func NewBunDeclineStore(ctx context.Context, dsn string) (*BunDeclineStore, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	if _, err := db.NewCreateTable().
		Model((*declineRow)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating decline_logs table: %w", err)
	}

	return &BunDeclineStore{db: db}, nil
}

func (s *BunDeclineStore) Save(ctx context.Context, rec DeclineRecord) error {
	row := &declineRow{
		LogID:    rec.LogID,
		CaseID:   rec.CaseID,
		Reason:   rec.Reason,
		LoggedAt: rec.LoggedAt,
	}
	if _, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (log_id) DO NOTHING").
		Exec(ctx); err != nil {
		return fmt.Errorf("inserting decline log: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *BunDeclineStore) Close() error {
	return s.db.Close()
}
