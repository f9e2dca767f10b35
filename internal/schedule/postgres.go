package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is the subset of *pgxpool.Pool and pgx.Tx this package needs.
// Writer methods are implemented against it so the same SQL runs whether
// it's called standalone (PostgresStore) or inside the caller's
// game-mutation transaction (TxWriter, used by the Populator).
type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// PostgresStore implements Store against a PostgreSQL connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore opens a pooled connection sized for concurrent
// production load.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, err
	}
	config.MaxConns = 20
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

// Pool exposes the underlying pool so callers (e.g. the Populator) can
// open transactions shared with a game mutation.
func (s *PostgresStore) Pool() *pgxpool.Pool { return s.pool }

func (s *PostgresStore) Close() { s.pool.Close() }

func (s *PostgresStore) Upsert(ctx context.Context, gameID string, kind Kind, offsetMinutes *int, dueTime time.Time) (string, error) {
	return upsertRow(ctx, s.pool, gameID, kind, offsetMinutes, dueTime)
}

func (s *PostgresStore) DeleteByGame(ctx context.Context, gameID string) error {
	return deleteByGame(ctx, s.pool, gameID)
}

func (s *PostgresStore) PeekNextDue(ctx context.Context, now time.Time) (time.Time, string, bool, error) {
	const query = `
		SELECT due_time, id FROM notification_schedule
		WHERE NOT sent
		ORDER BY due_time ASC
		LIMIT 1`
	var due time.Time
	var id string
	err := s.pool.QueryRow(ctx, query).Scan(&due, &id)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, "", false, nil
	}
	if err != nil {
		return time.Time{}, "", false, err
	}
	return due, id, true, nil
}

// Dispatch claims rows one at a time so each row's claim, fn, and mark
// share a single transaction: the row's FOR UPDATE SKIP LOCKED lock is
// only released on that row's own commit or rollback, never on an
// intermediate commit that would let another instance race the publish.
func (s *PostgresStore) Dispatch(ctx context.Context, now time.Time, grace, timeout time.Duration, limit int, fn func(ctx context.Context, row Row) (bool, error)) (int, error) {
	excluded := make([]string, 0, limit)
	dispatched := 0
	for dispatched < limit {
		rowCtx, cancel := context.WithTimeout(ctx, timeout)
		rowID, claimed, err := s.dispatchOne(rowCtx, now, grace, excluded, fn)
		cancel()
		if err != nil {
			return dispatched, err
		}
		if !claimed {
			break
		}
		excluded = append(excluded, rowID)
		dispatched++
	}
	return dispatched, nil
}

// dispatchOne opens one transaction, claims at most one due row not
// already in excluded, and invokes fn with that transaction still open.
// markSent=true commits the sent flag; anything else rolls the whole
// transaction back, so a failed row keeps due_time/sent untouched and its
// lock is released the moment the rollback completes.
func (s *PostgresStore) dispatchOne(ctx context.Context, now time.Time, grace time.Duration, excluded []string, fn func(ctx context.Context, row Row) (bool, error)) (string, bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", false, fmt.Errorf("begin dispatch tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	const query = `
		SELECT id, game_id, kind, offset_minutes, due_time, sent, created_at
		FROM notification_schedule
		WHERE NOT sent AND due_time <= $1 AND NOT (id = ANY($2::uuid[]))
		ORDER BY due_time ASC, id ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED`

	var r Row
	var kind string
	err = tx.QueryRow(ctx, query, now.Add(grace), excluded).Scan(&r.ID, &r.GameID, &kind, &r.OffsetMinutes, &r.DueTime, &r.Sent, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("claim due row: %w", err)
	}
	r.Kind = Kind(kind)

	markSent, fnErr := fn(ctx, r)
	if markSent {
		if _, execErr := tx.Exec(ctx, `UPDATE notification_schedule SET sent = true WHERE id = $1`, r.ID); execErr != nil {
			return r.ID, true, fmt.Errorf("mark sent row %s: %w", r.ID, execErr)
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			return r.ID, true, fmt.Errorf("commit dispatch tx for row %s: %w", r.ID, commitErr)
		}
		committed = true
	}
	return r.ID, true, fnErr
}

func upsertRow(ctx context.Context, q querier, gameID string, kind Kind, offsetMinutes *int, dueTime time.Time) (string, error) {
	if gameID == "" {
		return "", fmt.Errorf("%w: empty game_id", ErrConstraintViolation)
	}
	if kind == KindReminder && offsetMinutes == nil {
		return "", fmt.Errorf("%w: reminder row requires offset_minutes", ErrConstraintViolation)
	}
	if kind != KindReminder && offsetMinutes != nil {
		return "", fmt.Errorf("%w: only reminder rows carry offset_minutes", ErrConstraintViolation)
	}

	id := uuid.NewString()
	const query = `
		INSERT INTO notification_schedule (id, game_id, kind, offset_minutes, due_time, sent, created_at)
		VALUES ($1, $2, $3, $4, $5, false, NOW())
		ON CONFLICT (game_id, kind, offset_minutes) DO UPDATE SET
			due_time = EXCLUDED.due_time,
			sent = false
		RETURNING id`
	var returnedID string
	err := q.QueryRow(ctx, query, id, gameID, string(kind), offsetMinutes, dueTime).Scan(&returnedID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23514" {
			return "", fmt.Errorf("%w: %s", ErrConstraintViolation, pgErr.Message)
		}
		return "", err
	}
	return returnedID, nil
}

func deleteByGame(ctx context.Context, q querier, gameID string) error {
	_, err := q.Exec(ctx, `DELETE FROM notification_schedule WHERE game_id = $1`, gameID)
	return err
}
