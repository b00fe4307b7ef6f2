package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/reportpush/internal/apperr"
	"github.com/albapepper/reportpush/internal/cache"
	"github.com/albapepper/reportpush/internal/db"
)

// Store is the Postgres-backed recipient and device directory and the
// dispatch log. Statement names refer to the prepared statements that
// db.New registers on every connection.
type Store struct {
	pool   *pgxpool.Pool
	cache  *cache.Cache
	logger *slog.Logger
}

// NewStore creates a store. c may be nil or disabled.
func NewStore(pool *pgxpool.Pool, c *cache.Cache, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, cache: c, logger: logger}
}

type cachedRecipient struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Recipient looks up a supervisor by id.
func (s *Store) Recipient(ctx context.Context, id string) (Recipient, error) {
	const op = "notifications.Recipient"
	key := "recipient:" + id

	if data, ok := s.cache.Get(key); ok {
		var cr cachedRecipient
		if err := json.Unmarshal(data, &cr); err == nil {
			return Recipient{ID: cr.ID, DisplayName: cr.Username}, nil
		}
		s.cache.Delete(key)
	}

	var cr cachedRecipient
	err := s.pool.QueryRow(ctx, "recipient_lookup", id).Scan(&cr.ID, &cr.Username)
	if errors.Is(err, pgx.ErrNoRows) || isMalformedID(err) {
		return Recipient{}, apperr.New(apperr.KindNotFound, op, fmt.Sprintf("supervisor with ID %s not found", id))
	}
	if err != nil {
		return Recipient{}, apperr.Wrap(apperr.KindInternal, op, "lookup recipient", err)
	}

	if data, err := json.Marshal(cr); err == nil {
		s.cache.Set(key, data, cache.TTLRecipient)
	}
	return Recipient{ID: cr.ID, DisplayName: cr.Username}, nil
}

// DeviceTokens returns the non-empty FCM tokens registered to a recipient.
// Tokens are never cached: a newly registered device must be reachable on
// the next send.
func (s *Store) DeviceTokens(ctx context.Context, recipientID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, "recipient_device_tokens", recipientID)
	if isMalformedID(err) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "notifications.DeviceTokens", "query device tokens", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var t *string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan device token: %w", err)
		}
		if t != nil && strings.TrimSpace(*t) != "" {
			tokens = append(tokens, *t)
		}
	}
	if err := rows.Err(); err != nil && !isMalformedID(err) {
		return nil, fmt.Errorf("read device tokens: %w", err)
	}
	return tokens, nil
}

// Record writes a dispatch summary row.
func (s *Store) Record(ctx context.Context, e LogEntry) error {
	_, err := s.pool.Exec(ctx, db.InsertDispatchLogSQL,
		e.DispatchID, e.RecipientID, e.ReportType, e.TotalCount, e.SuccessCount)
	if err != nil {
		return fmt.Errorf("insert dispatch log: %w", err)
	}
	return nil
}

// isMalformedID reports whether Postgres rejected the id as text that does
// not convert to the key column's type (a non-uuid for a uuid key). Such an
// id cannot name a row.
func isMalformedID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}
