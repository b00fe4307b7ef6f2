package db

import (
	"context"
	"fmt"

	"github.com/albapepper/reportpush/internal/config"
)

// DispatchLogSchema creates the table this service owns. supervisors and
// user_fcm_tokens belong to the application database and are never created
// here. Safe to apply repeatedly.
const DispatchLogSchema = `
CREATE TABLE IF NOT EXISTS ` + config.DispatchLogTable + ` (
    dispatch_id   TEXT PRIMARY KEY,
    user_id       TEXT NOT NULL,
    report_type   TEXT NOT NULL,
    total_count   INTEGER NOT NULL,
    success_count INTEGER NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_` + config.DispatchLogTable + `_created_at
    ON ` + config.DispatchLogTable + ` (created_at);
`

// EnsureSchema applies DispatchLogSchema.
func (p *Pool) EnsureSchema(ctx context.Context) error {
	if _, err := p.Exec(ctx, DispatchLogSchema); err != nil {
		return fmt.Errorf("apply dispatch log schema: %w", err)
	}
	return nil
}
