// Package listener provides a Postgres LISTEN/NOTIFY consumer for new
// reports. It holds a dedicated pgx connection (not from the pool) listening
// on the `report_created` channel.
//
// When a report row is inserted, a Postgres trigger fires pg_notify and this
// consumer turns the payload into a send request for the report's
// supervisor.
package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/albapepper/reportpush/internal/config"
	"github.com/albapepper/reportpush/internal/notifications"
)

const (
	reconnectBackoff = 5 * time.Second
	maxReconnect     = 30 * time.Second
	sendTimeout      = 60 * time.Second
)

// Sender is the send pipeline. *notifications.Service implements it.
type Sender interface {
	Send(ctx context.Context, req notifications.Request) (*notifications.Result, error)
}

// ReportEvent is the JSON payload from pg_notify('report_created', ...).
// The flags are kept as decoded (bool, "true", ...) and judged by the
// formatter, since triggers emit both forms.
type ReportEvent struct {
	UserID        string `json:"user_id"`
	SchoolName    string `json:"school_name"`
	Priority      string `json:"priority"`
	ReportID      any    `json:"report_id"`
	IsMaintenance any    `json:"is_maintenance"`
	IsEmergency   any    `json:"is_emergency"`
	Type          string `json:"type"`
	Description   string `json:"description"`
}

// Request converts the event into a send request. Title and body are left
// to the formatter's defaults.
func (e ReportEvent) Request() notifications.Request {
	data := make(map[string]any, 5)
	if e.IsMaintenance != nil {
		data["is_maintenance"] = e.IsMaintenance
	}
	if e.IsEmergency != nil {
		data["is_emergency"] = e.IsEmergency
	}
	if e.ReportID != nil {
		data["report_id"] = e.ReportID
	}
	if e.Type != "" {
		data["type"] = e.Type
	}
	if e.Description != "" {
		data["description"] = e.Description
	}
	return notifications.Request{
		RecipientID:  e.UserID,
		Priority:     e.Priority,
		ContextLabel: e.SchoolName,
		Data:         data,
	}
}

// ParseEvent decodes a notification payload.
func ParseEvent(payload string) (ReportEvent, error) {
	var event ReportEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return ReportEvent{}, fmt.Errorf("parse report event: %w", err)
	}
	return event, nil
}

// Start opens a dedicated connection and listens on the report_created
// channel. It reconnects automatically on connection loss. Blocks until ctx
// is cancelled. Intended to be called with `go`.
func Start(ctx context.Context, dbURL string, sender Sender, logger *slog.Logger) {
	backoff := reconnectBackoff

	for {
		err := listenLoop(ctx, dbURL, sender, logger)
		if ctx.Err() != nil {
			logger.Info("Report listener stopped (context cancelled)")
			return
		}

		logger.Error("Report listener disconnected, reconnecting...",
			"error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnect)
		case <-ctx.Done():
			return
		}
	}
}

// listenLoop runs a single listen session. Returns when the connection drops
// or the context is cancelled.
func listenLoop(ctx context.Context, dbURL string, sender Sender, logger *slog.Logger) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	_, err = conn.Exec(ctx, "LISTEN "+config.NotifyChannel)
	if err != nil {
		return fmt.Errorf("LISTEN %s: %w", config.NotifyChannel, err)
	}
	logger.Info("Report listener connected", "channel", config.NotifyChannel)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}

		event, err := ParseEvent(notification.Payload)
		if err != nil {
			logger.Warn("Failed to parse report event",
				"payload", notification.Payload, "error", err)
			continue
		}

		logger.Info("Report event received",
			"user_id", event.UserID,
			"report_id", event.ReportID,
			"maintenance", event.IsMaintenance,
			"emergency", event.IsEmergency)

		// Process asynchronously to avoid blocking the listener
		go HandleEvent(ctx, sender, event, logger)
	}
}

// HandleEvent sends the notification for one report. Failures are logged;
// there is no retry.
func HandleEvent(ctx context.Context, sender Sender, event ReportEvent, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	res, err := sender.Send(ctx, event.Request())
	if err != nil {
		logger.Warn("Report notification failed",
			"user_id", event.UserID, "report_id", event.ReportID, "error", err)
		return
	}
	logger.Info("Report notification dispatched",
		"user_id", event.UserID,
		"report_id", event.ReportID,
		"dispatch_id", res.DispatchID,
		"message", res.Summary.Message())
}
