package notifications

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/albapepper/reportpush/internal/apperr"
	"github.com/albapepper/reportpush/internal/metrics"
	"github.com/albapepper/reportpush/internal/oauth"
)

// RecipientDirectory resolves a recipient id. An unknown id is an
// apperr.KindNotFound error.
type RecipientDirectory interface {
	Recipient(ctx context.Context, id string) (Recipient, error)
}

// DeviceDirectory lists the push tokens registered to a recipient.
type DeviceDirectory interface {
	DeviceTokens(ctx context.Context, recipientID string) ([]string, error)
}

// Pusher obtains access tokens and fans notifications out to devices.
// *Gateway is the production implementation.
type Pusher interface {
	Token(ctx context.Context) (oauth.AccessToken, error)
	Dispatch(ctx context.Context, token oauth.AccessToken, req Request, n Notification, recipient Recipient, deviceTokens []string) []Outcome
}

// LogEntry is the summary row written after each completed send.
type LogEntry struct {
	DispatchID   string
	RecipientID  string
	ReportType   string
	TotalCount   int
	SuccessCount int
}

// DispatchLog records completed sends.
type DispatchLog interface {
	Record(ctx context.Context, e LogEntry) error
}

// Result is everything a caller learns from a completed send.
type Result struct {
	DispatchID   string
	Recipient    Recipient
	Notification Notification
	TokensFound  int
	Summary      Summary
}

// Service runs the send pipeline.
type Service struct {
	recipients RecipientDirectory
	devices    DeviceDirectory
	pusher     Pusher
	log        DispatchLog
	logger     *slog.Logger
}

// NewService wires a service. log may be nil.
func NewService(recipients RecipientDirectory, devices DeviceDirectory, pusher Pusher, log DispatchLog, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		recipients: recipients,
		devices:    devices,
		pusher:     pusher,
		log:        log,
		logger:     logger,
	}
}

// Validate checks the fields a send cannot proceed without.
func (r Request) Validate() error {
	if r.RecipientID == "" {
		return apperr.New(apperr.KindValidation, "", "recipientId is required")
	}
	return nil
}

// Send validates, formats, resolves the recipient and devices, then fans
// out. Any error returned aborts before the first device send; per-device
// failures are only reported in the Result.
func (s *Service) Send(ctx context.Context, req Request) (*Result, error) {
	res, err := s.send(ctx, req)
	if err != nil {
		metrics.Requests.WithLabelValues(apperr.KindOf(err).String()).Inc()
		return nil, err
	}
	metrics.Requests.WithLabelValues("ok").Inc()
	return res, nil
}

func (s *Service) send(ctx context.Context, req Request) (*Result, error) {
	// 1. Validate before any I/O
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// 2. Format
	n := Format(req)

	// 3. Recipient
	recipient, err := s.recipients.Recipient(ctx, req.RecipientID)
	if err != nil {
		return nil, err
	}

	// 4. Devices
	tokens, err := s.devices.DeviceTokens(ctx, req.RecipientID)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		s.logger.Info("No device tokens for recipient", "recipient", req.RecipientID)
		return nil, apperr.New(apperr.KindNotFound, "", "no device tokens registered for recipient")
	}

	// 5. Access token
	access, err := s.pusher.Token(ctx)
	if err != nil {
		return nil, err
	}

	// 6. Fan out and aggregate
	start := time.Now()
	summary := Aggregate(s.pusher.Dispatch(ctx, access, req, n, recipient, tokens))

	res := &Result{
		DispatchID:   uuid.NewString(),
		Recipient:    recipient,
		Notification: n,
		TokensFound:  len(tokens),
		Summary:      summary,
	}
	s.logger.Info("Notification sent",
		"dispatch_id", res.DispatchID,
		"recipient", recipient.ID,
		"report_type", n.ReportType(),
		"success", summary.SuccessCount,
		"total", summary.TotalCount,
		"duration", time.Since(start).Round(time.Millisecond))

	if s.log != nil {
		entry := LogEntry{
			DispatchID:   res.DispatchID,
			RecipientID:  recipient.ID,
			ReportType:   n.ReportType(),
			TotalCount:   summary.TotalCount,
			SuccessCount: summary.SuccessCount,
		}
		if err := s.log.Record(context.WithoutCancel(ctx), entry); err != nil {
			s.logger.Warn("dispatch log write failed", "dispatch_id", res.DispatchID, "error", err)
		}
	}
	return res, nil
}
