package listener

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/albapepper/reportpush/internal/apperr"
	"github.com/albapepper/reportpush/internal/notifications"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type recordingSender struct {
	got []notifications.Request
	err error
}

func (s *recordingSender) Send(_ context.Context, req notifications.Request) (*notifications.Result, error) {
	s.got = append(s.got, req)
	if s.err != nil {
		return nil, s.err
	}
	return &notifications.Result{DispatchID: "d-1", Summary: notifications.Aggregate(nil)}, nil
}

func TestParseEvent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		payload         string
		wantErr         bool
		wantMaintenance bool
		wantEmergency   bool
	}{
		{
			name:            "maintenance report",
			payload:         `{"user_id":"U1","school_name":"School A","report_id":"r-1","is_maintenance":true,"type":"maintenance"}`,
			wantMaintenance: true,
		},
		{
			name:          "emergency report",
			payload:       `{"user_id":"U1","priority":"emergency","report_id":42,"is_emergency":true}`,
			wantEmergency: true,
		},
		{
			name:          "emergency flag as string",
			payload:       `{"user_id":"U1","is_emergency":"true"}`,
			wantEmergency: true,
		},
		{
			name:    "emergency string other than true",
			payload: `{"user_id":"U1","is_emergency":"yes"}`,
		},
		{
			name:    "routine report",
			payload: `{"user_id":"U1","priority":"routine"}`,
		},
		{
			name:    "not json",
			payload: `report_created`,
			wantErr: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			event, err := ParseEvent(tc.payload)
			if tc.wantErr {
				if err == nil {
					t.Fatal("ParseEvent() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseEvent() error: %v", err)
			}
			n := notifications.Format(event.Request())
			if n.IsMaintenance != tc.wantMaintenance || n.IsEmergency != tc.wantEmergency {
				t.Errorf("Format(event) = %+v, want maintenance=%v emergency=%v",
					n, tc.wantMaintenance, tc.wantEmergency)
			}
		})
	}
}

func TestEventRequest(t *testing.T) {
	t.Parallel()

	event := ReportEvent{
		UserID:      "U1",
		SchoolName:  "School A",
		Priority:    "high",
		ReportID:    "r-1",
		Description: "broken window",
	}
	req := event.Request()
	if req.RecipientID != "U1" || req.ContextLabel != "School A" || req.Priority != "high" {
		t.Errorf("Request() = %+v", req)
	}
	if req.Data["report_id"] != "r-1" || req.Data["description"] != "broken window" {
		t.Errorf("Data = %v", req.Data)
	}
	if _, ok := req.Data["type"]; ok {
		t.Error("empty type should be omitted from data")
	}
	if _, ok := req.Data["is_emergency"]; ok {
		t.Error("absent is_emergency should be omitted from data")
	}

	flagged := ReportEvent{UserID: "U1", IsEmergency: "true"}.Request()
	if flagged.Data["is_emergency"] != "true" {
		t.Errorf("is_emergency = %#v, want the string passed through", flagged.Data["is_emergency"])
	}
}

func TestHandleEvent(t *testing.T) {
	t.Parallel()

	s := &recordingSender{}
	HandleEvent(context.Background(), s, ReportEvent{UserID: "U1"}, quiet)
	if len(s.got) != 1 || s.got[0].RecipientID != "U1" {
		t.Errorf("sender got %+v", s.got)
	}

	failing := &recordingSender{err: apperr.New(apperr.KindNotFound, "", "no device tokens")}
	HandleEvent(context.Background(), failing, ReportEvent{UserID: "U0"}, quiet)
	if len(failing.got) != 1 {
		t.Errorf("sender calls = %d, want 1", len(failing.got))
	}
}
