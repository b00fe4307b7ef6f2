package notifications

import (
	"encoding/json"
	"testing"
)

func TestFormatDeterministic(t *testing.T) {
	t.Parallel()

	req := Request{
		RecipientID:  "U1",
		Priority:     "Emergency",
		ContextLabel: "مدرسة النور",
		Data:         map[string]any{"report_id": "r-9", "is_emergency": "true"},
	}
	first := Format(req)
	for i := 0; i < 50; i++ {
		if got := Format(req); got != first {
			t.Fatalf("Format() call %d = %+v, want %+v", i, got, first)
		}
	}
}

func TestFormatMaintenance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  Request
	}{
		{"is_maintenance flag", Request{Data: map[string]any{"is_maintenance": true}}},
		{"type", Request{Data: map[string]any{"type": "maintenance"}}},
		{"report_type", Request{Data: map[string]any{"report_type": "maintenance"}}},
		{"keyword in title", Request{Title: "طلب صيانة"}},
		{"keyword in body", Request{Body: "يوجد عطل يحتاج صيانة"}},
		{"wins over emergency priority", Request{Priority: "emergency", Data: map[string]any{"is_maintenance": true, "is_emergency": true}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			n := Format(tc.req)
			if !n.IsMaintenance {
				t.Error("IsMaintenance = false, want true")
			}
			if n.IsEmergency {
				t.Error("IsEmergency = true, want false")
			}
			if n.PriorityLabel != maintenanceLabel {
				t.Errorf("PriorityLabel = %q, want %q", n.PriorityLabel, maintenanceLabel)
			}
		})
	}

	t.Run("is_maintenance string is not a signal", func(t *testing.T) {
		t.Parallel()
		n := Format(Request{Data: map[string]any{"is_maintenance": "true"}})
		if n.IsMaintenance {
			t.Error("IsMaintenance = true for string flag, want false")
		}
	})

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		n := Format(Request{ContextLabel: "School A", Data: map[string]any{"is_maintenance": true}})
		if n.Title != "🔧 بلاغ صيانة جديد" {
			t.Errorf("Title = %q", n.Title)
		}
		if n.Body != "لديك طلب صيانة جديد في School A" {
			t.Errorf("Body = %q", n.Body)
		}

		n = Format(Request{Data: map[string]any{"type": "maintenance"}})
		if n.Body != "لديك طلب صيانة جديد في مدرسة غير محددة" {
			t.Errorf("Body without label = %q", n.Body)
		}
	})
}

func TestFormatEmergency(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  Request
		want bool
	}{
		{"priority Emergency", Request{Priority: "Emergency"}, true},
		{"priority HIGH", Request{Priority: "HIGH"}, true},
		{"is_emergency bool", Request{Data: map[string]any{"is_emergency": true}}, true},
		{"is_emergency string", Request{Data: map[string]any{"is_emergency": "true"}}, true},
		{"routine", Request{Priority: "routine"}, false},
		{"no priority", Request{}, false},
		{"is_emergency false", Request{Data: map[string]any{"is_emergency": false}}, false},
		{"is_emergency other string", Request{Data: map[string]any{"is_emergency": "yes"}}, false},
		{"is_emergency number", Request{Data: map[string]any{"is_emergency": float64(1)}}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			n := Format(tc.req)
			if n.IsEmergency != tc.want {
				t.Errorf("IsEmergency = %v, want %v", n.IsEmergency, tc.want)
			}
			if n.IsMaintenance {
				t.Error("IsMaintenance = true, want false")
			}
			wantLabel := routineLabel
			if tc.want {
				wantLabel = emergencyLabel
			}
			if n.PriorityLabel != wantLabel {
				t.Errorf("PriorityLabel = %q, want %q", n.PriorityLabel, wantLabel)
			}
		})
	}
}

func TestFormatRegularDefaults(t *testing.T) {
	t.Parallel()

	n := Format(Request{Priority: "high", ContextLabel: "مدرسة الفجر"})
	if n.Title != "بلاغ عاجل 🚨" {
		t.Errorf("emergency Title = %q", n.Title)
	}
	if want := "المدرسة : مدرسة الفجر\n\nالأولوية : طارئ"; n.Body != want {
		t.Errorf("emergency Body = %q, want %q", n.Body, want)
	}

	n = Format(Request{})
	if n.Title != "بلاغ جديد 📋" {
		t.Errorf("routine Title = %q", n.Title)
	}
	if want := "المدرسة : غير محددة\n\nالأولوية : روتيني"; n.Body != want {
		t.Errorf("routine Body = %q, want %q", n.Body, want)
	}
}

func TestFormatCallerOverrides(t *testing.T) {
	t.Parallel()

	n := Format(Request{Title: "custom title", Body: "custom body", Priority: "emergency"})
	if n.Title != "custom title" || n.Body != "custom body" {
		t.Errorf("got %q / %q, want caller title and body", n.Title, n.Body)
	}
	if !n.IsEmergency {
		t.Error("IsEmergency = false, want true")
	}

	n = Format(Request{Title: "custom", Data: map[string]any{"is_maintenance": true}})
	if n.Title != "custom" {
		t.Errorf("maintenance Title = %q, want caller title", n.Title)
	}
}

func TestRequestUnmarshalAliases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, body     string
		wantRecipient  string
		wantLabel      string
		wantDataLength int
	}{
		{
			name:          "snake_case",
			body:          `{"user_id":"U1","school_name":"School A","data":{"type":"new_report"}}`,
			wantRecipient: "U1", wantLabel: "School A", wantDataLength: 1,
		},
		{
			name:          "camelCase",
			body:          `{"recipientId":" U2 ","contextLabel":"School B"}`,
			wantRecipient: "U2", wantLabel: "School B",
		},
		{
			name:          "snake_case wins",
			body:          `{"user_id":"U1","recipientId":"U2"}`,
			wantRecipient: "U1",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var req Request
			if err := json.Unmarshal([]byte(tc.body), &req); err != nil {
				t.Fatalf("Unmarshal() error: %v", err)
			}
			if req.RecipientID != tc.wantRecipient {
				t.Errorf("RecipientID = %q, want %q", req.RecipientID, tc.wantRecipient)
			}
			if req.ContextLabel != tc.wantLabel {
				t.Errorf("ContextLabel = %q, want %q", req.ContextLabel, tc.wantLabel)
			}
			if len(req.Data) != tc.wantDataLength {
				t.Errorf("len(Data) = %d, want %d", len(req.Data), tc.wantDataLength)
			}
		})
	}
}
