// Package notifications formats report notifications for supervisors and
// delivers them to every registered device through FCM HTTP v1.
//
// Pipeline: validate → format → look up recipient → look up devices →
// get access token → fan out per device → aggregate.
package notifications

import (
	"encoding/json"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	maintenanceKeyword = "صيانة"

	maintenanceTitle      = "🔧 بلاغ صيانة جديد"
	maintenanceBodyFormat = "لديك طلب صيانة جديد في %s"
	maintenanceLabel      = "صيانة"
	maintenanceNoSchool   = "مدرسة غير محددة"

	emergencyTitle = "بلاغ عاجل 🚨"
	routineTitle   = "بلاغ جديد 📋"
	emergencyLabel = "طارئ"
	routineLabel   = "روتيني"
	reportNoSchool = "غير محددة"

	// Fallback for the school_name data key when the request carries none.
	dataNoSchool = "غير محدد"
)

const (
	defaultWorkers  = 4
	defaultTimeout  = 10 * time.Second
	fragmentLen     = 20
	clickAction     = "FLUTTER_NOTIFICATION_CLICK"
	reportTypeMaint = "maintenance"
	reportTypeNew   = "new_report"
)

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Request is an inbound send request. Both the snake_case names used by the
// mobile backend and the camelCase API names are accepted on input.
type Request struct {
	RecipientID  string         `json:"user_id"`
	Title        string         `json:"title,omitempty"`
	Body         string         `json:"body,omitempty"`
	Priority     string         `json:"priority,omitempty"`
	ContextLabel string         `json:"school_name,omitempty"`
	Data         map[string]any `json:"data,omitempty"`
}

// UnmarshalJSON accepts recipientId and contextLabel as aliases.
func (r *Request) UnmarshalJSON(b []byte) error {
	type plain Request
	var aux struct {
		plain
		RecipientIDAlt  string `json:"recipientId"`
		ContextLabelAlt string `json:"contextLabel"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*r = Request(aux.plain)
	if r.RecipientID == "" {
		r.RecipientID = aux.RecipientIDAlt
	}
	if r.ContextLabel == "" {
		r.ContextLabel = aux.ContextLabelAlt
	}
	r.RecipientID = strings.TrimSpace(r.RecipientID)
	return nil
}

// Notification is the formatted, display-ready content of a request.
type Notification struct {
	Title         string `json:"title"`
	Body          string `json:"body"`
	PriorityLabel string `json:"priorityLabel"`
	IsEmergency   bool   `json:"isEmergency"`
	IsMaintenance bool   `json:"isMaintenance"`
}

// ReportType is "maintenance" or "regular", as reported to API callers.
func (n Notification) ReportType() string {
	if n.IsMaintenance {
		return "maintenance"
	}
	return "regular"
}

// Recipient is a supervisor that owns zero or more devices.
type Recipient struct {
	ID          string
	DisplayName string
}

// Outcome is the result of one device send. Token holds only a leading
// fragment of the device token.
type Outcome struct {
	Token     string `json:"token"`
	Success   bool   `json:"success"`
	Status    int    `json:"status,omitempty"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// fragment returns the loggable prefix of a device token.
func fragment(token string) string {
	r := []rune(token)
	if len(r) > fragmentLen {
		r = r[:fragmentLen]
	}
	return string(r) + "..."
}
