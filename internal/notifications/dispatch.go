package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/albapepper/reportpush/internal/metrics"
	"github.com/albapepper/reportpush/internal/oauth"
)

// Dispatcher fans one notification out to every device of a recipient.
type Dispatcher struct {
	sender  *FCMSender
	workers int
	logger  *slog.Logger
}

// NewDispatcher creates a dispatcher that runs at most workers sends at once.
func NewDispatcher(sender *FCMSender, workers int, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if workers < 1 {
		workers = defaultWorkers
	}
	return &Dispatcher{sender: sender, workers: workers, logger: logger}
}

// Dispatch sends n to each device token and returns one Outcome per token,
// in input order. A failed send is recorded in its Outcome and never stops
// the others. Sends are detached from ctx cancellation once started so
// every token gets an attempt; the sender's client timeout bounds them.
func (d *Dispatcher) Dispatch(ctx context.Context, token oauth.AccessToken, req Request, n Notification, recipient Recipient, deviceTokens []string) []Outcome {
	outcomes := make([]Outcome, len(deviceTokens))
	if len(deviceTokens) == 0 {
		return outcomes
	}

	start := time.Now()
	data := buildData(req, n, recipient)
	sendCtx := context.WithoutCancel(ctx)

	workers := d.workers
	if workers > len(deviceTokens) {
		workers = len(deviceTokens)
	}

	ch := make(chan int, len(deviceTokens))
	for i := range deviceTokens {
		ch <- i
	}
	close(ch)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range ch {
				msg := buildMessage(deviceTokens[i], n, data)
				outcomes[i] = d.sender.Send(sendCtx, token.Value, msg)
				if outcomes[i].Success {
					metrics.PushSends.WithLabelValues("success").Inc()
				} else {
					metrics.PushSends.WithLabelValues("failure").Inc()
				}
			}
		}()
	}
	wg.Wait()

	metrics.DispatchDuration.Observe(time.Since(start).Seconds())
	d.logger.Info("Dispatch complete",
		"recipient", recipient.ID, "devices", len(deviceTokens),
		"duration", time.Since(start).Round(time.Millisecond))
	return outcomes
}

// buildData assembles the string-valued data block shared by every device.
// Caller-supplied keys are kept unless a reserved key overrides them.
func buildData(req Request, n Notification, recipient Recipient) map[string]string {
	data := make(map[string]string, len(req.Data)+10)
	for k, v := range req.Data {
		data[k] = stringify(v)
	}

	reportType := reportTypeNew
	if n.IsMaintenance {
		reportType = reportTypeMaint
	}
	priority := req.Priority
	if priority == "" {
		priority = "routine"
		if n.IsEmergency {
			priority = "high"
		}
	}

	data["type"] = reportType
	data["priority"] = priority
	data["priority_arabic"] = n.PriorityLabel
	data["school_name"] = orDefault(req.ContextLabel, dataNoSchool)
	data["is_emergency"] = strconv.FormatBool(n.IsEmergency)
	data["is_maintenance"] = strconv.FormatBool(n.IsMaintenance)
	data["click_action"] = clickAction
	data["sound"] = "default"
	data["supervisor_username"] = recipient.DisplayName
	return data
}

// buildMessage builds the per-device FCM message. Channel, color, vibration
// and APNs category follow the report category.
func buildMessage(deviceToken string, n Notification, data map[string]string) Message {
	content := MessageContent{Title: n.Title, Body: n.Body}

	androidPriority := "NORMAL"
	if n.IsEmergency {
		androidPriority = "HIGH"
	}

	channel, tag := "supervisor_reports_channel", "supervisor_report"
	category, thread := "SUPERVISOR_REPORT", "supervisor-reports"
	if n.IsMaintenance {
		channel, tag = "supervisor_maintenance_channel", "supervisor_maintenance"
		category, thread = "SUPERVISOR_MAINTENANCE", "supervisor-maintenance"
	}

	var color string
	var vibrate []string
	switch {
	case n.IsMaintenance:
		color, vibrate = "#9C27B0", []string{"0.3s", "0.1s", "0.3s"}
	case n.IsEmergency:
		color, vibrate = "#FF0000", []string{"0.5s", "0.2s", "0.5s"}
	default:
		color, vibrate = "#2196F3", []string{"0.2s"}
	}

	return Message{
		Token:        deviceToken,
		Notification: content,
		Data:         data,
		Android: AndroidConfig{
			Priority: androidPriority,
			Notification: AndroidNotification{
				ChannelID:      channel,
				Sound:          "default",
				ClickAction:    clickAction,
				Color:          color,
				Icon:           "ic_notification",
				Tag:            tag,
				Sticky:         n.IsEmergency,
				VibrateTimings: vibrate,
				Visibility:     "PUBLIC",
			},
			Data: map[string]string{"click_action": clickAction},
		},
		APNS: APNSConfig{Payload: APNSPayload{Aps: APS{
			Sound:    "default",
			Badge:    1,
			Alert:    content,
			Category: category,
			ThreadID: thread,
		}}},
	}
}

// stringify coerces an untyped data value to the string FCM requires.
// Numbers, booleans, maps and slices are written as JSON, so 3.0 becomes
// "3" and nested objects keep their structure.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
