package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultFCMBaseURL is the FCM HTTP v1 host.
const DefaultFCMBaseURL = "https://fcm.googleapis.com"

// --------------------------------------------------------------------------
// FCM HTTP v1 wire types
// --------------------------------------------------------------------------

type sendRequest struct {
	Message Message `json:"message"`
}

// Message is one FCM v1 message addressed to a single device.
type Message struct {
	Token        string            `json:"token"`
	Notification MessageContent    `json:"notification"`
	Data         map[string]string `json:"data"`
	Android      AndroidConfig     `json:"android"`
	APNS         APNSConfig        `json:"apns"`
}

type MessageContent struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type AndroidConfig struct {
	Priority     string              `json:"priority"`
	Notification AndroidNotification `json:"notification"`
	Data         map[string]string   `json:"data,omitempty"`
}

type AndroidNotification struct {
	ChannelID      string   `json:"channel_id"`
	Sound          string   `json:"sound"`
	ClickAction    string   `json:"click_action"`
	Color          string   `json:"color"`
	Icon           string   `json:"icon"`
	Tag            string   `json:"tag"`
	Sticky         bool     `json:"sticky"`
	VibrateTimings []string `json:"vibrate_timings"`
	Visibility     string   `json:"visibility"`
}

type APNSConfig struct {
	Payload APNSPayload `json:"payload"`
}

type APNSPayload struct {
	Aps APS `json:"aps"`
}

type APS struct {
	Sound    string         `json:"sound"`
	Badge    int            `json:"badge"`
	Alert    MessageContent `json:"alert"`
	Category string         `json:"category"`
	ThreadID string         `json:"thread-id"`
}

// sendResponse covers both the success ({name}) and failure ({error}) bodies.
type sendResponse struct {
	Name  string `json:"name"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// --------------------------------------------------------------------------
// Sender
// --------------------------------------------------------------------------

// FCMSender posts single-device messages to the FCM HTTP v1 API.
type FCMSender struct {
	baseURL    string
	projectID  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewFCMSender creates a sender for one Firebase project. An empty baseURL
// uses DefaultFCMBaseURL.
func NewFCMSender(baseURL, projectID string, timeout time.Duration, logger *slog.Logger) *FCMSender {
	if logger == nil {
		logger = slog.Default()
	}
	if baseURL == "" {
		baseURL = DefaultFCMBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &FCMSender{
		baseURL:    strings.TrimRight(baseURL, "/"),
		projectID:  projectID,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// ProjectID returns the project messages are sent under.
func (s *FCMSender) ProjectID() string { return s.projectID }

func (s *FCMSender) endpoint() string {
	return fmt.Sprintf("%s/v1/projects/%s/messages:send", s.baseURL, s.projectID)
}

// Send delivers msg and converts every failure into a failed Outcome. It
// never returns an error.
func (s *FCMSender) Send(ctx context.Context, accessToken string, msg Message) Outcome {
	out := Outcome{Token: fragment(msg.Token)}

	payload, err := json.Marshal(sendRequest{Message: msg})
	if err != nil {
		out.Error = fmt.Sprintf("encode message: %v", err)
		return out
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint(), bytes.NewReader(payload))
	if err != nil {
		out.Error = fmt.Sprintf("create request: %v", err)
		return out
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		out.Error = fmt.Sprintf("send: %v", err)
		s.logger.Warn("FCM send failed", "token", out.Token, "error", err)
		return out
	}
	defer resp.Body.Close()

	out.Status = resp.StatusCode
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		out.Error = fmt.Sprintf("read response: %v", err)
		return out
	}

	var sr sendResponse
	_ = json.Unmarshal(body, &sr)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if sr.Error != nil && sr.Error.Message != "" {
			out.Error = sr.Error.Message
		} else {
			out.Error = truncate(body, 500)
		}
		s.logger.Warn("FCM send rejected",
			"token", out.Token, "status", resp.StatusCode, "error", out.Error)
		return out
	}

	out.Success = true
	out.MessageID = sr.Name
	s.logger.Debug("FCM send ok", "token", out.Token, "message_id", sr.Name)
	return out
}

func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
