package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/albapepper/reportpush/internal/api/respond"
	"github.com/albapepper/reportpush/internal/notifications"
)

// maxBodyBytes caps a send request body.
const maxBodyBytes = 1 << 20

// SendResponse is the body of a completed send. Success is true even when
// some or all devices failed; see SuccessCount and Results.
type SendResponse struct {
	Success            bool                       `json:"success"`
	Message            string                     `json:"message"`
	DispatchID         string                     `json:"dispatchId"`
	TokensFound        int                        `json:"tokensFound"`
	SuccessCount       int                        `json:"successCount"`
	Results            []notifications.Outcome    `json:"results"`
	Notification       notifications.Notification `json:"notification"`
	ReportType         string                     `json:"reportType"`
	SupervisorUsername string                     `json:"supervisorUsername"`
}

// SendNotification delivers a notification to every device of a supervisor.
// @Summary Send a report notification
// @Description Formats the notification, then sends one FCM message per registered device. Per-device failures are reported in results and do not fail the call.
// @Tags notifications
// @Accept json
// @Produce json
// @Param request body notifications.Request true "Send request (user_id or recipientId is required)"
// @Success 200 {object} SendResponse
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /notifications/send [post]
func (h *Handler) SendNotification(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}

	res, err := h.sender.Send(r.Context(), req)
	if err != nil {
		respond.WriteAppError(w, h.logger, err)
		return
	}

	respond.WriteJSONObject(w, http.StatusOK, SendResponse{
		Success:            true,
		Message:            res.Summary.Message(),
		DispatchID:         res.DispatchID,
		TokensFound:        res.TokensFound,
		SuccessCount:       res.Summary.SuccessCount,
		Results:            res.Summary.Outcomes,
		Notification:       res.Notification,
		ReportType:         res.Notification.ReportType(),
		SupervisorUsername: res.Recipient.DisplayName,
	})
}

// PreviewNotification formats a request without sending anything.
// @Summary Preview notification content
// @Description Returns the title, body and priority label a send would use. Makes no network calls.
// @Tags notifications
// @Accept json
// @Produce json
// @Param request body notifications.Request true "Send request"
// @Success 200 {object} notifications.Notification
// @Failure 400 {object} respond.ErrorResponse
// @Router /notifications/preview [post]
func (h *Handler) PreviewNotification(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, notifications.Format(req))
}

// NotificationStatus reports whether push delivery is configured.
// @Summary Push configuration status
// @Description Reports whether a service-account credential is loaded, its project, and token cache state. Never returns key material.
// @Tags notifications
// @Produce json
// @Success 200 {object} notifications.GatewayStatus
// @Router /notifications/status [get]
func (h *Handler) NotificationStatus(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, h.status.Status())
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (notifications.Request, bool) {
	var req notifications.Request
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Could not read request body")
		return req, false
	}
	if len(body) == 0 {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Request body is empty")
		return req, false
	}
	if err := json.Unmarshal(body, &req); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON in request body", err.Error())
		return req, false
	}
	return req, true
}
