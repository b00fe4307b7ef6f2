package notifications

import "strings"

// isMaintenance reports whether a request is a maintenance report. Any one
// signal is enough.
func isMaintenance(req Request) bool {
	if v, ok := req.Data["is_maintenance"].(bool); ok && v {
		return true
	}
	if s, _ := req.Data["type"].(string); s == reportTypeMaint {
		return true
	}
	if s, _ := req.Data["report_type"].(string); s == reportTypeMaint {
		return true
	}
	return strings.Contains(req.Title, maintenanceKeyword) ||
		strings.Contains(req.Body, maintenanceKeyword)
}

// isEmergency reports whether a regular report should be escalated.
func isEmergency(req Request) bool {
	if strings.EqualFold(req.Priority, "emergency") || strings.EqualFold(req.Priority, "high") {
		return true
	}
	switch v := req.Data["is_emergency"].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	}
	return false
}
