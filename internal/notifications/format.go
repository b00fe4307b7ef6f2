package notifications

import "fmt"

// Format derives the display content of a request. It is deterministic and
// has no failure path: missing fields fall back to defaults. Maintenance
// detection runs first and suppresses the emergency logic.
func Format(req Request) Notification {
	if isMaintenance(req) {
		label := orDefault(req.ContextLabel, maintenanceNoSchool)
		return Notification{
			Title:         orDefault(req.Title, maintenanceTitle),
			Body:          orDefault(req.Body, fmt.Sprintf(maintenanceBodyFormat, label)),
			PriorityLabel: maintenanceLabel,
			IsMaintenance: true,
		}
	}

	emergency := isEmergency(req)
	priorityLabel, title := routineLabel, routineTitle
	if emergency {
		priorityLabel, title = emergencyLabel, emergencyTitle
	}
	label := orDefault(req.ContextLabel, reportNoSchool)
	body := fmt.Sprintf("المدرسة : %s\n\nالأولوية : %s", label, priorityLabel)

	return Notification{
		Title:         orDefault(req.Title, title),
		Body:          orDefault(req.Body, body),
		PriorityLabel: priorityLabel,
		IsEmergency:   emergency,
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
