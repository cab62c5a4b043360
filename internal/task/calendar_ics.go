package task

import (
	"fmt"
	"strings"
	"time"

	"dailytasks/internal/model"
)

const icsDateLayout = "20060102"

// BuildTaskCalendarICS renders a task as a single iCalendar event. Tasks
// with a due time become one-hour timed events carrying a VALARM for the
// reminder offset; all-day tasks become date events.
func BuildTaskCalendarICS(t model.Task, now time.Time) (string, error) {
	dueRaw := strings.TrimSpace(t.DueDate)
	if dueRaw == "" {
		return "", fmt.Errorf("task due date required for calendar export")
	}

	title := strings.TrimSpace(t.Title)
	if title == "" {
		title = "DailyTasks Task"
	}
	desc := strings.TrimSpace(t.Description)

	uid := fmt.Sprintf("task-%s@dailytasks", strings.TrimSpace(string(t.ID)))
	if strings.TrimSpace(string(t.ID)) == "" {
		uid = fmt.Sprintf("task-export-%d@dailytasks", now.UnixNano())
	}

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//DailyTasks//Task Export//EN",
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"BEGIN:VEVENT",
		"UID:" + escapeICSText(uid),
		"DTSTAMP:" + now.UTC().Format("20060102T150405Z"),
		"SUMMARY:" + escapeICSText(title),
	}

	if strings.TrimSpace(t.DueTime) != "" {
		due, err := t.DueInstant(time.Local)
		if err != nil {
			return "", fmt.Errorf("task due date/time must be YYYY-MM-DD and HH:mm")
		}
		lines = append(lines,
			"DTSTART:"+due.Format("20060102T150405"),
			"DTEND:"+due.Add(time.Hour).Format("20060102T150405"),
		)
	} else {
		due, err := time.ParseInLocation("2006-01-02", dueRaw, time.Local)
		if err != nil {
			return "", fmt.Errorf("task due date must be YYYY-MM-DD")
		}
		lines = append(lines,
			"DTSTART;VALUE=DATE:"+due.Format(icsDateLayout),
			"DTEND;VALUE=DATE:"+due.AddDate(0, 0, 1).Format(icsDateLayout),
		)
	}

	if desc != "" {
		lines = append(lines, "DESCRIPTION:"+escapeICSText(desc))
	}

	if t.HasReminder() {
		lines = append(lines,
			"BEGIN:VALARM",
			"ACTION:DISPLAY",
			"DESCRIPTION:"+escapeICSText(title),
			fmt.Sprintf("TRIGGER:-PT%dM", t.Reminder),
			"END:VALARM",
		)
	}

	lines = append(lines, "END:VEVENT", "END:VCALENDAR", "")
	return strings.Join(lines, "\r\n"), nil
}

func escapeICSText(s string) string {
	repl := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\r\n", "\\n",
		"\n", "\\n",
		"\r", "\\n",
	)
	return repl.Replace(s)
}
