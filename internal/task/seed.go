package task

import (
	"time"

	"dailytasks/internal/model"
)

// SeedTasks is the first-run collection: five tasks over today, tomorrow and
// the day after, covering every priority and both finished and unfinished
// work, so the app is never empty before the user has created anything.
func SeedTasks(now time.Time) []model.Task {
	today := now.Format("2006-01-02")
	tomorrow := now.AddDate(0, 0, 1).Format("2006-01-02")
	dayAfter := now.AddDate(0, 0, 2).Format("2006-01-02")

	return []model.Task{
		{
			ID:          newID(),
			Title:       "Design the new dashboard",
			Description: "Create mockups for the new dashboard design in Figma.",
			DueDate:     today,
			DueTime:     "14:00",
			Reminder:    15,
			Priority:    model.PriorityHigh,
			Status:      model.StatusInProgress,
		},
		{
			ID:          newID(),
			Title:       "Develop the API endpoints",
			Description: "Set up the necessary API endpoints for task management.",
			DueDate:     tomorrow,
			Priority:    model.PriorityHigh,
			Status:      model.StatusTodo,
		},
		{
			ID:          newID(),
			Title:       "Review PR from John",
			Description: "Go through the pull request for the new authentication feature.",
			DueDate:     today,
			DueTime:     "10:30",
			Priority:    model.PriorityMedium,
			Status:      model.StatusTodo,
		},
		{
			ID:          newID(),
			Title:       "Weekly team meeting",
			Description: "Prepare slides for the weekly sync-up.",
			DueDate:     dayAfter,
			Priority:    model.PriorityLow,
			Status:      model.StatusTodo,
		},
		{
			ID:          newID(),
			Title:       "Fix bug #1024",
			Description: "Investigate and fix the critical bug reported by QA.",
			DueDate:     today,
			Priority:    model.PriorityHigh,
			Status:      model.StatusDone,
		},
	}
}
