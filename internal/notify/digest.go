package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/quayside/quayside/internal/models"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// NextCronDuration parses a 5-field cron expression and returns the
// duration until the next fire time. Returns 0 on parse error.
func NextCronDuration(expr string) time.Duration {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return 0
	}
	next := sched.Next(time.Now())
	d := time.Until(next)
	if d < 0 {
		return 0
	}
	return d
}

// projectCount holds per-project task totals for the digest.
type projectCount struct {
	ProjectID string
	Name      string
	Tasks     int
	Unplaced  int // tasks in the fallback column (no status)
}

// BuildDigest summarizes every project's task counts into one event.
func BuildDigest(db *gorm.DB) (Event, error) {
	var projects []models.Project
	if err := db.Order("name ASC").Find(&projects).Error; err != nil {
		return Event{}, fmt.Errorf("notify: digest projects: %w", err)
	}

	var lines []string
	var fields []Field
	for _, p := range projects {
		var c projectCount
		c.ProjectID = p.ID
		c.Name = p.Name

		var total, unplaced int64
		if err := db.Model(&models.Task{}).Where("project_id = ?", p.ID).Count(&total).Error; err != nil {
			return Event{}, fmt.Errorf("notify: digest count %s: %w", p.ID, err)
		}
		if err := db.Model(&models.Task{}).Where("project_id = ? AND status_id IS NULL", p.ID).Count(&unplaced).Error; err != nil {
			return Event{}, fmt.Errorf("notify: digest unplaced %s: %w", p.ID, err)
		}
		c.Tasks = int(total)
		c.Unplaced = int(unplaced)

		lines = append(lines, fmt.Sprintf("%s: %d tasks (%d without a column)", c.Name, c.Tasks, c.Unplaced))
		fields = append(fields, Field{Name: c.Name, Value: fmt.Sprintf("%d", c.Tasks)})
	}

	if len(lines) == 0 {
		lines = []string{"No projects yet."}
	}
	return Event{
		Title:  "Quayside daily digest",
		Body:   strings.Join(lines, "\n"),
		Color:  "#439fe0",
		Fields: fields,
	}, nil
}
