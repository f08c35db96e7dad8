// Package notify fans board events out to chat platforms (Slack, Discord).
package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/quayside/quayside/internal/models"
)

// Event is a board happening formatted for display in chat.
type Event struct {
	Title  string  // headline, e.g. `Task moved in "Website relaunch"`
	Body   string  // detail text
	Color  string  // sidebar color hint, e.g. "#36a64f"
	Fields []Field // key-value metadata pairs
}

// Field is a key-value pair displayed alongside an event.
type Field struct {
	Name  string
	Value string
}

// Adapter is the interface platform-specific senders must satisfy.
type Adapter interface {
	// Send delivers one event to the platform.
	Send(ctx context.Context, ev Event) error

	// Close releases the adapter's connection.
	Close() error
}

// Notifier fans events out to all configured adapters. A nil Notifier is
// valid and drops everything, so callers never need to guard.
type Notifier struct {
	adapters []Adapter
}

// New builds a Notifier over the given adapters.
func New(adapters ...Adapter) *Notifier {
	return &Notifier{adapters: adapters}
}

// send delivers ev to every adapter, logging failures rather than
// propagating them: a chat outage must not fail the request that
// produced the event.
func (n *Notifier) send(ctx context.Context, ev Event) {
	if n == nil {
		return
	}
	for _, a := range n.adapters {
		if err := a.Send(ctx, ev); err != nil {
			log.Printf("notify: send %q: %v", ev.Title, err)
		}
	}
}

// Close shuts down all adapters.
func (n *Notifier) Close() {
	if n == nil {
		return
	}
	for _, a := range n.adapters {
		if err := a.Close(); err != nil {
			log.Printf("notify: close adapter: %v", err)
		}
	}
}

// TaskMoved announces a kanban move. column names the target column.
func (n *Notifier) TaskMoved(ctx context.Context, proj *models.Project, t *models.Task, column string) {
	n.send(ctx, Event{
		Title: fmt.Sprintf("Task moved in %q", proj.Name),
		Body:  fmt.Sprintf("%s is now in %s", t.Name, column),
		Color: "#439fe0",
		Fields: []Field{
			{Name: "Task", Value: t.ID},
			{Name: "Column", Value: column},
		},
	})
}

// TasksGenerated announces a generated task tree.
func (n *Notifier) TasksGenerated(ctx context.Context, proj *models.Project, count, totalMinutes int) {
	n.send(ctx, Event{
		Title: fmt.Sprintf("Tasks generated for %q", proj.Name),
		Body:  fmt.Sprintf("%d tasks drafted, %d minutes estimated", count, totalMinutes),
		Color: "#36a64f",
		Fields: []Field{
			{Name: "Tasks", Value: fmt.Sprintf("%d", count)},
			{Name: "Estimate", Value: fmt.Sprintf("%d min", totalMinutes)},
		},
	})
}

// ProjectCreated announces a new project.
func (n *Notifier) ProjectCreated(ctx context.Context, proj *models.Project) {
	n.send(ctx, Event{
		Title: fmt.Sprintf("Project created: %q", proj.Name),
		Body:  proj.Description,
		Color: "#36a64f",
		Fields: []Field{
			{Name: "Project", Value: proj.ID},
		},
	})
}

// Digest sends a periodic summary event.
func (n *Notifier) Digest(ctx context.Context, ev Event) {
	n.send(ctx, ev)
}
