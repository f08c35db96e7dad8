// Package taskgen turns a free-text project description into a persisted
// task tree, using an LLM to draft a numbered outline and a parser to
// convert that outline into tasks with aggregated duration estimates.
package taskgen

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Node is one parsed outline item.
type Node struct {
	Name            string
	DurationMinutes int
	Children        []*Node
}

// Duration conversion: a week is five 8-hour workdays.
const (
	minutesPerHour = 60
	minutesPerDay  = 8 * minutesPerHour
	minutesPerWeek = 5 * minutesPerDay
)

var (
	// durationRe matches a trailing estimate like "[30 minutes]" or "[1.5 hours]".
	durationRe = regexp.MustCompile(`\[(\d+(?:\.\d+)?)\s*(minute|hour|day|week)s?\]`)
	// primaryRe matches an unindented top-level item: "2. Ship it".
	primaryRe = regexp.MustCompile(`^(\d+)\.\s+(.+)`)
	// subRe matches an indented item with a dotted path: "  1.2.3 Step".
	subRe = regexp.MustCompile(`^\s+(\d+(?:\.\d+)+)\.?\s+(.+)`)
)

// BuildTree parses an outline into a single task tree. With exactly one
// top-level item, that item is the root. With several, a synthetic root
// named after the project is added and the items become its children.
func BuildTree(projectName, outline string) (*Node, error) {
	roots := parseOutline(outline)
	if len(roots) == 0 {
		return nil, fmt.Errorf("taskgen: no tasks found in outline")
	}
	if len(roots) == 1 {
		return roots[0], nil
	}

	total := 0
	for _, r := range roots {
		total += r.DurationMinutes
	}
	return &Node{
		Name:            projectName,
		DurationMinutes: total,
		Children:        roots,
	}, nil
}

// parseOutline walks the outline bottom-to-top so each parent sees its
// children's durations before its own line is classified. pending holds
// the run of subtasks at the current depth; meeting a shallower line
// folds the run into it as children.
func parseOutline(outline string) []*Node {
	lines := strings.Split(outline, "\n")

	var roots []*Node
	var pending []*Node
	depth := 0

	for i := len(lines) - 1; i >= 0; i-- {
		line, minutes := splitDuration(lines[i])

		if m := primaryRe.FindStringSubmatch(line); m != nil {
			node := &Node{Name: strings.TrimSpace(m[2]), DurationMinutes: minutes}
			if len(pending) > 0 {
				node.Children = pending
				if sum := sumDurations(pending); sum > 0 {
					node.DurationMinutes = sum
				}
				pending = nil
				depth = 0
			}
			roots = append([]*Node{node}, roots...)
			continue
		}

		m := subRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		d := strings.Count(m[1], ".") + 1
		node := &Node{Name: strings.TrimSpace(m[2]), DurationMinutes: minutes}
		if depth == 0 {
			depth = d
		}
		if d < depth {
			node.Children = pending
			node.DurationMinutes = sumDurations(pending)
			pending = nil
			depth = d
		}
		pending = append([]*Node{node}, pending...)
	}

	return roots
}

// splitDuration strips a trailing [quantity unit] annotation from the
// line and converts it to whole minutes (fractions truncate). Lines
// without an annotation report 0.
func splitDuration(line string) (string, int) {
	m := durationRe.FindStringSubmatch(line)
	if m == nil {
		return line, 0
	}
	if cut := strings.LastIndex(line, " ["); cut >= 0 {
		line = line[:cut]
	}

	qty, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return line, 0
	}
	switch m[2] {
	case "week":
		return line, int(minutesPerWeek * qty)
	case "day":
		return line, int(minutesPerDay * qty)
	case "hour":
		return line, int(minutesPerHour * qty)
	default:
		return line, int(qty)
	}
}

func sumDurations(nodes []*Node) int {
	total := 0
	for _, n := range nodes {
		total += n.DurationMinutes
	}
	return total
}
