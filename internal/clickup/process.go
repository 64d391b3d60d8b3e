package clickup

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"
)

// The remote workflow tracks eleven raw stages; the dashboard collapses
// them into six canonical phases.
var phaseTable = [11]struct {
	Name      string
	Canonical string
}{
	{"DUE DILIGENCE/PLANNING", "Planning"},
	{"DESIGN", "Planning"},
	{"FRANCHISE APPROVAL", "Permitting"},
	{"LANDLORD APPROVAL", "Permitting"},
	{"ESTIMATING", "Planning"},
	{"FRANCHISEE APPROVAL", "Permitting"},
	{"PERMITTING", "Permitting"},
	{"PRODUCTION", "Production"},
	{"SHIPPING", "Shipping"},
	{"INSTALLATION", "Installation"},
	{"PROJECT CLOSE-OUT", "Close-out"},
}

// CanonicalPhases lists the dashboard phases in rollout order.
var CanonicalPhases = []string{"Planning", "Permitting", "Production", "Shipping", "Installation", "Close-out"}

// ProcessedTask is one remote task with the dashboard's custom-field
// domains already extracted.
type ProcessedTask struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Status          string     `json:"status"`
	PercentComplete int        `json:"percentComplete"`
	Phase           int        `json:"phase"`
	PhaseName       string     `json:"phaseName"`
	CanonicalPhase  string     `json:"canonicalPhase"`
	URL             string     `json:"url"`
	DueDate         *time.Time `json:"dueDate,omitempty"`
	StartDate       *time.Time `json:"startDate,omitempty"`
}

// PhaseGroup is the per-phase rollup of a project's tasks.
type PhaseGroup struct {
	Name              string          `json:"name"`
	Tasks             []ProcessedTask `json:"tasks"`
	TotalTasks        int             `json:"totalTasks"`
	CompletedTasks    int             `json:"completedTasks"`
	AverageCompletion int             `json:"averageCompletion"`
}

// Timeline bounds computed from task start/due dates.
type Timeline struct {
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	Duration    int       `json:"duration"`
	Granularity string    `json:"granularity"`
}

// ProjectData is the processed view of one project list.
type ProjectData struct {
	ListID            string          `json:"listId"`
	ListName          string          `json:"listName"`
	Phases            []PhaseGroup    `json:"phases"`
	AllTasks          []ProcessedTask `json:"allTasks"`
	Timeline          Timeline        `json:"timeline"`
	OverallCompletion int             `json:"overallCompletion"`
	Summary           ProjectSummary  `json:"summary"`
}

type ProjectSummary struct {
	TotalPhases       int `json:"totalPhases"`
	TotalTasks        int `json:"totalTasks"`
	OverallCompletion int `json:"overallCompletion"`
}

// FieldIDs carries the configured custom-field id fallbacks used when a
// field cannot be identified by name.
type FieldIDs struct {
	Phase   string
	Percent string
}

// ProcessedProjectData fetches list metadata and tasks concurrently, then
// reduces the tasks into phase groups, timeline bounds, and an overall
// completion figure.
func (c *Client) ProcessedProjectData(ctx context.Context, listID string, fields FieldIDs) (*ProjectData, error) {
	var (
		wg       sync.WaitGroup
		details  ListSummary
		tasks    []Task
		detErr   error
		tasksErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		details, detErr = c.listDetails(ctx, listID)
	}()
	go func() {
		defer wg.Done()
		tasks, tasksErr = c.ListProjectTasks(ctx, listID)
	}()
	wg.Wait()
	if detErr != nil {
		return nil, detErr
	}
	if tasksErr != nil {
		return nil, tasksErr
	}
	return buildProjectData(details, tasks, fields), nil
}

func buildProjectData(details ListSummary, tasks []Task, fields FieldIDs) *ProjectData {
	groups := make(map[string]*PhaseGroup)
	allTasks := make([]ProcessedTask, 0, len(tasks))

	for _, t := range tasks {
		pt := processTask(t, fields)
		allTasks = append(allTasks, pt)

		g, ok := groups[pt.CanonicalPhase]
		if !ok {
			g = &PhaseGroup{Name: pt.CanonicalPhase}
			groups[pt.CanonicalPhase] = g
		}
		g.Tasks = append(g.Tasks, pt)
	}

	// Groups come out in rollout order, empty phases omitted.
	phases := make([]PhaseGroup, 0, len(groups))
	for _, name := range CanonicalPhases {
		g, ok := groups[name]
		if !ok {
			continue
		}
		g.TotalTasks = len(g.Tasks)
		sum := 0
		for _, t := range g.Tasks {
			sum += t.PercentComplete
			if t.PercentComplete == 100 {
				g.CompletedTasks++
			}
		}
		g.AverageCompletion = roundDiv(sum, g.TotalTasks)
		phases = append(phases, *g)
	}

	overall := 0
	if len(allTasks) > 0 {
		sum := 0
		for _, t := range allTasks {
			sum += t.PercentComplete
		}
		overall = roundDiv(sum, len(allTasks))
	}

	return &ProjectData{
		ListID:            details.ID,
		ListName:          details.Name,
		Phases:            phases,
		AllTasks:          allTasks,
		Timeline:          calculateTimeline(allTasks, time.Now().UTC()),
		OverallCompletion: overall,
		Summary: ProjectSummary{
			TotalPhases:       len(phases),
			TotalTasks:        len(allTasks),
			OverallCompletion: overall,
		},
	}
}

func processTask(t Task, fields FieldIDs) ProcessedTask {
	phase := 0
	for _, f := range t.CustomFields {
		if strings.Contains(strings.ToLower(f.Name), "phase") || f.ID == fields.Phase {
			if idx, ok := f.OrderIndex(); ok {
				phase = idx
			} else if n, ok := f.NumberValue(); ok {
				phase = int(n)
			}
			break
		}
	}

	percent := 0
	for _, f := range t.CustomFields {
		name := strings.ToLower(f.Name)
		if strings.Contains(name, "complete") || strings.Contains(name, "%") || f.ID == fields.Percent {
			if n, ok := f.NumberValue(); ok {
				percent = int(n)
			}
			break
		}
	}

	status := t.Status.Status
	if status == "" {
		status = "to do"
	}

	phaseName := fmt.Sprintf("Phase %d", phase)
	canonical := "Planning"
	if phase >= 0 && phase < len(phaseTable) {
		phaseName = phaseTable[phase].Name
		canonical = phaseTable[phase].Canonical
	}

	return ProcessedTask{
		ID:              t.ID,
		Name:            t.Name,
		Status:          status,
		PercentComplete: percent,
		Phase:           phase,
		PhaseName:       phaseName,
		CanonicalPhase:  canonical,
		URL:             t.URL,
		DueDate:         parseMillis(t.DueDate),
		StartDate:       parseMillis(t.StartDate),
	}
}

// calculateTimeline derives project bounds from whatever task dates exist.
// With no dated tasks the project gets a 30-day window starting now.
func calculateTimeline(tasks []ProcessedTask, now time.Time) Timeline {
	var dates []time.Time
	for _, t := range tasks {
		if t.StartDate != nil {
			dates = append(dates, *t.StartDate)
		}
		if t.DueDate != nil {
			dates = append(dates, *t.DueDate)
		}
	}
	if len(dates) == 0 {
		return Timeline{
			StartDate:   now,
			EndDate:     now.Add(30 * 24 * time.Hour),
			Duration:    30,
			Granularity: "daily",
		}
	}

	start, end := dates[0], dates[0]
	for _, d := range dates[1:] {
		if d.Before(start) {
			start = d
		}
		if d.After(end) {
			end = d
		}
	}
	duration := int(math.Ceil(end.Sub(start).Hours() / 24))

	granularity := "daily"
	switch {
	case duration > 90:
		granularity = "monthly"
	case duration > 30:
		granularity = "weekly"
	}
	return Timeline{StartDate: start, EndDate: end, Duration: duration, Granularity: granularity}
}

func roundDiv(sum, n int) int {
	if n == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(n)))
}
