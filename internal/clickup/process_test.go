package clickup

import (
	"encoding/json"
	"testing"
	"time"
)

func rawTask(t *testing.T, js string) Task {
	t.Helper()
	var task Task
	if err := json.Unmarshal([]byte(js), &task); err != nil {
		t.Fatalf("bad task fixture: %v", err)
	}
	return task
}

func TestProcessTaskFieldMatching(t *testing.T) {
	cases := []struct {
		name        string
		task        string
		fields      FieldIDs
		wantPhase   int
		wantPercent int
	}{
		{
			name:        "phase by name with orderindex value",
			task:        `{"id":"t","custom_fields":[{"id":"x","name":"Current Phase","value":{"orderindex":7}}]}`,
			wantPhase:   7,
			wantPercent: 0,
		},
		{
			name:        "phase by configured field id",
			task:        `{"id":"t","custom_fields":[{"id":"abc","name":"Stage","value":3}]}`,
			fields:      FieldIDs{Phase: "abc"},
			wantPhase:   3,
			wantPercent: 0,
		},
		{
			name:        "percent by name from numeric string",
			task:        `{"id":"t","custom_fields":[{"id":"x","name":"% Complete","value":"85"}]}`,
			wantPhase:   0,
			wantPercent: 85,
		},
		{
			name:        "percent by complete substring from number",
			task:        `{"id":"t","custom_fields":[{"id":"x","name":"Tasks Completed","value":40}]}`,
			wantPhase:   0,
			wantPercent: 40,
		},
		{
			name:        "no matching fields defaults to zero",
			task:        `{"id":"t","custom_fields":[{"id":"x","name":"Budget","value":90000}]}`,
			wantPhase:   0,
			wantPercent: 0,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pt := processTask(rawTask(t, tc.task), tc.fields)
			if pt.Phase != tc.wantPhase {
				t.Errorf("phase = %d, want %d", pt.Phase, tc.wantPhase)
			}
			if pt.PercentComplete != tc.wantPercent {
				t.Errorf("percent = %d, want %d", pt.PercentComplete, tc.wantPercent)
			}
		})
	}
}

func TestProcessTaskCanonicalPhase(t *testing.T) {
	cases := []struct {
		phase     int
		wantName  string
		wantCanon string
	}{
		{0, "DUE DILIGENCE/PLANNING", "Planning"},
		{4, "ESTIMATING", "Planning"},
		{6, "PERMITTING", "Permitting"},
		{8, "SHIPPING", "Shipping"},
		{10, "PROJECT CLOSE-OUT", "Close-out"},
		{42, "Phase 42", "Planning"},
	}
	for _, tc := range cases {
		task := Task{ID: "t", CustomFields: []CustomField{
			{ID: "p", Name: "Phase", Value: json.RawMessage(`{"orderindex":` + itoa(tc.phase) + `}`)},
		}}
		pt := processTask(task, FieldIDs{})
		if pt.PhaseName != tc.wantName {
			t.Errorf("phase %d name = %q, want %q", tc.phase, pt.PhaseName, tc.wantName)
		}
		if pt.CanonicalPhase != tc.wantCanon {
			t.Errorf("phase %d canonical = %q, want %q", tc.phase, pt.CanonicalPhase, tc.wantCanon)
		}
	}
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestProcessTaskDefaultStatus(t *testing.T) {
	pt := processTask(Task{ID: "t"}, FieldIDs{})
	if pt.Status != "to do" {
		t.Errorf("status = %q, want %q", pt.Status, "to do")
	}
}

func TestBuildProjectDataPhaseStats(t *testing.T) {
	tasks := []Task{
		phasedTask("t1", 7, 100),
		phasedTask("t2", 7, 50),
		phasedTask("t3", 0, 100),
	}
	data := buildProjectData(ListSummary{ID: "l1", Name: "Austin TX"}, tasks, FieldIDs{})

	if len(data.Phases) != 2 {
		t.Fatalf("got %d phase groups, want 2", len(data.Phases))
	}
	planning, production := data.Phases[0], data.Phases[1]
	if planning.Name != "Planning" || production.Name != "Production" {
		t.Fatalf("phase order: %s, %s", planning.Name, production.Name)
	}
	if production.TotalTasks != 2 || production.CompletedTasks != 1 || production.AverageCompletion != 75 {
		t.Errorf("production stats: %+v", production)
	}
	if data.OverallCompletion != 83 {
		t.Errorf("overall = %d, want 83", data.OverallCompletion)
	}
	if data.Summary.TotalPhases != 2 || data.Summary.TotalTasks != 3 {
		t.Errorf("summary: %+v", data.Summary)
	}
}

func phasedTask(id string, phase, percent int) Task {
	return Task{ID: id, Name: id, CustomFields: []CustomField{
		{ID: "p", Name: "Phase", Value: json.RawMessage(`{"orderindex":` + itoa(phase) + `}`)},
		{ID: "c", Name: "% Complete", Value: json.RawMessage(itoa(percent))},
	}}
}

func TestCalculateTimeline(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	t.Run("no dated tasks gets default window", func(t *testing.T) {
		tl := calculateTimeline(nil, now)
		if !tl.StartDate.Equal(now) || tl.Duration != 30 || tl.Granularity != "daily" {
			t.Errorf("default timeline: %+v", tl)
		}
	})

	mk := func(start, end time.Time) []ProcessedTask {
		return []ProcessedTask{{StartDate: &start, DueDate: &end}}
	}

	t.Run("short span is daily", func(t *testing.T) {
		tl := calculateTimeline(mk(now, now.Add(10*day)), now)
		if tl.Duration != 10 || tl.Granularity != "daily" {
			t.Errorf("timeline: %+v", tl)
		}
	})

	t.Run("mid span is weekly", func(t *testing.T) {
		tl := calculateTimeline(mk(now, now.Add(45*day)), now)
		if tl.Granularity != "weekly" {
			t.Errorf("granularity = %q", tl.Granularity)
		}
	})

	t.Run("long span is monthly", func(t *testing.T) {
		tl := calculateTimeline(mk(now, now.Add(120*day)), now)
		if tl.Granularity != "monthly" {
			t.Errorf("granularity = %q", tl.Granularity)
		}
	})

	t.Run("bounds span min start to max due", func(t *testing.T) {
		a, b := now, now.Add(5*day)
		c, d := now.Add(-3*day), now.Add(2*day)
		tl := calculateTimeline([]ProcessedTask{
			{StartDate: &a, DueDate: &b},
			{StartDate: &c, DueDate: &d},
		}, now)
		if !tl.StartDate.Equal(c) || !tl.EndDate.Equal(b) {
			t.Errorf("bounds: %v..%v", tl.StartDate, tl.EndDate)
		}
		if tl.Duration != 8 {
			t.Errorf("duration = %d, want 8", tl.Duration)
		}
	})
}
