package dashboard

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"rollout_dashboard/internal/clickup"
	"rollout_dashboard/internal/events"
	"rollout_dashboard/internal/location"
	"rollout_dashboard/queue"
)

type fakeClient struct {
	projects    []clickup.Project
	details     map[string]*clickup.ProjectData
	detailErr   map[string]error
	listCalls   int32
	detailCalls int32
}

func (f *fakeClient) ListUserProjects(ctx context.Context) ([]clickup.Project, error) {
	atomic.AddInt32(&f.listCalls, 1)
	return f.projects, nil
}

func (f *fakeClient) ProcessedProjectData(ctx context.Context, listID string, fields clickup.FieldIDs) (*clickup.ProjectData, error) {
	atomic.AddInt32(&f.detailCalls, 1)
	if err := f.detailErr[listID]; err != nil {
		return nil, err
	}
	return f.details[listID], nil
}

type fakeLocator struct {
	records map[string]*location.Record
}

func (f *fakeLocator) LocationFor(ctx context.Context, name string) (*location.Record, error) {
	return f.records[name], nil
}

func newTestAggregator(t *testing.T, client *fakeClient, locator *fakeLocator, ttl time.Duration) *Aggregator {
	t.Helper()
	pool := queue.New(16, 3, time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	pool.Start(ctx)
	return NewAggregator(client, locator, clickup.FieldIDs{}, pool, events.NewBus(), ttl)
}

func scenarioFixtures() (*fakeClient, *fakeLocator) {
	client := &fakeClient{
		projects: []clickup.Project{
			{ID: "p1", Name: "Austin", FolderID: "f1", CustomerFolder: "Acme", TaskCount: 4},
			{ID: "p2", Name: "Miami", FolderID: "f1", CustomerFolder: "Acme", TaskCount: 4},
			{ID: "p3", Name: "Mystery", FolderID: "f1", CustomerFolder: "Acme", TaskCount: 4},
			{ID: "p4", Name: "Elsewhere", FolderID: "f2", CustomerFolder: "Other", TaskCount: 4},
			{ID: "p5", Name: "Archived", FolderID: "f1", CustomerFolder: "Acme", TaskCount: 4, Archived: true},
		},
		details: map[string]*clickup.ProjectData{
			"p1": detail(100, 4),
			"p2": detail(50, 4),
		},
		detailErr: map[string]error{},
	}
	locator := &fakeLocator{records: map[string]*location.Record{
		"Austin": locRecord("Austin", "Austin", "TX", 30.2, -97.7),
		"Miami":  locRecord("Miami", "Miami", "FL", 25.8, -80.2),
	}}
	return client, locator
}

func TestDashboardByFolder(t *testing.T) {
	client, locator := scenarioFixtures()
	agg := newTestAggregator(t, client, locator, 5*time.Minute)

	data, err := agg.DashboardByFolder(context.Background(), "f1")
	if err != nil {
		t.Fatalf("DashboardByFolder: %v", err)
	}
	if data.FolderName != "Acme" {
		t.Errorf("folder name = %q", data.FolderName)
	}
	// Archived p5 and other-folder p4 excluded.
	if data.TotalProjects != 3 || data.ProjectsWithLocation != 2 {
		t.Errorf("counts: total=%d with_location=%d", data.TotalProjects, data.ProjectsWithLocation)
	}
	if data.Overview.OverallCompletion != 75 {
		t.Errorf("overall completion = %d, want 75", data.Overview.OverallCompletion)
	}
	if len(data.Regions) != 4 {
		t.Errorf("regions = %d, want 4", len(data.Regions))
	}
	if len(data.MapPOIs) != 2 {
		t.Errorf("POIs = %d, want 2", len(data.MapPOIs))
	}
	// Only p1 and p2 have both tasks and a location, so only they are fetched.
	if n := atomic.LoadInt32(&client.detailCalls); n != 2 {
		t.Errorf("detail fetches = %d, want 2", n)
	}
}

func TestDashboardByFolderCachesWithinTTL(t *testing.T) {
	client, locator := scenarioFixtures()
	agg := newTestAggregator(t, client, locator, 5*time.Minute)
	ctx := context.Background()

	first, err := agg.DashboardByFolder(ctx, "f1")
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := agg.DashboardByFolder(ctx, "f1")
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if first != second {
		t.Error("cached call should return the identical snapshot")
	}
	if n := atomic.LoadInt32(&client.listCalls); n != 1 {
		t.Errorf("list calls = %d, want 1", n)
	}
}

func TestDashboardByFolderNoProjects(t *testing.T) {
	client, locator := scenarioFixtures()
	agg := newTestAggregator(t, client, locator, time.Minute)

	_, err := agg.DashboardByFolder(context.Background(), "empty")
	if !errors.Is(err, ErrNoProjects) {
		t.Fatalf("err = %v, want ErrNoProjects", err)
	}
}

func TestDetailFetchFailureDegradesProject(t *testing.T) {
	client, locator := scenarioFixtures()
	client.detailErr["p2"] = errors.New("rate limited")
	agg := newTestAggregator(t, client, locator, time.Minute)

	data, err := agg.DashboardByFolder(context.Background(), "f1")
	if err != nil {
		t.Fatalf("DashboardByFolder: %v", err)
	}
	// Miami degrades to location-only: still counted as a location but not
	// in completion math.
	if data.ProjectsWithLocation != 2 {
		t.Errorf("with_location = %d, want 2", data.ProjectsWithLocation)
	}
	if data.Overview.OverallCompletion != 100 {
		t.Errorf("overall completion = %d, want 100 (only Austin has data)", data.Overview.OverallCompletion)
	}
}

func TestClearCacheForcesRecompute(t *testing.T) {
	client, locator := scenarioFixtures()
	agg := newTestAggregator(t, client, locator, time.Hour)
	ctx := context.Background()

	if _, err := agg.DashboardByFolder(ctx, "f1"); err != nil {
		t.Fatalf("first call: %v", err)
	}
	agg.ClearCache("f1")
	if _, err := agg.DashboardByFolder(ctx, "f1"); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if n := atomic.LoadInt32(&client.listCalls); n != 2 {
		t.Errorf("list calls = %d, want 2 after cache clear", n)
	}
}

func TestRunPublishesEvent(t *testing.T) {
	client, locator := scenarioFixtures()
	pool := queue.New(16, 3, time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	bus := events.NewBus()
	sub := bus.Subscribe()
	agg := NewAggregator(client, locator, clickup.FieldIDs{}, pool, bus, time.Minute)

	if _, err := agg.DashboardByFolder(ctx, "f1"); err != nil {
		t.Fatalf("DashboardByFolder: %v", err)
	}

	select {
	case ev := <-sub:
		if ev.Type != events.TypeRunCompleted || ev.FolderID != "f1" {
			t.Errorf("event: %+v", ev)
		}
		if ev.ID == "" {
			t.Error("event id should be set")
		}
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
}
