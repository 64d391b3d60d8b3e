// Package dashboard orchestrates the pipeline from remote project data to
// one cached DashboardData snapshot per folder.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"rollout_dashboard/internal/cache"
	"rollout_dashboard/internal/clickup"
	"rollout_dashboard/internal/events"
	"rollout_dashboard/internal/location"
	"rollout_dashboard/internal/metrics"
	"rollout_dashboard/queue"
)

// ErrNoProjects means the folder contains no non-archived projects.
var ErrNoProjects = errors.New("no projects found in folder")

// RemoteClient is the slice of the task API the aggregator needs.
type RemoteClient interface {
	ListUserProjects(ctx context.Context) ([]clickup.Project, error)
	ProcessedProjectData(ctx context.Context, listID string, fields clickup.FieldIDs) (*clickup.ProjectData, error)
}

// Locator resolves project names to location records.
type Locator interface {
	LocationFor(ctx context.Context, projectName string) (*location.Record, error)
}

// Aggregator builds dashboard snapshots. Results are cached per folder id
// with a TTL; within the TTL repeated calls return the identical snapshot.
type Aggregator struct {
	client    RemoteClient
	locations Locator
	fields    clickup.FieldIDs
	pool      *queue.Queue
	bus       *events.Bus
	cache     *cache.TTL[*DashboardData]
	now       func() time.Time

	enqueueWindow   time.Duration
	enqueueInterval time.Duration
}

func NewAggregator(client RemoteClient, locations Locator, fields clickup.FieldIDs, pool *queue.Queue, bus *events.Bus, ttl time.Duration) *Aggregator {
	return &Aggregator{
		client:          client,
		locations:       locations,
		fields:          fields,
		pool:            pool,
		bus:             bus,
		cache:           cache.New[*DashboardData](ttl),
		now:             time.Now,
		enqueueWindow:   5 * time.Second,
		enqueueInterval: 100 * time.Millisecond,
	}
}

// DashboardByFolder returns the dashboard snapshot for one folder,
// computing it if no live cache entry exists. Concurrent calls for the same
// folder before the first completes may each compute; results are
// idempotent so the duplicate work is harmless.
func (a *Aggregator) DashboardByFolder(ctx context.Context, folderID string) (*DashboardData, error) {
	if data, ok := a.cache.Get(folderID); ok {
		metrics.IncCacheHit()
		return data, nil
	}
	metrics.IncCacheMiss()

	data, err := a.build(ctx, folderID)
	if err != nil {
		metrics.IncDashboardError()
		a.publish(events.TypeRunFailed, folderID, err.Error())
		return nil, err
	}
	metrics.IncDashboardRun()
	a.cache.Set(folderID, data)
	a.publish(events.TypeRunCompleted, folderID, fmt.Sprintf("projects=%d with_location=%d", data.TotalProjects, data.ProjectsWithLocation))
	return data, nil
}

func (a *Aggregator) build(ctx context.Context, folderID string) (*DashboardData, error) {
	all, err := a.client.ListUserProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	var folderProjects []clickup.Project
	for _, p := range all {
		if p.FolderID == folderID && !p.Archived {
			folderProjects = append(folderProjects, p)
		}
	}
	if len(folderProjects) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoProjects, folderID)
	}
	folderName := folderProjects[0].CustomerFolder

	enriched, err := a.enrich(ctx, folderProjects)
	if err != nil {
		return nil, err
	}

	regions := regionalMetrics(enriched)
	withLocation := 0
	for _, p := range enriched {
		if p.Location != nil {
			withLocation++
		}
	}

	data := &DashboardData{
		FolderName:           folderName,
		TotalProjects:        len(folderProjects),
		ProjectsWithLocation: withLocation,
		Overview:             overviewMetrics(enriched, regions),
		Regions:              regions,
		MapPOIs:              mapPOIs(enriched),
		ActivityFeed:         activityFeed(enriched),
		LastUpdated:          a.now().UTC(),
	}
	log.Printf("dashboard: folder %s (%s) projects=%d with_location=%d pois=%d",
		folderID, folderName, data.TotalProjects, data.ProjectsWithLocation, len(data.MapPOIs))
	return data, nil
}

// enrich resolves each project's location, then fetches detailed task data
// through the worker pool for projects that have both tasks and a location.
// A failed or dropped detail fetch degrades that project to location-only.
func (a *Aggregator) enrich(ctx context.Context, projects []clickup.Project) ([]ProjectWithLocation, error) {
	out := make([]ProjectWithLocation, len(projects))
	var wg sync.WaitGroup

	for i, p := range projects {
		i, p := i, p
		out[i] = ProjectWithLocation{
			ID:             p.ID,
			Name:           p.Name,
			CustomerFolder: p.CustomerFolder,
			TaskCount:      p.TaskCount,
		}

		loc, err := a.locations.LocationFor(ctx, p.Name)
		if err != nil {
			return nil, fmt.Errorf("resolve location for %q: %w", p.Name, err)
		}
		out[i].Location = loc

		if loc == nil || p.TaskCount == 0 {
			continue
		}

		wg.Add(1)
		job := queue.Job{
			Folder:  p.FolderID,
			Project: p.ID,
			Work: func(jobCtx context.Context) error {
				detail, err := a.client.ProcessedProjectData(jobCtx, p.ID, a.fields)
				if err != nil {
					log.Printf("dashboard: detail fetch for %q failed: %v", p.Name, err)
					return err
				}
				out[i].Detail = detail
				return nil
			},
			OnFinish: func(error) { wg.Done() },
		}
		enqueued, _ := a.pool.EnqueueWithRetry(ctx, job, a.enqueueWindow, a.enqueueInterval)
		if !enqueued {
			wg.Done()
			log.Printf("dashboard: fetch queue rejected %q, continuing without task data", p.Name)
		}
	}
	wg.Wait()
	return out, nil
}

// ClearCache drops the cached snapshot for one folder.
func (a *Aggregator) ClearCache(folderID string) {
	a.cache.Invalidate(folderID)
	a.publish(events.TypeCacheCleared, folderID, "")
	log.Printf("dashboard: cleared cache for folder %s", folderID)
}

// ClearAll drops every cached snapshot.
func (a *Aggregator) ClearAll() {
	a.cache.InvalidateAll()
	a.publish(events.TypeCacheCleared, "", "all folders")
	log.Printf("dashboard: cleared all cached folders")
}

func (a *Aggregator) publish(eventType, folderID, detail string) {
	if a.bus == nil {
		return
	}
	a.bus.Publish(events.Event{
		ID:       uuid.NewString(),
		Type:     eventType,
		FolderID: folderID,
		Detail:   detail,
		At:       a.now().UTC(),
	})
}
