package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"rollout_dashboard/internal/clickup"
	"rollout_dashboard/internal/config"
	"rollout_dashboard/internal/dashboard"
	"rollout_dashboard/internal/events"
	"rollout_dashboard/internal/location"
	"rollout_dashboard/internal/metrics"
	"rollout_dashboard/queue"
)

// DashboardService produces and invalidates folder snapshots.
type DashboardService interface {
	DashboardByFolder(ctx context.Context, folderID string) (*dashboard.DashboardData, error)
	ClearCache(folderID string)
	ClearAll()
}

// RemoteAPI is the slice of the task client the router exposes directly.
type RemoteAPI interface {
	ListUserProjects(ctx context.Context) ([]clickup.Project, error)
	TestConnection(ctx context.Context) clickup.ConnectionStatus
}

// RegionReader serves the location index endpoints.
type RegionReader interface {
	LocationsForRegion(ctx context.Context, region string) ([]*location.Record, error)
	RegionalSummaries(ctx context.Context) ([]location.Summary, error)
}

// Router builds HTTP handlers for /api and /ops.
type Router struct {
	cfg     config.Config
	dash    DashboardService
	remote  RemoteAPI
	regions RegionReader
	pool    *queue.Queue
	bus     *events.Bus
}

func NewRouter(cfg config.Config, dash DashboardService, remote RemoteAPI, regions RegionReader, pool *queue.Queue, bus *events.Bus) *Router {
	return &Router{cfg: cfg, dash: dash, remote: remote, regions: regions, pool: pool, bus: bus}
}

func (r *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/dashboard", r.dashboard)
	mux.HandleFunc("/api/projects", r.projects)
	mux.HandleFunc("/api/regions", r.regionSummaries)
	mux.HandleFunc("/api/regions/", r.regionLocations)
	mux.HandleFunc("/ops/health", r.health)
	mux.HandleFunc("/ops/status", r.status)
	mux.HandleFunc("/ops/connection", r.connection)
	mux.HandleFunc("/ops/cache/clear", r.clearCache)
	mux.HandleFunc("/ops/events", r.events)
}

func (r *Router) dashboard(w http.ResponseWriter, req *http.Request) {
	folderID := req.URL.Query().Get("folder")
	if folderID == "" {
		http.Error(w, "missing folder parameter", http.StatusBadRequest)
		return
	}

	data, err := r.dash.DashboardByFolder(req.Context(), folderID)
	if err != nil {
		r.dashboardError(w, folderID, err)
		return
	}
	respondJSON(w, data)
}

func (r *Router) dashboardError(w http.ResponseWriter, folderID string, err error) {
	log.Printf("http: dashboard for folder %s failed: %v", folderID, err)
	var apiErr *clickup.APIError
	switch {
	case errors.Is(err, dashboard.ErrNoProjects):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, location.ErrNotConfigured):
		http.Error(w, err.Error(), http.StatusInternalServerError)
	case errors.As(err, &apiErr):
		http.Error(w, fmt.Sprintf("upstream API error: %v", err), http.StatusBadGateway)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (r *Router) projects(w http.ResponseWriter, req *http.Request) {
	list, err := r.remote.ListUserProjects(req.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	respondJSON(w, map[string]any{"projects": list, "count": len(list)})
}

func (r *Router) regionSummaries(w http.ResponseWriter, req *http.Request) {
	sums, err := r.regions.RegionalSummaries(req.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, sums)
}

func (r *Router) regionLocations(w http.ResponseWriter, req *http.Request) {
	// /api/regions/{region}/locations
	path := strings.TrimPrefix(req.URL.Path, "/api/regions/")
	region, rest, found := strings.Cut(path, "/")
	if !found || rest != "locations" || region == "" {
		http.NotFound(w, req)
		return
	}
	recs, err := r.regions.LocationsForRegion(req.Context(), region)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, map[string]any{"region": region, "locations": recs, "count": len(recs)})
}

func (r *Router) health(w http.ResponseWriter, req *http.Request) {
	if !r.pool.Healthy() {
		http.Error(w, "fetch queue not started", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) status(w http.ResponseWriter, req *http.Request) {
	stats := r.pool.Stats()
	respondJSON(w, map[string]any{
		"environment": r.cfg.Environment,
		"workers":     stats.WorkerCount,
		"queue": map[string]any{
			"length":    stats.Length,
			"capacity":  stats.Capacity,
			"processed": stats.Processed,
			"failed":    stats.Failed,
		},
		"counters": metrics.Snapshot(),
	})
}

func (r *Router) connection(w http.ResponseWriter, req *http.Request) {
	st := r.remote.TestConnection(req.Context())
	if !st.Success {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(st)
		return
	}
	respondJSON(w, st)
}

func (r *Router) clearCache(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	folderID := req.URL.Query().Get("folder")
	if folderID != "" {
		r.dash.ClearCache(folderID)
	} else {
		r.dash.ClearAll()
	}
	respondJSON(w, map[string]any{"status": "cleared", "folder": folderID})
}

// events streams bus events as server-sent events until the client goes
// away.
func (r *Router) events(w http.ResponseWriter, req *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	sub := r.bus.Subscribe()
	for {
		select {
		case <-req.Context().Done():
			return
		case ev := <-sub:
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, payload)
			flusher.Flush()
		}
	}
}

func respondJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write json: %v", err)
	}
}
