package clickup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"rollout_dashboard/internal/config"
	"rollout_dashboard/internal/metrics"
)

// APIError is a non-2xx response from the ClickUp API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("clickup status %d: %s", e.Status, e.Body)
}

// Client talks to the ClickUp v2 REST API. All calls take a context and
// return explicit errors; the zero value is not usable, construct with New.
type Client struct {
	baseURL string
	token   string
	teamID  string
	spaceID string
	http    *http.Client
}

func New(cfg config.Config) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		token:   cfg.APIToken,
		teamID:  cfg.TeamID,
		spaceID: cfg.ProjectsSpaceID,
		http:    &http.Client{Timeout: cfg.RequestTimeout},
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.token)
	req.Header.Set("Content-Type", "application/json")

	metrics.IncAPIRequest()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.IncAPIFailure()
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		metrics.IncAPIFailure()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// TestConnection verifies the token by listing authorized workspaces.
func (c *Client) TestConnection(ctx context.Context) ConnectionStatus {
	var env teamsEnvelope
	if err := c.get(ctx, "/team", nil, &env); err != nil {
		return ConnectionStatus{Success: false, Error: err.Error()}
	}
	return ConnectionStatus{Success: true, Teams: env.Teams}
}

// ListSpaces returns the spaces in the configured team.
func (c *Client) ListSpaces(ctx context.Context) ([]Space, error) {
	var env spacesEnvelope
	if err := c.get(ctx, "/team/"+c.teamID+"/space", nil, &env); err != nil {
		return nil, err
	}
	return env.Spaces, nil
}

// ListFolders returns the folders of the configured projects space.
func (c *Client) ListFolders(ctx context.Context) ([]Folder, error) {
	var env foldersEnvelope
	if err := c.get(ctx, "/space/"+c.spaceID+"/folder", nil, &env); err != nil {
		return nil, err
	}
	return env.Folders, nil
}

// ListUserProjects flattens every list of the projects space into Project
// rows, covering both folder-nested lists and lists directly under the
// space. Per-folder fetches run concurrently; a folder that fails is logged
// and skipped so one bad folder does not sink the whole listing. The result
// is sorted so callers see a stable order regardless of fan-out timing.
func (c *Client) ListUserProjects(ctx context.Context) ([]Project, error) {
	space, err := c.projectsSpace(ctx)
	if err != nil {
		return nil, err
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		projects []Project
	)
	add := func(rows []Project) {
		mu.Lock()
		projects = append(projects, rows...)
		mu.Unlock()
	}

	folders, err := c.ListFolders(ctx)
	if err != nil {
		log.Printf("clickup: folder listing for space %s failed: %v", space.ID, err)
	}
	for _, folder := range folders {
		wg.Add(1)
		go func(f Folder) {
			defer wg.Done()
			var env listsEnvelope
			if err := c.get(ctx, "/folder/"+f.ID+"/list", nil, &env); err != nil {
				log.Printf("clickup: lists for folder %s (%s) failed: %v", f.ID, f.Name, err)
				return
			}
			rows := make([]Project, 0, len(env.Lists))
			for _, l := range env.Lists {
				rows = append(rows, projectRow(l, f.Name, f.ID, space))
			}
			add(rows)
		}(folder)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		var env listsEnvelope
		if err := c.get(ctx, "/space/"+space.ID+"/list", nil, &env); err != nil {
			log.Printf("clickup: folderless lists for space %s failed: %v", space.ID, err)
			return
		}
		rows := make([]Project, 0, len(env.Lists))
		for _, l := range env.Lists {
			rows = append(rows, projectRow(l, "No Folder", "", space))
		}
		add(rows)
	}()
	wg.Wait()

	sort.Slice(projects, func(i, j int) bool {
		if projects[i].CustomerFolder != projects[j].CustomerFolder {
			return projects[i].CustomerFolder < projects[j].CustomerFolder
		}
		return projects[i].Name < projects[j].Name
	})
	return projects, nil
}

func projectRow(l ListSummary, folderName, folderID string, space Space) Project {
	return Project{
		ID:             l.ID,
		Name:           l.Name,
		CustomerFolder: folderName,
		FolderID:       folderID,
		SpaceID:        space.ID,
		SpaceName:      space.Name,
		TaskCount:      l.TaskCount,
		URL:            l.URL,
		Archived:       l.Archived,
	}
}

func (c *Client) projectsSpace(ctx context.Context) (Space, error) {
	spaces, err := c.ListSpaces(ctx)
	if err != nil {
		return Space{}, err
	}
	for _, s := range spaces {
		if s.ID == c.spaceID {
			return s, nil
		}
	}
	return Space{}, fmt.Errorf("projects space %s not found", c.spaceID)
}

// ListProjectTasks returns every task of a list, closed ones and subtasks
// included.
func (c *Client) ListProjectTasks(ctx context.Context, listID string) ([]Task, error) {
	q := url.Values{}
	q.Set("include_closed", "true")
	q.Set("include_subtasks", "true")
	var env tasksEnvelope
	if err := c.get(ctx, "/list/"+listID+"/task", q, &env); err != nil {
		return nil, err
	}
	return env.Tasks, nil
}

// listDetails fetches a single list's metadata.
func (c *Client) listDetails(ctx context.Context, listID string) (ListSummary, error) {
	var l ListSummary
	if err := c.get(ctx, "/list/"+listID, nil, &l); err != nil {
		return ListSummary{}, err
	}
	return l, nil
}

func parseMillis(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return nil
	}
	var ms int64
	if _, err := fmt.Sscanf(s, "%d", &ms); err != nil {
		return nil
	}
	t := time.UnixMilli(ms).UTC()
	return &t
}
