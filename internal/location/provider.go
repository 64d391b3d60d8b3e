package location

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"sync"

	"rollout_dashboard/internal/clickup"
)

// ErrNotConfigured means the intake list id is missing from configuration;
// the provider cannot build its index without it.
var ErrNotConfigured = errors.New("location: intake list id not configured")

// Record is the geographic/franchise metadata for one project, extracted
// from an intake task's custom fields.
type Record struct {
	ProjectName    string   `json:"projectName"`
	Street         string   `json:"street,omitempty"`
	City           string   `json:"city,omitempty"`
	State          string   `json:"state,omitempty"`
	Zip            string   `json:"zip,omitempty"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
	Region         string   `json:"region,omitempty"`
	FranchiseeName string   `json:"franchiseeName,omitempty"`
	OrderTotal     int      `json:"orderTotal"`
	ProjectType    string   `json:"projectType,omitempty"`
}

// HasCoordinates reports whether both latitude and longitude are present.
func (r *Record) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// Summary is the per-region aggregation of the intake index.
type Summary struct {
	Region            string   `json:"region"`
	TotalLocations    int      `json:"totalLocations"`
	States            []string `json:"states"`
	AverageOrderValue int      `json:"averageOrderValue"`
}

// TaskLister is the slice of the remote client the provider needs.
type TaskLister interface {
	ListProjectTasks(ctx context.Context, listID string) ([]clickup.Task, error)
}

// Provider indexes the project-intake list and resolves human-entered
// project names to location records. Safe for concurrent use.
type Provider struct {
	client       TaskLister
	intakeListID string

	mu          sync.Mutex
	initialized bool
	keys        []string // insertion order, so fallback matching is deterministic
	index       map[string]*Record
	records     []*Record
}

func NewProvider(client TaskLister, intakeListID string) *Provider {
	return &Provider{
		client:       client,
		intakeListID: intakeListID,
		index:        make(map[string]*Record),
	}
}

// Initialize builds the name index from the intake list. Idempotent: only
// the first successful call fetches; later calls return immediately.
func (p *Provider) Initialize(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initialized {
		return nil
	}
	if p.intakeListID == "" {
		return ErrNotConfigured
	}

	tasks, err := p.client.ListProjectTasks(ctx, p.intakeListID)
	if err != nil {
		return fmt.Errorf("location: fetch intake list: %w", err)
	}
	if len(tasks) == 0 {
		return errors.New("location: no tasks in intake list")
	}

	for _, task := range tasks {
		rec := recordFromTask(task)
		if rec == nil {
			continue
		}
		replaced := p.index[rec.ProjectName]
		p.store(rec.ProjectName, rec)
		p.store(cleanName(rec.ProjectName), rec)
		if replaced != nil {
			// Same raw name seen twice: the later task wins outright.
			for i, old := range p.records {
				if old == replaced {
					p.records[i] = rec
					break
				}
			}
		} else {
			p.records = append(p.records, rec)
		}
	}
	log.Printf("location: indexed %d records from %d intake tasks", len(p.records), len(tasks))

	p.initialized = true
	return nil
}

// store keeps insertion order; a duplicate key overwrites the record but
// keeps its original position (last task wins).
func (p *Provider) store(key string, rec *Record) {
	if _, ok := p.index[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.index[key] = rec
}

// recordFromTask extracts a Record from an intake task's custom fields.
// Tasks with neither a state nor a full coordinate pair carry nothing the
// dashboard can use and are dropped.
func recordFromTask(task clickup.Task) *Record {
	rec := &Record{ProjectName: task.Name}
	for _, f := range task.CustomFields {
		switch f.Name {
		case "Street":
			rec.Street = f.StringValue()
		case "City":
			rec.City = f.StringValue()
		case "State":
			rec.State = f.StringValue()
		case "Zip":
			rec.Zip = f.StringValue()
		case "Latitude":
			if v, ok := f.NumberValue(); ok && v != 0 {
				rec.Latitude = &v
			}
		case "Longitude":
			if v, ok := f.NumberValue(); ok && v != 0 {
				rec.Longitude = &v
			}
		case "Franchisee Name":
			rec.FranchiseeName = f.StringValue()
		case "Order Total":
			if v, ok := f.NumberValue(); ok {
				rec.OrderTotal = int(v)
			}
		case "Project Type":
			rec.ProjectType = f.StringValue()
		}
	}
	if rec.State != "" {
		rec.Region = RegionForState(rec.State)
	}
	if rec.State == "" && !rec.HasCoordinates() {
		return nil
	}
	return rec
}

// LocationFor resolves a project name against the index. Resolution order:
// exact key, "<Brand> - <Suffix>" convention, cleaned-name exact, then
// fuzzy word overlap. A nil record with nil error means no location data.
func (p *Provider) LocationFor(ctx context.Context, projectName string) (*Record, error) {
	if err := p.Initialize(ctx); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if rec, ok := p.index[projectName]; ok {
		return rec, nil
	}

	for _, key := range p.keys {
		if strings.Contains(key, " - ") && strings.HasSuffix(key, projectName) {
			return p.index[key], nil
		}
	}

	clean := cleanName(projectName)
	if rec, ok := p.index[clean]; ok {
		return rec, nil
	}

	return p.fuzzyMatch(clean), nil
}

func (p *Provider) fuzzyMatch(clean string) *Record {
	queryWords := meaningfulWords(clean)
	if len(queryWords) == 0 {
		return nil
	}
	threshold := int(math.Round(float64(len(queryWords)) / 2))
	if threshold < 1 {
		threshold = 1
	}

	for _, key := range p.keys {
		keyWords := meaningfulWords(cleanName(key))
		matched := 0
		for _, qw := range queryWords {
			for _, kw := range keyWords {
				if strings.Contains(kw, qw) || strings.Contains(qw, kw) {
					matched++
					break
				}
			}
		}
		if matched > 0 && matched >= threshold {
			return p.index[key]
		}
	}
	return nil
}

// LocationsForRegion returns every indexed record in the given region.
func (p *Provider) LocationsForRegion(ctx context.Context, region string) ([]*Record, error) {
	if err := p.Initialize(ctx); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []*Record
	for _, rec := range p.records {
		if rec.Region == region {
			out = append(out, rec)
		}
	}
	return out, nil
}

// RegionalSummaries aggregates the index per region: location count,
// distinct states, and mean order value. Regions follow the canonical
// order; regions without records are omitted.
func (p *Provider) RegionalSummaries(ctx context.Context) ([]Summary, error) {
	if err := p.Initialize(ctx); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	byRegion := make(map[string][]*Record)
	for _, rec := range p.records {
		if rec.Region == "" || rec.Region == "Unknown" {
			continue
		}
		byRegion[rec.Region] = append(byRegion[rec.Region], rec)
	}

	var out []Summary
	for _, region := range Regions {
		recs := byRegion[region]
		if len(recs) == 0 {
			continue
		}
		seen := make(map[string]bool)
		var states []string
		total := 0
		for _, r := range recs {
			if r.State != "" && !seen[r.State] {
				seen[r.State] = true
				states = append(states, r.State)
			}
			total += r.OrderTotal
		}
		out = append(out, Summary{
			Region:            region,
			TotalLocations:    len(recs),
			States:            states,
			AverageOrderValue: int(math.Round(float64(total) / float64(len(recs)))),
		})
	}
	return out, nil
}

func cleanName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == ' ' {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func meaningfulWords(s string) []string {
	var words []string
	for _, w := range strings.Fields(s) {
		if len(w) > 2 {
			words = append(words, w)
		}
	}
	return words
}
