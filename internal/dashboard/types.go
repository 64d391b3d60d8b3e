package dashboard

import (
	"time"

	"rollout_dashboard/internal/clickup"
	"rollout_dashboard/internal/location"
)

// ProjectWithLocation joins a project row with its resolved location and,
// when fetched, its detailed task data. Built per aggregation run and
// discarded once the DashboardData snapshot exists.
type ProjectWithLocation struct {
	ID             string               `json:"id"`
	Name           string               `json:"name"`
	CustomerFolder string               `json:"customerFolder"`
	TaskCount      int                  `json:"taskCount"`
	Location       *location.Record     `json:"locationData"`
	Detail         *clickup.ProjectData `json:"projectData,omitempty"`
}

// RegionalMetrics is the per-region rollup. Exactly one entry exists per
// canonical region, zero-filled when no projects map to it.
type RegionalMetrics struct {
	Region               string   `json:"region"`
	TotalLocations       int      `json:"totalLocations"`
	CompletedLocations   int      `json:"completedLocations"`
	CompletionPercentage int      `json:"completionPercentage"`
	CurrentPhase         string   `json:"currentPhase"`
	ScheduleStatus       string   `json:"scheduleStatus"`
	IssuesCount          int      `json:"issuesCount"`
	States               []string `json:"states"`
}

// ProjectTimeline places the rollout on the six-phase sequence.
type ProjectTimeline struct {
	Phases            []string `json:"phases"`
	CurrentPhaseIndex int      `json:"currentPhaseIndex"`
}

// Overview is the folder-level health summary.
type Overview struct {
	TotalLocations     int             `json:"totalLocations"`
	CompletedLocations int             `json:"completedLocations"`
	OverallCompletion  int             `json:"overallCompletion"`
	ProjectHealthScore int             `json:"projectHealthScore"`
	ScheduleStatus     string          `json:"scheduleStatus"`
	DaysAheadBehind    int             `json:"daysAheadBehind"`
	ProjectTimeline    ProjectTimeline `json:"projectTimeline"`
}

// POI is one map marker.
type POI struct {
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	Text string  `json:"text"`
}

// ActivityItem is one synthetic feed entry. Time labels are derived from
// feed position, not real timestamps.
type ActivityItem struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Text string `json:"text"`
	Time string `json:"time"`
}

// DashboardData is one complete dashboard snapshot for a folder.
type DashboardData struct {
	FolderName           string            `json:"folderName"`
	TotalProjects        int               `json:"totalProjects"`
	ProjectsWithLocation int               `json:"projectsWithLocation"`
	Overview             Overview          `json:"overview"`
	Regions              []RegionalMetrics `json:"regions"`
	MapPOIs              []POI             `json:"mapPOIs"`
	ActivityFeed         []ActivityItem    `json:"activityFeed"`
	LastUpdated          time.Time         `json:"lastUpdated"`
}
