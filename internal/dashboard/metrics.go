package dashboard

import (
	"fmt"
	"math"

	"rollout_dashboard/internal/clickup"
	"rollout_dashboard/internal/location"
)

// The metric computations below are pure functions of the enriched project
// slice, so they can be exercised without any remote client.

func regionalMetrics(projects []ProjectWithLocation) []RegionalMetrics {
	byRegion := make(map[string][]ProjectWithLocation)
	for _, p := range projects {
		if p.Location != nil && p.Location.Region != "" {
			byRegion[p.Location.Region] = append(byRegion[p.Location.Region], p)
		}
	}

	out := make([]RegionalMetrics, 0, len(location.Regions))
	for _, region := range location.Regions {
		regionProjects := byRegion[region]
		if len(regionProjects) == 0 {
			out = append(out, RegionalMetrics{
				Region:         region,
				CurrentPhase:   "N/A",
				ScheduleStatus: "No Data",
				States:         []string{},
			})
			continue
		}

		completed := 0
		totalCompletion := 0
		withData := 0
		for _, p := range regionProjects {
			if p.Detail == nil {
				continue
			}
			withData++
			totalCompletion += p.Detail.OverallCompletion
			if p.Detail.OverallCompletion == 100 {
				completed++
			}
		}
		avgCompletion := 0
		if withData > 0 {
			avgCompletion = int(math.Round(float64(totalCompletion) / float64(withData)))
		}

		issues := countIssues(regionProjects)

		seen := make(map[string]bool)
		states := []string{}
		for _, p := range regionProjects {
			if s := p.Location.State; s != "" && !seen[s] {
				seen[s] = true
				states = append(states, s)
			}
		}

		out = append(out, RegionalMetrics{
			Region:               region,
			TotalLocations:       len(regionProjects),
			CompletedLocations:   completed,
			CompletionPercentage: avgCompletion,
			CurrentPhase:         mostCommonPhase(regionProjects),
			ScheduleStatus:       regionScheduleStatus(avgCompletion, issues),
			IssuesCount:          issues,
			States:               states,
		})
	}
	return out
}

// mostCommonPhase picks the phase name appearing most often across the
// projects' phase breakdowns. Ties resolve to the earlier rollout phase.
func mostCommonPhase(projects []ProjectWithLocation) string {
	counts := make(map[string]int)
	for _, p := range projects {
		if p.Detail == nil {
			continue
		}
		for _, phase := range p.Detail.Phases {
			counts[phase.Name]++
		}
	}
	if len(counts) == 0 {
		return "Planning"
	}

	best, bestCount := "Planning", 0
	for _, name := range clickup.CanonicalPhases {
		if counts[name] > bestCount {
			best, bestCount = name, counts[name]
		}
	}
	return best
}

// countIssues applies the stalled-project heuristic: low completion on a
// project that clearly has work tracked.
func countIssues(projects []ProjectWithLocation) int {
	n := 0
	for _, p := range projects {
		if p.Detail == nil {
			continue
		}
		if p.Detail.OverallCompletion < 50 && len(p.Detail.AllTasks) > 5 {
			n++
		}
	}
	return n
}

func regionScheduleStatus(avgCompletion, issues int) string {
	switch {
	case avgCompletion >= 90:
		return "Ahead of Schedule"
	case avgCompletion >= 70 && issues == 0:
		return "On Track"
	case issues <= 1:
		return "Minor Delays"
	default:
		return "Behind Schedule"
	}
}

func overviewMetrics(projects []ProjectWithLocation, regions []RegionalMetrics) Overview {
	totalLocations := 0
	completedLocations := 0
	withData := 0
	totalCompletion := 0
	for _, p := range projects {
		if p.Location == nil {
			continue
		}
		totalLocations++
		if p.Detail != nil {
			withData++
			totalCompletion += p.Detail.OverallCompletion
			if p.Detail.OverallCompletion == 100 {
				completedLocations++
			}
		}
	}
	overallCompletion := 0
	if withData > 0 {
		overallCompletion = int(math.Round(float64(totalCompletion) / float64(withData)))
	}

	totalIssues := 0
	for _, r := range regions {
		totalIssues += r.IssuesCount
	}

	status, days := scheduleStatus(overallCompletion, totalIssues, totalLocations)

	return Overview{
		TotalLocations:     totalLocations,
		CompletedLocations: completedLocations,
		OverallCompletion:  overallCompletion,
		ProjectHealthScore: healthScore(projects, totalIssues),
		ScheduleStatus:     status,
		DaysAheadBehind:    days,
		ProjectTimeline:    timelineForCompletion(overallCompletion),
	}
}

// scheduleStatus maps (completion, issues, locations) to a status and a
// days-ahead/behind figure through a fixed decision table.
func scheduleStatus(completion, issues, locations int) (string, int) {
	switch {
	case completion >= 95 && issues == 0:
		return "Ahead of Schedule", 5
	case completion >= 75 && issues == 0:
		return "On Track", 2
	case completion > 0 && issues == 0:
		return "On Track", 1
	case completion > 0 && issues <= 2:
		return "Minor Delays", -3 * issues
	case completion > 0:
		return "Behind Schedule", -5 * issues
	case locations > 0 && issues > 0:
		return "At Risk", -10
	case locations > 0:
		return "On Track", 0
	default:
		return "Scheduled", 0
	}
}

// healthScore blends completion, open issues, and data coverage into a
// single 0-100 figure.
func healthScore(projects []ProjectWithLocation, totalIssues int) int {
	var withData []ProjectWithLocation
	for _, p := range projects {
		if p.Detail != nil && p.Location != nil {
			withData = append(withData, p)
		}
	}
	if len(withData) == 0 {
		return 0
	}

	totalCompletion := 0
	for _, p := range withData {
		totalCompletion += p.Detail.OverallCompletion
	}
	completionScore := float64(totalCompletion) / float64(len(withData))

	issuesScore := float64(100 - totalIssues*10)
	if issuesScore < 0 {
		issuesScore = 0
	}
	dataQualityScore := float64(len(withData)) / float64(len(projects)) * 100

	return int(math.Round(completionScore*0.5 + issuesScore*0.3 + dataQualityScore*0.2))
}

func timelineForCompletion(completion int) ProjectTimeline {
	idx := 0
	switch {
	case completion >= 100:
		idx = 5
	case completion >= 80:
		idx = 4
	case completion >= 60:
		idx = 3
	case completion >= 40:
		idx = 2
	case completion >= 15:
		idx = 1
	}
	return ProjectTimeline{Phases: clickup.CanonicalPhases, CurrentPhaseIndex: idx}
}

func mapPOIs(projects []ProjectWithLocation) []POI {
	pois := []POI{}
	for _, p := range projects {
		if p.Location == nil || !p.Location.HasCoordinates() {
			continue
		}
		pois = append(pois, POI{
			Lat:  *p.Location.Latitude,
			Lng:  *p.Location.Longitude,
			Text: fmt.Sprintf("%s<br/>%s, %s", p.Name, p.Location.City, p.Location.State),
		})
	}
	return pois
}

// activityFeed fabricates a small feed from the first five enriched
// projects. Time labels come from feed position, not real timestamps.
func activityFeed(projects []ProjectWithLocation) []ActivityItem {
	items := []ActivityItem{}
	seen := 0
	for _, p := range projects {
		if p.Detail == nil || p.Location == nil {
			continue
		}
		if seen == 5 {
			break
		}
		index := seen
		seen++

		completion := p.Detail.OverallCompletion
		place := fmt.Sprintf("%s, %s", p.Location.City, p.Location.State)
		switch {
		case completion == 100:
			items = append(items, ActivityItem{
				ID:   "activity-" + p.ID,
				Type: "success",
				Text: fmt.Sprintf("%s completed in %s", p.Name, place),
				Time: fmt.Sprintf("%d %s ago", index+1, plural(index+1, "hour")),
			})
		case completion > 80:
			items = append(items, ActivityItem{
				ID:   "activity-" + p.ID,
				Type: "info",
				Text: fmt.Sprintf("%s nearing completion in %s (%d%%)", p.Name, place, completion),
				Time: fmt.Sprintf("%d hours ago", index+2),
			})
		case completion > 0:
			items = append(items, ActivityItem{
				ID:   "activity-" + p.ID,
				Type: "info",
				Text: fmt.Sprintf("Progress update for %s in %s (%d%%)", p.Name, place, completion),
				Time: fmt.Sprintf("%d %s ago", index+1, plural(index+1, "day")),
			})
		}
	}
	return items
}

func plural(n int, unit string) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}
