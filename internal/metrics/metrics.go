package metrics

import "sync/atomic"

var apiRequests int64
var apiFailures int64
var cacheHits int64
var cacheMisses int64
var dashboardRuns int64
var dashboardErrors int64

func IncAPIRequest()     { atomic.AddInt64(&apiRequests, 1) }
func IncAPIFailure()     { atomic.AddInt64(&apiFailures, 1) }
func IncCacheHit()       { atomic.AddInt64(&cacheHits, 1) }
func IncCacheMiss()      { atomic.AddInt64(&cacheMisses, 1) }
func IncDashboardRun()   { atomic.AddInt64(&dashboardRuns, 1) }
func IncDashboardError() { atomic.AddInt64(&dashboardErrors, 1) }

func Snapshot() map[string]int64 {
	return map[string]int64{
		"api_requests":     atomic.LoadInt64(&apiRequests),
		"api_failures":     atomic.LoadInt64(&apiFailures),
		"cache_hits":       atomic.LoadInt64(&cacheHits),
		"cache_misses":     atomic.LoadInt64(&cacheMisses),
		"dashboard_runs":   atomic.LoadInt64(&dashboardRuns),
		"dashboard_errors": atomic.LoadInt64(&dashboardErrors),
	}
}
