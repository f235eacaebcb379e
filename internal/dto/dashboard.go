package dto

import "time"

// AdminDashboardResponse captures the aggregated admin dashboard payload.
type AdminDashboardResponse struct {
	Totals              DashboardTotals   `json:"totals"`
	AverageGrade        *float64          `json:"averageGrade,omitempty"`
	StudentsByYear      []DashboardBucket `json:"studentsByYear"`
	TeachersByMajor     []DashboardBucket `json:"teachersByMajor"`
	CoursesByDepartment []DashboardBucket `json:"coursesByDepartment"`
	SessionsByTerm      []DashboardBucket `json:"sessionsByTerm"`
	GeneratedAt         time.Time         `json:"generatedAt"`
	System              *SystemMetrics    `json:"system,omitempty"`
}

// DashboardTotals holds entity counts.
type DashboardTotals struct {
	Students int `json:"students" db:"students"`
	Teachers int `json:"teachers" db:"teachers"`
	Courses  int `json:"courses" db:"courses"`
	Rooms    int `json:"rooms" db:"rooms"`
	Sessions int `json:"sessions" db:"sessions"`
}

// DashboardBucket is a labelled count.
type DashboardBucket struct {
	Label string `json:"label" db:"label"`
	Count int    `json:"count" db:"count"`
}

// SystemMetrics is a point-in-time view of process instrumentation.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"avgRequestDurationMs"`
	DBQueryCount             uint64    `json:"dbQueryCount"`
	AverageDBQueryDurationMs float64   `json:"avgDbQueryDurationMs"`
	ScheduleConflicts        uint64    `json:"scheduleConflicts"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}
