package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/dto"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

const (
	adminDashboardCacheKey = "dash:admin"
	dashboardCachePattern  = "dash:*"
)

type dashboardRepository interface {
	Totals(ctx context.Context) (dto.DashboardTotals, error)
	AverageGrade(ctx context.Context) (*float64, error)
	StudentsByYear(ctx context.Context) ([]dto.DashboardBucket, error)
	TeachersByMajor(ctx context.Context) ([]dto.DashboardBucket, error)
	CoursesByDepartment(ctx context.Context) ([]dto.DashboardBucket, error)
	SessionsByTerm(ctx context.Context) ([]dto.DashboardBucket, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Repo    dashboardRepository
	Cache   *CacheService
	Metrics *MetricsService
	Logger  *zap.Logger
	Config  DashboardServiceConfig
}

// DashboardService composes the admin overview of school records.
type DashboardService struct {
	repo    dashboardRepository
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
	cfg     DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		repo:    params.Repo,
		cache:   params.Cache,
		metrics: params.Metrics,
		logger:  logger,
		now:     time.Now,
		cfg:     cfg,
	}
}

// Admin returns the admin dashboard and reports whether it came from cache.
// The system metrics section is always live.
func (s *DashboardService) Admin(ctx context.Context) (*dto.AdminDashboardResponse, bool, error) {
	if summary, hit := s.tryAdminCache(ctx); hit {
		s.attachSystem(summary)
		return summary, true, nil
	}

	summary, err := s.composeAdminSummary(ctx)
	if err != nil {
		return nil, false, err
	}
	s.persistCache(ctx, adminDashboardCacheKey, summary)
	s.attachSystem(summary)
	return summary, false, nil
}

func (s *DashboardService) tryAdminCache(ctx context.Context) (*dto.AdminDashboardResponse, bool) {
	if s.cache == nil {
		return nil, false
	}
	var cached dto.AdminDashboardResponse
	hit, err := s.cache.Get(ctx, adminDashboardCacheKey, &cached)
	if err != nil {
		s.logger.Warn("dashboard cache read failed, recomputing", zap.Error(err))
		return nil, false
	}
	if !hit {
		return nil, false
	}
	return &cached, true
}

func (s *DashboardService) persistCache(ctx context.Context, key string, value *dto.AdminDashboardResponse) {
	if s.cache == nil {
		return
	}
	stored := *value
	stored.System = nil
	if err := s.cache.Set(ctx, key, stored, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *DashboardService) attachSystem(summary *dto.AdminDashboardResponse) {
	if s.metrics == nil {
		return
	}
	snapshot := s.metrics.Snapshot()
	summary.System = &snapshot
}

func (s *DashboardService) composeAdminSummary(ctx context.Context) (*dto.AdminDashboardResponse, error) {
	if s.repo == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "dashboard repository unavailable")
	}

	summary := &dto.AdminDashboardResponse{GeneratedAt: s.now().UTC()}

	if err := s.timed(ctx, "dashboard_totals", func(ctx context.Context) (err error) {
		summary.Totals, err = s.repo.Totals(ctx)
		return err
	}); err != nil {
		return nil, appErrors.Internal(err, "failed to load dashboard totals")
	}
	if err := s.timed(ctx, "dashboard_average_grade", func(ctx context.Context) (err error) {
		summary.AverageGrade, err = s.repo.AverageGrade(ctx)
		return err
	}); err != nil {
		return nil, appErrors.Internal(err, "failed to load average grade")
	}

	buckets := []struct {
		label string
		load  func(context.Context) ([]dto.DashboardBucket, error)
		dest  *[]dto.DashboardBucket
	}{
		{"dashboard_students_by_year", s.repo.StudentsByYear, &summary.StudentsByYear},
		{"dashboard_teachers_by_major", s.repo.TeachersByMajor, &summary.TeachersByMajor},
		{"dashboard_courses_by_department", s.repo.CoursesByDepartment, &summary.CoursesByDepartment},
		{"dashboard_sessions_by_term", s.repo.SessionsByTerm, &summary.SessionsByTerm},
	}
	for _, bucket := range buckets {
		var rows []dto.DashboardBucket
		if err := s.timed(ctx, bucket.label, func(ctx context.Context) (err error) {
			rows, err = bucket.load(ctx)
			return err
		}); err != nil {
			return nil, appErrors.Internal(err, "failed to load dashboard breakdowns")
		}
		if rows == nil {
			rows = []dto.DashboardBucket{}
		}
		*bucket.dest = rows
	}
	return summary, nil
}

func (s *DashboardService) timed(ctx context.Context, label string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	s.metrics.ObserveDBQuery(label, time.Since(start))
	return err
}

// invalidateDashboard drops cached dashboards after a write to any counted
// entity. Failures only log; the TTL bounds staleness.
func invalidateDashboard(ctx context.Context, cache *CacheService, logger *zap.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx, dashboardCachePattern); err != nil && logger != nil {
		logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}
