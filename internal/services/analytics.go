package services

import (
	"context"
	"sort"
	"time"

	"fhirfly-backend/internal/models"
	"fhirfly-backend/internal/utils"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	DefaultTopN  = 10
	recentWindow = 7 * 24 * time.Hour
)

// CountTerms counts concepts by term (display, else code) in a single pass.
// The result is ordered by count descending, then term ascending, and the
// counts sum to len(concepts).
func CountTerms(concepts []models.Concept) []models.AnalyticsData {
	counts := lo.CountValuesBy(concepts, func(c models.Concept) string { return c.Term() })

	data := lo.MapToSlice(counts, func(term string, n int) models.AnalyticsData {
		return models.AnalyticsData{Term: term, Count: n, Share: utils.Percentage(n, len(concepts))}
	})
	sort.Slice(data, func(i, j int) bool {
		if data[i].Count != data[j].Count {
			return data[i].Count > data[j].Count
		}
		return data[i].Term < data[j].Term
	})
	return data
}

// TopN returns the first n entries of sorted data; n <= 0 means DefaultTopN.
func TopN(data []models.AnalyticsData, n int) []models.AnalyticsData {
	if n <= 0 {
		n = DefaultTopN
	}
	if n > len(data) {
		n = len(data)
	}
	return data[:n]
}

// AnalyticsService aggregates term usage and dashboard figures.
type AnalyticsService struct {
	concepts ConceptRepository
	catalog  *CatalogService
	problems ProblemRepository
	sample   int
	logger   *zap.Logger
	now      func() time.Time
}

func NewAnalyticsService(concepts ConceptRepository, catalog *CatalogService, problems ProblemRepository, sample int, logger *zap.Logger) *AnalyticsService {
	if sample <= 0 || sample > 1000 {
		sample = 1000
	}
	return &AnalyticsService{
		concepts: concepts,
		catalog:  catalog,
		problems: problems,
		sample:   sample,
		logger:   logger,
		now:      time.Now,
	}
}

// Terms counts term occurrences over up to sample concepts. Failures are logged
// and yield an empty result.
func (s *AnalyticsService) Terms(ctx context.Context) []models.AnalyticsData {
	concepts, err := s.concepts.List(ctx, models.ConceptFilter{}, models.PageRequest{Page: 1, Size: s.sample})
	if err != nil {
		s.logger.Error("failed to load concepts for analytics", zap.Error(err))
		return []models.AnalyticsData{}
	}
	data := CountTerms(concepts)
	if data == nil {
		data = []models.AnalyticsData{}
	}
	return data
}

func (s *AnalyticsService) Top(ctx context.Context, n int) []models.AnalyticsData {
	return TopN(s.Terms(ctx), n)
}

// Dashboard gathers headline counts. A failing count is logged and left at zero.
func (s *AnalyticsService) Dashboard(ctx context.Context) models.DashboardStats {
	var stats models.DashboardStats

	count := func(name string, dst *int64, fn func(context.Context) (int64, error)) {
		n, err := fn(ctx)
		if err != nil {
			s.logger.Error("dashboard count failed", zap.String("stat", name), zap.Error(err))
			return
		}
		*dst = n
	}

	count("totalPatients", &stats.TotalPatients, s.problems.CountOwners)
	count("totalTermsMapped", &stats.TotalTermsMapped, s.catalog.CountConcepts)
	count("totalConceptMaps", &stats.TotalConceptMaps, s.catalog.CountConceptMaps)
	count("totalCodeSystems", &stats.TotalCodeSystems, s.catalog.CountCodeSystems)
	count("recentProblems", &stats.RecentProblems, func(ctx context.Context) (int64, error) {
		return s.problems.CountAddedSince(ctx, s.now().Add(-recentWindow))
	})
	return stats
}
