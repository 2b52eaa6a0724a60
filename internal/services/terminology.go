package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"fhirfly-backend/internal/cache"
	"fhirfly-backend/internal/metrics"
	"fhirfly-backend/internal/models"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	// MinQueryLength is the shortest query that reaches the catalog.
	MinQueryLength = 2
	searchLimit    = 20
	searchCacheKey = "terminology:search:"
)

// TerminologyService answers search-as-you-type queries over the catalog.
type TerminologyService struct {
	codeSystems CodeSystemRepository
	concepts    ConceptRepository
	conceptMaps ConceptMapRepository
	cache       cache.Store
	cacheTTL    time.Duration
	metrics     *metrics.Collector
	logger      *zap.Logger
}

func NewTerminologyService(
	codeSystems CodeSystemRepository,
	concepts ConceptRepository,
	conceptMaps ConceptMapRepository,
	store cache.Store,
	cacheTTL time.Duration,
	collector *metrics.Collector,
	logger *zap.Logger,
) *TerminologyService {
	return &TerminologyService{
		codeSystems: codeSystems,
		concepts:    concepts,
		conceptMaps: conceptMaps,
		cache:       store,
		cacheTTL:    cacheTTL,
		metrics:     collector,
		logger:      logger,
	}
}

// Search returns NAMASTE terms with their ICD-11 codes. Concept maps are tried
// first; concepts are the fallback. Queries shorter than MinQueryLength return
// no results without touching any store, and failures degrade to an empty list.
func (s *TerminologyService) Search(ctx context.Context, query string) []models.TerminologyResult {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinQueryLength {
		s.metrics.SearchServed("empty")
		return []models.TerminologyResult{}
	}

	key := searchCacheKey + strings.ToLower(query)
	if s.cache != nil {
		var cached []models.TerminologyResult
		ok, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("search cache read failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			s.metrics.SearchServed("cache")
			return lo.Ternary(cached == nil, []models.TerminologyResult{}, cached)
		}
	}

	results, source, err := s.search(ctx, query)
	if err != nil {
		s.logger.Error("terminology search failed", zap.String("query", query), zap.Error(err))
		s.metrics.SearchServed("empty")
		return []models.TerminologyResult{}
	}
	s.metrics.SearchServed(source)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, results, s.cacheTTL); err != nil {
			s.logger.Warn("search cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return results
}

func (s *TerminologyService) search(ctx context.Context, query string) ([]models.TerminologyResult, string, error) {
	page := models.PageRequest{Page: 1, Size: searchLimit}

	maps, err := s.conceptMaps.List(ctx, models.ConceptMapFilter{Search: query}, page)
	if err != nil {
		return nil, "", err
	}
	if len(maps) > 0 {
		return lo.Map(maps, func(m models.ConceptMap, _ int) models.TerminologyResult {
			return resultFromMap(m)
		}), "mapping", nil
	}

	concepts, err := s.concepts.List(ctx, models.ConceptFilter{Search: query}, page)
	if err != nil {
		return nil, "", err
	}
	if len(concepts) == 0 {
		return []models.TerminologyResult{}, "empty", nil
	}

	ids := lo.Uniq(lo.Map(concepts, func(c models.Concept, _ int) uuid.UUID { return c.CodeSystemID }))
	systems, err := s.codeSystems.ListByIDs(ctx, ids)
	if err != nil {
		return nil, "", err
	}
	byID := lo.KeyBy(systems, func(cs models.CodeSystem) uuid.UUID { return cs.ID })

	return lo.Map(concepts, func(c models.Concept, _ int) models.TerminologyResult {
		var cs *models.CodeSystem
		if found, ok := byID[c.CodeSystemID]; ok {
			cs = &found
		}
		return resultFromConcept(c, cs)
	}), "concept", nil
}

func resultFromMap(m models.ConceptMap) models.TerminologyResult {
	meta := m.Meta()
	return models.TerminologyResult{
		ID:          m.ID.String(),
		TermName:    lo.Ternary(meta.Display != "", meta.Display, m.SourceCode),
		NamasteCode: m.SourceCode,
		ICD11Code:   m.TargetCode,
		Description: meta.Definition,
	}
}

func resultFromConcept(c models.Concept, cs *models.CodeSystem) models.TerminologyResult {
	icd11, ok := c.PropertyValueCode(models.ICD11MappingProperty)
	if !ok {
		icd11 = c.Code
	}
	description := models.StringValue(c.Definition)
	if description == "" && cs != nil {
		description = models.StringValue(cs.Title)
	}
	return models.TerminologyResult{
		ID:          c.ID.String(),
		TermName:    c.Term(),
		NamasteCode: c.Code,
		ICD11Code:   icd11,
		Description: description,
	}
}
