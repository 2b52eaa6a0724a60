package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"fhirfly-backend/internal/cache"
	"fhirfly-backend/internal/metrics"
	"fhirfly-backend/internal/models"
	"fhirfly-backend/internal/repositories/repotest"
	"fhirfly-backend/internal/services"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type countingMaps struct {
	*repotest.ConceptMaps
	lists int
}

func (c *countingMaps) List(ctx context.Context, f models.ConceptMapFilter, page models.PageRequest) ([]models.ConceptMap, error) {
	c.lists++
	return c.ConceptMaps.List(ctx, f, page)
}

type countingCache struct {
	cache.Store
	reads int
}

func (c *countingCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	c.reads++
	return c.Store.Get(ctx, key, dest)
}

type searchFixture struct {
	codeSystems *repotest.CodeSystems
	concepts    *repotest.Concepts
	maps        *countingMaps
	cache       *countingCache
	metrics     *metrics.Collector
	svc         *services.TerminologyService
}

func newSearchFixture() *searchFixture {
	f := &searchFixture{
		codeSystems: &repotest.CodeSystems{},
		concepts:    &repotest.Concepts{},
		maps:        &countingMaps{ConceptMaps: &repotest.ConceptMaps{}},
		cache:       &countingCache{Store: cache.NewMemory()},
		metrics:     metrics.NewCollector("test"),
	}
	f.svc = services.NewTerminologyService(f.codeSystems, f.concepts, f.maps, f.cache, time.Minute, f.metrics, zap.NewNop())
	return f
}

func TestSearchShortQueryTouchesNothing(t *testing.T) {
	f := newSearchFixture()

	for _, q := range []string{"", " ", "j", " k ", "ज"} {
		got := f.svc.Search(context.Background(), q)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	}
	assert.Zero(t, f.maps.lists)
	assert.Zero(t, f.cache.reads)
	assert.Equal(t, 5.0, testutil.ToFloat64(f.metrics.TerminologySearches.WithLabelValues("empty")))
}

func TestSearchPrefersConceptMaps(t *testing.T) {
	f := newSearchFixture()
	ctx := context.Background()
	src, dst := uuid.New(), uuid.New()

	require.NoError(t, f.maps.Create(ctx, &models.ConceptMap{
		SourceCodeSystemID: src,
		TargetCodeSystemID: dst,
		SourceCode:         "AAE-16",
		TargetCode:         "SM2Z",
		Metadata:           datatypes.JSON(`{"display":"Jwara","definition":"Fever"}`),
	}))
	require.NoError(t, f.maps.Create(ctx, &models.ConceptMap{
		SourceCodeSystemID: src,
		TargetCodeSystemID: dst,
		SourceCode:         "JWR-2",
		TargetCode:         "SM3A",
	}))
	// a concept that would also match must not appear
	require.NoError(t, f.concepts.Create(ctx, &models.Concept{CodeSystemID: src, Code: "jw-1", Display: models.StringPtr("Jwara")}))

	got := f.svc.Search(ctx, "jw")
	require.Len(t, got, 2)
	assert.Equal(t, models.TerminologyResult{
		ID:          got[0].ID,
		TermName:    "Jwara",
		NamasteCode: "AAE-16",
		ICD11Code:   "SM2Z",
		Description: "Fever",
	}, got[0])
	assert.Equal(t, "JWR-2", got[1].TermName, "falls back to the source code")
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.TerminologySearches.WithLabelValues("mapping")))
}

func TestSearchFallsBackToConcepts(t *testing.T) {
	f := newSearchFixture()
	ctx := context.Background()

	cs := &models.CodeSystem{Title: models.StringPtr("NAMASTE Ayurveda")}
	require.NoError(t, f.codeSystems.Create(ctx, cs))

	require.NoError(t, f.concepts.Create(ctx, &models.Concept{
		CodeSystemID: cs.ID,
		Code:         "AAB-1",
		Display:      models.StringPtr("Kasa"),
		Definition:   models.StringPtr("Cough"),
		Properties:   datatypes.JSON(`[{"code":"icd11Mapping","valueCode":"SK00"}]`),
	}))
	require.NoError(t, f.concepts.Create(ctx, &models.Concept{
		CodeSystemID: cs.ID,
		Code:         "KAS-2",
	}))

	got := f.svc.Search(ctx, "KA")
	require.Len(t, got, 2)

	assert.Equal(t, "Kasa", got[0].TermName)
	assert.Equal(t, "AAB-1", got[0].NamasteCode)
	assert.Equal(t, "SK00", got[0].ICD11Code)
	assert.Equal(t, "Cough", got[0].Description)

	assert.Equal(t, "KAS-2", got[1].TermName)
	assert.Equal(t, "KAS-2", got[1].ICD11Code, "unmapped concepts reuse their code")
	assert.Equal(t, "NAMASTE Ayurveda", got[1].Description)
}

func TestSearchUsesCache(t *testing.T) {
	f := newSearchFixture()
	ctx := context.Background()
	require.NoError(t, f.concepts.Create(ctx, &models.Concept{CodeSystemID: uuid.New(), Code: "AAB-1", Display: models.StringPtr("Kasa")}))

	first := f.svc.Search(ctx, "Kasa")
	require.Len(t, first, 1)

	// new data is not visible until the cached entry expires
	require.NoError(t, f.concepts.Create(ctx, &models.Concept{CodeSystemID: uuid.New(), Code: "AAB-2", Display: models.StringPtr("Kasa Roga")}))
	second := f.svc.Search(ctx, "kasa")
	assert.Equal(t, first, second)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.TerminologySearches.WithLabelValues("cache")))
}

func TestSearchFailureReturnsEmpty(t *testing.T) {
	f := newSearchFixture()
	f.maps.Err = errors.New("connection reset")

	got := f.svc.Search(context.Background(), "jwara")
	assert.NotNil(t, got)
	assert.Empty(t, got)

	// failures are not cached
	f.maps.Err = nil
	require.NoError(t, f.maps.Create(context.Background(), &models.ConceptMap{SourceCode: "jwara", TargetCode: "SM2Z"}))
	assert.Len(t, f.svc.Search(context.Background(), "jwara"), 1)
}

func TestSearchWithoutCache(t *testing.T) {
	concepts := &repotest.Concepts{}
	svc := services.NewTerminologyService(&repotest.CodeSystems{}, concepts, &repotest.ConceptMaps{}, nil, time.Minute, nil, zap.NewNop())
	require.NoError(t, concepts.Create(context.Background(), &models.Concept{CodeSystemID: uuid.New(), Code: "AAB-1"}))

	assert.Len(t, svc.Search(context.Background(), "aab"), 1)
	assert.Empty(t, svc.Search(context.Background(), "zzz"))
}
