package services_test

import (
	"context"
	"testing"
	"time"

	"fhirfly-backend/internal/apperrors"
	"fhirfly-backend/internal/metrics"
	"fhirfly-backend/internal/models"
	"fhirfly-backend/internal/repositories/repotest"
	"fhirfly-backend/internal/services"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owner = "12345678901234"

func jwara() models.AddProblemRequest {
	return models.AddProblemRequest{
		ID:          "search-result-id",
		TermName:    "Jwara",
		NamasteCode: "AAE-16",
		ICD11Code:   "SM2Z",
	}
}

func TestAddAppendsExactlyOneRecord(t *testing.T) {
	repo := &repotest.Problems{}
	collector := metrics.NewCollector("test")
	svc := services.NewProblemService(repo, collector)
	ctx := context.Background()

	before, err := svc.List(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, before)

	start := time.Now().UTC()
	item, err := svc.Add(ctx, owner, jwara())
	require.NoError(t, err)

	_, parseErr := uuid.Parse(item.ID)
	assert.NoError(t, parseErr)
	assert.NotEqual(t, "search-result-id", item.ID)
	assert.False(t, item.AddedAt.Before(start))
	assert.Equal(t, owner, item.OwnerID)

	after, err := svc.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, *item, after[0])
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.ProblemsAdded))
}

func TestAddAllowsDuplicatesAndListsNewestFirst(t *testing.T) {
	svc := services.NewProblemService(&repotest.Problems{}, nil)
	ctx := context.Background()

	first, err := svc.Add(ctx, owner, jwara())
	require.NoError(t, err)
	kasa := jwara()
	kasa.TermName, kasa.NamasteCode, kasa.ICD11Code = "Kasa", "AAB-1", "SK00"
	second, err := svc.Add(ctx, owner, kasa)
	require.NoError(t, err)
	third, err := svc.Add(ctx, owner, jwara())
	require.NoError(t, err)

	items, err := svc.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, []string{items[0].ID, items[1].ID, items[2].ID})

	others, err := svc.List(ctx, "99999999999999")
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestAddRequiresCodes(t *testing.T) {
	svc := services.NewProblemService(&repotest.Problems{}, nil)
	req := jwara()
	req.ICD11Code = "  "

	_, err := svc.Add(context.Background(), owner, req)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestRemove(t *testing.T) {
	repo := &repotest.Problems{}
	svc := services.NewProblemService(repo, nil)
	ctx := context.Background()

	item, err := svc.Add(ctx, owner, jwara())
	require.NoError(t, err)

	err = svc.Remove(ctx, "99999999999999", item.ID)
	assert.True(t, apperrors.IsNotFound(err), "other users cannot remove it")

	require.NoError(t, svc.Remove(ctx, owner, item.ID))
	items, _ := svc.List(ctx, owner)
	assert.Empty(t, items)

	assert.True(t, apperrors.IsNotFound(svc.Remove(ctx, owner, item.ID)))
}
