package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"fhirfly-backend/internal/apperrors"
	"fhirfly-backend/internal/models"
	"fhirfly-backend/internal/repositories/repotest"
	"fhirfly-backend/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
	msgs [][]byte
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, key string, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, key)
	p.msgs = append(p.msgs, value)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type catalogFixture struct {
	codeSystems *repotest.CodeSystems
	concepts    *repotest.Concepts
	conceptMaps *repotest.ConceptMaps
	auditLogs   *repotest.AuditLogs
	publisher   *recordingPublisher
	audit       *services.AuditService
	catalog     *services.CatalogService
}

func newCatalogFixture() *catalogFixture {
	f := &catalogFixture{
		codeSystems: &repotest.CodeSystems{},
		concepts:    &repotest.Concepts{},
		conceptMaps: &repotest.ConceptMaps{},
		auditLogs:   &repotest.AuditLogs{},
		publisher:   &recordingPublisher{},
	}
	f.audit = services.NewAuditService(f.auditLogs, f.publisher, zap.NewNop())
	f.catalog = services.NewCatalogService(f.codeSystems, f.concepts, f.conceptMaps, f.audit)
	return f
}

func (f *catalogFixture) codeSystem(t *testing.T, name, url, title string) *models.CodeSystem {
	t.Helper()
	cs, err := f.catalog.CreateCodeSystem(context.Background(), models.CodeSystemInput{
		Name:  models.StringPtr(name),
		URL:   models.StringPtr(url),
		Title: models.StringPtr(title),
	}, "tester")
	require.NoError(t, err)
	return cs
}

func TestCreateCodeSystemDefaultsNameFromTitle(t *testing.T) {
	f := newCatalogFixture()

	cs, err := f.catalog.CreateCodeSystem(context.Background(), models.CodeSystemInput{
		Title: models.StringPtr("NAMASTE Ayurveda Morbidity Codes"),
	}, "12345678901234")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, cs.ID)
	assert.Equal(t, "namaste-ayurveda-morbidity-codes", models.StringValue(cs.Name))

	logs := f.auditLogs.All()
	require.Len(t, logs, 1)
	assert.Equal(t, "codesystem", logs[0].Table)
	assert.Equal(t, models.OperationInsert, logs[0].Operation)
	assert.Equal(t, cs.ID, logs[0].RecordID)
	assert.Equal(t, "12345678901234", models.StringValue(logs[0].UserID))
	assert.Nil(t, logs[0].OldData)
	assert.NotNil(t, logs[0].NewData)

	require.Len(t, f.publisher.keys, 1)
	assert.Equal(t, cs.ID.String(), f.publisher.keys[0])
}

func TestUpdateCodeSystemAppliesOnlySetFields(t *testing.T) {
	f := newCatalogFixture()
	cs := f.codeSystem(t, "namaste", "http://namaste.ayush.gov.in/fhir/CodeSystem", "NAMASTE")

	updated, err := f.catalog.UpdateCodeSystem(context.Background(), cs.ID, models.CodeSystemInput{
		Version: models.StringPtr("1.1.0"),
	}, "tester")
	require.NoError(t, err)

	assert.Equal(t, "1.1.0", models.StringValue(updated.Version))
	assert.Equal(t, "namaste", models.StringValue(updated.Name))
	assert.Equal(t, "NAMASTE", models.StringValue(updated.Title))

	logs := f.auditLogs.All()
	require.Len(t, logs, 2)
	assert.Equal(t, models.OperationUpdate, logs[1].Operation)

	var before, after models.CodeSystem
	require.NoError(t, json.Unmarshal(logs[1].OldData, &before))
	require.NoError(t, json.Unmarshal(logs[1].NewData, &after))
	assert.Nil(t, before.Version)
	assert.Equal(t, "1.1.0", models.StringValue(after.Version))
}

func TestDeleteCodeSystem(t *testing.T) {
	f := newCatalogFixture()
	cs := f.codeSystem(t, "icd11", "http://id.who.int/icd/release/11/mms", "ICD-11")

	deleted, err := f.catalog.DeleteCodeSystem(context.Background(), cs.ID, "tester")
	require.NoError(t, err)
	assert.Equal(t, cs.ID, deleted.ID)

	_, err = f.catalog.GetCodeSystem(context.Background(), cs.ID)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = f.catalog.DeleteCodeSystem(context.Background(), cs.ID, "tester")
	assert.True(t, apperrors.IsNotFound(err))

	logs := f.auditLogs.All()
	require.Len(t, logs, 2)
	assert.Equal(t, models.OperationDelete, logs[1].Operation)
	assert.Nil(t, logs[1].NewData)
}

func TestListCodeSystemsPaginates(t *testing.T) {
	f := newCatalogFixture()
	for i := 0; i < 5; i++ {
		f.codeSystem(t, "cs", "http://example.org/cs", "System")
	}
	f.codeSystem(t, "other", "http://example.org/other", "Other")

	page, err := f.catalog.ListCodeSystems(context.Background(), models.CodeSystemFilter{Search: "SYSTEM"}, models.PageRequest{Page: 2, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, int64(3), page.Pages)
	assert.Len(t, page.Items, 2)

	empty, err := f.catalog.ListCodeSystems(context.Background(), models.CodeSystemFilter{Search: "nothing"}, models.PageRequest{Page: 1, Size: 10})
	require.NoError(t, err)
	assert.NotNil(t, empty.Items)
	assert.Empty(t, empty.Items)
}

func TestCreateConceptValidation(t *testing.T) {
	f := newCatalogFixture()
	ctx := context.Background()

	_, err := f.catalog.CreateConcept(ctx, models.ConceptInput{Code: models.StringPtr("AAA-1")}, "")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	missing := uuid.New()
	_, err = f.catalog.CreateConcept(ctx, models.ConceptInput{CodeSystemID: &missing, Code: models.StringPtr("AAA-1")}, "")
	assert.True(t, apperrors.IsNotFound(err))

	cs := f.codeSystem(t, "namaste", "http://namaste", "NAMASTE")
	_, err = f.catalog.CreateConcept(ctx, models.ConceptInput{CodeSystemID: &cs.ID, Code: models.StringPtr("  ")}, "")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	c, err := f.catalog.CreateConcept(ctx, models.ConceptInput{
		CodeSystemID: &cs.ID,
		Code:         models.StringPtr("AAA-1"),
		Display:      models.StringPtr("Jwara"),
	}, "")
	require.NoError(t, err)

	got, err := f.catalog.GetConceptByCode(ctx, cs.ID, "AAA-1")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
}

func TestCreateConceptMapRequiresCodes(t *testing.T) {
	f := newCatalogFixture()
	src, dst := uuid.New(), uuid.New()

	_, err := f.catalog.CreateConceptMap(context.Background(), models.ConceptMapInput{
		SourceCodeSystemID: &src,
		TargetCodeSystemID: &dst,
		SourceCode:         models.StringPtr("AAA-1"),
	}, "")
	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "target_code is required", appErr.Message)
}

func TestConceptMapCodeSystemsMustExist(t *testing.T) {
	f := newCatalogFixture()
	ctx := context.Background()
	namaste := f.codeSystem(t, "namaste", "http://namaste.ayush.gov.in/fhir", "NAMASTE")
	icd := f.codeSystem(t, "icd11-tm2", "http://id.who.int/icd11/tm2", "ICD-11 TM2")
	missing := uuid.New()

	in := models.ConceptMapInput{
		SourceCodeSystemID: &namaste.ID,
		TargetCodeSystemID: &missing,
		SourceCode:         models.StringPtr("AAE-16"),
		TargetCode:         models.StringPtr("SM2Z"),
	}
	_, err := f.catalog.CreateConceptMap(ctx, in, "")
	require.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, "Target codesystem not found: "+missing.String(), apperrors.GetAppError(err).Message)

	in.SourceCodeSystemID, in.TargetCodeSystemID = &missing, &icd.ID
	_, err = f.catalog.CreateConceptMap(ctx, in, "")
	require.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, "Source codesystem not found: "+missing.String(), apperrors.GetAppError(err).Message)

	total, err := f.conceptMaps.Count(ctx, models.ConceptMapFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)

	in.SourceCodeSystemID = &namaste.ID
	m, err := f.catalog.CreateConceptMap(ctx, in, "")
	require.NoError(t, err)

	_, err = f.catalog.UpdateConceptMap(ctx, m.ID, models.ConceptMapInput{TargetCodeSystemID: &missing}, "")
	assert.True(t, apperrors.IsNotFound(err))
	got, err := f.catalog.GetConceptMap(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, icd.ID, got.TargetCodeSystemID)

	_, err = f.catalog.UpdateConceptMap(ctx, m.ID, models.ConceptMapInput{TargetCode: models.StringPtr("SM3Z")}, "")
	assert.NoError(t, err)
}

func TestDeleteReferencedCodeSystemConflicts(t *testing.T) {
	f := newCatalogFixture()
	ctx := context.Background()
	namaste := f.codeSystem(t, "namaste", "http://namaste.ayush.gov.in/fhir", "NAMASTE")
	icd := f.codeSystem(t, "icd11-tm2", "http://id.who.int/icd11/tm2", "ICD-11 TM2")

	c, err := f.catalog.CreateConcept(ctx, models.ConceptInput{CodeSystemID: &namaste.ID, Code: models.StringPtr("AAE-16")}, "")
	require.NoError(t, err)
	m, err := f.catalog.CreateConceptMap(ctx, models.ConceptMapInput{
		SourceCodeSystemID: &namaste.ID,
		TargetCodeSystemID: &icd.ID,
		SourceCode:         models.StringPtr("AAE-16"),
		TargetCode:         models.StringPtr("SM2Z"),
	}, "")
	require.NoError(t, err)

	for _, id := range []uuid.UUID{namaste.ID, icd.ID} {
		_, err = f.catalog.DeleteCodeSystem(ctx, id, "")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict), id)
		_, err = f.catalog.GetCodeSystem(ctx, id)
		assert.NoError(t, err)
	}

	_, err = f.catalog.DeleteConceptMap(ctx, m.ID, "")
	require.NoError(t, err)
	_, err = f.catalog.DeleteCodeSystem(ctx, icd.ID, "")
	assert.NoError(t, err)

	_, err = f.catalog.DeleteCodeSystem(ctx, namaste.ID, "")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
	_, err = f.catalog.DeleteConcept(ctx, c.ID, "")
	require.NoError(t, err)
	_, err = f.catalog.DeleteCodeSystem(ctx, namaste.ID, "")
	assert.NoError(t, err)
}

func TestTranslate(t *testing.T) {
	f := newCatalogFixture()
	ctx := context.Background()
	namaste := f.codeSystem(t, "namaste", "http://namaste.ayush.gov.in/fhir", "NAMASTE")
	icd := f.codeSystem(t, "icd11-tm2", "http://id.who.int/icd11/tm2", "ICD-11 TM2")

	_, err := f.catalog.CreateConceptMap(ctx, models.ConceptMapInput{
		SourceCodeSystemID: &namaste.ID,
		TargetCodeSystemID: &icd.ID,
		SourceCode:         models.StringPtr("AAE-16"),
		TargetCode:         models.StringPtr("SM2Z"),
		Equivalence:        models.StringPtr("equivalent"),
		Metadata:           datatypes.JSON(`{"display":"Jwara"}`),
	}, "")
	require.NoError(t, err)

	t.Run("by url", func(t *testing.T) {
		resp, err := f.catalog.Translate(ctx, models.TranslationRequest{
			SourceCodeSystem: "http://namaste.ayush.gov.in/fhir",
			TargetCodeSystem: "http://id.who.int/icd11/tm2",
			SourceCode:       "AAE-16",
		})
		require.NoError(t, err)
		assert.True(t, resp.Found)
		assert.Equal(t, "SM2Z", models.StringValue(resp.TargetCode))
		assert.Equal(t, "equivalent", models.StringValue(resp.Equivalence))
	})

	t.Run("by name", func(t *testing.T) {
		resp, err := f.catalog.Translate(ctx, models.TranslationRequest{
			SourceCodeSystem: "namaste",
			TargetCodeSystem: "icd11-tm2",
			SourceCode:       "AAE-16",
		})
		require.NoError(t, err)
		assert.True(t, resp.Found)
	})

	t.Run("unknown code", func(t *testing.T) {
		resp, err := f.catalog.Translate(ctx, models.TranslationRequest{
			SourceCodeSystem: "namaste",
			TargetCodeSystem: "icd11-tm2",
			SourceCode:       "ZZZ-99",
		})
		require.NoError(t, err)
		assert.False(t, resp.Found)
		assert.Nil(t, resp.TargetCode)
	})

	t.Run("unknown systems", func(t *testing.T) {
		_, err := f.catalog.Translate(ctx, models.TranslationRequest{
			SourceCodeSystem: "siddha",
			TargetCodeSystem: "icd11-tm2",
			SourceCode:       "AAE-16",
		})
		appErr := apperrors.GetAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, "Source codesystem not found: siddha", appErr.Message)
		assert.Equal(t, 404, appErr.HTTPStatus)

		_, err = f.catalog.Translate(ctx, models.TranslationRequest{
			SourceCodeSystem: "namaste",
			TargetCodeSystem: "snomed",
			SourceCode:       "AAE-16",
		})
		appErr = apperrors.GetAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, "Target codesystem not found: snomed", appErr.Message)
	})
}

func TestCatalogRepositoryFailureIsInternal(t *testing.T) {
	f := newCatalogFixture()
	f.codeSystems.Err = errors.New("connection refused")

	_, err := f.catalog.ListCodeSystems(context.Background(), models.CodeSystemFilter{}, models.PageRequest{Page: 1, Size: 10})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
}
