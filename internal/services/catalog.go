package services

import (
	"context"
	"strings"

	"fhirfly-backend/internal/apperrors"
	"fhirfly-backend/internal/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// CatalogService manages code systems, concepts and concept maps. Every
// successful write is recorded in the audit trail.
type CatalogService struct {
	codeSystems CodeSystemRepository
	concepts    ConceptRepository
	conceptMaps ConceptMapRepository
	audit       *AuditService
}

func NewCatalogService(codeSystems CodeSystemRepository, concepts ConceptRepository, conceptMaps ConceptMapRepository, audit *AuditService) *CatalogService {
	return &CatalogService{
		codeSystems: codeSystems,
		concepts:    concepts,
		conceptMaps: conceptMaps,
		audit:       audit,
	}
}

// Code systems

func (s *CatalogService) CreateCodeSystem(ctx context.Context, in models.CodeSystemInput, actor string) (*models.CodeSystem, error) {
	cs := &models.CodeSystem{}
	in.Apply(cs)
	if models.StringValue(cs.Name) == "" && models.StringValue(cs.Title) != "" {
		cs.Name = models.StringPtr(slug.Make(*cs.Title))
	}
	if err := s.codeSystems.Create(ctx, cs); err != nil {
		return nil, apperrors.Wrap(err, "Failed to create codesystem")
	}
	s.audit.Record(ctx, cs.TableName(), models.OperationInsert, cs.ID, actor, nil, cs)
	return cs, nil
}

func (s *CatalogService) GetCodeSystem(ctx context.Context, id uuid.UUID) (*models.CodeSystem, error) {
	cs, err := s.codeSystems.Get(ctx, id)
	return cs, apperrors.Wrap(err, "Failed to load codesystem")
}

func (s *CatalogService) GetCodeSystemByURL(ctx context.Context, url string) (*models.CodeSystem, error) {
	cs, err := s.codeSystems.GetByURL(ctx, url)
	return cs, apperrors.Wrap(err, "Failed to load codesystem")
}

func (s *CatalogService) GetCodeSystemByName(ctx context.Context, name string) (*models.CodeSystem, error) {
	cs, err := s.codeSystems.GetByName(ctx, name)
	return cs, apperrors.Wrap(err, "Failed to load codesystem")
}

func (s *CatalogService) ListCodeSystems(ctx context.Context, f models.CodeSystemFilter, page models.PageRequest) (models.Page[models.CodeSystem], error) {
	items, err := s.codeSystems.List(ctx, f, page)
	if err != nil {
		return models.Page[models.CodeSystem]{}, apperrors.Wrap(err, "Failed to list codesystems")
	}
	total, err := s.codeSystems.Count(ctx, f)
	if err != nil {
		return models.Page[models.CodeSystem]{}, apperrors.Wrap(err, "Failed to count codesystems")
	}
	return models.NewPage(items, total, page), nil
}

func (s *CatalogService) UpdateCodeSystem(ctx context.Context, id uuid.UUID, in models.CodeSystemInput, actor string) (*models.CodeSystem, error) {
	cs, err := s.codeSystems.Get(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(err, "Failed to load codesystem")
	}
	before := *cs
	in.Apply(cs)
	if err := s.codeSystems.Update(ctx, cs); err != nil {
		return nil, apperrors.Wrap(err, "Failed to update codesystem")
	}
	s.audit.Record(ctx, cs.TableName(), models.OperationUpdate, cs.ID, actor, before, cs)
	return cs, nil
}

func (s *CatalogService) DeleteCodeSystem(ctx context.Context, id uuid.UUID, actor string) (*models.CodeSystem, error) {
	cs, err := s.codeSystems.Get(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(err, "Failed to load codesystem")
	}
	inUse, err := s.codeSystemInUse(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(err, "Failed to check codesystem references")
	}
	if inUse {
		return nil, apperrors.NewConflictError("Codesystem is still referenced by concepts or conceptmaps")
	}
	if err := s.codeSystems.Delete(ctx, id); err != nil {
		return nil, apperrors.Wrap(err, "Failed to delete codesystem")
	}
	s.audit.Record(ctx, cs.TableName(), models.OperationDelete, id, actor, cs, nil)
	return cs, nil
}

// codeSystemInUse reports whether any concept or concept map points at id.
func (s *CatalogService) codeSystemInUse(ctx context.Context, id uuid.UUID) (bool, error) {
	n, err := s.concepts.Count(ctx, models.ConceptFilter{CodeSystemID: &id})
	if err != nil || n > 0 {
		return n > 0, err
	}
	n, err = s.conceptMaps.Count(ctx, models.ConceptMapFilter{SourceCodeSystemID: &id})
	if err != nil || n > 0 {
		return n > 0, err
	}
	n, err = s.conceptMaps.Count(ctx, models.ConceptMapFilter{TargetCodeSystemID: &id})
	return n > 0, err
}

func (s *CatalogService) requireCodeSystem(ctx context.Context, id uuid.UUID, role string) error {
	if _, err := s.codeSystems.Get(ctx, id); err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewNotFoundErrorf("%s codesystem not found: %s", role, id)
		}
		return apperrors.Wrap(err, "Failed to load codesystem")
	}
	return nil
}

// Concepts

func (s *CatalogService) CreateConcept(ctx context.Context, in models.ConceptInput, actor string) (*models.Concept, error) {
	if in.CodeSystemID == nil || *in.CodeSystemID == uuid.Nil {
		return nil, apperrors.NewValidationError("codesystem_id is required")
	}
	if in.Code == nil || strings.TrimSpace(*in.Code) == "" {
		return nil, apperrors.NewValidationError("code is required")
	}
	if _, err := s.codeSystems.Get(ctx, *in.CodeSystemID); err != nil {
		return nil, apperrors.Wrap(err, "Failed to load codesystem")
	}

	c := &models.Concept{}
	in.Apply(c)
	if err := s.concepts.Create(ctx, c); err != nil {
		return nil, apperrors.Wrap(err, "Failed to create concept")
	}
	s.audit.Record(ctx, c.TableName(), models.OperationInsert, c.ID, actor, nil, c)
	return c, nil
}

func (s *CatalogService) GetConcept(ctx context.Context, id uuid.UUID) (*models.Concept, error) {
	c, err := s.concepts.Get(ctx, id)
	return c, apperrors.Wrap(err, "Failed to load concept")
}

func (s *CatalogService) GetConceptByCode(ctx context.Context, codeSystemID uuid.UUID, code string) (*models.Concept, error) {
	c, err := s.concepts.GetByCode(ctx, codeSystemID, code)
	return c, apperrors.Wrap(err, "Failed to load concept")
}

func (s *CatalogService) ListConceptsByCodeSystem(ctx context.Context, codeSystemID uuid.UUID) ([]models.Concept, error) {
	items, err := s.concepts.ListByCodeSystem(ctx, codeSystemID)
	if err != nil {
		return nil, apperrors.Wrap(err, "Failed to list concepts")
	}
	if items == nil {
		items = []models.Concept{}
	}
	return items, nil
}

func (s *CatalogService) ListConcepts(ctx context.Context, f models.ConceptFilter, page models.PageRequest) (models.Page[models.Concept], error) {
	items, err := s.concepts.List(ctx, f, page)
	if err != nil {
		return models.Page[models.Concept]{}, apperrors.Wrap(err, "Failed to list concepts")
	}
	total, err := s.concepts.Count(ctx, f)
	if err != nil {
		return models.Page[models.Concept]{}, apperrors.Wrap(err, "Failed to count concepts")
	}
	return models.NewPage(items, total, page), nil
}

func (s *CatalogService) UpdateConcept(ctx context.Context, id uuid.UUID, in models.ConceptInput, actor string) (*models.Concept, error) {
	c, err := s.concepts.Get(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(err, "Failed to load concept")
	}
	if in.Code != nil && strings.TrimSpace(*in.Code) == "" {
		return nil, apperrors.NewValidationError("code must not be empty")
	}
	if in.CodeSystemID != nil && *in.CodeSystemID != c.CodeSystemID {
		if _, err := s.codeSystems.Get(ctx, *in.CodeSystemID); err != nil {
			return nil, apperrors.Wrap(err, "Failed to load codesystem")
		}
	}
	before := *c
	in.Apply(c)
	if err := s.concepts.Update(ctx, c); err != nil {
		return nil, apperrors.Wrap(err, "Failed to update concept")
	}
	s.audit.Record(ctx, c.TableName(), models.OperationUpdate, c.ID, actor, before, c)
	return c, nil
}

func (s *CatalogService) DeleteConcept(ctx context.Context, id uuid.UUID, actor string) (*models.Concept, error) {
	c, err := s.concepts.Get(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(err, "Failed to load concept")
	}
	if err := s.concepts.Delete(ctx, id); err != nil {
		return nil, apperrors.Wrap(err, "Failed to delete concept")
	}
	s.audit.Record(ctx, c.TableName(), models.OperationDelete, id, actor, c, nil)
	return c, nil
}

// Concept maps

func (s *CatalogService) CreateConceptMap(ctx context.Context, in models.ConceptMapInput, actor string) (*models.ConceptMap, error) {
	switch {
	case in.SourceCodeSystemID == nil || *in.SourceCodeSystemID == uuid.Nil:
		return nil, apperrors.NewValidationError("source_codesystem_id is required")
	case in.TargetCodeSystemID == nil || *in.TargetCodeSystemID == uuid.Nil:
		return nil, apperrors.NewValidationError("target_codesystem_id is required")
	case in.SourceCode == nil || strings.TrimSpace(*in.SourceCode) == "":
		return nil, apperrors.NewValidationError("source_code is required")
	case in.TargetCode == nil || strings.TrimSpace(*in.TargetCode) == "":
		return nil, apperrors.NewValidationError("target_code is required")
	}
	if err := s.requireCodeSystem(ctx, *in.SourceCodeSystemID, "Source"); err != nil {
		return nil, err
	}
	if err := s.requireCodeSystem(ctx, *in.TargetCodeSystemID, "Target"); err != nil {
		return nil, err
	}

	m := &models.ConceptMap{}
	in.Apply(m)
	if err := s.conceptMaps.Create(ctx, m); err != nil {
		return nil, apperrors.Wrap(err, "Failed to create conceptmap")
	}
	s.audit.Record(ctx, m.TableName(), models.OperationInsert, m.ID, actor, nil, m)
	return m, nil
}

func (s *CatalogService) GetConceptMap(ctx context.Context, id uuid.UUID) (*models.ConceptMap, error) {
	m, err := s.conceptMaps.Get(ctx, id)
	return m, apperrors.Wrap(err, "Failed to load conceptmap")
}

func (s *CatalogService) ListConceptMaps(ctx context.Context, f models.ConceptMapFilter, page models.PageRequest) (models.Page[models.ConceptMap], error) {
	items, err := s.conceptMaps.List(ctx, f, page)
	if err != nil {
		return models.Page[models.ConceptMap]{}, apperrors.Wrap(err, "Failed to list conceptmaps")
	}
	total, err := s.conceptMaps.Count(ctx, f)
	if err != nil {
		return models.Page[models.ConceptMap]{}, apperrors.Wrap(err, "Failed to count conceptmaps")
	}
	return models.NewPage(items, total, page), nil
}

func (s *CatalogService) UpdateConceptMap(ctx context.Context, id uuid.UUID, in models.ConceptMapInput, actor string) (*models.ConceptMap, error) {
	m, err := s.conceptMaps.Get(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(err, "Failed to load conceptmap")
	}
	if in.SourceCodeSystemID != nil && *in.SourceCodeSystemID != m.SourceCodeSystemID {
		if err := s.requireCodeSystem(ctx, *in.SourceCodeSystemID, "Source"); err != nil {
			return nil, err
		}
	}
	if in.TargetCodeSystemID != nil && *in.TargetCodeSystemID != m.TargetCodeSystemID {
		if err := s.requireCodeSystem(ctx, *in.TargetCodeSystemID, "Target"); err != nil {
			return nil, err
		}
	}
	before := *m
	in.Apply(m)
	if err := s.conceptMaps.Update(ctx, m); err != nil {
		return nil, apperrors.Wrap(err, "Failed to update conceptmap")
	}
	s.audit.Record(ctx, m.TableName(), models.OperationUpdate, m.ID, actor, before, m)
	return m, nil
}

func (s *CatalogService) DeleteConceptMap(ctx context.Context, id uuid.UUID, actor string) (*models.ConceptMap, error) {
	m, err := s.conceptMaps.Get(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(err, "Failed to load conceptmap")
	}
	if err := s.conceptMaps.Delete(ctx, id); err != nil {
		return nil, apperrors.Wrap(err, "Failed to delete conceptmap")
	}
	s.audit.Record(ctx, m.TableName(), models.OperationDelete, id, actor, m, nil)
	return m, nil
}

// Translate maps source_code from one code system to another. Code systems are
// looked up by URL first, then by name.
func (s *CatalogService) Translate(ctx context.Context, req models.TranslationRequest) (*models.TranslationResponse, error) {
	source, err := s.resolveCodeSystem(ctx, req.SourceCodeSystem)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFoundErrorf("Source codesystem not found: %s", req.SourceCodeSystem)
		}
		return nil, apperrors.Wrap(err, "Failed to resolve source codesystem")
	}
	target, err := s.resolveCodeSystem(ctx, req.TargetCodeSystem)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFoundErrorf("Target codesystem not found: %s", req.TargetCodeSystem)
		}
		return nil, apperrors.Wrap(err, "Failed to resolve target codesystem")
	}

	m, err := s.conceptMaps.FindTranslation(ctx, source.ID, target.ID, req.SourceCode)
	if err != nil {
		return nil, apperrors.Wrap(err, "Failed to translate code")
	}
	if m == nil {
		return &models.TranslationResponse{Found: false}, nil
	}
	return &models.TranslationResponse{
		TargetCode:  models.StringPtr(m.TargetCode),
		Equivalence: m.Equivalence,
		Found:       true,
	}, nil
}

func (s *CatalogService) resolveCodeSystem(ctx context.Context, ref string) (*models.CodeSystem, error) {
	cs, err := s.codeSystems.GetByURL(ctx, ref)
	if err == nil || !apperrors.IsNotFound(err) {
		return cs, err
	}
	return s.codeSystems.GetByName(ctx, ref)
}

// Counts used by the dashboard.

func (s *CatalogService) CountConcepts(ctx context.Context) (int64, error) {
	return s.concepts.Count(ctx, models.ConceptFilter{})
}

func (s *CatalogService) CountConceptMaps(ctx context.Context) (int64, error) {
	return s.conceptMaps.Count(ctx, models.ConceptMapFilter{})
}

func (s *CatalogService) CountCodeSystems(ctx context.Context) (int64, error) {
	return s.codeSystems.Count(ctx, models.CodeSystemFilter{})
}
