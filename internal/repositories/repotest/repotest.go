// Package repotest provides in-memory stand-ins for the gorm repositories.
// Setting Err on a fake makes every call fail with it.
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"fhirfly-backend/internal/apperrors"
	"fhirfly-backend/internal/models"

	"github.com/google/uuid"
)

type table[K comparable, T any] struct {
	mu    sync.RWMutex
	order []K
	rows  map[K]T
}

func (t *table[K, T]) put(id K, v T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.rows == nil {
		t.rows = make(map[K]T)
	}
	if _, ok := t.rows[id]; !ok {
		t.order = append(t.order, id)
	}
	t.rows[id] = v
}

func (t *table[K, T]) get(id K) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.rows[id]
	return v, ok
}

func (t *table[K, T]) remove(id K) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	for i, k := range t.order {
		if k == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

// all returns rows in insertion order.
func (t *table[K, T]) all() []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]T, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, t.rows[k])
	}
	return out
}

func paginate[T any](items []T, page models.PageRequest) []T {
	start := page.Offset()
	if start >= len(items) {
		return nil
	}
	end := start + page.Size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func contains(field, term string) bool {
	return strings.Contains(strings.ToLower(field), strings.ToLower(term))
}

func touch(created, updated *time.Time) {
	now := time.Now().UTC()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

// CodeSystems is an in-memory CodeSystemRepository.
type CodeSystems struct {
	t   table[uuid.UUID, models.CodeSystem]
	Err error
}

func (f *CodeSystems) Create(_ context.Context, cs *models.CodeSystem) error {
	if f.Err != nil {
		return f.Err
	}
	if cs.ID == uuid.Nil {
		cs.ID = uuid.New()
	}
	touch(&cs.CreatedAt, &cs.UpdatedAt)
	f.t.put(cs.ID, *cs)
	return nil
}

func (f *CodeSystems) Get(_ context.Context, id uuid.UUID) (*models.CodeSystem, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	cs, ok := f.t.get(id)
	if !ok {
		return nil, apperrors.NewNotFoundError("Codesystem")
	}
	return &cs, nil
}

func (f *CodeSystems) GetByURL(_ context.Context, url string) (*models.CodeSystem, error) {
	return f.find(func(cs models.CodeSystem) bool { return models.StringValue(cs.URL) == url })
}

func (f *CodeSystems) GetByName(_ context.Context, name string) (*models.CodeSystem, error) {
	return f.find(func(cs models.CodeSystem) bool { return models.StringValue(cs.Name) == name })
}

func (f *CodeSystems) find(match func(models.CodeSystem) bool) (*models.CodeSystem, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	for _, cs := range f.t.all() {
		if match(cs) {
			return &cs, nil
		}
	}
	return nil, apperrors.NewNotFoundError("Codesystem")
}

func (f *CodeSystems) ListByIDs(_ context.Context, ids []uuid.UUID) ([]models.CodeSystem, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	var out []models.CodeSystem
	for _, id := range ids {
		if cs, ok := f.t.get(id); ok {
			out = append(out, cs)
		}
	}
	return out, nil
}

func (f *CodeSystems) Update(_ context.Context, cs *models.CodeSystem) error {
	if f.Err != nil {
		return f.Err
	}
	touch(&cs.CreatedAt, &cs.UpdatedAt)
	f.t.put(cs.ID, *cs)
	return nil
}

func (f *CodeSystems) Delete(_ context.Context, id uuid.UUID) error {
	if f.Err != nil {
		return f.Err
	}
	if !f.t.remove(id) {
		return apperrors.NewNotFoundError("Codesystem")
	}
	return nil
}

func (f *CodeSystems) List(_ context.Context, filter models.CodeSystemFilter, page models.PageRequest) ([]models.CodeSystem, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return paginate(f.filtered(filter), page), nil
}

func (f *CodeSystems) Count(_ context.Context, filter models.CodeSystemFilter) (int64, error) {
	if f.Err != nil {
		return 0, f.Err
	}
	return int64(len(f.filtered(filter))), nil
}

func (f *CodeSystems) filtered(filter models.CodeSystemFilter) []models.CodeSystem {
	var out []models.CodeSystem
	for _, cs := range f.t.all() {
		if filter.Search != "" &&
			!contains(models.StringValue(cs.Name), filter.Search) &&
			!contains(models.StringValue(cs.Title), filter.Search) &&
			!contains(models.StringValue(cs.URL), filter.Search) {
			continue
		}
		out = append(out, cs)
	}
	return out
}

// Concepts is an in-memory ConceptRepository.
type Concepts struct {
	t   table[uuid.UUID, models.Concept]
	Err error
}

func (f *Concepts) Create(_ context.Context, c *models.Concept) error {
	if f.Err != nil {
		return f.Err
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	touch(&c.CreatedAt, &c.UpdatedAt)
	f.t.put(c.ID, *c)
	return nil
}

func (f *Concepts) Get(_ context.Context, id uuid.UUID) (*models.Concept, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	c, ok := f.t.get(id)
	if !ok {
		return nil, apperrors.NewNotFoundError("Concept")
	}
	return &c, nil
}

func (f *Concepts) GetByCode(_ context.Context, codeSystemID uuid.UUID, code string) (*models.Concept, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	for _, c := range f.t.all() {
		if c.CodeSystemID == codeSystemID && c.Code == code {
			return &c, nil
		}
	}
	return nil, apperrors.NewNotFoundError("Concept")
}

func (f *Concepts) ListByCodeSystem(_ context.Context, codeSystemID uuid.UUID) ([]models.Concept, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	out := f.filtered(models.ConceptFilter{CodeSystemID: &codeSystemID})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (f *Concepts) Update(_ context.Context, c *models.Concept) error {
	if f.Err != nil {
		return f.Err
	}
	touch(&c.CreatedAt, &c.UpdatedAt)
	f.t.put(c.ID, *c)
	return nil
}

func (f *Concepts) Delete(_ context.Context, id uuid.UUID) error {
	if f.Err != nil {
		return f.Err
	}
	if !f.t.remove(id) {
		return apperrors.NewNotFoundError("Concept")
	}
	return nil
}

func (f *Concepts) List(_ context.Context, filter models.ConceptFilter, page models.PageRequest) ([]models.Concept, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return paginate(f.filtered(filter), page), nil
}

func (f *Concepts) Count(_ context.Context, filter models.ConceptFilter) (int64, error) {
	if f.Err != nil {
		return 0, f.Err
	}
	return int64(len(f.filtered(filter))), nil
}

func (f *Concepts) filtered(filter models.ConceptFilter) []models.Concept {
	var out []models.Concept
	for _, c := range f.t.all() {
		if filter.CodeSystemID != nil && c.CodeSystemID != *filter.CodeSystemID {
			continue
		}
		if filter.Search != "" &&
			!contains(c.Code, filter.Search) &&
			!contains(models.StringValue(c.Display), filter.Search) &&
			!contains(models.StringValue(c.Definition), filter.Search) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ConceptMaps is an in-memory ConceptMapRepository.
type ConceptMaps struct {
	t   table[uuid.UUID, models.ConceptMap]
	Err error
}

func (f *ConceptMaps) Create(_ context.Context, m *models.ConceptMap) error {
	if f.Err != nil {
		return f.Err
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	touch(&m.CreatedAt, &m.UpdatedAt)
	f.t.put(m.ID, *m)
	return nil
}

func (f *ConceptMaps) Get(_ context.Context, id uuid.UUID) (*models.ConceptMap, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	m, ok := f.t.get(id)
	if !ok {
		return nil, apperrors.NewNotFoundError("Conceptmap")
	}
	return &m, nil
}

func (f *ConceptMaps) FindTranslation(_ context.Context, sourceCS, targetCS uuid.UUID, sourceCode string) (*models.ConceptMap, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	for _, m := range f.t.all() {
		if m.SourceCodeSystemID == sourceCS && m.TargetCodeSystemID == targetCS && m.SourceCode == sourceCode {
			return &m, nil
		}
	}
	return nil, nil
}

func (f *ConceptMaps) Update(_ context.Context, m *models.ConceptMap) error {
	if f.Err != nil {
		return f.Err
	}
	touch(&m.CreatedAt, &m.UpdatedAt)
	f.t.put(m.ID, *m)
	return nil
}

func (f *ConceptMaps) Delete(_ context.Context, id uuid.UUID) error {
	if f.Err != nil {
		return f.Err
	}
	if !f.t.remove(id) {
		return apperrors.NewNotFoundError("Conceptmap")
	}
	return nil
}

func (f *ConceptMaps) List(_ context.Context, filter models.ConceptMapFilter, page models.PageRequest) ([]models.ConceptMap, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return paginate(f.filtered(filter), page), nil
}

func (f *ConceptMaps) Count(_ context.Context, filter models.ConceptMapFilter) (int64, error) {
	if f.Err != nil {
		return 0, f.Err
	}
	return int64(len(f.filtered(filter))), nil
}

func (f *ConceptMaps) filtered(filter models.ConceptMapFilter) []models.ConceptMap {
	var out []models.ConceptMap
	for _, m := range f.t.all() {
		if filter.SourceCodeSystemID != nil && m.SourceCodeSystemID != *filter.SourceCodeSystemID {
			continue
		}
		if filter.TargetCodeSystemID != nil && m.TargetCodeSystemID != *filter.TargetCodeSystemID {
			continue
		}
		if filter.Search != "" &&
			!contains(m.SourceCode, filter.Search) &&
			!contains(m.TargetCode, filter.Search) &&
			!contains(models.StringValue(m.Equivalence), filter.Search) &&
			!contains(m.Meta().Display, filter.Search) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// AuditLogs is an in-memory AuditLogRepository.
type AuditLogs struct {
	t   table[uuid.UUID, models.AuditLog]
	Err error
}

func (f *AuditLogs) Create(_ context.Context, entry *models.AuditLog) error {
	if f.Err != nil {
		return f.Err
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.ChangedAt.IsZero() {
		entry.ChangedAt = time.Now().UTC()
	}
	f.t.put(entry.ID, *entry)
	return nil
}

func (f *AuditLogs) Get(_ context.Context, id uuid.UUID) (*models.AuditLog, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	entry, ok := f.t.get(id)
	if !ok {
		return nil, apperrors.NewNotFoundError("Audit log")
	}
	return &entry, nil
}

func (f *AuditLogs) List(_ context.Context, filter models.AuditLogFilter, page models.PageRequest) ([]models.AuditLog, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return paginate(f.filtered(filter), page), nil
}

func (f *AuditLogs) Count(_ context.Context, filter models.AuditLogFilter) (int64, error) {
	if f.Err != nil {
		return 0, f.Err
	}
	return int64(len(f.filtered(filter))), nil
}

func (f *AuditLogs) ListByRecord(_ context.Context, tableName string, recordID uuid.UUID) ([]models.AuditLog, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.filtered(models.AuditLogFilter{Table: tableName, RecordID: &recordID}), nil
}

// All returns every entry in insertion order.
func (f *AuditLogs) All() []models.AuditLog {
	return f.t.all()
}

// filtered returns matches newest first.
func (f *AuditLogs) filtered(filter models.AuditLogFilter) []models.AuditLog {
	rows := f.t.all()
	var out []models.AuditLog
	for i := len(rows) - 1; i >= 0; i-- {
		e := rows[i]
		if filter.Table != "" && e.Table != filter.Table {
			continue
		}
		if filter.Operation != "" && e.Operation != filter.Operation {
			continue
		}
		if filter.RecordID != nil && e.RecordID != *filter.RecordID {
			continue
		}
		if filter.UserID != "" && models.StringValue(e.UserID) != filter.UserID {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Problems is an in-memory ProblemRepository.
type Problems struct {
	t   table[string, models.ProblemListItem]
	Err error
}

func (f *Problems) Create(_ context.Context, item *models.ProblemListItem) error {
	if f.Err != nil {
		return f.Err
	}
	f.t.put(item.ID, *item)
	return nil
}

func (f *Problems) ListByOwner(_ context.Context, ownerID string) ([]models.ProblemListItem, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	rows := f.t.all()
	var out []models.ProblemListItem
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].OwnerID == ownerID {
			out = append(out, rows[i])
		}
	}
	return out, nil
}

func (f *Problems) Delete(_ context.Context, ownerID, id string) error {
	if f.Err != nil {
		return f.Err
	}
	item, ok := f.t.get(id)
	if !ok || item.OwnerID != ownerID {
		return apperrors.NewNotFoundError("Problem")
	}
	f.t.remove(id)
	return nil
}

func (f *Problems) CountOwners(_ context.Context) (int64, error) {
	if f.Err != nil {
		return 0, f.Err
	}
	owners := map[string]struct{}{}
	for _, item := range f.t.all() {
		owners[item.OwnerID] = struct{}{}
	}
	return int64(len(owners)), nil
}

func (f *Problems) CountAddedSince(_ context.Context, since time.Time) (int64, error) {
	if f.Err != nil {
		return 0, f.Err
	}
	var n int64
	for _, item := range f.t.all() {
		if !item.AddedAt.Before(since) {
			n++
		}
	}
	return n, nil
}
