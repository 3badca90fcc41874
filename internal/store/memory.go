// internal/store/memory.go
package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"

	"github.com/javajoker/firenoc-backend/internal/apperrors"
	"github.com/javajoker/firenoc-backend/internal/models"
)

// MemoryStore is an in-process Store for tests and local runs. One mutex
// guards all tables, which gives the same per-record atomicity as row locks.
// Sequences sit outside the tables so a rolled back transaction never hands
// out a number twice.
type MemoryStore struct {
	mu   *sync.Mutex
	data *memoryData
	seq  *memorySequences
	inTx bool
	now  func() time.Time
}

type memorySequences struct {
	mu     sync.Mutex
	values map[string]int64
}

type memoryData struct {
	applications *table[models.Application, *models.Application]
	inspections  *table[models.Inspection, *models.Inspection]
	certificates *table[models.Certificate, *models.Certificate]
	licenses     *table[models.License, *models.License]
	users        *table[models.User, *models.User]
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		mu: &sync.Mutex{},
		data: &memoryData{
			applications: newTable(cloneApplication, func(a, b *models.Application) bool {
				return a.ApplicationNumber == b.ApplicationNumber
			}),
			inspections: newTable(cloneInspection, func(a, b *models.Inspection) bool {
				return a.ApplicationID == b.ApplicationID
			}),
			certificates: newTable(cloneCertificate, func(a, b *models.Certificate) bool {
				return a.NOCNumber == b.NOCNumber || a.ApplicationID == b.ApplicationID
			}),
			licenses: newTable(cloneLicense, func(a, b *models.License) bool {
				return a.LicenseNumber == b.LicenseNumber || a.ApplicationID == b.ApplicationID
			}),
			users: newTable(func(u *models.User) *models.User { c := *u; return &c }, func(a, b *models.User) bool {
				return a.Email == b.Email
			}),
		},
		seq: &memorySequences{values: make(map[string]int64)},
		now: time.Now,
	}
}

var (
	_ Store     = (*MemoryStore)(nil)
	_ Sequencer = (*MemoryStore)(nil)
)

func (s *MemoryStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *MemoryStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer s.lock()()

	snapshot := s.data.copy()
	tx := &MemoryStore{mu: s.mu, data: s.data, seq: s.seq, inTx: true, now: s.now}
	if err := fn(tx); err != nil {
		*s.data = *snapshot
		return err
	}
	return nil
}

func (s *MemoryStore) Next(_ context.Context, name string) (int64, error) {
	s.seq.mu.Lock()
	defer s.seq.mu.Unlock()
	s.seq.values[name]++
	return s.seq.values[name], nil
}

// Applications

func (s *MemoryStore) CreateApplication(_ context.Context, app *models.Application) error {
	defer s.lock()()
	return s.data.applications.insert(app, s.now(), "application")
}

func (s *MemoryStore) GetApplication(_ context.Context, id uuid.UUID) (*models.Application, error) {
	defer s.lock()()
	return s.data.applications.get(id, "application")
}

func (s *MemoryStore) UpdateApplication(_ context.Context, id uuid.UUID, mutate func(*models.Application) error) (*models.Application, error) {
	defer s.lock()()
	return s.data.applications.update(id, mutate, s.now(), "application")
}

func (s *MemoryStore) FindApplications(_ context.Context, filter ApplicationFilter, page Page) ([]models.Application, int64, error) {
	defer s.lock()()
	out, total := s.data.applications.find(filter.Match, page, true)
	return out, total, nil
}

func (s *MemoryStore) CountApplications(_ context.Context, filter ApplicationFilter) (int64, error) {
	defer s.lock()()
	_, total := s.data.applications.find(filter.Match, All, true)
	return total, nil
}

func (s *MemoryStore) DeleteApplication(_ context.Context, id uuid.UUID) error {
	defer s.lock()()
	return s.data.applications.delete(id, "application")
}

// Inspections

func (s *MemoryStore) CreateInspection(_ context.Context, inspection *models.Inspection) error {
	defer s.lock()()
	return s.data.inspections.insert(inspection, s.now(), "inspection")
}

func (s *MemoryStore) GetInspection(_ context.Context, id uuid.UUID) (*models.Inspection, error) {
	defer s.lock()()
	return s.data.inspections.get(id, "inspection")
}

func (s *MemoryStore) UpdateInspection(_ context.Context, id uuid.UUID, mutate func(*models.Inspection) error) (*models.Inspection, error) {
	defer s.lock()()
	return s.data.inspections.update(id, mutate, s.now(), "inspection")
}

func (s *MemoryStore) FindInspections(_ context.Context, filter InspectionFilter, page Page) ([]models.Inspection, int64, error) {
	defer s.lock()()
	out, total := s.data.inspections.find(filter.Match, page, true)
	return out, total, nil
}

// Certificates

func (s *MemoryStore) CreateCertificate(_ context.Context, noc *models.Certificate) error {
	defer s.lock()()
	return s.data.certificates.insert(noc, s.now(), "noc")
}

func (s *MemoryStore) GetCertificate(_ context.Context, id uuid.UUID) (*models.Certificate, error) {
	defer s.lock()()
	return s.data.certificates.get(id, "noc")
}

func (s *MemoryStore) UpdateCertificate(_ context.Context, id uuid.UUID, mutate func(*models.Certificate) error) (*models.Certificate, error) {
	defer s.lock()()
	return s.data.certificates.update(id, mutate, s.now(), "noc")
}

func (s *MemoryStore) FindCertificates(_ context.Context, filter CertificateFilter, page Page) ([]models.Certificate, int64, error) {
	defer s.lock()()
	out, total := s.data.certificates.find(filter.Match, page, true)
	return out, total, nil
}

func (s *MemoryStore) ExpireCertificates(_ context.Context, now time.Time) (int64, error) {
	defer s.lock()()
	var n int64
	for _, c := range s.data.certificates.rows {
		if c.Status == models.CertificateStatusActive && c.ValidUntil.Before(now) {
			c.Status = models.CertificateStatusExpired
			c.UpdatedAt = s.now()
			n++
		}
	}
	return n, nil
}

// Licenses

func (s *MemoryStore) CreateLicense(_ context.Context, license *models.License) error {
	defer s.lock()()
	return s.data.licenses.insert(license, s.now(), "license")
}

func (s *MemoryStore) GetLicense(_ context.Context, id uuid.UUID) (*models.License, error) {
	defer s.lock()()
	return s.data.licenses.get(id, "license")
}

func (s *MemoryStore) UpdateLicense(_ context.Context, id uuid.UUID, mutate func(*models.License) error) (*models.License, error) {
	defer s.lock()()
	return s.data.licenses.update(id, mutate, s.now(), "license")
}

func (s *MemoryStore) FindLicenses(_ context.Context, filter LicenseFilter, page Page) ([]models.License, int64, error) {
	defer s.lock()()
	out, total := s.data.licenses.find(filter.Match, page, true)
	return out, total, nil
}

func (s *MemoryStore) ExpireLicenses(_ context.Context, now time.Time) (int64, error) {
	defer s.lock()()
	var n int64
	for _, l := range s.data.licenses.rows {
		if l.Status == models.LicenseStatusActive && l.ValidUntil.Before(now) {
			l.Status = models.LicenseStatusExpired
			l.UpdatedAt = s.now()
			n++
		}
	}
	return n, nil
}

// Users

func (s *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	defer s.lock()()
	return s.data.users.insert(user, s.now(), "user")
}

func (s *MemoryStore) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	defer s.lock()()
	return s.data.users.get(id, "user")
}

func (s *MemoryStore) UpdateUser(_ context.Context, id uuid.UUID, mutate func(*models.User) error) (*models.User, error) {
	defer s.lock()()
	return s.data.users.update(id, mutate, s.now(), "user")
}

func (s *MemoryStore) FindUsers(_ context.Context, filter UserFilter, page Page) ([]models.User, int64, error) {
	defer s.lock()()
	out, total := s.data.users.find(filter.Match, page, false)
	return out, total, nil
}

func (d *memoryData) copy() *memoryData {
	return &memoryData{
		applications: d.applications.copy(),
		inspections:  d.inspections.copy(),
		certificates: d.certificates.copy(),
		licenses:     d.licenses.copy(),
		users:        d.users.copy(),
	}
}

type record[T any] interface {
	*T
	Base() *models.BaseModel
}

// table keeps rows in insertion order. Rows are cloned on the way in and on
// the way out so callers never share memory with the store.
type table[T any, P record[T]] struct {
	rows     map[uuid.UUID]P
	order    []uuid.UUID
	clone    func(P) P
	conflict func(a, b P) bool
}

func newTable[T any, P record[T]](clone func(P) P, conflict func(a, b P) bool) *table[T, P] {
	return &table[T, P]{rows: make(map[uuid.UUID]P), clone: clone, conflict: conflict}
}

func (t *table[T, P]) insert(rec P, now time.Time, resource string) error {
	for _, existing := range t.rows {
		if t.conflict(existing, rec) {
			return apperrors.Conflict("%s already exists", resource)
		}
	}
	base := rec.Base()
	if base.ID == uuid.Nil {
		base.ID = uuid.New()
	}
	if _, exists := t.rows[base.ID]; exists {
		return apperrors.Conflict("%s already exists", resource)
	}
	base.CreatedAt, base.UpdatedAt = now, now
	t.rows[base.ID] = t.clone(rec)
	t.order = append(t.order, base.ID)
	return nil
}

func (t *table[T, P]) get(id uuid.UUID, resource string) (P, error) {
	rec, ok := t.rows[id]
	if !ok {
		return nil, apperrors.NotFound(resource)
	}
	return t.clone(rec), nil
}

func (t *table[T, P]) update(id uuid.UUID, mutate func(P) error, now time.Time, resource string) (P, error) {
	rec, err := t.get(id, resource)
	if err != nil {
		return nil, err
	}
	if err := mutate(rec); err != nil {
		return nil, err
	}
	rec.Base().UpdatedAt = now
	t.rows[id] = t.clone(rec)
	return rec, nil
}

func (t *table[T, P]) delete(id uuid.UUID, resource string) error {
	if _, ok := t.rows[id]; !ok {
		return apperrors.NotFound(resource)
	}
	delete(t.rows, id)
	return nil
}

func (t *table[T, P]) find(match func(P) bool, page Page, newest bool) ([]T, int64) {
	var matched []P
	for i := range t.order {
		idx := i
		if newest {
			idx = len(t.order) - 1 - i
		}
		rec, ok := t.rows[t.order[idx]]
		if ok && match(rec) {
			matched = append(matched, rec)
		}
	}

	total := int64(len(matched))
	if page.Offset >= len(matched) {
		return []T{}, total
	}
	matched = matched[page.Offset:]
	if page.Limit > 0 && page.Limit < len(matched) {
		matched = matched[:page.Limit]
	}

	out := make([]T, 0, len(matched))
	for _, rec := range matched {
		out = append(out, *t.clone(rec))
	}
	return out, total
}

func (t *table[T, P]) copy() *table[T, P] {
	c := newTable(t.clone, t.conflict)
	for id, rec := range t.rows {
		c.rows[id] = t.clone(rec)
	}
	c.order = append([]uuid.UUID(nil), t.order...)
	return c
}

func cloneApplication(a *models.Application) *models.Application {
	c := *a
	c.Documents = append(datatypes.JSONSlice[models.Document](nil), a.Documents...)
	c.Timeline = append(datatypes.JSONSlice[models.TimelineEntry](nil), a.Timeline...)
	c.AssignedTo = clonePtr(a.AssignedTo)
	c.InspectionID = clonePtr(a.InspectionID)
	c.NOCID = clonePtr(a.NOCID)
	c.LicenseID = clonePtr(a.LicenseID)
	c.Deadlines = models.Deadlines{
		Inspection:    clonePtr(a.Deadlines.Inspection),
		FollowUp:      clonePtr(a.Deadlines.FollowUp),
		FinalDecision: clonePtr(a.Deadlines.FinalDecision),
	}
	return &c
}

func cloneInspection(i *models.Inspection) *models.Inspection {
	c := *i
	c.ChecklistItems = append(datatypes.JSONSlice[models.ChecklistItem](nil), i.ChecklistItems...)
	c.OverallCompliance = clonePtr(i.OverallCompliance)
	c.FollowUpDeadline = clonePtr(i.FollowUpDeadline)
	c.CompletedAt = clonePtr(i.CompletedAt)
	return &c
}

func cloneCertificate(n *models.Certificate) *models.Certificate {
	c := *n
	c.Conditions = append(pq.StringArray(nil), n.Conditions...)
	c.Restrictions = append(pq.StringArray(nil), n.Restrictions...)
	return &c
}

func cloneLicense(l *models.License) *models.License {
	c := *l
	c.Conditions = append(pq.StringArray(nil), l.Conditions...)
	c.Restrictions = append(pq.StringArray(nil), l.Restrictions...)
	c.RenewalHistory = append(datatypes.JSONSlice[models.RenewalRecord](nil), l.RenewalHistory...)
	c.Fees.PaymentDate = clonePtr(l.Fees.PaymentDate)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
