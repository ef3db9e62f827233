package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"riskintel/pkg/domain"
)

// MemoryStore keeps everything in-process. It backs tests and local
// experiments; the invariants match the GORM implementation.
type MemoryStore struct {
	mu sync.RWMutex

	nextID     int64
	countries  map[int64]domain.Country
	categories map[int64]domain.RiskCategory
	riskData   map[int64]domain.RiskData
	forecasts  map[int64]domain.RiskForecast

	artifacts map[string]domain.Artifact
	quotas    map[string]domain.QuotaProfile
	reports   map[string]domain.ReportRequest
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		countries:  make(map[int64]domain.Country),
		categories: make(map[int64]domain.RiskCategory),
		riskData:   make(map[int64]domain.RiskData),
		forecasts:  make(map[int64]domain.RiskForecast),
		artifacts:  make(map[string]domain.Artifact),
		quotas:     make(map[string]domain.QuotaProfile),
		reports:    make(map[string]domain.ReportRequest),
	}
}

func (m *MemoryStore) allocID() int64 {
	m.nextID++
	return m.nextID
}

// SaveCountry stores or replaces a country, assigning an ID when absent.
func (m *MemoryStore) SaveCountry(c domain.Country) (domain.Country, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == 0 {
		c.ID = m.allocID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	m.countries[c.ID] = c
	return c, nil
}

func (m *MemoryStore) GetCountry(id int64) (domain.Country, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.countries[id]
	return c, ok, nil
}

func (m *MemoryStore) ListCountries() ([]domain.Country, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Country, 0, len(m.countries))
	for _, c := range m.countries {
		res = append(res, c)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res, nil
}

func (m *MemoryStore) DeleteCountry(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.countries, id)
	return nil
}

// SaveRiskCategory stores or replaces a risk category.
func (m *MemoryStore) SaveRiskCategory(c domain.RiskCategory) (domain.RiskCategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == 0 {
		c.ID = m.allocID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	m.categories[c.ID] = c
	return c, nil
}

func (m *MemoryStore) GetRiskCategory(id int64) (domain.RiskCategory, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.categories[id]
	return c, ok, nil
}

func (m *MemoryStore) ListRiskCategories() ([]domain.RiskCategory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.RiskCategory, 0, len(m.categories))
	for _, c := range m.categories {
		res = append(res, c)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Slug < res[j].Slug })
	return res, nil
}

func (m *MemoryStore) DeleteRiskCategory(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.categories, id)
	return nil
}

// SaveRiskData stores or replaces a risk data point.
func (m *MemoryStore) SaveRiskData(d domain.RiskData) (domain.RiskData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == 0 {
		d.ID = m.allocID()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	m.riskData[d.ID] = d
	return d, nil
}

func (m *MemoryStore) GetRiskData(id int64) (domain.RiskData, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.riskData[id]
	return d, ok, nil
}

func (m *MemoryStore) ListRiskData() ([]domain.RiskData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.RiskData, 0, len(m.riskData))
	for _, d := range m.riskData {
		res = append(res, d)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Date.After(res[j].Date) })
	return res, nil
}

func (m *MemoryStore) DeleteRiskData(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.riskData, id)
	return nil
}

// SaveRiskForecast stores or replaces a forecast.
func (m *MemoryStore) SaveRiskForecast(f domain.RiskForecast) (domain.RiskForecast, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f.ID == 0 {
		f.ID = m.allocID()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	m.forecasts[f.ID] = f
	return f, nil
}

func (m *MemoryStore) GetRiskForecast(id int64) (domain.RiskForecast, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.forecasts[id]
	return f, ok, nil
}

func (m *MemoryStore) ListRiskForecasts() ([]domain.RiskForecast, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.RiskForecast, 0, len(m.forecasts))
	for _, f := range m.forecasts {
		res = append(res, f)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ForecastDate.Before(res[j].ForecastDate) })
	return res, nil
}

func (m *MemoryStore) DeleteRiskForecast(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.forecasts, id)
	return nil
}

// CreateArtifact inserts the reservation row.
func (m *MemoryStore) CreateArtifact(a domain.Artifact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.artifacts[a.ID]; exists {
		return errors.New("artifact id already exists")
	}
	m.artifacts[a.ID] = a
	return nil
}

func (m *MemoryStore) GetArtifact(id string) (domain.Artifact, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.artifacts[id]
	return a, ok, nil
}

func (m *MemoryStore) ListArtifactsByOwner(ownerID string) ([]domain.Artifact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Artifact, 0)
	for _, a := range m.artifacts {
		if a.OwnerID == ownerID {
			res = append(res, a)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].GeneratedAt.After(res[j].GeneratedAt) })
	return res, nil
}

// FinalizeArtifact flips the row to completed with its final size and key.
func (m *MemoryStore) FinalizeArtifact(id string, sizeBytes int64, storageKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.artifacts[id]
	if !ok {
		return errors.New("artifact not found")
	}
	a.Status = domain.StatusCompleted
	a.SizeBytes = sizeBytes
	a.StorageKey = storageKey
	a.AccessedAt = time.Now().UTC()
	m.artifacts[id] = a
	return nil
}

// MarkArtifactFailed records a terminal failure.
func (m *MemoryStore) MarkArtifactFailed(id string, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.artifacts[id]
	if !ok {
		return errors.New("artifact not found")
	}
	a.Status = domain.StatusFailed
	a.ErrorMessage = errMsg
	a.AccessedAt = time.Now().UTC()
	m.artifacts[id] = a
	return nil
}

func (m *MemoryStore) TouchArtifact(id string, accessedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.artifacts[id]
	if !ok {
		return errors.New("artifact not found")
	}
	a.AccessedAt = accessedAt.UTC()
	m.artifacts[id] = a
	return nil
}

func (m *MemoryStore) DeleteArtifact(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.artifacts, id)
	return nil
}

// GetOrCreateQuotaProfile upserts the owner's profile with the default limit.
func (m *MemoryStore) GetOrCreateQuotaProfile(ownerID string, defaultLimitBytes int64) (domain.QuotaProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.quotas[ownerID]; ok {
		return p, nil
	}
	now := time.Now().UTC()
	p := domain.QuotaProfile{
		OwnerID:         ownerID,
		QuotaLimitBytes: defaultLimitBytes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	m.quotas[ownerID] = p
	return p, nil
}

// UsedBytes recomputes the owner's usage from the catalog.
func (m *MemoryStore) UsedBytes(ownerID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var total int64
	for _, a := range m.artifacts {
		if a.OwnerID == ownerID {
			total += a.SizeBytes
		}
	}
	return total, nil
}

// CreateReportRequest inserts a deferred report request.
func (m *MemoryStore) CreateReportRequest(r domain.ReportRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.reports[r.ID]; exists {
		return errors.New("report request id already exists")
	}
	m.reports[r.ID] = r
	return nil
}

func (m *MemoryStore) GetReportRequest(id string) (domain.ReportRequest, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reports[id]
	return r, ok, nil
}

func (m *MemoryStore) ListReportRequestsByOwner(ownerID string) ([]domain.ReportRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.ReportRequest, 0)
	for _, r := range m.reports {
		if r.OwnerID == ownerID {
			res = append(res, r)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}

func (m *MemoryStore) SetReportRequestStatus(id string, status domain.ReportStatus, artifactID, errMsg string, completedAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return errors.New("report request not found")
	}
	r.Status = status
	r.ErrorMessage = errMsg
	if artifactID != "" {
		r.ArtifactID = artifactID
	}
	if completedAt != nil {
		t := completedAt.UTC()
		r.CompletedAt = &t
	}
	m.reports[id] = r
	return nil
}
