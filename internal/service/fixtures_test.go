package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/jbernadas/islalist-pwa/internal/models"
	"github.com/jbernadas/islalist-pwa/internal/visibility"
	appErrors "github.com/jbernadas/islalist-pwa/pkg/errors"
)

func strRef(s string) *string { return &s }

// memLocations is an in-memory location directory: Davao del Norte with Tagum and Asuncion,
// plus Davao de Oro with Compostela.
type memLocations struct {
	provinces      []models.Province
	municipalities []models.Municipality
	barangays      []models.Barangay
	codes          []models.LocationCheck
	err            error
	listCalls      int
}

func newMemLocations() *memLocations {
	return &memLocations{
		provinces: []models.Province{
			{ID: "p1", Code: "112300000", Name: "Davao del Norte", Active: true},
			{ID: "p2", Code: "112400000", Name: "Davao de Oro", Active: true},
		},
		municipalities: []models.Municipality{
			{ID: "m1", Code: "112314000", Name: "City of Tagum", ProvinceID: "p1", Kind: models.MunicipalityKindCity, Active: true},
			{ID: "m2", Code: "112302000", Name: "Asuncion", ProvinceID: "p1", Kind: models.MunicipalityKindMunicipality, Active: true},
			{ID: "m3", Code: "112401000", Name: "Compostela", ProvinceID: "p2", Kind: models.MunicipalityKindMunicipality, Active: true},
		},
		barangays: []models.Barangay{
			{ID: "b1", Code: "112314001", Name: "Apokon", MunicipalityID: "m1"},
			{ID: "b2", Code: "112314002", Name: "Bincungan", MunicipalityID: "m1"},
			{ID: "b3", Code: "112302001", Name: "Binancian", MunicipalityID: "m2"},
		},
	}
}

func (m *memLocations) FindProvince(ctx context.Context, code string) (*models.Province, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.provinces {
		if m.provinces[i].Code == code {
			return &m.provinces[i], nil
		}
	}
	return nil, nil
}

func (m *memLocations) FindMunicipality(ctx context.Context, code, provinceID string) (*models.Municipality, error) {
	for i := range m.municipalities {
		if m.municipalities[i].Code == code && m.municipalities[i].ProvinceID == provinceID {
			return &m.municipalities[i], nil
		}
	}
	return nil, nil
}

func (m *memLocations) FindMunicipalityByCode(ctx context.Context, code string) (*models.Municipality, error) {
	for i := range m.municipalities {
		if m.municipalities[i].Code == code {
			return &m.municipalities[i], nil
		}
	}
	return nil, nil
}

func (m *memLocations) FindBarangay(ctx context.Context, code, municipalityID string) (*models.Barangay, error) {
	for i := range m.barangays {
		if m.barangays[i].Code == code && m.barangays[i].MunicipalityID == municipalityID {
			return &m.barangays[i], nil
		}
	}
	return nil, nil
}

func (m *memLocations) ListProvinces(ctx context.Context, activeOnly bool) ([]models.ProvinceSummary, error) {
	m.listCalls++
	if m.err != nil {
		return nil, m.err
	}
	out := []models.ProvinceSummary{}
	for _, p := range m.provinces {
		if activeOnly && !p.Active {
			continue
		}
		out = append(out, models.ProvinceSummary{ID: p.ID, Name: p.Name, Code: p.Code})
	}
	return out, nil
}

func (m *memLocations) ListActiveMunicipalities(ctx context.Context, provinceID string, includeDistricts bool) ([]models.Municipality, error) {
	m.listCalls++
	out := []models.Municipality{}
	for _, mun := range m.municipalities {
		if mun.ProvinceID != provinceID || !mun.Active {
			continue
		}
		if !includeDistricts && mun.IsSubMunicipality() {
			continue
		}
		out = append(out, mun)
	}
	return out, nil
}

func (m *memLocations) ListBarangays(ctx context.Context, municipalityID string) ([]models.Barangay, error) {
	m.listCalls++
	out := []models.Barangay{}
	for _, b := range m.barangays {
		if b.MunicipalityID == municipalityID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memLocations) GetProvince(ctx context.Context, id string) (*models.Province, error) {
	for i := range m.provinces {
		if m.provinces[i].ID == id {
			return &m.provinces[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memLocations) GetMunicipality(ctx context.Context, id string) (*models.Municipality, error) {
	for i := range m.municipalities {
		if m.municipalities[i].ID == id {
			return &m.municipalities[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memLocations) GetBarangay(ctx context.Context, id string) (*models.Barangay, error) {
	for i := range m.barangays {
		if m.barangays[i].ID == id {
			return &m.barangays[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memLocations) ListMunicipalityCodes(ctx context.Context) ([]models.LocationCheck, error) {
	return m.codes, m.err
}

// memListings stores listings in memory and evaluates plans with the in-memory matcher.
type memListings struct {
	mu         sync.Mutex
	rows       []models.Listing
	lastFilter models.ListingFilter
	lastPlan   visibility.Plan
	views      map[string]int
	err        error
	expired    int64
	counts     []models.StatusCount
}

func (m *memListings) List(ctx context.Context, filter models.ListingFilter, plan visibility.Plan) ([]models.Listing, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilter, m.lastPlan = filter, plan
	if m.err != nil {
		return nil, 0, m.err
	}
	var candidates []models.Listing
	for _, l := range m.rows {
		if len(filter.Status) > 0 && !containsStatus(filter.Status, l.Status) {
			continue
		}
		candidates = append(candidates, l)
	}
	visible := visibility.FilterListings(candidates, plan)
	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	start := (page - 1) * size
	if start > len(visible) {
		start = len(visible)
	}
	end := start + size
	if end > len(visible) {
		end = len(visible)
	}
	return visible[start:end], len(visible), nil
}

func containsStatus(statuses []models.ListingStatus, s models.ListingStatus) bool {
	for _, v := range statuses {
		if v == s {
			return true
		}
	}
	return false
}

func (m *memListings) GetByID(ctx context.Context, id string) (*models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == id {
			l := m.rows[i]
			return &l, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memListings) ListBySeller(ctx context.Context, sellerID string) ([]models.Listing, error) {
	out := []models.Listing{}
	for _, l := range m.rows {
		if l.SellerID == sellerID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memListings) Create(ctx context.Context, listing *models.Listing) error {
	if m.err != nil {
		return m.err
	}
	listing.ID = "new-listing"
	m.rows = append(m.rows, *listing)
	return nil
}

func (m *memListings) Update(ctx context.Context, listing *models.Listing) error {
	for i := range m.rows {
		if m.rows[i].ID == listing.ID {
			m.rows[i] = *listing
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memListings) UpdateStatus(ctx context.Context, id string, status models.ListingStatus) error {
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows[i].Status = status
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memListings) IncrementViews(ctx context.Context, id string) error {
	if m.views == nil {
		m.views = map[string]int{}
	}
	m.views[id]++
	return nil
}

func (m *memListings) Delete(ctx context.Context, id string) error {
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memListings) CountByStatus(ctx context.Context, provinceID string) ([]models.StatusCount, error) {
	return m.counts, m.err
}

func (m *memListings) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	return m.expired, m.err
}

// memAnnouncements mirrors memListings for announcements.
type memAnnouncements struct {
	rows       []models.Announcement
	lastFilter models.AnnouncementFilter
	lastPlan   visibility.Plan
	err        error
	sweptDay   time.Time
	swept      int64
	counts     []models.StatusCount
}

func (m *memAnnouncements) List(ctx context.Context, filter models.AnnouncementFilter, plan visibility.Plan) ([]models.Announcement, int, error) {
	m.lastFilter, m.lastPlan = filter, plan
	if m.err != nil {
		return nil, 0, m.err
	}
	var candidates []models.Announcement
	for _, a := range m.rows {
		if filter.Active != nil && a.IsActive != *filter.Active {
			continue
		}
		candidates = append(candidates, a)
	}
	visible := visibility.FilterAnnouncements(candidates, plan)
	return visible, len(visible), nil
}

func (m *memAnnouncements) GetByID(ctx context.Context, id string) (*models.Announcement, error) {
	for i := range m.rows {
		if m.rows[i].ID == id {
			a := m.rows[i]
			return &a, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memAnnouncements) ListByAuthor(ctx context.Context, authorID string) ([]models.Announcement, error) {
	out := []models.Announcement{}
	for _, a := range m.rows {
		if a.AuthorID == authorID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAnnouncements) Create(ctx context.Context, a *models.Announcement) error {
	a.ID = "new-announcement"
	m.rows = append(m.rows, *a)
	return nil
}

func (m *memAnnouncements) Update(ctx context.Context, a *models.Announcement) error {
	for i := range m.rows {
		if m.rows[i].ID == a.ID {
			m.rows[i] = *a
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memAnnouncements) SetActive(ctx context.Context, id string, active bool) error {
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows[i].IsActive = active
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memAnnouncements) Delete(ctx context.Context, id string) error {
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memAnnouncements) CountByActive(ctx context.Context, provinceID string) ([]models.StatusCount, error) {
	return m.counts, m.err
}

func (m *memAnnouncements) DeactivateExpired(ctx context.Context, today time.Time) (int64, error) {
	m.sweptDay = today
	return m.swept, m.err
}

type memCategories struct {
	ids  map[string]bool
	rows []models.Category
	err  error
}

func (m *memCategories) Exists(ctx context.Context, id string) (bool, error) {
	return m.ids[id], m.err
}

func (m *memCategories) ListActiveRoots(ctx context.Context) ([]models.Category, error) {
	return m.rows, m.err
}

func (m *memCategories) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.rows {
		if m.rows[i].Slug == slug {
			return &m.rows[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

// memCache is an in-memory CacheRepository storing JSON payloads by key.
type memCache struct {
	values map[string][]byte
	gets   int
	sets   int
	fail   error
}

func newMemCache() *memCache { return &memCache{values: map[string][]byte{}} }

var errCacheDown = errors.New("cache down")

func (c *memCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.gets++
	if c.fail != nil {
		return c.fail
	}
	raw, ok := c.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.sets++
	if c.fail != nil {
		return c.fail
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.values[key] = raw
	return nil
}

func (c *memCache) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	n := len(c.values)
	c.values = map[string][]byte{}
	return n, c.fail
}
