package handlers_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"assetflow/events"
	"assetflow/files"
	"assetflow/models"
	"assetflow/store"
)

func cloneAsset(a *models.Asset) *models.Asset {
	c := *a
	c.Items = make([]models.AssetItem, len(a.Items))
	copy(c.Items, a.Items)
	for i, it := range c.Items {
		if it.BillFile != nil {
			ref := *it.BillFile
			c.Items[i].BillFile = &ref
		}
	}
	return &c
}

type memAssets struct {
	mu        sync.Mutex
	byID      map[primitive.ObjectID]*models.Asset
	order     []primitive.ObjectID
	failWrite error
	clock     time.Time
}

func newMemAssets() *memAssets {
	return &memAssets{byID: map[primitive.ObjectID]*models.Asset{}, clock: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *memAssets) Create(ctx context.Context, a *models.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite != nil {
		return m.failWrite
	}
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	m.clock = m.clock.Add(time.Second)
	a.CreatedAt, a.UpdatedAt = m.clock, m.clock
	m.byID[a.ID] = cloneAsset(a)
	m.order = append(m.order, a.ID)
	return nil
}

// List applies the type and department filters only, newest first.
func (m *memAssets) List(ctx context.Context, q models.AssetQuery) ([]models.Asset, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []models.Asset
	for i := len(m.order) - 1; i >= 0; i-- {
		a, ok := m.byID[m.order[i]]
		if !ok {
			continue
		}
		if q.Type != "" && a.Type != q.Type {
			continue
		}
		if q.DepartmentID != nil && a.DepartmentID != *q.DepartmentID {
			continue
		}
		matched = append(matched, *cloneAsset(a))
	}
	total := int64(len(matched))
	start := (q.Page - 1) * q.Limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + q.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return append([]models.Asset{}, matched[start:end]...), total, nil
}

func (m *memAssets) Get(ctx context.Context, id primitive.ObjectID) (*models.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneAsset(a), nil
}

func (m *memAssets) Update(ctx context.Context, id primitive.ObjectID, p models.AssetPatch) (*models.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite != nil {
		return nil, m.failWrite
	}
	a, ok := m.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if p.Type != nil {
		a.Type = *p.Type
	}
	if p.DepartmentID != nil {
		a.DepartmentID = *p.DepartmentID
	}
	if p.Subcategory != nil {
		a.Subcategory = *p.Subcategory
	}
	if p.AcademicYear != nil {
		a.AcademicYear = *p.AcademicYear
	}
	if p.Items != nil {
		a.Items = p.Items
		a.GrandTotal = *p.GrandTotal
	}
	m.clock = m.clock.Add(time.Second)
	a.UpdatedAt = m.clock
	m.byID[id] = cloneAsset(a)
	return cloneAsset(a), nil
}

func (m *memAssets) Delete(ctx context.Context, id primitive.ObjectID) (*models.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	delete(m.byID, id)
	return a, nil
}

func (m *memAssets) Summary(ctx context.Context) (*models.AssetSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &models.AssetSummary{ByType: map[string]models.TypeSummary{}}
	for _, t := range models.AssetTypes {
		s.ByType[t] = models.TypeSummary{}
	}
	for _, a := range m.byID {
		ts := s.ByType[a.Type]
		ts.Count++
		ts.TotalValue = models.RoundMoney(ts.TotalValue + a.GrandTotal)
		s.ByType[a.Type] = ts
		s.TotalAssets++
		s.TotalValue = models.RoundMoney(s.TotalValue + a.GrandTotal)
	}
	return s, nil
}

func (m *memAssets) CountByDepartment(ctx context.Context, departmentID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, a := range m.byID {
		if a.DepartmentID == departmentID {
			n++
		}
	}
	return n, nil
}

// ReportRows flattens the items of every asset matching the filters.
func (m *memAssets) ReportRows(ctx context.Context, q models.ReportQuery) ([]models.ItemRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows []models.ItemRow
	for _, id := range m.order {
		a, ok := m.byID[id]
		if !ok {
			continue
		}
		if q.DepartmentID != nil && a.DepartmentID != *q.DepartmentID {
			continue
		}
		if q.AcademicYear != "" && a.AcademicYear != q.AcademicYear {
			continue
		}
		if q.VendorName != "" && !anyItem(a, func(it models.AssetItem) bool { return containsFold(it.VendorName, q.VendorName) }) {
			continue
		}
		if q.ItemName != "" && !anyItem(a, func(it models.AssetItem) bool { return containsFold(it.ItemName, q.ItemName) }) {
			continue
		}
		for i, it := range a.Items {
			rows = append(rows, models.ItemRow{
				AssetID: a.ID, DepartmentID: a.DepartmentID, AcademicYear: a.AcademicYear,
				Type: a.Type, ItemIndex: i, Item: it,
			})
		}
	}
	return rows, nil
}

func anyItem(a *models.Asset, fn func(models.AssetItem) bool) bool {
	for _, it := range a.Items {
		if fn(it) {
			return true
		}
	}
	return false
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

type memDepartments struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]*models.Department
}

func newMemDepartments(depts ...models.Department) *memDepartments {
	m := &memDepartments{byID: map[primitive.ObjectID]*models.Department{}}
	for i := range depts {
		d := depts[i]
		m.byID[d.ID] = &d
	}
	return m
}

func (m *memDepartments) List(ctx context.Context) ([]models.Department, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Department{}
	for _, d := range m.byID {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memDepartments) Get(ctx context.Context, id primitive.ObjectID) (*models.Department, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *d
	return &c, nil
}

func (m *memDepartments) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byID[id]
	return ok, nil
}

func (m *memDepartments) ExistsByName(ctx context.Context, name string, exclude primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, d := range m.byID {
		if d.Name == name && id != exclude {
			return true, nil
		}
	}
	return false, nil
}

func (m *memDepartments) Create(ctx context.Context, d *models.Department) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.ID = primitive.NewObjectID()
	c := *d
	m.byID[d.ID] = &c
	return nil
}

func (m *memDepartments) Update(ctx context.Context, id primitive.ObjectID, name, deptType string) (*models.Department, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	d.Name, d.Type = name, deptType
	c := *d
	return &c, nil
}

func (m *memDepartments) Delete(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memDepartments) NamesByIDs(ctx context.Context, ids []primitive.ObjectID) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]string{}
	for _, id := range ids {
		if d, ok := m.byID[id]; ok {
			out[id.Hex()] = d.Name
		}
	}
	return out, nil
}

type memVendors struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]*models.Vendor
}

func (m *memVendors) emailTaken(email string, exclude primitive.ObjectID) bool {
	for id, v := range m.byID {
		if v.Email == email && id != exclude {
			return true
		}
	}
	return false
}

func (m *memVendors) List(ctx context.Context) ([]models.Vendor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Vendor{}
	for _, v := range m.byID {
		out = append(out, *v)
	}
	return out, nil
}

func (m *memVendors) Create(ctx context.Context, v *models.Vendor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.emailTaken(v.Email, primitive.NilObjectID) {
		return store.ErrDuplicate
	}
	v.ID = primitive.NewObjectID()
	c := *v
	m.byID[v.ID] = &c
	return nil
}

func (m *memVendors) Update(ctx context.Context, id primitive.ObjectID, v models.Vendor) (*models.Vendor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if m.emailTaken(v.Email, id) {
		return nil, store.ErrDuplicate
	}
	cur.Name, cur.Email, cur.ContactNumber, cur.Address = v.Name, v.Email, v.ContactNumber, v.Address
	c := *cur
	return &c, nil
}

func (m *memVendors) Delete(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type memUsers struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]*models.User
}

func (m *memUsers) Create(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	u.ID = primitive.NewObjectID()
	c := *u
	m.byID[u.ID] = &c
	return nil
}

func (m *memUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memUsers) Get(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (m *memUsers) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.byID)), nil
}

type memAudit struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (m *memAudit) Insert(ctx context.Context, entry models.AuditLog) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
}

func (m *memAudit) List(ctx context.Context, limit int64) ([]models.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.AuditLog{}
	for i := len(m.entries) - 1; i >= 0 && int64(len(out)) < limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

func (m *memAudit) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, e := range m.entries {
		out = append(out, e.Action)
	}
	return out
}

type recordedEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordedEvents) Publish(e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordedEvents) Serve(conn *websocket.Conn, userID string) {
	conn.Close()
}

func (r *recordedEvents) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type memFiles struct {
	mu       sync.Mutex
	objects  map[string][]byte
	failSave int // fail the n-th save (1-based) when set
	saves    int
}

func newMemFiles() *memFiles {
	return &memFiles{objects: map[string][]byte{}}
}

func (m *memFiles) Save(ctx context.Context, u files.Upload) (*models.FileRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.failSave > 0 && m.saves == m.failSave {
		return nil, errors.New("object store unavailable")
	}
	key := primitive.NewObjectID().Hex()
	m.objects[key] = append([]byte(nil), u.Data...)
	return &models.FileRef{
		Storage:     "memory",
		Key:         key,
		Filename:    u.Filename,
		ContentType: u.ContentType,
		Size:        int64(len(u.Data)),
	}, nil
}

func (m *memFiles) Open(ctx context.Context, ref models.FileRef) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[ref.Key]
	if !ok {
		return nil, files.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memFiles) Delete(ctx context.Context, ref models.FileRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[ref.Key]; !ok {
		return files.ErrNotFound
	}
	delete(m.objects, ref.Key)
	return nil
}

func (m *memFiles) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(ctx context.Context) error { return p.err }
