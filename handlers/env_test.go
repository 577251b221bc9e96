package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"assetflow/files"
	"assetflow/handlers"
	"assetflow/middleware"
	"assetflow/models"
	"assetflow/reports"
	"assetflow/routes"
	"assetflow/utils"
)

type env struct {
	t       *testing.T
	router  http.Handler
	assets  *memAssets
	depts   *memDepartments
	vendors *memVendors
	users   *memUsers
	audit   *memAudit
	events  *recordedEvents
	files   *memFiles
	pinger  *fakePinger
	jwt     *utils.JWTManager

	dept         models.Department
	officer      *models.User
	officerToken string
	adminToken   string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		t:       t,
		assets:  newMemAssets(),
		vendors: &memVendors{byID: map[primitive.ObjectID]*models.Vendor{}},
		audit:   &memAudit{},
		events:  &recordedEvents{},
		files:   newMemFiles(),
		pinger:  &fakePinger{},
		jwt:     utils.NewJWTManager("test-secret", time.Hour),
		dept:    models.Department{ID: primitive.NewObjectID(), Name: "Department of Physics", Type: models.DepartmentTypeAcademic},
	}
	e.depts = newMemDepartments(e.dept)

	e.officer = &models.User{ID: primitive.NewObjectID(), Name: "Asha Rao", Email: "asha@college.edu", Role: models.RoleOfficer}
	admin := &models.User{ID: primitive.NewObjectID(), Name: "Principal", Email: "principal@college.edu", Role: models.RoleAdmin}
	e.users = &memUsers{byID: map[primitive.ObjectID]*models.User{e.officer.ID: e.officer, admin.ID: admin}}

	var err error
	e.officerToken, err = e.jwt.GenerateJWT(e.officer.ID.Hex(), e.officer.Name, e.officer.Role)
	require.NoError(t, err)
	e.adminToken, err = e.jwt.GenerateJWT(admin.ID.Hex(), admin.Name, admin.Role)
	require.NoError(t, err)

	logger := zap.NewNop()
	h := handlers.New(handlers.Deps{
		Assets:      e.assets,
		Departments: e.depts,
		Vendors:     e.vendors,
		Users:       e.users,
		Audit:       e.audit,
		Reports:     reports.NewService(e.assets, e.depts, nil, logger),
		Events:      e.events,
		Files:       e.files,
		Policy:      files.Policy{MaxBytes: 1 << 20, AllowedTypes: []string{"application/pdf", "image/jpeg", "image/png"}},
		Tokens:      e.jwt,
		DB:          e.pinger,
		Logger:      logger,
		Version:     "test",
	})

	r := mux.NewRouter()
	routes.RegisterRoutes(r, h, middleware.NewAuthenticator(e.jwt, e.users, logger))
	e.router = r
	return e
}

func (e *env) do(method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	e.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *env) doJSON(method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	e.t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(e.t, err)
		body = bytes.NewReader(data)
	}
	return e.do(method, path, token, body, "application/json")
}

// createAsset posts a JSON asset as the officer and returns its id.
func (e *env) createAsset(payload map[string]interface{}) string {
	e.t.Helper()
	rec := e.doJSON(http.MethodPost, "/api/assets", e.officerToken, payload)
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
	var out struct {
		ID string `json:"id"`
	}
	decode(e.t, rec, &out)
	return out.ID
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var out struct {
		Error string `json:"error"`
	}
	decode(t, rec, &out)
	return out.Error
}

func item(name string, qty int, price float64) map[string]interface{} {
	return map[string]interface{}{
		"itemName":     name,
		"quantity":     qty,
		"pricePerItem": price,
		"vendorName":   "Acme Scientific",
		"billNo":       "B-101",
	}
}

func assetPayload(deptID string, items ...map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"type":         "capital",
		"departmentId": deptID,
		"subcategory":  "Lab equipment",
		"academicYear": "2024-25",
		"items":        items,
	}
}

type filePart struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

func multipartBody(t *testing.T, payload interface{}, parts ...filePart) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		require.NoError(t, w.WriteField("payload", string(data)))
	}
	for _, p := range parts {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", `form-data; name="`+p.field+`"; filename="`+p.filename+`"`)
		if p.contentType != "" {
			hdr.Set("Content-Type", p.contentType)
		}
		pw, err := w.CreatePart(hdr)
		require.NoError(t, err)
		_, err = pw.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func formBody(t *testing.T, fields map[string]string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}
