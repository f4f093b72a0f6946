package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ysalem/formbuilder-server/config"
	"github.com/ysalem/formbuilder-server/models"
	"github.com/ysalem/formbuilder-server/utils"
)

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	t.Setenv("JWT_SECRET", "routes-test-secret")

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatal(err)
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	SetupRoutes(r, db, config.Config{
		UploadBasePath: filepath.Join(t.TempDir(), "uploads"),
		MaxUploadMB:    10,
		ExportBasePath: filepath.Join(t.TempDir(), "exports"),
	})
	return r, db
}

func seedAdmin(t *testing.T, db *gorm.DB) models.Admin {
	t.Helper()
	hash, err := utils.HashPassword("correct-horse")
	if err != nil {
		t.Fatal(err)
	}
	admin := models.Admin{
		Name: "Root", Email: "root@example.com", PasswordHash: hash,
		Role: models.RoleAdmin, IsActive: true,
	}
	if err := db.Create(&admin).Error; err != nil {
		t.Fatal(err)
	}
	return admin
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	out := map[string]interface{}{}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

func TestHealthAndPing(t *testing.T) {
	r, _ := setupRouter(t)

	w, _ := doJSON(t, r, http.MethodGet, "/ping", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("ping: got %d", w.Code)
	}
	w, body := doJSON(t, r, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK || body["status"] != "ok" {
		t.Errorf("health: got %d %v", w.Code, body)
	}
}

func TestLoginFlow(t *testing.T) {
	r, db := setupRouter(t)
	seedAdmin(t, db)

	w, _ := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "root@example.com", "password": "wrong-password",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: got %d", w.Code)
	}

	w, body := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "root@example.com", "password": "correct-horse",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: got %d %s", w.Code, w.Body.String())
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatal("login response carries no token")
	}

	w, body = doJSON(t, r, http.MethodGet, "/api/auth/me", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me: got %d", w.Code)
	}
	me := body["admin"].(map[string]interface{})
	if me["email"] != "root@example.com" {
		t.Errorf("unexpected me payload: %v", me)
	}
}

// Full build-and-submit pass: the admin builds a form with a repeater over
// the API, the public submits against it, and the admin reviews the result.
func TestBuildAndSubmitFlow(t *testing.T) {
	r, db := setupRouter(t)
	seedAdmin(t, db)

	_, body := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "root@example.com", "password": "correct-horse",
	})
	token := body["token"].(string)

	// Build the form.
	w, body := doJSON(t, r, http.MethodPost, "/api/admin/forms", token, gin.H{
		"title": "Job Application",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create form: got %d %s", w.Code, w.Body.String())
	}
	form := body["form"].(map[string]interface{})
	formID := fmt.Sprintf("%v", int(form["id"].(float64)))
	slug := form["slug"].(string)
	if slug != "job-application" {
		t.Errorf("unexpected slug %q", slug)
	}

	w, _ = doJSON(t, r, http.MethodPost, "/api/admin/forms/"+formID+"/fields", token, gin.H{
		"field_type": "text", "label": "Full Name", "is_required": true,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("add field: got %d %s", w.Code, w.Body.String())
	}
	w, body = doJSON(t, r, http.MethodPost, "/api/admin/forms/"+formID+"/fields", token, gin.H{
		"field_type": "repeater", "label": "History",
	})
	if w.Code != http.StatusCreated {
		t.Fatal("add repeater failed")
	}
	repID := int(body["field"].(map[string]interface{})["id"].(float64))
	w, _ = doJSON(t, r, http.MethodPost, "/api/admin/forms/"+formID+"/fields", token, gin.H{
		"field_type": "text", "label": "Company", "is_required": true, "parent_field_id": repID,
	})
	if w.Code != http.StatusCreated {
		t.Fatal("add child failed")
	}

	// Public render.
	w, body = doJSON(t, r, http.MethodGet, "/api/public/forms/"+slug, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("public form: got %d", w.Code)
	}
	fields := body["fields"].([]interface{})
	if len(fields) != 2 {
		t.Fatalf("expected 2 root definitions, got %d", len(fields))
	}

	// Public submit (multipart).
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("submitted_by", "alice@example.com")
	mw.WriteField("full-name", "Alice Doe")
	mw.WriteField("history[0][company]", "Acme")
	mw.WriteField("history[1][company]", "Globex")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/public/forms/"+slug+"/submissions", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: got %d %s", rec.Code, rec.Body.String())
	}
	var subResp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &subResp); err != nil {
		t.Fatal(err)
	}
	ref, _ := subResp["reference_code"].(string)
	if ref == "" {
		t.Fatal("submission response carries no reference code")
	}

	// Success-page lookup.
	w, body = doJSON(t, r, http.MethodGet, "/api/public/submissions/"+ref, "", nil)
	if w.Code != http.StatusOK || body["status"] != "new" {
		t.Errorf("reference lookup: got %d %v", w.Code, body)
	}

	// Admin review.
	w, body = doJSON(t, r, http.MethodGet, "/api/admin/forms/"+formID+"/submissions", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list submissions: got %d", w.Code)
	}
	if total := body["total"].(float64); total != 1 {
		t.Fatalf("expected 1 submission, got %v", total)
	}
	subID := fmt.Sprintf("%v", int(body["submissions"].([]interface{})[0].(map[string]interface{})["id"].(float64)))

	w, _ = doJSON(t, r, http.MethodPut, "/api/admin/forms/"+formID+"/submissions/"+subID+"/status", token, gin.H{
		"status": "reviewed",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("set status: got %d %s", w.Code, w.Body.String())
	}

	// Export job is accepted.
	w, body = doJSON(t, r, http.MethodPost, "/api/admin/forms/"+formID+"/export", token, gin.H{
		"format": "csv",
	})
	if w.Code != http.StatusAccepted || body["job_id"] == "" {
		t.Errorf("export: got %d %v", w.Code, body)
	}

	// The audit trail saw the whole session.
	w, body = doJSON(t, r, http.MethodGet, "/api/admin/audit", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("audit: got %d", w.Code)
	}
	if total := body["total"].(float64); total < 4 {
		t.Errorf("expected several audit entries, got %v", total)
	}
}

func TestPublicValidationResponse(t *testing.T) {
	r, db := setupRouter(t)
	seedAdmin(t, db)

	_, body := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "root@example.com", "password": "correct-horse",
	})
	token := body["token"].(string)

	w, body := doJSON(t, r, http.MethodPost, "/api/admin/forms", token, gin.H{"title": "Strict"})
	if w.Code != http.StatusCreated {
		t.Fatal("create form failed")
	}
	form := body["form"].(map[string]interface{})
	formID := fmt.Sprintf("%v", int(form["id"].(float64)))
	slug := form["slug"].(string)

	doJSON(t, r, http.MethodPost, "/api/admin/forms/"+formID+"/fields", token, gin.H{
		"field_type": "email", "label": "Contact", "is_required": true,
	})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("submitted_by", "someone@example.com")
	mw.WriteField("contact", "not-an-email")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/public/forms/"+slug+"/submissions", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d %s", rec.Code, rec.Body.String())
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	fields, _ := resp["fields"].(map[string]interface{})
	if _, ok := fields["contact"]; !ok {
		t.Errorf("expected a contact field error, got %v", resp)
	}
}

func TestPublicHidesInactiveForms(t *testing.T) {
	r, db := setupRouter(t)
	seedAdmin(t, db)

	_, body := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "root@example.com", "password": "correct-horse",
	})
	token := body["token"].(string)

	w, body := doJSON(t, r, http.MethodPost, "/api/admin/forms", token, gin.H{"title": "Retired"})
	if w.Code != http.StatusCreated {
		t.Fatal("create form failed")
	}
	form := body["form"].(map[string]interface{})
	formID := fmt.Sprintf("%v", int(form["id"].(float64)))
	slug := form["slug"].(string)

	w, _ = doJSON(t, r, http.MethodGet, "/api/public/forms/"+slug, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("active form should render, got %d", w.Code)
	}

	w, _ = doJSON(t, r, http.MethodPut, "/api/admin/forms/"+formID+"/status", token, gin.H{
		"status": "inactive",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("set status: got %d %s", w.Code, w.Body.String())
	}

	w, _ = doJSON(t, r, http.MethodGet, "/api/public/forms/"+slug, "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("inactive form should 404 publicly, got %d", w.Code)
	}
}

func TestAdminRoutesRequireAuth(t *testing.T) {
	r, _ := setupRouter(t)

	for _, path := range []string{
		"/api/admin/forms",
		"/api/admin/departments",
		"/api/admin/settings",
		"/api/admin/notifications",
	} {
		w, _ := doJSON(t, r, http.MethodGet, path, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s without token: got %d", path, w.Code)
		}
	}
}
