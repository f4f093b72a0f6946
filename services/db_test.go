package services

import (
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ysalem/formbuilder-server/config"
	"github.com/ysalem/formbuilder-server/models"
	"github.com/ysalem/formbuilder-server/utils"
)

// openTestDB migrates the full schema onto a throwaway sqlite file.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// testStack bundles the services most tests need, with uploads parked in a
// temp dir.
type testStack struct {
	db          *gorm.DB
	settings    *SettingsService
	forms       *FormService
	fields      *FieldService
	files       *FileService
	submissions *SubmissionService
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	db := openTestDB(t)
	cache := utils.NewTTLCache()

	settings := NewSettingsService(db, cache)
	forms := NewFormService(db, cache)
	fields := NewFieldService(db)
	files := NewFileService(settings, filepath.Join(t.TempDir(), "uploads"), 10)
	submissions := NewSubmissionService(db, forms, fields, files, settings)

	return &testStack{
		db:          db,
		settings:    settings,
		forms:       forms,
		fields:      fields,
		files:       files,
		submissions: submissions,
	}
}

func mustCreateAdmin(t *testing.T, db *gorm.DB, email, role string) models.Admin {
	t.Helper()
	admin := models.Admin{
		Name:         "Test Admin",
		Email:        email,
		PasswordHash: "x",
		Role:         role,
		IsActive:     true,
	}
	if err := db.Create(&admin).Error; err != nil {
		t.Fatalf("create admin: %v", err)
	}
	return admin
}

func mustCreateForm(t *testing.T, st *testStack, title string) *models.Form {
	t.Helper()
	admin := mustCreateAdmin(t, st.db, title+"@example.com", models.RoleAdmin)
	form, err := st.forms.Create(FormInput{Title: title, CreatedBy: admin.ID}, nil)
	if err != nil {
		t.Fatalf("create form: %v", err)
	}
	return form
}

func mustAddField(t *testing.T, st *testStack, formID uint, in FieldInput) *models.FormField {
	t.Helper()
	field, err := st.fields.Add(formID, in)
	if err != nil {
		t.Fatalf("add field %q: %v", in.Label, err)
	}
	return field
}
