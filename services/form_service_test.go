package services

import (
	"errors"
	"testing"

	"github.com/ysalem/formbuilder-server/models"
)

func TestFormCreateUniqueSlug(t *testing.T) {
	st := newTestStack(t)
	admin := mustCreateAdmin(t, st.db, "slug@example.com", models.RoleAdmin)

	f1, err := st.forms.Create(FormInput{Title: "Staff Survey", CreatedBy: admin.ID}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if f1.Slug != "staff-survey" {
		t.Errorf("expected slug staff-survey, got %q", f1.Slug)
	}

	f2, err := st.forms.Create(FormInput{Title: "Staff Survey", CreatedBy: admin.ID}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if f2.Slug != "staff-survey-2" {
		t.Errorf("expected suffixed slug, got %q", f2.Slug)
	}
}

func TestFormGetBySlugAndCache(t *testing.T) {
	st := newTestStack(t)
	form := mustCreateForm(t, st, "Cached Form")

	got, err := st.forms.GetBySlug(form.Slug)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != form.ID {
		t.Fatalf("slug lookup returned form %d, want %d", got.ID, form.ID)
	}

	// A stale cache must not survive updates.
	newTitle := "Renamed"
	if _, err := st.forms.Update(form.ID, FormPatch{Title: &newTitle}); err != nil {
		t.Fatal(err)
	}
	got, err = st.forms.GetByID(form.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Renamed" {
		t.Fatalf("expected updated title, got %q", got.Title)
	}
}

func TestFormSetStatus(t *testing.T) {
	st := newTestStack(t)
	form := mustCreateForm(t, st, "Status Form")

	if err := st.forms.SetStatus(form.ID, "archived"); err == nil {
		t.Fatal("expected rejection of unknown status")
	}
	if err := st.forms.SetStatus(form.ID, models.FormStatusInactive); err != nil {
		t.Fatal(err)
	}

	got, err := st.forms.GetByID(form.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.FormStatusInactive {
		t.Fatalf("expected inactive, got %q", got.Status)
	}

	if err := st.forms.SetStatus(99999, models.FormStatusActive); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFormListPublic(t *testing.T) {
	st := newTestStack(t)
	admin := mustCreateAdmin(t, st.db, "pub@example.com", models.RoleAdmin)

	dep := models.Department{Name: "HR", IsActive: true}
	if err := st.db.Create(&dep).Error; err != nil {
		t.Fatal(err)
	}

	visible, err := st.forms.Create(FormInput{Title: "Annual Review", CreatedBy: admin.ID}, []uint{dep.ID})
	if err != nil {
		t.Fatal(err)
	}
	hidden, err := st.forms.Create(FormInput{Title: "Old Form", CreatedBy: admin.ID}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.forms.SetStatus(hidden.ID, models.FormStatusInactive); err != nil {
		t.Fatal(err)
	}

	forms, err := st.forms.ListPublic(nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(forms) != 1 || forms[0].ID != visible.ID {
		t.Fatalf("expected only the active form, got %d forms", len(forms))
	}

	// Case-insensitive title search.
	forms, err = st.forms.ListPublic(nil, "ANNUAL")
	if err != nil {
		t.Fatal(err)
	}
	if len(forms) != 1 {
		t.Fatalf("search should match case-insensitively, got %d", len(forms))
	}

	// Department filter.
	forms, err = st.forms.ListPublic(&dep.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(forms) != 1 || forms[0].ID != visible.ID {
		t.Fatalf("department filter failed, got %d forms", len(forms))
	}

	other := dep.ID + 100
	forms, err = st.forms.ListPublic(&other, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(forms) != 0 {
		t.Fatalf("unknown department should match nothing, got %d", len(forms))
	}
}

func TestFormUpdateDepartmentLinks(t *testing.T) {
	st := newTestStack(t)
	admin := mustCreateAdmin(t, st.db, "links@example.com", models.RoleAdmin)

	d1 := models.Department{Name: "One", IsActive: true}
	d2 := models.Department{Name: "Two", IsActive: true}
	if err := st.db.Create(&d1).Error; err != nil {
		t.Fatal(err)
	}
	if err := st.db.Create(&d2).Error; err != nil {
		t.Fatal(err)
	}

	form, err := st.forms.Create(FormInput{Title: "Linked", CreatedBy: admin.ID}, []uint{d1.ID, d1.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(form.Departments) != 1 {
		t.Fatalf("duplicate ids should collapse to one link, got %d", len(form.Departments))
	}

	// nil means don't touch; empty slice clears.
	title := "Still Linked"
	form, err = st.forms.Update(form.ID, FormPatch{Title: &title})
	if err != nil {
		t.Fatal(err)
	}
	if len(form.Departments) != 1 {
		t.Fatalf("nil DepartmentIDs must keep links, got %d", len(form.Departments))
	}

	empty := []uint{}
	form, err = st.forms.Update(form.ID, FormPatch{DepartmentIDs: &empty})
	if err != nil {
		t.Fatal(err)
	}
	if len(form.Departments) != 0 {
		t.Fatalf("empty DepartmentIDs must clear links, got %d", len(form.Departments))
	}
}
