package services

import (
	"errors"
	"testing"

	"github.com/ysalem/formbuilder-server/models"
)

func TestSavedFilterLifecycle(t *testing.T) {
	st := newTestStack(t)
	filters := NewFilterService(st.db)

	owner := mustCreateAdmin(t, st.db, "owner@example.com", models.RoleManager)
	other := mustCreateAdmin(t, st.db, "other@example.com", models.RoleManager)
	form := mustCreateForm(t, st, "Filtered")

	depID := uint(3)
	created, err := filters.Create(owner.ID, form.ID, "New in HR", FilterCriteria{
		Status:       models.SubmissionStatusNew,
		DepartmentID: &depID,
		DateFrom:     "2026-01-01",
	})
	if err != nil {
		t.Fatal(err)
	}

	list, err := filters.List(owner.ID, form.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 filter, got %d", len(list))
	}

	// Criteria round-trips through the JSON column.
	crit, err := filters.Criteria(owner.ID, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if crit.Status != models.SubmissionStatusNew || crit.DepartmentID == nil || *crit.DepartmentID != 3 {
		t.Fatalf("criteria did not round-trip: %+v", crit)
	}

	// Ownership is enforced on read and delete.
	if _, err := filters.Criteria(other.ID, created.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := filters.Delete(other.ID, created.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden on delete, got %v", err)
	}
	if err := filters.Delete(owner.ID, created.ID); err != nil {
		t.Fatal(err)
	}
}

func TestFilterCriteriaApply(t *testing.T) {
	st := newTestStack(t)
	form := mustCreateForm(t, st, "Criteria")
	yes := true
	if _, err := st.forms.Update(form.ID, FormPatch{AllowMultipleSubmissions: &yes}); err != nil {
		t.Fatal(err)
	}
	mustAddField(t, st, form.ID, FieldInput{FieldType: models.FieldTypeText, Label: "Note"})

	answers := AnswerSet{
		Scalar: map[string][]string{"note": {"x"}},
		Groups: map[string][]map[string]string{},
		Files:  nil,
	}
	if _, _, err := st.submissions.Submit(form.ID, SubmissionInput{SubmittedBy: "a@example.com"}, answers); err != nil {
		t.Fatal(err)
	}
	if _, _, err := st.submissions.Submit(form.ID, SubmissionInput{SubmittedBy: "b@example.com"}, answers); err != nil {
		t.Fatal(err)
	}

	// date_to is inclusive of the whole day.
	_, total, err := st.submissions.List(form.ID, FilterCriteria{
		DateFrom: "2000-01-01",
		DateTo:   "2100-01-01",
	}, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 {
		t.Fatalf("date window should include both, got %d", total)
	}

	_, total, err = st.submissions.List(form.ID, FilterCriteria{DateTo: "2000-01-01"}, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if total != 0 {
		t.Fatalf("past window should match nothing, got %d", total)
	}

	// Unparsable dates are ignored rather than failing the query.
	_, total, err = st.submissions.List(form.ID, FilterCriteria{DateFrom: "garbage"}, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 {
		t.Fatalf("bad date should be skipped, got %d", total)
	}
}
