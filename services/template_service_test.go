package services

import (
	"testing"

	"github.com/ysalem/formbuilder-server/models"
)

func TestTemplateSnapshotAndInstantiate(t *testing.T) {
	st := newTestStack(t)
	templates := NewTemplateService(st.db, st.forms, st.fields)
	admin := mustCreateAdmin(t, st.db, "tpl@example.com", models.RoleAdmin)

	form, err := st.forms.Create(FormInput{
		Title:               "Onboarding",
		Description:         "New hire form",
		ShowDepartmentField: true,
		CreatedBy:           admin.ID,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	minLen := 2
	mustAddField(t, st, form.ID, FieldInput{
		FieldType: models.FieldTypeText, Label: "Full Name", IsRequired: true,
		ValidationRules: &ValidationRules{MinLength: &minLen},
	})
	mustAddField(t, st, form.ID, FieldInput{
		FieldType: models.FieldTypeSelect, Label: "Office",
		Options: []string{"Berlin", "Lisbon"},
	})
	rep := mustAddField(t, st, form.ID, FieldInput{FieldType: models.FieldTypeRepeater, Label: "Degrees"})
	mustAddField(t, st, form.ID, FieldInput{
		FieldType: models.FieldTypeText, Label: "School", ParentFieldID: &rep.ID,
	})

	tpl, err := templates.SaveFromForm(form.ID, "Onboarding Template", "", admin.ID)
	if err != nil {
		t.Fatal(err)
	}

	clone, err := templates.Instantiate(tpl.ID, admin.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	if clone.ID == form.ID {
		t.Fatal("instantiate must create a new form")
	}
	if clone.Slug == form.Slug {
		t.Errorf("clone needs a fresh slug, both are %q", clone.Slug)
	}
	if clone.Title != "Onboarding" || !clone.ShowDepartmentField {
		t.Errorf("clone lost form settings: %+v", clone)
	}

	defs, err := st.fields.RenderDefinitions(clone.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(defs) != 3 {
		t.Fatalf("expected 3 root fields on the clone, got %d", len(defs))
	}
	if defs[0].Rules == nil || defs[0].Rules.MinLength == nil || *defs[0].Rules.MinLength != 2 {
		t.Errorf("validation rules did not survive the snapshot: %+v", defs[0].Rules)
	}
	if len(defs[1].Options) != 2 {
		t.Errorf("options did not survive: %+v", defs[1].Options)
	}
	if len(defs[2].Children) != 1 || defs[2].Children[0].Label != "School" {
		t.Errorf("repeater children did not survive: %+v", defs[2])
	}
}

func TestTemplateInstantiateTitleOverride(t *testing.T) {
	st := newTestStack(t)
	templates := NewTemplateService(st.db, st.forms, st.fields)
	admin := mustCreateAdmin(t, st.db, "tplx@example.com", models.RoleAdmin)

	form, err := st.forms.Create(FormInput{Title: "Base", CreatedBy: admin.ID}, nil)
	if err != nil {
		t.Fatal(err)
	}
	tpl, err := templates.SaveFromForm(form.ID, "Base Template", "", admin.ID)
	if err != nil {
		t.Fatal(err)
	}

	clone, err := templates.Instantiate(tpl.ID, admin.ID, "Custom Name")
	if err != nil {
		t.Fatal(err)
	}
	if clone.Title != "Custom Name" {
		t.Errorf("expected overridden title, got %q", clone.Title)
	}
	if clone.Slug != "custom-name" {
		t.Errorf("slug should derive from the override, got %q", clone.Slug)
	}
}
