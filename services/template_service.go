package services

import (
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"github.com/ysalem/formbuilder-server/models"
)

// templateField mirrors one field definition inside a template snapshot.
// Children carry repeater child fields.
type templateField struct {
	FieldType       string           `json:"field_type"`
	Label           string           `json:"label"`
	Placeholder     string           `json:"placeholder,omitempty"`
	IsRequired      bool             `json:"is_required"`
	FieldKey        string           `json:"field_key"`
	Options         []string         `json:"options,omitempty"`
	SourceType      string           `json:"source_type,omitempty"`
	ValidationRules *ValidationRules `json:"validation_rules,omitempty"`
	HelperText      string           `json:"helper_text,omitempty"`
	Children        []templateField  `json:"children,omitempty"`
}

type templateDefinition struct {
	Title                    string          `json:"title"`
	Description              string          `json:"description,omitempty"`
	AllowMultipleSubmissions bool            `json:"allow_multiple_submissions"`
	ShowDepartmentField      bool            `json:"show_department_field"`
	Fields                   []templateField `json:"fields"`
}

type TemplateService struct {
	db     *gorm.DB
	forms  *FormService
	fields *FieldService
}

func NewTemplateService(db *gorm.DB, forms *FormService, fields *FieldService) *TemplateService {
	return &TemplateService{db: db, forms: forms, fields: fields}
}

// SaveFromForm snapshots a form and its field tree into a reusable template.
func (s *TemplateService) SaveFromForm(formID uint, name, description string, createdBy uint) (*models.FormTemplate, error) {
	if name == "" {
		ve := newValidationError()
		ve.add("name", "name is required")
		return nil, ve
	}

	form, err := s.forms.GetByID(formID)
	if err != nil {
		return nil, err
	}
	rows, err := s.fields.GetForForm(formID, true)
	if err != nil {
		return nil, err
	}

	toTemplateField := func(f models.FormField) templateField {
		tf := templateField{
			FieldType:   f.FieldType,
			Label:       f.Label,
			Placeholder: f.Placeholder,
			IsRequired:  f.IsRequired,
			FieldKey:    f.FieldKey,
			SourceType:  f.SourceType,
			HelperText:  f.HelperText,
		}
		if f.FieldOptions != "" {
			_ = json.Unmarshal([]byte(f.FieldOptions), &tf.Options)
		}
		if f.ValidationRules != "" {
			var rules ValidationRules
			if json.Unmarshal([]byte(f.ValidationRules), &rules) == nil {
				tf.ValidationRules = &rules
			}
		}
		return tf
	}

	def := templateDefinition{
		Title:                    form.Title,
		Description:              form.Description,
		AllowMultipleSubmissions: form.AllowMultipleSubmissions,
		ShowDepartmentField:      form.ShowDepartmentField,
	}
	childIndex := map[uint][]templateField{}
	for _, f := range rows {
		if f.ParentFieldID != nil {
			childIndex[*f.ParentFieldID] = append(childIndex[*f.ParentFieldID], toTemplateField(f))
		}
	}
	for _, f := range rows {
		if f.ParentFieldID != nil {
			continue
		}
		tf := toTemplateField(f)
		tf.Children = childIndex[f.ID]
		def.Fields = append(def.Fields, tf)
	}

	b, err := json.Marshal(def)
	if err != nil {
		return nil, err
	}
	tpl := models.FormTemplate{
		Name:        name,
		Description: description,
		Definition:  string(b),
		CreatedBy:   createdBy,
	}
	if err := s.db.Create(&tpl).Error; err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (s *TemplateService) List() ([]models.FormTemplate, error) {
	var tpls []models.FormTemplate
	if err := s.db.Order("created_at DESC").Find(&tpls).Error; err != nil {
		return nil, err
	}
	return tpls, nil
}

func (s *TemplateService) GetByID(id uint) (*models.FormTemplate, error) {
	var tpl models.FormTemplate
	err := s.db.First(&tpl, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

// Instantiate builds a new form from a template: fresh unique slug, the
// whole field tree recreated, repeater children included.
func (s *TemplateService) Instantiate(templateID, createdBy uint, titleOverride string) (*models.Form, error) {
	tpl, err := s.GetByID(templateID)
	if err != nil {
		return nil, err
	}

	var def templateDefinition
	if err := json.Unmarshal([]byte(tpl.Definition), &def); err != nil {
		return nil, serviceErrorf("template %d has a corrupt definition", templateID)
	}

	title := def.Title
	if titleOverride != "" {
		title = titleOverride
	}

	form, err := s.forms.Create(FormInput{
		Title:                    title,
		Description:              def.Description,
		CreatedBy:                createdBy,
		AllowMultipleSubmissions: def.AllowMultipleSubmissions,
		ShowDepartmentField:      def.ShowDepartmentField,
	}, nil)
	if err != nil {
		return nil, err
	}

	for _, tf := range def.Fields {
		parent, err := s.fields.Add(form.ID, fieldInputFromTemplate(tf, nil))
		if err != nil {
			return nil, err
		}
		for _, child := range tf.Children {
			if _, err := s.fields.Add(form.ID, fieldInputFromTemplate(child, &parent.ID)); err != nil {
				return nil, err
			}
		}
	}
	return s.forms.GetByID(form.ID)
}

func fieldInputFromTemplate(tf templateField, parentID *uint) FieldInput {
	return FieldInput{
		FieldType:       tf.FieldType,
		Label:           tf.Label,
		Placeholder:     tf.Placeholder,
		IsRequired:      tf.IsRequired,
		FieldKey:        tf.FieldKey,
		Options:         tf.Options,
		SourceType:      tf.SourceType,
		ParentFieldID:   parentID,
		ValidationRules: tf.ValidationRules,
		HelperText:      tf.HelperText,
	}
}
