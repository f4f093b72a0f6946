package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/ysalem/formbuilder-server/models"
	"github.com/ysalem/formbuilder-server/utils"
)

// ValidationRules is the typed payload behind form_fields.validation_rules.
// Unset pointers mean "no rule".
type ValidationRules struct {
	MinLength *int     `json:"min_length,omitempty"`
	MaxLength *int     `json:"max_length,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	Regex     string   `json:"regex,omitempty"`
	Format    string   `json:"format,omitempty"` // "url" or "phone"
	Unique    bool     `json:"unique,omitempty"`
	DateFrom  string   `json:"date_from,omitempty"`
	DateTo    string   `json:"date_to,omitempty"`
}

// RenderOption is a resolved option pair as consumed by the renderer and
// the submission validator.
type RenderOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FieldDefinition is the render-ready shape of one field: dynamic option
// sources resolved, repeater children nested in order.
type FieldDefinition struct {
	ID          uint              `json:"id"`
	FieldKey    string            `json:"field_key"`
	FieldType   string            `json:"field_type"`
	Label       string            `json:"label"`
	Placeholder string            `json:"placeholder,omitempty"`
	HelperText  string            `json:"helper_text,omitempty"`
	Required    bool              `json:"required"`
	Options     []RenderOption    `json:"options,omitempty"`
	Rules       *ValidationRules  `json:"rules,omitempty"`
	Children    []FieldDefinition `json:"children,omitempty"`
}

type FieldService struct {
	db *gorm.DB
}

func NewFieldService(db *gorm.DB) *FieldService {
	return &FieldService{db: db}
}

type FieldInput struct {
	FieldType       string
	Label           string
	Placeholder     string
	IsRequired      bool
	FieldKey        string
	Options         []string
	SourceType      string
	ParentFieldID   *uint
	OrderIndex      *int
	ValidationRules *ValidationRules
	HelperText      string
}

var validFieldTypes = map[string]bool{
	models.FieldTypeText:     true,
	models.FieldTypeTextarea: true,
	models.FieldTypeEmail:    true,
	models.FieldTypeNumber:   true,
	models.FieldTypeDate:     true,
	models.FieldTypeTime:     true,
	models.FieldTypeSelect:   true,
	models.FieldTypeRadio:    true,
	models.FieldTypeCheckbox: true,
	models.FieldTypeFile:     true,
	models.FieldTypeRepeater: true,
}

// Add creates a field definition. The field key is derived from the label
// when absent and uniquified within the form; the order index defaults to
// the next slot within the (form, parent) scope.
func (s *FieldService) Add(formID uint, in FieldInput) (*models.FormField, error) {
	ve := newValidationError()
	if in.FieldType == "" {
		ve.add("field_type", "field_type is required")
	} else if !validFieldTypes[in.FieldType] {
		ve.add("field_type", fmt.Sprintf("unknown field type %q", in.FieldType))
	}
	if in.Label == "" {
		ve.add("label", "label is required")
	}
	if !ve.empty() {
		return nil, ve
	}

	if in.ParentFieldID != nil {
		var parent models.FormField
		err := s.db.Where("id = ? AND form_id = ?", *in.ParentFieldID, formID).First(&parent).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, serviceErrorf("parent field %d does not belong to this form", *in.ParentFieldID)
		}
		if err != nil {
			return nil, err
		}
		if parent.FieldType != models.FieldTypeRepeater {
			return nil, serviceErrorf("parent field %d is not a repeater", *in.ParentFieldID)
		}
		if in.FieldType == models.FieldTypeRepeater {
			return nil, serviceErrorf("repeater fields cannot be nested")
		}
	}

	key := in.FieldKey
	if key == "" {
		key = utils.Slugify(in.Label, 80)
	}
	key, err := utils.EnsureUnique(s.db, key, "form_fields", "field_key", func(q *gorm.DB) *gorm.DB {
		return q.Where("form_id = ?", formID)
	})
	if err != nil {
		return nil, err
	}

	orderIndex := 0
	if in.OrderIndex != nil {
		orderIndex = *in.OrderIndex
	} else {
		// Next slot within (form, parent), 0-based.
		type nextRes struct{ Next int }
		var r nextRes
		q := s.db.Model(&models.FormField{}).
			Where("form_id = ?", formID).
			Select("COALESCE(MAX(order_index), -1) + 1 AS next")
		if in.ParentFieldID != nil {
			q = q.Where("parent_field_id = ?", *in.ParentFieldID)
		} else {
			q = q.Where("parent_field_id IS NULL")
		}
		if err := q.Scan(&r).Error; err != nil {
			return nil, err
		}
		orderIndex = r.Next
	}

	field := models.FormField{
		FormID:        formID,
		FieldType:     in.FieldType,
		Label:         in.Label,
		Placeholder:   in.Placeholder,
		IsRequired:    in.IsRequired,
		IsActive:      true,
		SourceType:    models.SourceTypeStatic,
		ParentFieldID: in.ParentFieldID,
		FieldKey:      key,
		OrderIndex:    orderIndex,
		HelperText:    in.HelperText,
	}
	if in.SourceType != "" {
		field.SourceType = in.SourceType
	}
	if field.HasOptions() && len(in.Options) > 0 {
		b, err := json.Marshal(in.Options)
		if err != nil {
			return nil, err
		}
		field.FieldOptions = string(b)
	}
	if in.ValidationRules != nil {
		b, err := json.Marshal(in.ValidationRules)
		if err != nil {
			return nil, err
		}
		field.ValidationRules = string(b)
	}

	if err := s.db.Create(&field).Error; err != nil {
		return nil, err
	}
	return &field, nil
}

// FieldPatch distinguishes "not sent" (nil) from explicit values, so absent
// keys keep the stored value.
type FieldPatch struct {
	Label           *string
	Placeholder     *string
	IsRequired      *bool
	IsActive        *bool
	Options         *[]string
	SourceType      *string
	ValidationRules *ValidationRules
	HelperText      *string
}

func (s *FieldService) Update(fieldID uint, patch FieldPatch) (*models.FormField, error) {
	var field models.FormField
	err := s.db.First(&field, fieldID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if patch.Label != nil {
		updates["label"] = *patch.Label
	}
	if patch.Placeholder != nil {
		updates["placeholder"] = *patch.Placeholder
	}
	if patch.IsRequired != nil {
		updates["is_required"] = *patch.IsRequired
	}
	if patch.IsActive != nil {
		updates["is_active"] = *patch.IsActive
	}
	if patch.SourceType != nil {
		updates["source_type"] = *patch.SourceType
	}
	if patch.HelperText != nil {
		updates["helper_text"] = *patch.HelperText
	}
	if patch.Options != nil {
		if field.HasOptions() {
			b, err := json.Marshal(*patch.Options)
			if err != nil {
				return nil, err
			}
			updates["field_options"] = string(b)
		}
	}
	if patch.ValidationRules != nil {
		b, err := json.Marshal(patch.ValidationRules)
		if err != nil {
			return nil, err
		}
		updates["validation_rules"] = string(b)
	}
	if len(updates) == 0 {
		return &field, nil
	}

	if err := s.db.Model(&field).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &field, nil
}

// Delete removes a field and, for repeaters, its children.
func (s *FieldService) Delete(fieldID uint) error {
	var field models.FormField
	err := s.db.First(&field, fieldID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if field.FieldType == models.FieldTypeRepeater {
			if err := tx.Where("parent_field_id = ?", field.ID).Delete(&models.FormField{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&field).Error
	})
	if err != nil {
		return err
	}
	log.Info().Uint("form_id", field.FormID).Uint("field_id", fieldID).Msg("field deleted")
	return nil
}

// Reorder assigns order_index = position for the given ids, scoped to
// (form, parent). Ids outside the scope simply match no row.
func (s *FieldService) Reorder(formID uint, orderedIDs []uint, parentFieldID *uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for idx, id := range orderedIDs {
			q := tx.Model(&models.FormField{}).
				Where("id = ? AND form_id = ?", id, formID)
			if parentFieldID != nil {
				q = q.Where("parent_field_id = ?", *parentFieldID)
			} else {
				q = q.Where("parent_field_id IS NULL")
			}
			if err := q.Update("order_index", idx).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetForForm returns fields ordered parent-less first, then repeater
// children grouped under their parent, each run ordered by position.
func (s *FieldService) GetForForm(formID uint, includeInactive bool) ([]models.FormField, error) {
	q := s.db.Where("form_id = ?", formID)
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	var fields []models.FormField
	if err := q.Order("COALESCE(parent_field_id, 0) ASC, order_index ASC, id ASC").
		Find(&fields).Error; err != nil {
		return nil, err
	}
	return fields, nil
}

// RenderDefinitions transforms stored rows into the render-ready tree:
// dynamic option sources resolved to value/label pairs and repeater
// children nested under their parent.
func (s *FieldService) RenderDefinitions(formID uint) ([]FieldDefinition, error) {
	fields, err := s.GetForForm(formID, false)
	if err != nil {
		return nil, err
	}

	var departments []models.Department
	needsDynamic := false
	for _, f := range fields {
		if f.SourceType == models.SourceTypeDynamic {
			needsDynamic = true
			break
		}
	}
	if needsDynamic {
		if err := s.db.Where("is_active = ?", true).Order("name ASC").Find(&departments).Error; err != nil {
			return nil, err
		}
	}

	build := func(f models.FormField) FieldDefinition {
		def := FieldDefinition{
			ID:          f.ID,
			FieldKey:    f.FieldKey,
			FieldType:   f.FieldType,
			Label:       f.Label,
			Placeholder: f.Placeholder,
			HelperText:  f.HelperText,
			Required:    f.IsRequired,
		}
		if f.SourceType == models.SourceTypeDynamic {
			for _, d := range departments {
				def.Options = append(def.Options, RenderOption{
					Value: strconv.FormatUint(uint64(d.ID), 10),
					Label: d.Name,
				})
			}
		} else if f.FieldOptions != "" {
			var opts []string
			if err := json.Unmarshal([]byte(f.FieldOptions), &opts); err != nil {
				log.Warn().Uint("field_id", f.ID).Err(err).Msg("invalid field_options JSON")
			}
			for _, o := range opts {
				def.Options = append(def.Options, RenderOption{Value: o, Label: o})
			}
		}
		if f.ValidationRules != "" {
			var rules ValidationRules
			if err := json.Unmarshal([]byte(f.ValidationRules), &rules); err == nil {
				def.Rules = &rules
			} else {
				log.Warn().Uint("field_id", f.ID).Err(err).Msg("invalid validation_rules JSON")
			}
		}
		return def
	}

	var roots []FieldDefinition
	children := map[uint][]FieldDefinition{}
	rootIndex := map[uint]int{}
	for _, f := range fields {
		def := build(f)
		if f.ParentFieldID != nil {
			children[*f.ParentFieldID] = append(children[*f.ParentFieldID], def)
			continue
		}
		rootIndex[f.ID] = len(roots)
		roots = append(roots, def)
	}
	for parentID, kids := range children {
		if idx, ok := rootIndex[parentID]; ok {
			roots[idx].Children = kids
		}
	}
	return roots, nil
}
