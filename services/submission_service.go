package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/mail"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/ysalem/formbuilder-server/models"
	"github.com/ysalem/formbuilder-server/utils"
)

const refCodeMaxRetries = 10

var (
	rePhone       = regexp.MustCompile(`^\+?[0-9]{8,15}$`)
	reRepeaterKey = regexp.MustCompile(`^([A-Za-z0-9_-]+)\[(\d+)\]\[([A-Za-z0-9_-]+)\]$`)
)

// AnswerSet is the parsed request body of one submission attempt.
type AnswerSet struct {
	// Scalar holds plain field values keyed by field key; checkboxes carry
	// one entry per selected option.
	Scalar map[string][]string
	// Groups holds repeater groups keyed by repeater key, ordered by the
	// submitted group index; each group maps child key to raw value.
	Groups map[string][]map[string]string
	// Files holds uploads keyed by field key, or by
	// "<repeaterKey>.<index>.<childKey>" for repeater children.
	Files map[string]*multipart.FileHeader
}

// ParseAnswerSet decodes the multipart naming convention: plain parts use
// the field key, repeater text parts use "<key>[<index>][<childKey>]", and
// file parts use "<key>.<index>.<childKey>".
func ParseAnswerSet(values url.Values, files map[string][]*multipart.FileHeader) AnswerSet {
	set := AnswerSet{
		Scalar: map[string][]string{},
		Groups: map[string][]map[string]string{},
		Files:  map[string]*multipart.FileHeader{},
	}

	grouped := map[string]map[int]map[string]string{}
	for name, vals := range values {
		if m := reRepeaterKey.FindStringSubmatch(name); m != nil {
			idx, _ := strconv.Atoi(m[2])
			if grouped[m[1]] == nil {
				grouped[m[1]] = map[int]map[string]string{}
			}
			if grouped[m[1]][idx] == nil {
				grouped[m[1]][idx] = map[string]string{}
			}
			if len(vals) > 0 {
				grouped[m[1]][idx][m[3]] = vals[len(vals)-1]
			}
			continue
		}
		key := strings.TrimSuffix(name, "[]")
		set.Scalar[key] = append(set.Scalar[key], vals...)
	}
	for key, byIndex := range grouped {
		maxIdx := -1
		for idx := range byIndex {
			if idx > maxIdx {
				maxIdx = idx
			}
		}
		groups := make([]map[string]string, 0, maxIdx+1)
		for i := 0; i <= maxIdx; i++ {
			g := byIndex[i]
			if g == nil {
				g = map[string]string{}
			}
			groups = append(groups, g)
		}
		set.Groups[key] = groups
	}

	for name, fhs := range files {
		if len(fhs) == 0 {
			continue
		}
		set.Files[name] = fhs[0]
	}
	return set
}

type SubmissionInput struct {
	SubmittedBy  string
	DepartmentID *uint
	IPAddress    string
}

type SubmissionService struct {
	db       *gorm.DB
	forms    *FormService
	fields   *FieldService
	files    *FileService
	settings *SettingsService
}

func NewSubmissionService(db *gorm.DB, forms *FormService, fields *FieldService, files *FileService, settings *SettingsService) *SubmissionService {
	return &SubmissionService{db: db, forms: forms, fields: fields, files: files, settings: settings}
}

// Submit runs the full pipeline: form checks, per-field validation,
// reference-code generation, then one transaction inserting the submission
// row plus one answer row per leaf field per repeat index. Files are staged
// before the transaction and promoted only after it commits, so a rollback
// never leaves orphans in the upload tree. Returns the hydrated submission
// and any non-blocking warnings keyed by field key.
func (s *SubmissionService) Submit(formID uint, in SubmissionInput, answers AnswerSet) (*models.FormSubmission, map[string][]string, error) {
	form, err := s.forms.GetByID(formID)
	if err != nil {
		return nil, nil, err
	}
	if form.Status != models.FormStatusActive {
		return nil, nil, serviceErrorf("this form is not accepting submissions")
	}

	ve := newValidationError()
	if strings.TrimSpace(in.SubmittedBy) == "" {
		ve.add("submitted_by", "submitter email is required")
	} else if _, err := mail.ParseAddress(in.SubmittedBy); err != nil {
		ve.add("submitted_by", "submitter email is invalid")
	}
	if form.ShowDepartmentField && in.DepartmentID == nil {
		ve.add("department_id", "department is required for this form")
	}

	defs, err := s.fields.RenderDefinitions(formID)
	if err != nil {
		return nil, nil, err
	}

	warnings := map[string][]string{}
	for _, def := range defs {
		if def.FieldType == models.FieldTypeRepeater {
			s.validateRepeater(def, answers, ve, warnings)
			continue
		}
		s.validateLeaf(def, def.FieldKey, answers.Scalar[def.FieldKey], answers.Files[def.FieldKey], ve, warnings)
	}
	if !ve.empty() {
		return nil, nil, ve
	}

	refCode, err := s.generateReference()
	if err != nil {
		return nil, nil, err
	}

	var staged []*StagedFile
	submission := models.FormSubmission{
		FormID:        formID,
		SubmittedBy:   strings.TrimSpace(in.SubmittedBy),
		DepartmentID:  in.DepartmentID,
		Status:        models.SubmissionStatusNew,
		IPAddress:     in.IPAddress,
		ReferenceCode: refCode,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Duplicate check inside the transaction; the reference-code unique
		// index backs it up if two requests race past it.
		if !form.AllowMultipleSubmissions {
			var n int64
			if err := tx.Model(&models.FormSubmission{}).
				Where("form_id = ? AND submitted_by = ?", formID, submission.SubmittedBy).
				Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return serviceErrorf("a submission from this email already exists for this form")
			}
		}

		if err := tx.Create(&submission).Error; err != nil {
			return err
		}

		for _, def := range defs {
			if def.FieldType == models.FieldTypeRepeater {
				for idx, group := range answers.Groups[def.FieldKey] {
					for _, child := range def.Children {
						row, st, err := s.buildAnswerRow(tx, submission.ID, child, idx,
							group[child.FieldKey],
							answers.Files[fmt.Sprintf("%s.%d.%s", def.FieldKey, idx, child.FieldKey)],
							submission.FormID)
						if err != nil {
							return err
						}
						if st != nil {
							staged = append(staged, st)
						}
						if err := tx.Create(row).Error; err != nil {
							return err
						}
					}
				}
				continue
			}

			// Blank parts store NULL, like absent keys.
			var value interface{}
			if vals, ok := answers.Scalar[def.FieldKey]; ok {
				if def.FieldType == models.FieldTypeCheckbox {
					if checked := nonBlank(vals); len(checked) > 0 {
						value = checked
					}
				} else if len(vals) > 0 && strings.TrimSpace(vals[0]) != "" {
					value = vals[0]
				}
			}
			row, st, err := s.buildAnswerRowValue(tx, submission.ID, def, 0, value,
				answers.Files[def.FieldKey], submission.FormID)
			if err != nil {
				return err
			}
			if st != nil {
				staged = append(staged, st)
			}
			if err := tx.Create(row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.files.Discard(staged...)
		return nil, nil, err
	}

	for _, st := range staged {
		if err := s.files.Promote(st); err != nil {
			log.Error().Err(err).Str("path", st.FinalRel).Msg("failed to promote staged upload")
		}
	}

	hydrated, err := s.GetByID(submission.ID)
	if err != nil {
		return nil, nil, err
	}
	return hydrated, warnings, nil
}

func (s *SubmissionService) buildAnswerRow(tx *gorm.DB, submissionID uint, def FieldDefinition, repeatIndex int, raw string, file *multipart.FileHeader, formID uint) (*models.SubmissionAnswer, *StagedFile, error) {
	var value interface{}
	if raw != "" {
		value = raw
	}
	return s.buildAnswerRowValue(tx, submissionID, def, repeatIndex, value, file, formID)
}

func (s *SubmissionService) buildAnswerRowValue(tx *gorm.DB, submissionID uint, def FieldDefinition, repeatIndex int, value interface{}, file *multipart.FileHeader, formID uint) (*models.SubmissionAnswer, *StagedFile, error) {
	row := &models.SubmissionAnswer{
		SubmissionID: submissionID,
		FieldID:      def.ID,
		RepeatIndex:  repeatIndex,
	}

	if def.FieldType == models.FieldTypeFile {
		if file == nil {
			return row, nil, nil
		}
		st, err := s.files.Stage(formID, def.ID, file)
		if err != nil {
			return nil, nil, err
		}
		row.FilePath = &st.FinalRel
		row.FileName = &st.Info.OriginalName
		row.FileSize = &st.Info.Size
		return row, st, nil
	}

	row.Answer = StringifyAnswer(value)
	return row, nil, nil
}

// StringifyAnswer normalizes an answer value for the text column:
// nil stays NULL, booleans become "1"/"0", slices become compact JSON,
// everything else is a trimmed string.
func StringifyAnswer(v interface{}) *string {
	if v == nil {
		return nil
	}
	switch t := v.(type) {
	case bool:
		s := "0"
		if t {
			s = "1"
		}
		return &s
	case []string:
		b, err := json.Marshal(t)
		if err != nil {
			return nil
		}
		s := string(b)
		return &s
	case string:
		s := strings.TrimSpace(t)
		return &s
	default:
		s := strings.TrimSpace(fmt.Sprint(t))
		return &s
	}
}

func (s *SubmissionService) generateReference() (string, error) {
	prefix := s.settings.String(models.SettingRefCodePrefix, "REF")
	length := s.settings.Int(models.SettingRefCodeLength, 8)

	for attempt := 0; attempt < refCodeMaxRetries; attempt++ {
		code, err := utils.GenerateReferenceCode(prefix, length)
		if err != nil {
			return "", err
		}
		var n int64
		if err := s.db.Model(&models.FormSubmission{}).
			Where("reference_code = ?", code).Count(&n).Error; err != nil {
			return "", err
		}
		if n == 0 {
			return code, nil
		}
	}
	return "", serviceErrorf("could not allocate a unique reference code")
}

/* ---------- validation ---------- */

func (s *SubmissionService) validateRepeater(def FieldDefinition, answers AnswerSet, ve *ValidationError, warnings map[string][]string) {
	groups := answers.Groups[def.FieldKey]
	if def.Required && len(groups) == 0 {
		ve.add(def.FieldKey, fmt.Sprintf("%s requires at least one entry", def.Label))
		return
	}
	for idx, group := range groups {
		for _, child := range def.Children {
			key := fmt.Sprintf("%s.%d.%s", def.FieldKey, idx, child.FieldKey)
			var vals []string
			if v, ok := group[child.FieldKey]; ok && v != "" {
				vals = []string{v}
			}
			s.validateLeaf(child, key, vals, answers.Files[key], ve, warnings)
		}
	}
}

func (s *SubmissionService) validateLeaf(def FieldDefinition, key string, vals []string, file *multipart.FileHeader, ve *ValidationError, warnings map[string][]string) {
	if def.FieldType == models.FieldTypeFile {
		if def.Required && file == nil {
			ve.add(key, fmt.Sprintf("%s requires a file", def.Label))
		}
		return
	}

	if def.FieldType == models.FieldTypeCheckbox {
		vals = nonBlank(vals)
	}
	first := ""
	if len(vals) > 0 {
		first = strings.TrimSpace(vals[0])
	}
	// Browsers post an empty part for every unfilled input, so a blank
	// value means the same as an absent key.
	if first == "" {
		if def.Required {
			ve.add(key, fmt.Sprintf("%s is required", def.Label))
		}
		return
	}

	switch def.FieldType {
	case models.FieldTypeEmail:
		if _, err := mail.ParseAddress(first); err != nil {
			ve.add(key, fmt.Sprintf("%s must be a valid email address", def.Label))
			return
		}
	case models.FieldTypeNumber:
		if _, err := strconv.ParseFloat(first, 64); err != nil {
			ve.add(key, fmt.Sprintf("%s must be a number", def.Label))
			return
		}
	case models.FieldTypeDate:
		if _, err := time.Parse("2006-01-02", first); err != nil {
			ve.add(key, fmt.Sprintf("%s must be a date (YYYY-MM-DD)", def.Label))
			return
		}
	case models.FieldTypeTime:
		if _, err := time.Parse("15:04", first); err != nil {
			ve.add(key, fmt.Sprintf("%s must be a time (HH:MM)", def.Label))
			return
		}
	case models.FieldTypeSelect, models.FieldTypeRadio:
		if !optionAllowed(def.Options, first) {
			ve.add(key, fmt.Sprintf("%s has an invalid option", def.Label))
			return
		}
	case models.FieldTypeCheckbox:
		for _, v := range vals {
			if !optionAllowed(def.Options, v) {
				ve.add(key, fmt.Sprintf("%s contains an invalid option", def.Label))
				return
			}
		}
	}

	s.applyRules(def, key, first, ve, warnings)
}

// nonBlank drops empty values, as posted by unchecked checkbox groups.
func nonBlank(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func optionAllowed(options []RenderOption, value string) bool {
	for _, o := range options {
		if o.Value == value {
			return true
		}
	}
	return false
}

func (s *SubmissionService) applyRules(def FieldDefinition, key, value string, ve *ValidationError, warnings map[string][]string) {
	rules := def.Rules
	if rules == nil || value == "" {
		return
	}

	if rules.MinLength != nil && utf8.RuneCountInString(value) < *rules.MinLength {
		ve.add(key, fmt.Sprintf("%s must be at least %d characters", def.Label, *rules.MinLength))
	}
	if rules.MaxLength != nil && utf8.RuneCountInString(value) > *rules.MaxLength {
		ve.add(key, fmt.Sprintf("%s must be at most %d characters", def.Label, *rules.MaxLength))
	}
	if rules.Min != nil || rules.Max != nil {
		if n, err := strconv.ParseFloat(value, 64); err == nil {
			if rules.Min != nil && n < *rules.Min {
				ve.add(key, fmt.Sprintf("%s must be at least %v", def.Label, *rules.Min))
			}
			if rules.Max != nil && n > *rules.Max {
				ve.add(key, fmt.Sprintf("%s must be at most %v", def.Label, *rules.Max))
			}
		}
	}
	if rules.Format != "" && !CheckFormat(rules.Format, value) {
		ve.add(key, fmt.Sprintf("%s must be a valid %s", def.Label, rules.Format))
	}
	if rules.Regex != "" {
		// Applied only when the pattern itself compiles.
		if re, err := regexp.Compile(rules.Regex); err == nil && !re.MatchString(value) {
			ve.add(key, fmt.Sprintf("%s has an invalid format", def.Label))
		}
	}
	if rules.DateFrom != "" || rules.DateTo != "" {
		if d, err := time.Parse("2006-01-02", value); err == nil {
			if rules.DateFrom != "" {
				if from, err := time.Parse("2006-01-02", rules.DateFrom); err == nil && d.Before(from) {
					ve.add(key, fmt.Sprintf("%s must not be before %s", def.Label, rules.DateFrom))
				}
			}
			if rules.DateTo != "" {
				if to, err := time.Parse("2006-01-02", rules.DateTo); err == nil && d.After(to) {
					ve.add(key, fmt.Sprintf("%s must not be after %s", def.Label, rules.DateTo))
				}
			}
		}
	}
	if rules.Unique {
		// Best effort: a repeat value is reported as a warning, never an error.
		var n int64
		if err := s.db.Model(&models.SubmissionAnswer{}).
			Where("field_id = ? AND answer = ?", def.ID, value).
			Count(&n).Error; err == nil && n > 0 {
			warnings[key] = append(warnings[key], fmt.Sprintf("%s has been submitted before", def.Label))
		}
	}
}

/* ---------- helpers for URL/phone format rules on text fields ---------- */

// CheckFormat validates rule-driven formats used by text fields.
func CheckFormat(format, value string) bool {
	switch format {
	case "url":
		u, err := url.Parse(value)
		return err == nil && u.Scheme != "" && u.Host != ""
	case "phone":
		return rePhone.MatchString(strings.ReplaceAll(value, " ", ""))
	}
	return true
}

/* ---------- reads and admin mutations ---------- */

func (s *SubmissionService) GetByID(id uint) (*models.FormSubmission, error) {
	var sub models.FormSubmission
	err := s.db.Preload("Answers").Preload("Department").First(&sub, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *SubmissionService) GetByReference(ref string) (*models.FormSubmission, error) {
	var sub models.FormSubmission
	err := s.db.Preload("Answers").Where("reference_code = ?", ref).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// List returns one page of a form's submissions, newest first, with the
// criteria applied through parameterized clauses.
func (s *SubmissionService) List(formID uint, criteria FilterCriteria, page, limit int) ([]models.FormSubmission, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	q := s.db.Model(&models.FormSubmission{}).Where("form_id = ?", formID)
	q = criteria.Apply(q)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var subs []models.FormSubmission
	if err := q.Preload("Answers").Preload("Department").
		Order("submitted_at DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&subs).Error; err != nil {
		return nil, 0, err
	}
	return subs, total, nil
}

var validSubmissionStatuses = map[string]bool{
	models.SubmissionStatusNew:      true,
	models.SubmissionStatusReviewed: true,
	models.SubmissionStatusArchived: true,
}

func (s *SubmissionService) SetStatus(id uint, status string) error {
	if !validSubmissionStatuses[status] {
		return serviceErrorf("unknown submission status %q", status)
	}
	res := s.db.Model(&models.FormSubmission{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a submission with its answers, then cleans up any stored
// files the answers referenced.
func (s *SubmissionService) Delete(id uint) error {
	sub, err := s.GetByID(id)
	if err != nil {
		return err
	}

	var paths []string
	for _, a := range sub.Answers {
		if a.FilePath != nil && *a.FilePath != "" {
			paths = append(paths, *a.FilePath)
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("submission_id = ?", id).Delete(&models.SubmissionAnswer{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.FormSubmission{}, id).Error
	})
	if err != nil {
		return err
	}

	for _, p := range paths {
		if err := s.files.Delete(p); err != nil {
			log.Warn().Err(err).Str("path", p).Msg("failed to delete stored file")
		}
	}
	return nil
}
