package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/ysalem/formbuilder-server/models"
)

type ExportService struct {
	db     *gorm.DB
	fields *FieldService
	outDir string
}

func NewExportService(db *gorm.DB, fields *FieldService, outDir string) *ExportService {
	if outDir == "" {
		outDir = "storage/exports"
	}
	return &ExportService{db: db, fields: fields, outDir: outDir}
}

type ExportRequest struct {
	Format    string
	RangeFrom *time.Time
	RangeTo   *time.Time
}

// CreateJob records an export job and processes it in the background,
// returning immediately with the queued job.
func (s *ExportService) CreateJob(formID uint, req ExportRequest) (*models.ExportJob, error) {
	format := req.Format
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "xlsx" {
		return nil, serviceErrorf("format must be csv or xlsx")
	}

	job := models.ExportJob{
		JobID:     uuid.New().String(),
		FormID:    formID,
		Format:    format,
		RangeFrom: req.RangeFrom,
		RangeTo:   req.RangeTo,
		Status:    "queued",
	}
	if err := s.db.Create(&job).Error; err != nil {
		return nil, err
	}

	go s.process(job.JobID)
	return &job, nil
}

func (s *ExportService) GetJob(jobID string) (*models.ExportJob, error) {
	var job models.ExportJob
	err := s.db.First(&job, "job_id = ?", jobID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *ExportService) fail(job *models.ExportJob, err error) {
	msg := err.Error()
	s.db.Model(job).Updates(map[string]interface{}{"status": "failed", "error_msg": msg})
	log.Error().Err(err).Str("job_id", job.JobID).Msg("export job failed")
}

type exportColumn struct {
	FieldID uint
	Header  string
}

func (s *ExportService) process(jobID string) {
	var job models.ExportJob
	if err := s.db.First(&job, "job_id = ?", jobID).Error; err != nil {
		return
	}
	s.db.Model(&job).Update("status", "processing")

	columns, err := s.columnsFor(job.FormID)
	if err != nil {
		s.fail(&job, err)
		return
	}

	q := s.db.Preload("Answers").Preload("Department").
		Where("form_id = ?", job.FormID).
		Order("submitted_at ASC")
	if job.RangeFrom != nil {
		q = q.Where("submitted_at >= ?", job.RangeFrom)
	}
	if job.RangeTo != nil {
		q = q.Where("submitted_at <= ?", job.RangeTo)
	}
	var subs []models.FormSubmission
	if err := q.Find(&subs).Error; err != nil {
		s.fail(&job, err)
		return
	}

	if err := os.MkdirAll(s.outDir, 0o755); err != nil {
		s.fail(&job, err)
		return
	}
	outPath := filepath.Join(s.outDir, fmt.Sprintf("export_%s.%s", job.JobID, job.Format))

	header := append([]string{"reference_code", "submitted_by", "department_id", "status", "submitted_at"},
		headerNames(columns)...)

	rows := make([][]string, 0, len(subs))
	for _, sub := range subs {
		row := []string{
			sub.ReferenceCode,
			sub.SubmittedBy,
			formatDepartment(sub.DepartmentID),
			sub.Status,
			sub.SubmittedAt.Format(time.RFC3339),
		}
		byField := map[uint][]models.SubmissionAnswer{}
		for _, a := range sub.Answers {
			byField[a.FieldID] = append(byField[a.FieldID], a)
		}
		for _, col := range columns {
			row = append(row, joinAnswers(byField[col.FieldID]))
		}
		rows = append(rows, row)
	}

	switch job.Format {
	case "xlsx":
		err = writeXLSX(outPath, header, rows)
	default:
		err = writeCSV(outPath, header, rows)
	}
	if err != nil {
		s.fail(&job, err)
		return
	}

	s.db.Model(&job).Updates(map[string]interface{}{"status": "done", "file_path": outPath})
}

// columnsFor lists leaf fields in render order; repeater children become
// "Parent / Child" columns.
func (s *ExportService) columnsFor(formID uint) ([]exportColumn, error) {
	fields, err := s.fields.GetForForm(formID, true)
	if err != nil {
		return nil, err
	}

	labels := map[uint]string{}
	for _, f := range fields {
		labels[f.ID] = f.Label
	}

	var columns []exportColumn
	for _, f := range fields {
		if f.FieldType == models.FieldTypeRepeater {
			continue
		}
		header := f.Label
		if f.ParentFieldID != nil {
			header = labels[*f.ParentFieldID] + " / " + f.Label
		}
		columns = append(columns, exportColumn{FieldID: f.ID, Header: header})
	}
	return columns, nil
}

func headerNames(columns []exportColumn) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.Header
	}
	return out
}

func formatDepartment(id *uint) string {
	if id == nil {
		return ""
	}
	return fmt.Sprint(*id)
}

// joinAnswers renders all repeat instances of one field as a single cell,
// ordered by repeat index and separated by " | ".
func joinAnswers(answers []models.SubmissionAnswer) string {
	if len(answers) == 0 {
		return ""
	}
	sort.Slice(answers, func(i, j int) bool { return answers[i].RepeatIndex < answers[j].RepeatIndex })

	parts := make([]string, 0, len(answers))
	for _, a := range answers {
		switch {
		case a.FilePath != nil && *a.FilePath != "":
			parts = append(parts, *a.FilePath)
		case a.Answer != nil:
			parts = append(parts, *a.Answer)
		default:
			parts = append(parts, "")
		}
	}
	return strings.Join(parts, " | ")
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeXLSX(path string, header []string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Submissions"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	writeRow := func(rowIdx int, values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, rowIdx)
		if err != nil {
			return err
		}
		cells := make([]interface{}, len(values))
		for i, v := range values {
			cells[i] = v
		}
		return f.SetSheetRow(sheet, cell, &cells)
	}

	if err := writeRow(1, header); err != nil {
		return err
	}
	for i, row := range rows {
		if err := writeRow(i+2, row); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}
