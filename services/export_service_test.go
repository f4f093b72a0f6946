package services

import (
	"encoding/csv"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/ysalem/formbuilder-server/models"
)

func exportFixture(t *testing.T, st *testStack) *models.Form {
	t.Helper()
	form := buildSubmissionForm(t, st)

	_, _, err := st.submissions.Submit(form.ID, SubmissionInput{
		SubmittedBy: "export@example.com",
	}, AnswerSet{
		Scalar: map[string][]string{
			"full-name": {"Alice"},
			"skills":    {"Go"},
		},
		Groups: map[string][]map[string]string{
			"history": {
				{"company": "Acme", "years": "3"},
				{"company": "Globex", "years": "1"},
			},
		},
		Files: map[string]*multipart.FileHeader{},
	})
	if err != nil {
		t.Fatal(err)
	}
	return form
}

func runExportJob(t *testing.T, st *testStack, exports *ExportService, formID uint, format string) models.ExportJob {
	t.Helper()
	job := models.ExportJob{
		JobID:  uuid.New().String(),
		FormID: formID,
		Format: format,
		Status: "queued",
	}
	if err := st.db.Create(&job).Error; err != nil {
		t.Fatal(err)
	}
	// Run the worker synchronously; CreateJob would spawn it.
	exports.process(job.JobID)

	var done models.ExportJob
	if err := st.db.First(&done, "job_id = ?", job.JobID).Error; err != nil {
		t.Fatal(err)
	}
	return done
}

func TestExportCSV(t *testing.T) {
	st := newTestStack(t)
	form := exportFixture(t, st)
	exports := NewExportService(st.db, st.fields, filepath.Join(t.TempDir(), "exports"))

	job := runExportJob(t, st, exports, form.ID, "csv")
	if job.Status != "done" || job.FilePath == nil {
		t.Fatalf("job did not finish: status=%q err=%v", job.Status, job.ErrorMsg)
	}

	f, err := os.Open(*job.FilePath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(rows))
	}

	header := rows[0]
	// Meta columns first, then one column per leaf field; repeater children
	// labelled "Parent / Child".
	if header[0] != "reference_code" {
		t.Errorf("unexpected first column %q", header[0])
	}
	joined := strings.Join(header, ",")
	for _, want := range []string{"Full Name", "Skills", "History / Company", "History / Years"} {
		if !strings.Contains(joined, want) {
			t.Errorf("header missing %q: %v", want, header)
		}
	}
	if strings.Contains(joined, ",History,") {
		t.Errorf("repeater itself must not be a column: %v", header)
	}

	row := strings.Join(rows[1], ",")
	if !strings.Contains(row, "Acme | Globex") {
		t.Errorf("repeater values should join with ' | ': %v", rows[1])
	}
	if !strings.Contains(row, "export@example.com") {
		t.Errorf("row missing submitter: %v", rows[1])
	}
}

func TestExportXLSX(t *testing.T) {
	st := newTestStack(t)
	form := exportFixture(t, st)
	exports := NewExportService(st.db, st.fields, filepath.Join(t.TempDir(), "exports"))

	job := runExportJob(t, st, exports, form.ID, "xlsx")
	if job.Status != "done" || job.FilePath == nil {
		t.Fatalf("job did not finish: status=%q err=%v", job.Status, job.ErrorMsg)
	}

	f, err := excelize.OpenFile(*job.FilePath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows("Submissions")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(rows))
	}
	if rows[0][0] != "reference_code" {
		t.Errorf("unexpected first column %q", rows[0][0])
	}
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	st := newTestStack(t)
	form := mustCreateForm(t, st, "Bad Format")
	exports := NewExportService(st.db, st.fields, filepath.Join(t.TempDir(), "exports"))

	_, err := exports.CreateJob(form.ID, ExportRequest{Format: "yaml"})
	if err == nil {
		t.Fatal("expected rejection of unknown format")
	}
}

func TestJoinAnswersOrdersByRepeatIndex(t *testing.T) {
	v1, v2 := "second", "first"
	got := joinAnswers([]models.SubmissionAnswer{
		{RepeatIndex: 1, Answer: &v1},
		{RepeatIndex: 0, Answer: &v2},
	})
	if got != "first | second" {
		t.Errorf("expected repeat-index order, got %q", got)
	}
}
