package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ysalem/formbuilder-server/models"
	"github.com/ysalem/formbuilder-server/utils"
)

const stagingDirName = ".staging"

var reExtChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// FileService validates and stores uploaded files under the configured base
// path, outside the public web root. Uploads are staged first and promoted
// into their final location only after the submission transaction commits.
type FileService struct {
	settings *SettingsService

	// Fallbacks when the settings table carries no value.
	defaultBasePath string
	defaultMaxMB    int
}

func NewFileService(settings *SettingsService, defaultBasePath string, defaultMaxMB int) *FileService {
	if defaultBasePath == "" {
		defaultBasePath = "storage/uploads"
	}
	if defaultMaxMB <= 0 {
		defaultMaxMB = 10
	}
	return &FileService{
		settings:        settings,
		defaultBasePath: defaultBasePath,
		defaultMaxMB:    defaultMaxMB,
	}
}

func (s *FileService) basePath() string {
	return s.settings.String(models.SettingUploadPath, s.defaultBasePath)
}

// FileInfo describes a validated upload before it is written anywhere.
type FileInfo struct {
	OriginalName string
	Extension    string
	MimeType     string
	Size         int64
}

// Validate rejects empty, oversized and disallowed uploads. The MIME type
// is sniffed from file content, never taken from client headers. The
// allow-list setting may mix MIME strings and bare extensions; values
// containing "/" are treated as MIME types.
func (s *FileService) Validate(fh *multipart.FileHeader) (*FileInfo, error) {
	if fh == nil || fh.Filename == "" {
		return nil, &StorageError{Op: "validate", Err: errors.New("missing file name")}
	}
	if fh.Size <= 0 {
		return nil, &StorageError{Op: "validate", Err: errors.New("file is empty")}
	}
	maxBytes := int64(s.settings.Int(models.SettingMaxUploadMB, s.defaultMaxMB)) << 20
	if fh.Size > maxBytes {
		return nil, &StorageError{Op: "validate",
			Err: fmt.Errorf("file exceeds the %d MB limit", maxBytes>>20)}
	}

	ext := strings.ToLower(reExtChars.ReplaceAllString(strings.TrimPrefix(filepath.Ext(fh.Filename), "."), ""))
	if ext == "" {
		return nil, &StorageError{Op: "validate", Err: errors.New("file extension cannot be determined")}
	}

	f, err := fh.Open()
	if err != nil {
		return nil, &StorageError{Op: "validate", Err: err}
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return nil, &StorageError{Op: "validate", Err: err}
	}
	detected := mtype.String()

	if allowed := s.settings.List(models.SettingAllowedMime); len(allowed) > 0 {
		ok := false
		for _, entry := range allowed {
			if strings.Contains(entry, "/") {
				if strings.EqualFold(entry, detected) {
					ok = true
					break
				}
			} else if strings.EqualFold(entry, ext) {
				ok = true
				break
			}
		}
		if !ok {
			return nil, &StorageError{Op: "validate",
				Err: fmt.Errorf("file type %s (.%s) is not allowed", detected, ext)}
		}
	}

	return &FileInfo{
		OriginalName: fh.Filename,
		Extension:    ext,
		MimeType:     detected,
		Size:         fh.Size,
	}, nil
}

// StagedFile is a validated upload parked in the staging area, together
// with the final relative path it will be promoted to.
type StagedFile struct {
	Info       FileInfo
	StagedPath string
	FinalRel   string
	StoredName string
}

// Stage validates the upload and writes it into <base>/.staging/<uuid>,
// computing the final <base>/<form>/<field>/ path up front so the answer
// row can reference it before the file lands there.
func (s *FileService) Stage(formID, fieldID uint, fh *multipart.FileHeader) (*StagedFile, error) {
	info, err := s.Validate(fh)
	if err != nil {
		return nil, err
	}

	base := s.basePath()
	stagingDir := filepath.Join(base, stagingDirName)
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return nil, &StorageError{Op: "stage", Err: err}
	}

	random := make([]byte, 6)
	if _, err := rand.Read(random); err != nil {
		return nil, &StorageError{Op: "stage", Err: err}
	}
	storedName := fmt.Sprintf("file_%d_%s.%s", time.Now().Unix(), hex.EncodeToString(random), info.Extension)

	stagedPath := filepath.Join(stagingDir, uuid.New().String())
	src, err := fh.Open()
	if err != nil {
		return nil, &StorageError{Op: "stage", Err: err}
	}
	defer src.Close()

	dst, err := os.Create(stagedPath)
	if err != nil {
		return nil, &StorageError{Op: "stage", Err: err}
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(stagedPath)
		return nil, &StorageError{Op: "stage", Err: err}
	}
	if err := dst.Close(); err != nil {
		os.Remove(stagedPath)
		return nil, &StorageError{Op: "stage", Err: err}
	}

	return &StagedFile{
		Info:       *info,
		StagedPath: stagedPath,
		FinalRel:   filepath.Join(base, fmt.Sprint(formID), fmt.Sprint(fieldID), storedName),
		StoredName: storedName,
	}, nil
}

// Promote moves a staged file into its final directory. Called after the
// enclosing database transaction has committed.
func (s *FileService) Promote(staged *StagedFile) error {
	if err := os.MkdirAll(filepath.Dir(staged.FinalRel), 0o755); err != nil {
		return &StorageError{Op: "promote", Err: err}
	}
	if err := os.Rename(staged.StagedPath, staged.FinalRel); err != nil {
		// Rename fails across filesystems; fall back to copy+delete.
		if copyErr := copyFile(staged.StagedPath, staged.FinalRel); copyErr != nil {
			return &StorageError{Op: "promote", Err: copyErr}
		}
		os.Remove(staged.StagedPath)
	}

	if utils.MirrorEnabled() {
		if url, err := utils.MirrorFile(staged.FinalRel, staged.FinalRel, staged.Info.MimeType); err != nil {
			log.Warn().Err(err).Str("path", staged.FinalRel).Msg("upload mirror failed")
		} else {
			log.Debug().Str("url", url).Msg("upload mirrored")
		}
	}
	return nil
}

// Discard removes staged files after a rolled-back submission.
func (s *FileService) Discard(staged ...*StagedFile) {
	for _, st := range staged {
		if st == nil {
			continue
		}
		if err := os.Remove(st.StagedPath); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", st.StagedPath).Msg("failed to discard staged upload")
		}
	}
}

// Delete removes a stored file. The resolved path must lie strictly under
// the upload base; anything else is rejected. Missing files are a no-op.
func (s *FileService) Delete(relPath string) error {
	base, err := filepath.Abs(s.basePath())
	if err != nil {
		return &StorageError{Op: "delete", Err: err}
	}
	abs, err := filepath.Abs(relPath)
	if err != nil {
		return &StorageError{Op: "delete", Err: err}
	}
	if !strings.HasPrefix(abs, base+string(os.PathSeparator)) {
		return &StorageError{Op: "delete",
			Err: fmt.Errorf("path %q resolves outside the upload root", relPath)}
	}
	if err := os.Remove(abs); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &StorageError{Op: "delete", Err: err}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
