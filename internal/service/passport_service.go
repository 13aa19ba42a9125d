package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pediforte/registration-api/internal/dto"
	"github.com/pediforte/registration-api/internal/models"
	appErrors "github.com/pediforte/registration-api/pkg/errors"
	"github.com/pediforte/registration-api/pkg/storage"
)

type passportStudentRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	UpdatePassport(ctx context.Context, id int64, filename string) error
}

type passportStorage interface {
	SaveLimited(filename string, r io.Reader, maxBytes int64) (int64, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

type passportSigner interface {
	Generate(subject, relPath string) (string, time.Time, error)
	Parse(token string) (subject, relPath string, expiresAt time.Time, err error)
}

// PassportUpload carries an uploaded file and its declared size.
type PassportUpload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// PassportDownload bundles an open passport file for streaming.
type PassportDownload struct {
	File      *os.File
	Filename  string
	MimeType  string
	SizeBytes int64
}

// PassportConfig holds upload validation parameters.
type PassportConfig struct {
	MaxFileSize       int64
	AllowedExtensions []string
	LinkBasePath      string
}

// PassportService stores passport photos and issues signed download links.
type PassportService struct {
	students   passportStudentRepository
	storage    passportStorage
	signer     passportSigner
	metrics    *MetricsService
	logger     *zap.Logger
	cfg        PassportConfig
	extensions map[string]struct{}
}

// NewPassportService constructs the service with defaults.
func NewPassportService(students passportStudentRepository, store passportStorage, signer passportSigner, metrics *MetricsService, logger *zap.Logger, cfg PassportConfig) *PassportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 5 * 1024 * 1024
	}
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = []string{"png", "jpg", "jpeg", "gif", "pdf"}
	}
	if cfg.LinkBasePath == "" {
		cfg.LinkBasePath = "/api/passports"
	}
	extensions := make(map[string]struct{}, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		extensions[strings.TrimPrefix(strings.ToLower(ext), ".")] = struct{}{}
	}
	return &PassportService{
		students:   students,
		storage:    store,
		signer:     signer,
		metrics:    metrics,
		logger:     logger,
		cfg:        cfg,
		extensions: extensions,
	}
}

// MaxFileSize reports the upload limit in bytes.
func (s *PassportService) MaxFileSize() int64 {
	return s.cfg.MaxFileSize
}

// Upload validates and stores a passport as student_<id>_passport.<ext>.
func (s *PassportService) Upload(ctx context.Context, studentID int64, upload PassportUpload) (*dto.PassportUploadResponse, error) {
	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if upload.Content == nil || strings.TrimSpace(upload.Filename) == "" {
		return nil, appErrors.Clone(appErrors.ErrMissingField, "missing required field: file")
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(upload.Filename)), ".")
	if _, ok := s.extensions[ext]; !ok {
		s.metrics.RecordPassportUpload("rejected_type")
		return nil, appErrors.Clone(appErrors.ErrUnsupportedFileType,
			fmt.Sprintf("unsupported file type; allowed: %s", strings.Join(s.cfg.AllowedExtensions, ", ")))
	}
	if upload.Size > s.cfg.MaxFileSize {
		s.metrics.RecordPassportUpload("too_large")
		return nil, s.tooLarge()
	}

	target := fmt.Sprintf("student_%d_passport.%s", studentID, ext)
	written, err := s.storage.SaveLimited(target, upload.Content, s.cfg.MaxFileSize)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			s.metrics.RecordPassportUpload("too_large")
			return nil, s.tooLarge()
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store passport")
	}

	previous := student.PassportFilename
	if err := s.students.UpdatePassport(ctx, studentID, target); err != nil {
		if previous == nil || *previous != target {
			s.removeFile(studentID, target)
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record passport")
	}
	if previous != nil && *previous != "" && *previous != target {
		s.removeFile(studentID, *previous)
	}

	s.metrics.RecordPassportUpload("stored")
	s.logger.Info("passport stored", zap.Int64("student_id", studentID), zap.String("file", target), zap.Int64("bytes", written))
	return &dto.PassportUploadResponse{
		Message:  "Passport uploaded successfully",
		Filename: target,
		Size:     written,
	}, nil
}

// Open returns the stored passport of a student.
func (s *PassportService) Open(ctx context.Context, studentID int64) (*PassportDownload, error) {
	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student.PassportFilename == nil || *student.PassportFilename == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "passport not uploaded")
	}
	return s.open(*student.PassportFilename)
}

// Link issues a signed, expiring download URL for a student's passport.
func (s *PassportService) Link(ctx context.Context, studentID int64) (*dto.PassportLinkResponse, error) {
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "download signer unavailable")
	}
	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student.PassportFilename == nil || *student.PassportFilename == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "passport not uploaded")
	}
	token, expiresAt, err := s.signer.Generate(strconv.FormatInt(studentID, 10), *student.PassportFilename)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate download token")
	}
	return &dto.PassportLinkResponse{
		URL:       fmt.Sprintf("%s/%s", strings.TrimRight(s.cfg.LinkBasePath, "/"), token),
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	}, nil
}

// Resolve validates a signed token and opens the passport it points at. The
// token stops working once the student uploads a different file.
func (s *PassportService) Resolve(ctx context.Context, token string) (*PassportDownload, error) {
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "download signer unavailable")
	}
	subject, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrUnauthenticated, "download link expired")
		}
		return nil, appErrors.Clone(appErrors.ErrUnauthenticated, "invalid download link")
	}
	studentID, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthenticated, "invalid download link")
	}
	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student.PassportFilename == nil || *student.PassportFilename != relPath {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "passport not found")
	}
	return s.open(relPath)
}

func (s *PassportService) open(filename string) (*PassportDownload, error) {
	file, err := s.storage.Open(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "passport file missing")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open passport")
	}
	info, err := file.Stat()
	if err != nil {
		file.Close() //nolint:errcheck
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read passport metadata")
	}
	mimeType := mime.TypeByExtension(filepath.Ext(filename))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return &PassportDownload{File: file, Filename: filename, MimeType: mimeType, SizeBytes: info.Size()}, nil
}

func (s *PassportService) loadStudent(ctx context.Context, id int64) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

func (s *PassportService) removeFile(studentID int64, filename string) {
	if err := s.storage.Delete(filename); err != nil {
		s.logger.Warn("failed to remove passport file", zap.Int64("student_id", studentID), zap.String("file", filename), zap.Error(err))
	}
}

func (s *PassportService) tooLarge() error {
	return appErrors.Clone(appErrors.ErrFileTooLarge, fmt.Sprintf("file exceeds %d bytes limit", s.cfg.MaxFileSize))
}
