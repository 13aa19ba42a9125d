package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pediforte/registration-api/internal/dto"
	"github.com/pediforte/registration-api/internal/service"
	appErrors "github.com/pediforte/registration-api/pkg/errors"
	"github.com/pediforte/registration-api/pkg/response"
)

// multipartOverhead leaves room for boundaries and part headers around the file.
const multipartOverhead = 64 * 1024

type passportService interface {
	MaxFileSize() int64
	Upload(ctx context.Context, studentID int64, upload service.PassportUpload) (*dto.PassportUploadResponse, error)
	Open(ctx context.Context, studentID int64) (*service.PassportDownload, error)
	Link(ctx context.Context, studentID int64) (*dto.PassportLinkResponse, error)
	Resolve(ctx context.Context, token string) (*service.PassportDownload, error)
}

// PassportHandler handles passport uploads and downloads.
type PassportHandler struct {
	service passportService
}

// NewPassportHandler constructs the handler.
func NewPassportHandler(svc passportService) *PassportHandler {
	return &PassportHandler{service: svc}
}

// Upload godoc
// @Summary Upload a student passport photo
// @Tags Passports
// @Accept mpfd
// @Produce json
// @Param id path int true "Student ID"
// @Param file formData file true "png, jpg, jpeg, gif or pdf"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/passport [post]
func (h *PassportHandler) Upload(c *gin.Context) {
	id, err := studentIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.service.MaxFileSize()+multipartOverhead)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, h.formFileError(err))
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
		return
	}
	defer src.Close()

	res, err := h.service.Upload(c.Request.Context(), id, service.PassportUpload{
		Filename: fileHeader.Filename,
		Size:     fileHeader.Size,
		Content:  src,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Download godoc
// @Summary Stream a student's passport
// @Tags Passports
// @Produce octet-stream
// @Param id path int true "Student ID"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /admin/students/{id}/passport [get]
func (h *PassportHandler) Download(c *gin.Context) {
	id, err := studentIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.Open(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveDownload(c, result)
}

// Link godoc
// @Summary Issue a signed passport download link
// @Tags Passports
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/students/{id}/passport/link [get]
func (h *PassportHandler) Link(c *gin.Context) {
	id, err := studentIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	link, err := h.service.Link(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

// Signed godoc
// @Summary Download a passport through a signed link
// @Tags Passports
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /passports/{token} [get]
func (h *PassportHandler) Signed(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthenticated, "download token required"))
		return
	}
	result, err := h.service.Resolve(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveDownload(c, result)
}

func (h *PassportHandler) formFileError(err error) error {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge), strings.Contains(err.Error(), "request body too large"):
		return appErrors.Clone(appErrors.ErrFileTooLarge, fmt.Sprintf("file exceeds %d bytes limit", h.service.MaxFileSize()))
	case errors.Is(err, http.ErrMissingFile):
		return appErrors.Clone(appErrors.ErrMissingField, "missing required field: file")
	}
	return appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, http.StatusBadRequest, "invalid multipart payload")
}

func serveDownload(c *gin.Context, result *service.PassportDownload) {
	defer result.File.Close() //nolint:errcheck
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=\"%s\"", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, result.SizeBytes, result.MimeType, result.File, nil)
}
