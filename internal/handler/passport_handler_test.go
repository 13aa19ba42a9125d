package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pediforte/registration-api/internal/dto"
	"github.com/pediforte/registration-api/internal/service"
	appErrors "github.com/pediforte/registration-api/pkg/errors"
)

type passportServiceMock struct {
	maxSize  int64
	uploaded []byte
	filename string
	download *service.PassportDownload
	err      error
	tokens   []string
}

func (m *passportServiceMock) MaxFileSize() int64 { return m.maxSize }

func (m *passportServiceMock) Upload(ctx context.Context, studentID int64, upload service.PassportUpload) (*dto.PassportUploadResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	data, err := io.ReadAll(upload.Content)
	if err != nil {
		return nil, err
	}
	m.uploaded = data
	m.filename = upload.Filename
	return &dto.PassportUploadResponse{Message: "Passport uploaded successfully", Filename: "student_1_passport.png", Size: int64(len(data))}, nil
}

func (m *passportServiceMock) Open(ctx context.Context, studentID int64) (*service.PassportDownload, error) {
	return m.download, m.err
}

func (m *passportServiceMock) Link(ctx context.Context, studentID int64) (*dto.PassportLinkResponse, error) {
	return &dto.PassportLinkResponse{URL: "/api/passports/tok", ExpiresAt: "2030-01-01T00:00:00Z"}, m.err
}

func (m *passportServiceMock) Resolve(ctx context.Context, token string) (*service.PassportDownload, error) {
	m.tokens = append(m.tokens, token)
	return m.download, m.err
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestPassportHandlerUpload(t *testing.T) {
	svc := &passportServiceMock{maxSize: 1024}
	handler := NewPassportHandler(svc)

	body, contentType := multipartBody(t, "file", "me.png", []byte("png-bytes"))
	c, w := newGinContext(http.MethodPost, "/api/students/1/passport", body.Bytes())
	c.Request.Header.Set("Content-Type", contentType)
	withID(c, "1")

	handler.Upload(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "png-bytes", string(svc.uploaded))
	assert.Equal(t, "me.png", svc.filename)
}

func TestPassportHandlerUploadMissingFile(t *testing.T) {
	svc := &passportServiceMock{maxSize: 1024}
	handler := NewPassportHandler(svc)

	body, contentType := multipartBody(t, "other", "me.png", []byte("png"))
	c, w := newGinContext(http.MethodPost, "/api/students/1/passport", body.Bytes())
	c.Request.Header.Set("Content-Type", contentType)
	withID(c, "1")

	handler.Upload(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.ErrMissingField.Code, errorCode(t, w))
}

func TestPassportHandlerUploadBodyTooLarge(t *testing.T) {
	svc := &passportServiceMock{maxSize: 16}
	handler := NewPassportHandler(svc)

	body, contentType := multipartBody(t, "file", "big.png", bytes.Repeat([]byte("x"), multipartOverhead+64))
	c, w := newGinContext(http.MethodPost, "/api/students/1/passport", body.Bytes())
	c.Request.Header.Set("Content-Type", contentType)
	withID(c, "1")

	handler.Upload(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.ErrFileTooLarge.Code, errorCode(t, w))
	assert.Nil(t, svc.uploaded)
}

func TestPassportHandlerSignedDownload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "student_1_passport.png")
	require.NoError(t, os.WriteFile(path, []byte("image"), 0o600))
	file, err := os.Open(path)
	require.NoError(t, err)

	svc := &passportServiceMock{download: &service.PassportDownload{File: file, Filename: "student_1_passport.png", MimeType: "image/png", SizeBytes: 5}}
	handler := NewPassportHandler(svc)

	c, w := newGinContext(http.MethodGet, "/api/passports/tok", nil)
	c.Params = append(c.Params, ginParam("token", "tok"))
	handler.Signed(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image", w.Body.String())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "student_1_passport.png")
	assert.Equal(t, []string{"tok"}, svc.tokens)
}

func TestPassportHandlerSignedDownloadExpired(t *testing.T) {
	svc := &passportServiceMock{err: appErrors.Clone(appErrors.ErrUnauthenticated, "download link expired")}
	handler := NewPassportHandler(svc)

	c, w := newGinContext(http.MethodGet, "/api/passports/tok", nil)
	c.Params = append(c.Params, ginParam("token", "tok"))
	handler.Signed(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPassportHandlerLink(t *testing.T) {
	handler := NewPassportHandler(&passportServiceMock{})

	c, w := newGinContext(http.MethodGet, "/api/admin/students/1/passport/link", nil)
	withID(c, "1")
	handler.Link(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"url":"/api/passports/tok","expires_at":"2030-01-01T00:00:00Z"}`, string(decodeEnvelope(t, w).Data))
}
