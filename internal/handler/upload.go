package handler

import (
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mental-buddy/chat-service/pkg/logger"
	"github.com/mental-buddy/chat-service/pkg/metrics"
)

// maxUploadSize is the upload size ceiling.
const maxUploadSize = 10 << 20 // 10 MB

// allowedUploadTypes is the MIME allow-list for uploads.
var allowedUploadTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"application/pdf": true,
	"text/plain":      true,
	"text/markdown":   true,
	"text/csv":        true,
}

// UploadHandler accepts file uploads. Stored files are not yet linked
// into messages; the send workflow still rejects attachments.
type UploadHandler struct {
	uploadDir string
	logger    *logger.Logger
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(uploadDir string, log *logger.Logger) *UploadHandler {
	return &UploadHandler{
		uploadDir: uploadDir,
		logger:    log,
	}
}

// UploadResponse is the upload success body.
type UploadResponse struct {
	Success  bool   `json:"success"`
	FilePath string `json:"filePath"`
	FileName string `json:"fileName"`
}

// Upload handles POST /api/v1/upload
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1024)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusBadRequest, "file size exceeds limit (10MB)")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusBadRequest, "file size exceeds limit (10MB)")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if !allowedUploadTypes[contentType] {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusBadRequest, "invalid file type: "+contentType)
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		h.logger.Error("failed to create upload directory", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "file upload failed")
		return
	}

	name := uuid.New().String() + filepath.Ext(header.Filename)
	dstPath := filepath.Join(h.uploadDir, name)
	dst, err := os.Create(dstPath)
	if err != nil {
		h.logger.Error("failed to create upload file", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "file upload failed")
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(dstPath)
		h.logger.Error("failed to write upload file", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "file upload failed")
		return
	}

	metrics.UploadsTotal.WithLabelValues("accepted").Inc()
	writeJSON(w, http.StatusOK, &UploadResponse{
		Success:  true,
		FilePath: "/uploads/" + name,
		FileName: header.Filename,
	})
}
