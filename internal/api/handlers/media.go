package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/Diego-Cesare/fala-icara/internal/domain/media"
	"github.com/Diego-Cesare/fala-icara/internal/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MaxUploadSize предел размера одного файла
const MaxUploadSize = 15 << 20

// MediaHandler выбор фотографий из галереи и камеры
type MediaHandler struct {
	sessions *SessionHandler
}

// NewMediaHandler создает обработчик медиа
func NewMediaHandler(sessions *SessionHandler) *MediaHandler {
	return &MediaHandler{sessions: sessions}
}

// Add POST /api/v1/sessions/:id/media/:source, multipart поле files.
// mode=replace заменяет файлы источника целиком.
func (h *MediaHandler) Add(c *gin.Context) {
	s, ok := h.sessions.load(c)
	if !ok {
		return
	}

	source, err := media.ParseSource(c.Param("source"))
	if err != nil {
		respondError(c, fmt.Errorf("%w: %v", ErrInvalidRequest, err), "")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, fmt.Errorf("%w: multipart form: %v", ErrInvalidRequest, err), "")
		return
	}

	files, err := readFiles(form.File["files"], form.Value["last_modified"])
	if err != nil {
		respondError(c, fmt.Errorf("%w: %v", ErrInvalidRequest, err), "")
		return
	}

	var snap media.Snapshot
	if c.Query("mode") == "replace" {
		snap = s.ReplaceMedia(source, files)
	} else {
		snap = s.AddMedia(source, files)
	}

	if len(snap.Rejected) > 0 {
		logger.Debug("media files rejected",
			zap.String("session_id", s.ID),
			zap.Any("rejected", snap.Rejected),
		)
	}
	c.JSON(http.StatusOK, snap)
}

// List GET /api/v1/sessions/:id/media
func (h *MediaHandler) List(c *gin.Context) {
	s, ok := h.sessions.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Media())
}

// Clear DELETE /api/v1/sessions/:id/media
func (h *MediaHandler) Clear(c *gin.Context) {
	s, ok := h.sessions.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.ClearMedia())
}

// Preview GET /api/v1/sessions/:id/media/previews/:handle
func (h *MediaHandler) Preview(c *gin.Context) {
	s, ok := h.sessions.load(c)
	if !ok {
		return
	}

	f, found := s.Preview(c.Param("handle"))
	if !found {
		c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{Error: "preview not found"})
		return
	}
	c.Header("Cache-Control", "private, no-store")
	c.Data(http.StatusOK, f.ContentType, f.Data)
}

// readFiles читает загруженные файлы; last_modified (мс Unix, по одному на файл)
// нужен для распознавания повторно выбранных файлов.
func readFiles(headers []*multipart.FileHeader, lastModified []string) ([]media.File, error) {
	files := make([]media.File, 0, len(headers))
	for i, fh := range headers {
		var modTime time.Time
		if i < len(lastModified) {
			if ms, err := strconv.ParseInt(lastModified[i], 10, 64); err == nil {
				modTime = time.UnixMilli(ms).UTC()
			}
		}
		f, err := readFile(fh, modTime)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func readFile(fh *multipart.FileHeader, modTime time.Time) (media.File, error) {
	if fh.Size > MaxUploadSize {
		return media.File{}, fmt.Errorf("file %q exceeds %d bytes", fh.Filename, MaxUploadSize)
	}

	src, err := fh.Open()
	if err != nil {
		return media.File{}, fmt.Errorf("open %q: %w", fh.Filename, err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, MaxUploadSize+1))
	if err != nil {
		return media.File{}, fmt.Errorf("read %q: %w", fh.Filename, err)
	}

	return media.File{
		Name:        fh.Filename,
		Size:        int64(len(data)),
		ModTime:     modTime,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
