package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"stock-service/internal/models"
	"stock-service/internal/repository"
	"stock-service/internal/storage"
)

// DisplayTimeLayout renders timestamps for people.
const DisplayTimeLayout = "02-01-2006 15:04:05"

// ActivityLister pages through the audit trail.
type ActivityLister interface {
	List(ctx context.Context, status *models.ActivityStatus, page, limit int) ([]models.ActivityLog, int64, error)
}

// Clock supplies the display timezone.
type Clock interface {
	Location() *time.Location
}

// UploadView is an upload history row as listed to users.
type UploadView struct {
	models.UploadHistory
	HumanSize       string `json:"humanSize"`
	Retained        bool   `json:"retained"`
	UploadedAtLocal string `json:"uploadedAtLocal"`
}

// ActivityView is an activity log entry as listed to users.
type ActivityView struct {
	models.ActivityLog
	Username       string `json:"username"`
	CreatedAtLocal string `json:"createdAtLocal"`
}

type HistoryHandler struct {
	uploads    repository.UploadStore
	activity   ActivityLister
	archive    storage.Archive
	clock      Clock
	pagination Pagination
	logger     *logrus.Entry
}

func NewHistoryHandler(uploads repository.UploadStore, activity ActivityLister, archive storage.Archive, clock Clock, pagination Pagination, logger *logrus.Logger) *HistoryHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &HistoryHandler{
		uploads:    uploads,
		activity:   activity,
		archive:    archive,
		clock:      clock,
		pagination: pagination,
		logger:     logger.WithField("component", "history-handler"),
	}
}

func (h *HistoryHandler) location() *time.Location {
	if h.clock == nil {
		return time.UTC
	}
	if loc := h.clock.Location(); loc != nil {
		return loc
	}
	return time.UTC
}

// ListUploads lists import attempts, newest first
// GET /api/v1/uploads
func (h *HistoryHandler) ListUploads(c *gin.Context) {
	page, limit := h.pagination.parse(c)
	uploads, total, err := h.uploads.List(c.Request.Context(), page, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list uploads")
		respondError(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to retrieve upload history")
		return
	}

	loc := h.location()
	views := make([]UploadView, 0, len(uploads))
	for i := range uploads {
		u := uploads[i]
		views = append(views, UploadView{
			UploadHistory:   u,
			HumanSize:       u.HumanSize(),
			Retained:        u.Retained(),
			UploadedAtLocal: u.UploadedAt.In(loc).Format(DisplayTimeLayout),
		})
	}
	c.JSON(http.StatusOK, models.ListResponse{
		Success:    true,
		Data:       views,
		Pagination: models.NewPaginationMeta(page, limit, total),
	})
}

// DownloadUpload streams an archived upload back to the caller
// GET /api/v1/uploads/:id/download
func (h *HistoryHandler) DownloadUpload(c *gin.Context) {
	id, ok := parseIDParam(c, "upload")
	if !ok {
		return
	}
	upload, err := h.uploads.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, "UPLOAD_NOT_FOUND", "Upload not found")
			return
		}
		h.logger.WithError(err).Error("Failed to load upload")
		respondError(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to retrieve upload")
		return
	}
	if !upload.Retained() || h.archive == nil {
		respondError(c, http.StatusNotFound, "FILE_NOT_RETAINED", "The file of this upload was not kept")
		return
	}

	rc, err := h.archive.Open(c.Request.Context(), upload.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			respondError(c, http.StatusNotFound, "FILE_NOT_FOUND", "The archived file no longer exists")
			return
		}
		h.logger.WithError(err).WithField("path", upload.StoragePath).Error("Failed to open archived file")
		respondError(c, http.StatusInternalServerError, "DOWNLOAD_FAILED", "Failed to open archived file")
		return
	}
	defer rc.Close()

	contentType := "application/octet-stream"
	switch strings.ToLower(filepath.Ext(upload.FileName)) {
	case ".xlsx", ".xlsm":
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".csv":
		contentType = "text/csv"
	}
	c.DataFromReader(http.StatusOK, upload.FileSize, contentType, rc, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", upload.FileName),
	})
}

// ListActivity lists audit entries, newest first
// GET /api/v1/activity-logs
func (h *HistoryHandler) ListActivity(c *gin.Context) {
	var status *models.ActivityStatus
	if raw := c.Query("status"); raw != "" {
		s := models.ActivityStatus(raw)
		switch s {
		case models.ActivityStatusSuccess, models.ActivityStatusFailed, models.ActivityStatusError, models.ActivityStatusPartial:
			status = &s
		default:
			respondError(c, http.StatusBadRequest, "INVALID_STATUS", "status must be success, failed, error or partial")
			return
		}
	}

	page, limit := h.pagination.parse(c)
	entries, total, err := h.activity.List(c.Request.Context(), status, page, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list activity")
		respondError(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to retrieve activity logs")
		return
	}

	loc := h.location()
	views := make([]ActivityView, 0, len(entries))
	for _, e := range entries {
		view := ActivityView{ActivityLog: e, CreatedAtLocal: e.CreatedAt.In(loc).Format(DisplayTimeLayout)}
		if e.User != nil {
			view.Username = e.User.Username
		}
		views = append(views, view)
	}
	c.JSON(http.StatusOK, models.ListResponse{
		Success:    true,
		Data:       views,
		Pagination: models.NewPaginationMeta(page, limit, total),
	})
}
