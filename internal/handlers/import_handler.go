package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"stock-service/internal/importer"
	"stock-service/internal/middleware"
)

// Importer runs one upload.
type Importer interface {
	Import(ctx context.Context, req importer.Request) (*importer.Outcome, error)
	Reject(ctx context.Context, req importer.Request, cause *importer.StructuralError) error
}

// ImportResponse is the JSON body of a finished import.
type ImportResponse struct {
	*importer.Outcome
	Status   string   `json:"status"`
	Summary  string   `json:"summary"`
	Messages []string `json:"messages"`
}

type ImportHandler struct {
	importer     Importer
	maxBytes     int64
	redirectPath string
	logger       *logrus.Entry
}

// NewImportHandler limits uploads to maxBytes. Browser posts are redirected
// to redirectPath.
func NewImportHandler(imp Importer, maxBytes int64, redirectPath string, logger *logrus.Logger) *ImportHandler {
	if redirectPath == "" {
		redirectPath = "/"
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ImportHandler{
		importer:     imp,
		maxBytes:     maxBytes,
		redirectPath: redirectPath,
		logger:       logger.WithField("component", "import-handler"),
	}
}

func flavorParam(c *gin.Context) (importer.Flavor, bool) {
	flavor, err := importer.FlavorByName(c.Param("flavor"))
	if err != nil {
		respondError(c, http.StatusNotFound, "UNKNOWN_FLAVOR", fmt.Sprintf("Unknown import type %q", c.Param("flavor")))
		return importer.Flavor{}, false
	}
	return flavor, true
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}

// Import merges an uploaded spreadsheet into the catalog
// POST /api/v1/imports/:flavor
func (h *ImportHandler) Import(c *gin.Context) {
	flavor, ok := flavorParam(c)
	if !ok {
		return
	}

	if h.maxBytes > 0 {
		// Room for the multipart envelope around the file itself.
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+64<<10)
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		if isTooLarge(err) {
			h.reject(c, flavor, "", importer.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "File exceeds the upload size limit")
			return
		}
		h.reject(c, flavor, "", importer.ErrNoFile, http.StatusBadRequest, "FILE_REQUIRED", "Please upload a CSV or Excel file")
		return
	}
	defer file.Close()

	if h.maxBytes > 0 && header.Size > h.maxBytes {
		h.reject(c, flavor, header.Filename, importer.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "File exceeds the upload size limit")
		return
	}

	outcome, err := h.importer.Import(c.Request.Context(), importer.Request{
		Flavor:   flavor,
		FileName: header.Filename,
		File:     file,
		Actor:    middleware.ActorID(c),
	})
	if err != nil {
		var se *importer.StructuralError
		if errors.As(err, &se) {
			h.fail(c, http.StatusUnprocessableEntity, "IMPORT_REJECTED", se.Message())
			return
		}
		h.logger.WithError(err).WithField("flavor", flavor.Name).Error("Import failed")
		h.fail(c, http.StatusInternalServerError, "IMPORT_FAILED", "Import could not be processed")
		return
	}

	messages := outcome.Messages(importer.DefaultMessageLimit)
	if wantsRedirect(c) {
		level := "success"
		switch {
		case outcome.Merged() == 0 && outcome.ErrorCount > 0:
			level = "error"
		case outcome.ErrorCount > 0:
			level = "warning"
		}
		setFlash(c, Flash{Level: level, Messages: append([]string{outcome.Summary()}, messages...)})
		c.Redirect(http.StatusSeeOther, h.redirectPath)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": ImportResponse{
			Outcome:  outcome,
			Status:   string(outcome.Status()),
			Summary:  outcome.Summary(),
			Messages: messages,
		},
	})
}

// reject records an upload refused before it reached the importer, then answers.
func (h *ImportHandler) reject(c *gin.Context, flavor importer.Flavor, fileName string, cause error, status int, code, message string) {
	_ = h.importer.Reject(c.Request.Context(), importer.Request{
		Flavor:   flavor,
		FileName: fileName,
		Actor:    middleware.ActorID(c),
	}, &importer.StructuralError{Err: cause})
	h.fail(c, status, code, message)
}

// fail answers with the JSON error envelope, or a flash redirect for browsers.
func (h *ImportHandler) fail(c *gin.Context, status int, code, message string) {
	if wantsRedirect(c) {
		setFlash(c, Flash{Level: "error", Messages: []string{message}})
		c.Redirect(http.StatusSeeOther, h.redirectPath)
		return
	}
	respondError(c, status, code, message)
}

// Template downloads the import template of a flavor
// GET /api/v1/imports/:flavor/template?format=xlsx|csv|json
func (h *ImportHandler) Template(c *gin.Context) {
	flavor, ok := flavorParam(c)
	if !ok {
		return
	}

	switch c.DefaultQuery("format", "xlsx") {
	case "json":
		respondOK(c, flavor.Template())
	case "csv":
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", flavor.TemplateFileName("csv")))
		if err := importer.WriteTemplateCSV(c.Writer, flavor); err != nil {
			h.logger.WithError(err).Error("Failed to write CSV template")
		}
	default:
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", flavor.TemplateFileName("xlsx")))
		if err := importer.WriteTemplateXLSX(c.Writer, flavor); err != nil {
			h.logger.WithError(err).Error("Failed to write Excel template")
		}
	}
}
