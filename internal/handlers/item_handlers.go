package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"stock-service/internal/importer"
	"stock-service/internal/middleware"
	"stock-service/internal/models"
	"stock-service/internal/repository"
	"stock-service/internal/services"
)

// DefaultExpiringDays is the window of filter=expiring when days is absent.
const DefaultExpiringDays = 30

type ItemHandler struct {
	items      repository.ItemStore
	auditor    services.Auditor
	pagination Pagination
	logger     *logrus.Entry
}

func NewItemHandler(items repository.ItemStore, auditor services.Auditor, pagination Pagination, logger *logrus.Logger) *ItemHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ItemHandler{
		items:      items,
		auditor:    auditor,
		pagination: pagination,
		logger:     logger.WithField("component", "item-handler"),
	}
}

// storeError maps repository errors onto responses. Unexpected errors are
// logged, audited with action and answered with code.
func (h *ItemHandler) storeError(c *gin.Context, err error, action, code string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		respondError(c, http.StatusNotFound, "ITEM_NOT_FOUND", "Item not found")
	case errors.Is(err, repository.ErrDuplicateCode):
		respondError(c, http.StatusConflict, "DUPLICATE_CODE", "An item with this code already exists")
	default:
		h.logger.WithError(err).WithField("action", action).Error("Item store operation failed")
		h.auditor.Record(c.Request.Context(), middleware.ActorID(c), action, models.ActivityStatusError, err.Error())
		respondError(c, http.StatusInternalServerError, code, "Item operation failed")
	}
}

func (h *ItemHandler) record(c *gin.Context, action, notes string) {
	h.auditor.Record(c.Request.Context(), middleware.ActorID(c), action, models.ActivityStatusSuccess, notes)
}

func (h *ItemHandler) update(c *gin.Context, id uuid.UUID, patch models.ItemPatch, action, notes string) {
	item, err := h.items.Update(c.Request.Context(), id, patch)
	if err != nil {
		h.storeError(c, err, action, "UPDATE_FAILED")
		return
	}
	h.record(c, action, fmt.Sprintf(notes, item.Code))
	respondOK(c, item)
}

// ListItems lists items with search, filters, sorting and pagination
// GET /api/v1/items
func (h *ItemHandler) ListItems(c *gin.Context) {
	page, limit := h.pagination.parse(c)
	filter := models.ItemFilter{
		Query: strings.TrimSpace(c.Query("q")),
		Sort:  models.ItemSort(c.DefaultQuery("sort", string(models.SortName))),
		Page:  page,
		Limit: limit,
	}

	switch c.Query("filter") {
	case "":
	case "low_stock":
		filter.LowStockOnly = true
	case "expiring":
		days := DefaultExpiringDays
		if raw := c.Query("days"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				respondError(c, http.StatusBadRequest, "INVALID_DAYS", "days must be a non-negative number")
				return
			}
			days = n
		}
		filter.ExpiringWithin = &days
	default:
		respondError(c, http.StatusBadRequest, "INVALID_FILTER", "filter must be low_stock or expiring")
		return
	}

	items, total, err := h.items.FilterAndOrder(c.Request.Context(), filter)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list items")
		respondError(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to retrieve items")
		return
	}

	c.JSON(http.StatusOK, models.ListResponse{
		Success:    true,
		Data:       items,
		Pagination: models.NewPaginationMeta(page, limit, total),
	})
}

// GetItem retrieves one item
// GET /api/v1/items/:id
func (h *ItemHandler) GetItem(c *gin.Context) {
	id, ok := parseIDParam(c, "item")
	if !ok {
		return
	}
	item, err := h.items.GetByID(c.Request.Context(), id)
	if err != nil {
		h.storeError(c, err, "get_item", "FETCH_FAILED")
		return
	}
	respondOK(c, item)
}

// CreateItem adds an item
// POST /api/v1/items
func (h *ItemHandler) CreateItem(c *gin.Context) {
	var req models.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	if req.SellingPrice.IsNegative() || (req.LatestPrice != nil && req.LatestPrice.IsNegative()) {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Prices cannot be negative")
		return
	}

	item := &models.Item{
		Code:          strings.TrimSpace(req.Code),
		Name:          strings.TrimSpace(req.Name),
		Category:      strings.TrimSpace(req.Category),
		CurrentStock:  req.CurrentStock,
		SellingPrice:  req.SellingPrice.Round(2),
		LatestPrice:   req.LatestPrice,
		MinimumStock:  req.MinimumStock,
		TransferStock: req.TransferStock,
		ExpiryDate:    req.ExpiryDate,
	}
	if item.Category == "" {
		item.Category = models.DefaultCategory
	}

	if err := h.items.Create(c.Request.Context(), item); err != nil {
		h.storeError(c, err, models.ActionCreateItem, "CREATE_FAILED")
		return
	}
	h.record(c, models.ActionCreateItem, "Created item "+item.Code)
	c.JSON(http.StatusCreated, models.SuccessResponse{Success: true, Data: item})
}

// UpdateItem applies a partial update
// PUT /api/v1/items/:id
func (h *ItemHandler) UpdateItem(c *gin.Context) {
	id, ok := parseIDParam(c, "item")
	if !ok {
		return
	}
	var req models.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	if req.SellingPrice != nil && req.SellingPrice.IsNegative() {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Prices cannot be negative")
		return
	}

	patch := models.ItemPatch{
		Code:         req.Code,
		Name:         req.Name,
		Category:     req.Category,
		CurrentStock: req.CurrentStock,
		SellingPrice: req.SellingPrice,
	}
	if patch.IsEmpty() {
		respondError(c, http.StatusBadRequest, "NO_CHANGES", "No fields to update")
		return
	}
	h.update(c, id, patch, models.ActionUpdateItem, "Updated item %s")
}

// DeleteItem permanently removes an item
// DELETE /api/v1/items/:id
func (h *ItemHandler) DeleteItem(c *gin.Context) {
	id, ok := parseIDParam(c, "item")
	if !ok {
		return
	}
	item, err := h.items.GetByID(c.Request.Context(), id)
	if err != nil {
		h.storeError(c, err, models.ActionDeleteItem, "DELETE_FAILED")
		return
	}
	if err := h.items.Delete(c.Request.Context(), id); err != nil {
		h.storeError(c, err, models.ActionDeleteItem, "DELETE_FAILED")
		return
	}
	h.record(c, models.ActionDeleteItem, "Deleted item "+item.Code)
	respondMessage(c, http.StatusOK, "Item deleted", nil)
}

// SetMinimumStock sets the low stock threshold
// PUT /api/v1/items/:id/minimum-stock
func (h *ItemHandler) SetMinimumStock(c *gin.Context) {
	id, ok := parseIDParam(c, "item")
	if !ok {
		return
	}
	var req models.MinimumStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	h.update(c, id, models.ItemPatch{MinimumStock: models.SetTo(*req.MinimumStock)},
		models.ActionUpdateMinimumStock, "Set minimum stock of %s to "+strconv.Itoa(*req.MinimumStock))
}

// ClearMinimumStock removes the low stock threshold
// DELETE /api/v1/items/:id/minimum-stock
func (h *ItemHandler) ClearMinimumStock(c *gin.Context) {
	id, ok := parseIDParam(c, "item")
	if !ok {
		return
	}
	h.update(c, id, models.ItemPatch{MinimumStock: models.SetNull[int]()},
		models.ActionDeleteMinimumStock, "Cleared minimum stock of %s")
}

// SetTransferStock records the stock to transfer
// PUT /api/v1/items/:id/transfer-stock
func (h *ItemHandler) SetTransferStock(c *gin.Context) {
	id, ok := parseIDParam(c, "item")
	if !ok {
		return
	}
	var req models.TransferStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	h.update(c, id, models.ItemPatch{TransferStock: models.SetTo(*req.TransferStock)},
		models.ActionUpdateTransfer, "Set transfer stock of %s to "+strconv.Itoa(*req.TransferStock))
}

// ClearTransferStock removes the transfer stock
// DELETE /api/v1/items/:id/transfer-stock
func (h *ItemHandler) ClearTransferStock(c *gin.Context) {
	id, ok := parseIDParam(c, "item")
	if !ok {
		return
	}
	h.update(c, id, models.ItemPatch{TransferStock: models.SetNull[int]()},
		models.ActionDeleteTransfer, "Cleared transfer stock of %s")
}

// SetExpiryDate sets or, with an empty value, clears the expiry date
// PUT /api/v1/items/:id/expiry-date
func (h *ItemHandler) SetExpiryDate(c *gin.Context) {
	id, ok := parseIDParam(c, "item")
	if !ok {
		return
	}
	var req models.ExpiryDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	patch := models.ItemPatch{ExpiryDate: models.SetNull[models.Date]()}
	notes := "Cleared expiry date of %s"
	if raw := strings.TrimSpace(req.ExpiryDate); raw != "" {
		date, err := models.ParseDate(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_DATE", "expiryDate must be YYYY-MM-DD")
			return
		}
		patch.ExpiryDate = models.SetTo(date)
		notes = "Set expiry date of %s to " + date.String()
	}
	h.update(c, id, patch, models.ActionSaveExpiryDate, notes)
}

// SetLatestPrice sets or, with null, clears the latest price
// PUT /api/v1/items/:id/latest-price
func (h *ItemHandler) SetLatestPrice(c *gin.Context) {
	id, ok := parseIDParam(c, "item")
	if !ok {
		return
	}
	var req models.LatestPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	patch := models.ItemPatch{LatestPrice: models.SetNull[decimal.Decimal]()}
	notes := "Cleared latest price of %s"
	if req.LatestPrice != nil {
		if req.LatestPrice.IsNegative() {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Prices cannot be negative")
			return
		}
		price := req.LatestPrice.Round(2)
		patch.LatestPrice = models.SetTo(price)
		notes = "Set latest price of %s to " + price.StringFixed(2)
	}
	h.update(c, id, patch, models.ActionSaveLatestPrice, notes)
}

// ResetField clears one field on every item
// POST /api/v1/items/reset/:field
func (h *ItemHandler) ResetField(c *gin.Context) {
	field, ok := models.ParseResettableField(c.Param("field"))
	if !ok {
		respondError(c, http.StatusBadRequest, "INVALID_FIELD", "field must be expiry, transfer, latest-price or minimum-stock")
		return
	}

	n, err := h.items.BulkUpdateField(c.Request.Context(), field, nil)
	if err != nil {
		h.storeError(c, err, models.ActionResetField, "RESET_FAILED")
		return
	}
	h.record(c, models.ActionResetField, fmt.Sprintf("Reset %s on %d items", field, n))
	respondMessage(c, http.StatusOK, fmt.Sprintf("Reset %s on %d items", field, n), gin.H{"field": field, "affected": n})
}

// DeleteAllItems permanently removes the whole catalog
// DELETE /api/v1/items
func (h *ItemHandler) DeleteAllItems(c *gin.Context) {
	n, err := h.items.DeleteAll(c.Request.Context())
	if err != nil {
		h.storeError(c, err, models.ActionDeleteAllItems, "DELETE_FAILED")
		return
	}
	h.record(c, models.ActionDeleteAllItems, fmt.Sprintf("Deleted all %d items", n))
	respondMessage(c, http.StatusOK, fmt.Sprintf("Deleted %d items", n), gin.H{"affected": n})
}

// ExportItems downloads the catalog as an importable Excel file
// GET /api/v1/items/export
func (h *ItemHandler) ExportItems(c *gin.Context) {
	items, _, err := h.items.FilterAndOrder(c.Request.Context(), models.ItemFilter{Sort: models.SortName})
	if err != nil {
		h.logger.WithError(err).Error("Failed to load items for export")
		respondError(c, http.StatusInternalServerError, "EXPORT_FAILED", "Failed to export items")
		return
	}

	fileName := fmt.Sprintf("backup_barang_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	if err := importer.WriteCatalogExport(c.Writer, items); err != nil {
		h.logger.WithError(err).Error("Failed to write export")
	}
}
