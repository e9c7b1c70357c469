package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"finance-ledger-backend/internal/models"
	"finance-ledger-backend/internal/repository"
	"finance-ledger-backend/internal/services/classify"
	"finance-ledger-backend/internal/services/ingestion"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

type TransactionHandler struct {
	transactions *repository.TransactionRepository
}

func NewTransactionHandler(transactions *repository.TransactionRepository) *TransactionHandler {
	return &TransactionHandler{transactions: transactions}
}

// List returns one page of the user's transactions plus the total count
// matching the filters.
func (h *TransactionHandler) List(c *gin.Context) {
	user, ok := userID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	filters := repository.TransactionFilters{
		Search:        c.Query("search"),
		Uncategorized: c.Query("uncategorized") == "true",
	}
	if v := c.Query("category_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category_id"})
			return
		}
		cid := uint(id)
		filters.CategoryID = &cid
	}
	if v := c.Query("flagged"); v != "" {
		flagged := v == "true"
		filters.Flagged = &flagged
	}
	if v := c.Query("date_from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date_from"})
			return
		}
		filters.DateFrom = &t
	}
	if v := c.Query("date_to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date_to"})
			return
		}
		filters.DateTo = &t
	}

	items, total, err := h.transactions.List(c.Request.Context(), user, filters, page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items":     items,
		"page":      page,
		"page_size": pageSize,
		"total":     total,
	})
}

type createTransactionRequest struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	CategoryID  *uint   `json:"category_id"`
}

// Create is the direct single-create path. The duplicate key and flag
// state are derived here the same way the import pipeline derives them.
func (h *TransactionHandler) Create(c *gin.Context) {
	user, ok := userID(c)
	if !ok {
		return
	}
	var req createTransactionRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	reasons := classify.FlagReasons(req.Description, req.Amount)
	tx := models.Transaction{
		UserID:       user,
		Date:         date,
		Description:  req.Description,
		Amount:       req.Amount,
		CategoryID:   req.CategoryID,
		DuplicateKey: ingestion.BuildDuplicateKey(req.Description, date, req.Amount),
		IsFlagged:    len(reasons) > 0,
	}
	if len(reasons) > 0 {
		raw, err := json.Marshal(reasons)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		tx.FlagReasons = raw
	}

	if err := h.transactions.Create(c.Request.Context(), &tx); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "duplicate transaction"})
		return
	}
	c.JSON(http.StatusCreated, tx)
}

type updateTransactionRequest struct {
	Date        *string  `json:"date"`
	Description *string  `json:"description"`
	Amount      *float64 `json:"amount"`
	CategoryID  *uint    `json:"category_id"`
	ClearFlag   bool     `json:"clear_flag"`
}

// Update patches one transaction field-by-field. Changing any key input
// (date, description, amount) recomputes the duplicate key so stored
// keys stay consistent with the canonical derivation.
func (h *TransactionHandler) Update(c *gin.Context) {
	user, ok := userID(c)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transaction ID"})
		return
	}
	var req updateTransactionRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	existing, err := h.transactions.GetByID(c.Request.Context(), user, uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
		return
	}

	fields := map[string]interface{}{}
	date, description, amount := existing.Date, existing.Description, existing.Amount
	if req.Date != nil {
		date, err = time.Parse("2006-01-02", *req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
			return
		}
		fields["date"] = date
	}
	if req.Description != nil {
		description = *req.Description
		fields["description"] = description
	}
	if req.Amount != nil {
		amount = *req.Amount
		fields["amount"] = amount
	}
	if req.Date != nil || req.Description != nil || req.Amount != nil {
		fields["duplicate_key"] = ingestion.BuildDuplicateKey(description, date, amount)
	}
	if req.CategoryID != nil {
		fields["category_id"] = *req.CategoryID
	}
	if req.ClearFlag {
		fields["is_flagged"] = false
		fields["flag_reasons"] = nil
	}
	if len(fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	if err := h.transactions.Update(c.Request.Context(), user, uint(id), fields); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	updated, err := h.transactions.GetByID(c.Request.Context(), user, uint(id))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *TransactionHandler) Delete(c *gin.Context) {
	user, ok := userID(c)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transaction ID"})
		return
	}
	if err := h.transactions.Delete(c.Request.Context(), user, uint(id)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type bulkCategoryRequest struct {
	IDs        []uint `json:"ids"`
	CategoryID uint   `json:"category_id"`
}

func (h *TransactionHandler) BulkCategory(c *gin.Context) {
	user, ok := userID(c)
	if !ok {
		return
	}
	var req bulkCategoryRequest
	if err := c.BindJSON(&req); err != nil || len(req.IDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	count, err := h.transactions.BulkUpdateCategory(c.Request.Context(), user, req.IDs, req.CategoryID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}
