package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"finance-ledger-backend/internal/models"
	"finance-ledger-backend/internal/repository"
	"finance-ledger-backend/internal/services/reclassify"
)

type RuleHandler struct {
	rules      *repository.RuleRepository
	reclassify *reclassify.Service
}

func NewRuleHandler(rules *repository.RuleRepository, reclassify *reclassify.Service) *RuleHandler {
	return &RuleHandler{rules: rules, reclassify: reclassify}
}

func (h *RuleHandler) List(c *gin.Context) {
	user, ok := userID(c)
	if !ok {
		return
	}
	rules, err := h.rules.List(c.Request.Context(), user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": rules})
}

type createRuleRequest struct {
	Name             string `json:"name"`
	ConditionType    string `json:"condition_type"`
	ConditionValue   string `json:"condition_value"`
	ActionCategoryID *uint  `json:"action_category_id"`
	IsActive         *bool  `json:"is_active"`
}

func (h *RuleHandler) Create(c *gin.Context) {
	user, ok := userID(c)
	if !ok {
		return
	}
	var req createRuleRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if req.Name == "" || req.ConditionValue == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and condition_value are required"})
		return
	}
	condition := models.ConditionType(req.ConditionType)
	if !condition.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown condition type"})
		return
	}

	rule := models.Rule{
		UserID:           user,
		Name:             req.Name,
		ConditionType:    condition,
		ConditionValue:   req.ConditionValue,
		ActionCategoryID: req.ActionCategoryID,
		IsActive:         true,
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	if err := h.rules.Create(c.Request.Context(), &rule); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, rule)
}

func (h *RuleHandler) Update(c *gin.Context) {
	user, ok := userID(c)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rule ID"})
		return
	}
	var req createRuleRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	fields := map[string]interface{}{}
	if req.Name != "" {
		fields["name"] = req.Name
	}
	if req.ConditionType != "" {
		condition := models.ConditionType(req.ConditionType)
		if !condition.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown condition type"})
			return
		}
		fields["condition_type"] = condition
	}
	if req.ConditionValue != "" {
		fields["condition_value"] = req.ConditionValue
	}
	if req.ActionCategoryID != nil {
		fields["action_category_id"] = *req.ActionCategoryID
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}
	if len(fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	if err := h.rules.Update(c.Request.Context(), user, uint(id), fields); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	rule, err := h.rules.GetByID(c.Request.Context(), user, uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "rule not found"})
		return
	}
	c.JSON(http.StatusOK, rule)
}

func (h *RuleHandler) Delete(c *gin.Context) {
	user, ok := userID(c)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rule ID"})
		return
	}
	if err := h.rules.Delete(c.Request.Context(), user, uint(id)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Apply runs the reclassification sweep over the user's uncategorized
// transactions, synchronously, and returns the updated count.
func (h *RuleHandler) Apply(c *gin.Context) {
	user, ok := userID(c)
	if !ok {
		return
	}
	res, err := h.reclassify.Run(c.Request.Context(), user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "result": res})
		return
	}
	c.JSON(http.StatusOK, res)
}
