package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rjgems/backend/internal/domain"
	"github.com/rjgems/backend/internal/usecase"
	"go.uber.org/zap"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	catalog     *usecase.CatalogService
	interpreter *usecase.Interpreter
	logger      *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(catalog *usecase.CatalogService, interpreter *usecase.Interpreter, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		catalog:     catalog,
		interpreter: interpreter,
		logger:      logger,
	}
}

type searchRequest struct {
	Query string `json:"query"`
}

type recommendationRequest struct {
	Preferences domain.Preferences `json:"preferences"`
}

type descriptionRequest struct {
	Product domain.CatalogItem `json:"product"`
}

type chatRequest struct {
	Message string               `json:"message"`
	History []domain.ChatMessage `json:"history"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "rjgems-backend",
		"version": "1.0.0",
	})
}

// ListProducts handles GET /products with optional filters
func (h *Handler) ListProducts(c *gin.Context) {
	var filter domain.ProductFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.badRequest(c, "Invalid query parameters", err)
		return
	}

	products, err := h.catalog.ListProducts(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err, "Error fetching products")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(products),
		"data":    products,
	})
}

// GetProduct handles GET /products/:id
func (h *Handler) GetProduct(c *gin.Context) {
	product, err := h.catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err, "Error fetching product")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": product})
}

// ProductRecommendations handles GET /products/:id/recommendations.
// Similar products come from the same category; AI recommendations are
// picked from the rest of the catalog using the product as a preference.
func (h *Handler) ProductRecommendations(c *gin.Context) {
	ctx := c.Request.Context()

	product, err := h.catalog.GetProduct(ctx, c.Param("id"))
	if err != nil {
		h.handleError(c, err, "Error fetching recommendations")
		return
	}

	similar, err := h.catalog.SimilarTo(ctx, *product)
	if err != nil {
		h.handleError(c, err, "Error fetching recommendations")
		return
	}

	snapshot, err := h.catalog.Snapshot(ctx)
	if err != nil {
		h.handleError(c, err, "Error fetching recommendations")
		return
	}
	others := make([]domain.CatalogItem, 0, len(snapshot))
	for _, item := range snapshot {
		if item.ID != product.ID {
			others = append(others, item)
		}
	}

	prefs := domain.Preferences{
		Metal:      product.Spec("material"),
		Categories: []domain.Category{product.Category},
	}
	recommendations := h.interpreter.Recommend(ctx, prefs, others)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"similarProducts":   similar,
			"aiRecommendations": recommendations,
		},
	})
}

// RegenerateDescription handles POST /products/:id/regenerate-description
func (h *Handler) RegenerateDescription(c *gin.Context) {
	product, err := h.catalog.RegenerateDescription(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err, "Error regenerating description")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Description regenerated successfully",
		"data":    product,
	})
}

// AISearch handles POST /ai/search
func (h *Handler) AISearch(c *gin.Context) {
	var req searchRequest
	if !h.bindJSON(c, &req) {
		return
	}

	snapshot, ok := h.snapshot(c)
	if !ok {
		return
	}

	result := h.interpreter.InterpretSearch(c.Request.Context(), req.Query, snapshot)
	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}

// AIGifts handles POST /ai/gifts
func (h *Handler) AIGifts(c *gin.Context) {
	var req domain.GiftRequest
	if !h.bindJSON(c, &req) {
		return
	}

	snapshot, ok := h.snapshot(c)
	if !ok {
		return
	}

	suggestions := h.interpreter.InterpretGiftRequest(c.Request.Context(), req, snapshot)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(suggestions),
		"data":    suggestions,
	})
}

// AIRecommendations handles POST /ai/recommendations
func (h *Handler) AIRecommendations(c *gin.Context) {
	var req recommendationRequest
	if !h.bindJSON(c, &req) {
		return
	}

	snapshot, ok := h.snapshot(c)
	if !ok {
		return
	}

	recs := h.interpreter.Recommend(c.Request.Context(), req.Preferences, snapshot)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(recs),
		"data":    recs,
	})
}

// AIDescription handles POST /ai/description for an unsaved product draft
func (h *Handler) AIDescription(c *gin.Context) {
	var req descriptionRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Product.Name) == "" {
		h.badRequest(c, "product.name is required", nil)
		return
	}

	description := h.interpreter.GenerateDescription(c.Request.Context(), req.Product)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"description": description},
	})
}

// AIStyleAdvice handles POST /ai/style-advice
func (h *Handler) AIStyleAdvice(c *gin.Context) {
	var req domain.StyleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	advice := h.interpreter.StyleAdvice(c.Request.Context(), req)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"advice": advice},
	})
}

// AIChat handles POST /ai/chat. The client keeps the conversation and
// sends it back as history on every turn.
func (h *Handler) AIChat(c *gin.Context) {
	var req chatRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		h.badRequest(c, "message is required", nil)
		return
	}

	reply := h.interpreter.Chat(c.Request.Context(), req.Message, req.History)
	c.JSON(http.StatusOK, gin.H{"success": true, "data": reply})
}

// QuickQuestions handles GET /ai/chat/quick-questions
func (h *Handler) QuickQuestions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": h.interpreter.QuickQuestions()})
}

func (h *Handler) snapshot(c *gin.Context) ([]domain.CatalogItem, bool) {
	items, err := h.catalog.Snapshot(c.Request.Context())
	if err != nil {
		h.handleError(c, err, "Error loading catalog")
		return nil, false
	}
	return items, true
}

func (h *Handler) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.badRequest(c, "Invalid request body", err)
		return false
	}
	return true
}

func (h *Handler) badRequest(c *gin.Context, message string, err error) {
	body := gin.H{"success": false, "message": message}
	if err != nil {
		body["error"] = err.Error()
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, body)
}

// handleError maps domain errors to HTTP status codes
func (h *Handler) handleError(c *gin.Context, err error, message string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrProductNotFound):
		status = http.StatusNotFound
		message = "Product not found"
	case errors.Is(err, domain.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, domain.ErrCatalogUnavailable):
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error(message, zap.Error(err), zap.String("request_id", c.GetString(requestIDKey)))
	}
	_ = c.Error(err)

	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"message": message,
		"error":   err.Error(),
	})
}
