package http

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/productrecommend/backend/internal/domain"
	"github.com/productrecommend/backend/internal/usecase"
)

// User-facing messages. Diagnostic reasons are logged, never returned.
const (
	errorSuffix        = "このエラーが繰り返し発生する場合は、管理者にお問い合わせください。"
	msgDisplayFailed   = "商品情報の表示に失敗しました。"
	msgRetrievalFailed = "商品の検索に失敗しました。"
	msgInvalidRequest  = "リクエスト内容が正しくありません。"
	msgNotConfigured   = "商品レコメンド機能が設定されていません。"
	msgInternalError   = "予期せぬエラーが発生しました。"
)

const maxRawResponseBodyBytes = 1 << 20

// Handler holds dependencies for HTTP handlers
type Handler struct {
	service *usecase.RecommendationService
}

// NewHandler creates a new HTTP handler
func NewHandler(service *usecase.RecommendationService) *Handler {
	return &Handler{service: service}
}

// RecommendRequest is the body of POST /api/v1/recommendations
type RecommendRequest struct {
	Query string `json:"query" binding:"required"`
}

// RenderRequest is the body of POST /api/v1/products/render
type RenderRequest struct {
	Record map[string]string `json:"record" binding:"required"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "productrec-backend",
		"version": "1.0.0",
	})
}

// Recommend retrieves, parses and presents a product for a natural-language request
func (h *Handler) Recommend(c *gin.Context) {
	if h.service == nil {
		h.respondError(c, http.StatusNotImplemented, msgNotConfigured, errors.New("recommendation service not configured"))
		return
	}

	var req RecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, msgInvalidRequest, err)
		return
	}

	view, err := h.service.Recommend(c.Request.Context(), req.Query)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newViewResponse(view))
}

// ParseProducts parses a raw retrieval result posted by the client and presents it
func (h *Handler) ParseProducts(c *gin.Context) {
	if h.service == nil {
		h.respondError(c, http.StatusNotImplemented, msgNotConfigured, errors.New("recommendation service not configured"))
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxRawResponseBodyBytes))
	if err != nil {
		h.respondError(c, http.StatusBadRequest, msgInvalidRequest, err)
		return
	}

	view, err := h.service.RenderJSON(body)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newViewResponse(view))
}

// RenderProduct re-derives the presentation of an already parsed record
func (h *Handler) RenderProduct(c *gin.Context) {
	if h.service == nil {
		h.respondError(c, http.StatusNotImplemented, msgNotConfigured, errors.New("recommendation service not configured"))
		return
	}

	var req RenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, msgInvalidRequest, err)
		return
	}

	record := make(domain.ProductRecord, len(req.Record))
	for k, v := range req.Record {
		record[domain.FieldKey(k)] = v
	}

	view, err := h.service.Present(record)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newViewResponse(view))
}

func (h *Handler) respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		h.respondError(c, http.StatusBadRequest, msgInvalidRequest, err)
	case errors.Is(err, domain.ErrEmptyOrMalformedResponse),
		errors.Is(err, domain.ErrMissingPayload),
		errors.Is(err, domain.ErrMissingRequiredField):
		h.respondError(c, http.StatusUnprocessableEntity, msgDisplayFailed, err)
	case errors.Is(err, domain.ErrRetrieverFailure):
		h.respondError(c, http.StatusBadGateway, msgRetrievalFailed, err)
	default:
		h.respondError(c, http.StatusInternalServerError, msgInternalError, err)
	}
}

// respondError logs the diagnostic reason and returns only the generic message
func (h *Handler) respondError(c *gin.Context, status int, message string, err error) {
	requestID := c.GetString(requestIDKey)
	log.Printf("[HTTP] %s %s request_id=%s status=%d: %v", c.Request.Method, c.FullPath(), requestID, status, err)

	c.JSON(status, gin.H{
		"error":     message + errorSuffix,
		"requestId": requestID,
	})
}

// directiveResponse tags a directive with its kind for the UI host
type directiveResponse struct {
	Type domain.DirectiveKind   `json:"type"`
	Data domain.RenderDirective `json:"data"`
}

type viewResponse struct {
	Intro      string               `json:"intro"`
	Record     domain.ProductRecord `json:"record"`
	Directives []directiveResponse  `json:"directives"`
}

func newViewResponse(view *domain.ProductView) viewResponse {
	directives := make([]directiveResponse, len(view.Directives))
	for i, d := range view.Directives {
		directives[i] = directiveResponse{Type: d.Kind(), Data: d}
	}
	return viewResponse{
		Intro:      view.Intro,
		Record:     view.Record,
		Directives: directives,
	}
}
