package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/ai-stockassistant/internal/domain/advisor"
	"github.com/yanqian/ai-stockassistant/internal/domain/portfolio"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	advisorSvc   advisor.Service
	portfolioSvc portfolio.Service
	logger       *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(advisorSvc advisor.Service, portfolioSvc portfolio.Service, logger *slog.Logger) *Handler {
	return &Handler{
		advisorSvc:   advisorSvc,
		portfolioSvc: portfolioSvc,
		logger:       logger.With("component", "http.handler"),
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Chat answers one stock question. Non-answers (off topic, upstream
// failures) are still 200 responses carrying a displayable reply.
func (h *Handler) Chat(c *gin.Context) {
	var req advisor.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, badRequest(err))
		return
	}
	req.UserID = subjectOf(c)

	resp, err := h.advisorSvc.Ask(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, domainError(err, "chat_failed"))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// History lists the messages of one conversation.
func (h *Handler) History(c *gin.Context) {
	conversationID := c.Param("conversationId")
	messages, err := h.advisorSvc.History(c.Request.Context(), subjectOf(c), conversationID)
	if err != nil {
		abortWithError(c, domainError(err, "history_failed"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"conversationId": conversationID,
		"messages":       messages,
	})
}

// PortfolioValuation values caller-supplied holdings.
func (h *Handler) PortfolioValuation(c *gin.Context) {
	var req portfolio.ValuationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, badRequest(err))
		return
	}

	valuation, err := h.portfolioSvc.Value(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, domainError(err, "valuation_failed"))
		return
	}

	c.JSON(http.StatusOK, valuation)
}
