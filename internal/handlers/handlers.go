// Package handlers provides HTTP request handlers
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mission-control/internal/config"
	"mission-control/internal/domain"
	"mission-control/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// JournalReader lists recent load outcomes
type JournalReader interface {
	Recent(ctx context.Context, limit int) ([]domain.FetchRecord, error)
}

// Handler holds all service dependencies
type Handler struct {
	Dashboard *services.Dashboard
	Journal   JournalReader
	Viewer    config.ViewerSettings
	Now       func() time.Time
}

// NewHandler creates a new handler. journal may be nil when no database is configured.
func NewHandler(dashboard *services.Dashboard, journal JournalReader, viewer config.ViewerSettings) *Handler {
	return &Handler{
		Dashboard: dashboard,
		Journal:   journal,
		Viewer:    viewer,
		Now:       time.Now,
	}
}

// Health handles health check requests
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, domain.Health{
		Status: "ok",
		Now:    h.Now().UTC(),
	})
}

// GetDashboard returns both panels
func (h *Handler) GetDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, domain.SuccessResponse(DashboardView{
		Apod:  h.apodView(),
		Rover: h.roverView(),
	}))
}

// GetApod returns the APOD panel
func (h *Handler) GetApod(c *gin.Context) {
	c.JSON(http.StatusOK, domain.SuccessResponse(h.apodView()))
}

type apodDraftRequest struct {
	Date *string `json:"date"`
}

// SetApodDraft replaces the draft date
func (h *Handler) SetApodDraft(c *gin.Context) {
	var req apodDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Date == nil {
		badRequest(c, "body must be {\"date\": \"YYYY-MM-DD\"}")
		return
	}
	h.Dashboard.Apod.SetDraft(*req.Date)
	c.JSON(http.StatusOK, domain.SuccessResponse(h.apodView()))
}

// SubmitApod commits the draft date
func (h *Handler) SubmitApod(c *gin.Context) {
	committed := h.Dashboard.Apod.Submit()
	c.JSON(http.StatusOK, domain.SuccessResponse(map[string]interface{}{
		"committed": committed,
		"view":      h.apodView(),
	}))
}

// GetRover returns the rover panel
func (h *Handler) GetRover(c *gin.Context) {
	c.JSON(http.StatusOK, domain.SuccessResponse(h.roverView()))
}

// GetRoverOptions lists the selectable rovers
func (h *Handler) GetRoverOptions(c *gin.Context) {
	c.JSON(http.StatusOK, domain.SuccessResponse(map[string]interface{}{
		"rovers":  services.Rovers,
		"min_sol": services.MinSol,
		"max_sol": services.MaxSol,
	}))
}

type roverDraftRequest struct {
	Rover *string `json:"rover"`
}

// SetRoverDraftRover selects the draft rover
func (h *Handler) SetRoverDraftRover(c *gin.Context) {
	var req roverDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Rover == nil {
		badRequest(c, "body must be {\"rover\": \"<id>\"}")
		return
	}
	if err := h.Dashboard.Rover.SetDraftRover(*req.Rover); err != nil {
		if errors.Is(err, services.ErrUnknownRover) {
			c.JSON(http.StatusBadRequest, domain.ErrorResponse("UNKNOWN_ROVER", err.Error()))
			return
		}
		badRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, domain.SuccessResponse(h.roverView()))
}

type solDraftRequest struct {
	Sol json.RawMessage `json:"sol"`
}

// SetRoverDraftSol replaces the raw draft sol. Both JSON strings and numbers are accepted.
func (h *Handler) SetRoverDraftSol(c *gin.Context) {
	var req solDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Sol) == 0 {
		badRequest(c, "body must be {\"sol\": \"<number>\"}")
		return
	}
	text, err := solText(req.Sol)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	h.Dashboard.Rover.SetDraftSol(text)
	c.JSON(http.StatusOK, domain.SuccessResponse(h.roverView()))
}

// SubmitRover commits the draft rover query
func (h *Handler) SubmitRover(c *gin.Context) {
	committed := h.Dashboard.Rover.Submit()
	c.JSON(http.StatusOK, domain.SuccessResponse(map[string]interface{}{
		"committed": committed,
		"view":      h.roverView(),
	}))
}

// ListJournal handles journal list requests
func (h *Handler) ListJournal(c *gin.Context) {
	if h.Journal == nil {
		c.JSON(http.StatusServiceUnavailable, domain.ErrorResponse("UNAVAILABLE", "journal is not configured"))
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 {
		limit = 20
	}

	items, err := h.Journal.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusOK, domain.ErrorResponse("INTERNAL", err.Error()))
		return
	}
	c.JSON(http.StatusOK, domain.SuccessResponse(map[string]interface{}{
		"items": items,
	}))
}

func (h *Handler) apodView() ApodView {
	return buildApodView(h.Dashboard.Apod, h.Now(), h.Viewer)
}

func (h *Handler) roverView() RoverView {
	return buildRoverView(h.Dashboard.Rover, h.Viewer)
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, domain.ErrorResponse("BAD_REQUEST", message))
}

// solText recovers the text a user typed from a JSON string, number or null
func solText(raw json.RawMessage) (string, error) {
	trimmed := strings.TrimSpace(string(raw))
	switch {
	case trimmed == "null":
		return "", nil
	case strings.HasPrefix(trimmed, `"`):
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", errors.New("sol must be a string or a number")
		}
		return n.String(), nil
	}
}

// SetupRoutes configures all routes
func SetupRoutes(r *gin.Engine, h *Handler) {
	// Health check
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/dashboard", h.GetDashboard)

	// APOD panel
	r.GET("/apod", h.GetApod)
	r.PUT("/apod/draft", h.SetApodDraft)
	r.POST("/apod/submit", h.SubmitApod)

	// Rover panel
	r.GET("/rover", h.GetRover)
	r.GET("/rover/options", h.GetRoverOptions)
	r.PUT("/rover/draft/rover", h.SetRoverDraftRover)
	r.PUT("/rover/draft/sol", h.SetRoverDraftSol)
	r.POST("/rover/submit", h.SubmitRover)

	r.GET("/journal", h.ListJournal)
}
