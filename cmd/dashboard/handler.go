package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dileep-u-k/weather-companion/internal/agent"
	"github.com/dileep-u-k/weather-companion/internal/api"
	"github.com/dileep-u-k/weather-companion/internal/conversation"
	"github.com/dileep-u-k/weather-companion/internal/llm"
	"github.com/dileep-u-k/weather-companion/internal/version"
	"github.com/dileep-u-k/weather-companion/internal/weather"
)

// DashboardHandler exposes location search and the assistant over HTTP.
type DashboardHandler struct {
	agent    *agent.Agent
	profiler *llm.Profiler
	model    string
}

func NewDashboardHandler(a *agent.Agent) *DashboardHandler {
	return &DashboardHandler{agent: a}
}

// WithProfiler enables the backend profile route. A nil profiler leaves it
// reporting that profiling is off.
func (h *DashboardHandler) WithProfiler(p *llm.Profiler, model string) *DashboardHandler {
	h.profiler = p
	h.model = model
	return h
}

// setupRouter registers every route under /api/v1.
func setupRouter(h *DashboardHandler) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery())
	engine.GET("/healthz", h.HandleHealth)

	v1 := engine.Group("/api/v1")
	{
		v1.POST("/sessions", h.HandleSearch)
		v1.POST("/sessions/:id/messages", h.HandleMessage)
		v1.GET("/sessions/:id/messages", h.HandleHistory)
		v1.GET("/sessions/:id/quick-actions", h.HandleQuickActions)
		v1.GET("/backend/profile", h.HandleBackendProfile)
	}
	return engine
}

// HandleSearch fetches the dashboard for a location and starts (or resets)
// the session's conversation.
func (h *DashboardHandler) HandleSearch(c *gin.Context) {
	var req api.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	log.Printf("--- New Search (Location: %s, Session: %s) ---", req.Location, req.SessionID)

	st, dash, err := h.agent.Start(c.Request.Context(), req.Location, req.SessionID)
	if err != nil {
		status, msg := searchError(req.Location, err)
		log.Printf("❌ Search for %s failed: %v", req.Location, err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, api.SearchResponse{
		SessionID:    st.ID,
		Dashboard:    dash,
		QuickActions: agent.QuickActions(st.PinnedLocation),
	})
}

func searchError(location string, err error) (int, string) {
	switch {
	case errors.Is(err, weather.ErrLocationNotFound):
		return http.StatusNotFound, fmt.Sprintf("could not find coordinates for %s", location)
	case errors.Is(err, weather.ErrDataShape):
		return http.StatusBadGateway, fmt.Sprintf("weather data format error for %s", location)
	case errors.Is(err, weather.ErrFetch):
		return http.StatusBadGateway, "weather data unavailable"
	}
	return http.StatusInternalServerError, "internal error"
}

// HandleMessage runs one assistant turn.
func (h *DashboardHandler) HandleMessage(c *gin.Context) {
	var req api.MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	result, err := h.agent.Respond(c.Request.Context(), c.Param("id"), req.Content)
	if err != nil {
		h.sessionError(c, err)
		return
	}

	toolCalls := result.ToolCalls
	if toolCalls == nil {
		toolCalls = []api.ToolInvocation{}
	}
	c.JSON(http.StatusOK, api.MessageResponse{
		Reply:                result.Reply,
		ToolCalls:            toolCalls,
		Refused:              result.Refused,
		AwaitingConfirmation: result.AwaitingConfirmation,
		Usage:                result.Usage,
	})
}

// HandleHistory returns the visible conversation: user messages and final
// assistant replies, without tool traffic.
func (h *DashboardHandler) HandleHistory(c *gin.Context) {
	st, err := h.agent.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.sessionError(c, err)
		return
	}

	messages := make([]api.Message, 0, len(st.Messages))
	for _, m := range st.Messages {
		if m.Role == llm.RoleUser || (m.Role == llm.RoleAssistant && len(m.ToolCalls) == 0) {
			messages = append(messages, api.Message{Role: string(m.Role), Content: m.Content})
		}
	}
	c.JSON(http.StatusOK, api.HistoryResponse{
		SessionID:      st.ID,
		PinnedLocation: st.PinnedLocation,
		Messages:       messages,
	})
}

func (h *DashboardHandler) HandleQuickActions(c *gin.Context) {
	st, err := h.agent.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.QuickActionsResponse{
		Location:     st.PinnedLocation,
		QuickActions: agent.QuickActions(st.PinnedLocation),
	})
}

func (h *DashboardHandler) HandleHealth(c *gin.Context) {
	info := version.GetBuildInfo()
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": info.Version, "commit": info.GitCommit})
}

// HandleBackendProfile reports latency, error rate and token use of the
// configured backend model.
func (h *DashboardHandler) HandleBackendProfile(c *gin.Context) {
	if h.profiler == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "backend profiling requires REDIS_ADDR"})
		return
	}
	profile, err := h.profiler.Profile(c.Request.Context(), h.model)
	if err != nil {
		log.Printf("❌ Could not read backend profile for %s: %v", h.model, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *DashboardHandler) sessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, conversation.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	case errors.Is(err, agent.ErrEmptyUtterance):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Printf("❌ Session store failure: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
