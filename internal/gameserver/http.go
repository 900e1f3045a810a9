package gameserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/character"
	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/observability"
)

const (
	ctxKeyPlayerID = "playerID"
	jsonKeyError   = "error"

	healthTimeout = 2 * time.Second
)

// HealthChecker reports whether the backing database answers.
type HealthChecker interface {
	Health(ctx context.Context, timeout time.Duration) error
}

// Handler serves the combat HTTP API.
type Handler struct {
	svc     *CombatService
	players *PlayerService
	auth    *Authenticator
	health  HealthChecker
	logger  *zap.Logger
}

// NewHandler creates a Handler.
//
// Precondition: all arguments must be non-nil.
func NewHandler(svc *CombatService, players *PlayerService, auth *Authenticator, health HealthChecker, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, players: players, auth: auth, health: health, logger: logger}
}

// NewRouter builds the gin engine with recovery, access logging and every route.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), observability.AccessLog(h.logger))
	h.Register(r)
	return r
}

// Register mounts the API routes on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/healthz", h.Healthz)

	api := r.Group("/api", h.RequireAuth())
	api.POST("/hunt", h.Hunt)
	api.POST("/combat/:id/turn", h.SubmitTurn)
	api.GET("/combat/:id/state", h.State)
	api.POST("/combat/:id/flee", h.Flee)
	api.POST("/player/stats", h.DistributeStat)
}

// RequireAuth verifies the bearer token and stores the player id in the context.
func (h *Handler) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := h.auth.Verify(bearerToken(c.GetHeader("Authorization")))
		if err != nil {
			p := Printer(ResolveTag(c.Request))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{jsonKeyError: p.Sprintf(msgUnauthorized)})
			return
		}
		c.Set(ctxKeyPlayerID, id)
		c.Next()
	}
}

type huntResponse struct {
	CombatID string        `json:"combat_id"`
	State    *combat.State `json:"state"`
	Existing bool          `json:"existing"`
}

type combatResponse struct {
	CombatID string        `json:"combat_id"`
	State    *combat.State `json:"state"`
	Message  string        `json:"message,omitempty"`
}

// Hunt starts a combat for the caller, or returns the one already in progress.
func (h *Handler) Hunt(c *gin.Context) {
	v, err := h.svc.Begin(c.Request.Context(), c.GetInt64(ctxKeyPlayerID))
	if err != nil {
		h.fail(c, err)
		return
	}
	status := http.StatusCreated
	if v.Existing {
		status = http.StatusOK
	}
	c.JSON(status, huntResponse{CombatID: v.ID.String(), State: v.State, Existing: v.Existing})
}

// SubmitTurn resolves the caller's turn.
func (h *Handler) SubmitTurn(c *gin.Context) {
	id, ok := h.combatID(c)
	if !ok {
		return
	}
	var in combat.TurnInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.fail(c, ErrInvalidInput)
		return
	}
	v, err := h.svc.SubmitTurn(c.Request.Context(), id, c.GetInt64(ctxKeyPlayerID), in)
	h.respond(c, v, err)
}

// State returns the caller's combat.
func (h *Handler) State(c *gin.Context) {
	id, ok := h.combatID(c)
	if !ok {
		return
	}
	v, err := h.svc.State(c.Request.Context(), id, c.GetInt64(ctxKeyPlayerID))
	h.respond(c, v, err)
}

// Flee attempts to leave a roster combat.
func (h *Handler) Flee(c *gin.Context) {
	id, ok := h.combatID(c)
	if !ok {
		return
	}
	v, err := h.svc.Flee(c.Request.Context(), id, c.GetInt64(ctxKeyPlayerID))
	h.respond(c, v, err)
}

type statRequest struct {
	Stat character.Stat `json:"stat" binding:"required"`
}

type statResponse struct {
	Stat      character.Stat `json:"stat"`
	Value     int            `json:"value"`
	FreeStats int            `json:"free_stats"`
	MaxHP     int            `json:"max_hp"`
	MaxMP     int            `json:"max_mp"`
}

// DistributeStat spends one of the caller's free stat points.
func (h *Handler) DistributeStat(c *gin.Context) {
	var req statRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, ErrInvalidInput)
		return
	}
	p, err := h.players.DistributeStat(c.Request.Context(), c.GetInt64(ctxKeyPlayerID), req.Stat)
	if err != nil {
		h.fail(c, err)
		return
	}
	value, _ := p.Stats.Get(req.Stat)
	c.JSON(http.StatusOK, statResponse{
		Stat:      req.Stat,
		Value:     value,
		FreeStats: p.FreeStats,
		MaxHP:     p.MaxHP,
		MaxMP:     p.MaxMP,
	})
}

// Healthz reports database reachability.
func (h *Handler) Healthz(c *gin.Context) {
	if err := h.health.Health(c.Request.Context(), healthTimeout); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) combatID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.fail(c, ErrInvalidInput)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) respond(c *gin.Context, v *View, err error) {
	if err != nil {
		h.fail(c, err)
		return
	}
	p := Printer(ResolveTag(c.Request))
	c.JSON(http.StatusOK, combatResponse{CombatID: v.ID.String(), State: v.State, Message: NoticeText(p, v)})
}

// fail writes the localized error response for err. Unexpected errors are
// logged and reported generically.
func (h *Handler) fail(c *gin.Context, err error) {
	status, key := classify(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("combat request failed",
			zap.String("path", c.FullPath()),
			zap.Int64("player", c.GetInt64(ctxKeyPlayerID)),
			zap.Error(err),
		)
	}
	p := Printer(ResolveTag(c.Request))
	c.AbortWithStatusJSON(status, gin.H{jsonKeyError: p.Sprintf(key)})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, character.ErrUnknownStat):
		return http.StatusBadRequest, msgUnknownStat
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest, msgInvalidInput
	case errors.Is(err, ErrNoFreeStats):
		return http.StatusBadRequest, msgNoFreeStats
	case errors.Is(err, ErrWrongMode):
		return http.StatusBadRequest, msgWrongMode
	case errors.Is(err, ErrTooWeak):
		return http.StatusBadRequest, msgTooWeak
	case errors.Is(err, ErrCombatNotFound):
		return http.StatusNotFound, msgNotFound
	case errors.Is(err, ErrPlayerNotFound):
		return http.StatusNotFound, msgNoPlayer
	case errors.Is(err, ErrCombatBusy):
		return http.StatusConflict, msgBusy
	}
	return http.StatusInternalServerError, msgInternalError
}
