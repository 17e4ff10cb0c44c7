package gameserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/msw2004727/FB-sub000/internal/game/combat"
	"github.com/msw2004727/FB-sub000/internal/game/session"
	"github.com/msw2004727/FB-sub000/internal/game/settle"
	"github.com/msw2004727/FB-sub000/internal/oracle"
	"github.com/msw2004727/FB-sub000/internal/storage/postgres"
)

// Combat surface status strings, stable across clients.
const (
	StatusCombatStart       = "COMBAT_START"
	StatusCombatOngoing     = "COMBAT_ONGOING"
	StatusCombatEnd         = "COMBAT_END"
	StatusSurrenderAccepted = "SURRENDER_ACCEPTED"
	StatusSurrenderRejected = "SURRENDER_REJECTED"
)

// Initiator starts and surrenders combat sessions.
type Initiator interface {
	Initiate(ctx context.Context, playerID, targetName string, intention combat.Intention) (*session.InitiateResult, error)
	Surrender(ctx context.Context, playerID string) (*session.SurrenderResult, error)
}

// TurnResolver resolves combat turns.
type TurnResolver interface {
	ResolveTurn(ctx context.Context, playerID string, act combat.Action) (*combat.TurnResult, error)
}

// Finalizer settles finished fights.
type Finalizer interface {
	Finalize(ctx context.Context, playerID string) (*settle.RoundResult, error)
}

// CombatHandler serves the combat endpoints.
type CombatHandler struct {
	sessions TurnResolver
	manager  Initiator
	settler  Finalizer
	logger   *zap.Logger
}

// NewCombatHandler creates a CombatHandler.
func NewCombatHandler(manager Initiator, resolver TurnResolver, settler Finalizer, logger *zap.Logger) *CombatHandler {
	return &CombatHandler{
		sessions: resolver,
		manager:  manager,
		settler:  settler,
		logger:   logger,
	}
}

// Register mounts the combat routes on the router.
func (h *CombatHandler) Register(router *gin.Engine) {
	combat := router.Group("/api/players/:playerID/combat")
	combat.POST("/initiate", h.initiate)
	combat.POST("/action", h.action)
	combat.POST("/surrender", h.surrender)
	combat.POST("/finalize", h.finalize)
}

type initiateRequest struct {
	TargetName string `json:"targetName"`
	Intention  string `json:"intention"`
}

func (h *CombatHandler) initiate(c *gin.Context) {
	var req initiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	res, err := h.manager.Initiate(c.Request.Context(), c.Param("playerID"), req.TargetName, combat.Intention(req.Intention))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       StatusCombatStart,
		"intro":        res.Intro,
		"initialState": res.Session,
	})
}

type actionRequest struct {
	Strategy   string `json:"strategy"`
	SkillName  string `json:"skillName"`
	PowerLevel int    `json:"powerLevel"`
	TargetName string `json:"targetName"`
}

func (h *CombatHandler) action(c *gin.Context) {
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	res, err := h.sessions.ResolveTurn(c.Request.Context(), c.Param("playerID"), combat.Action{
		Strategy:   combat.Strategy(req.Strategy),
		SkillName:  req.SkillName,
		PowerLevel: req.PowerLevel,
		TargetName: req.TargetName,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}

	status := StatusCombatOngoing
	if res.Ended {
		status = StatusCombatEnd
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       status,
		"narrative":    res.Narrative,
		"updatedState": res.Session,
	})
}

func (h *CombatHandler) surrender(c *gin.Context) {
	res, err := h.manager.Surrender(c.Request.Context(), c.Param("playerID"))
	if err != nil {
		h.renderError(c, err)
		return
	}

	if !res.Accepted {
		c.JSON(http.StatusOK, gin.H{
			"status":    StatusSurrenderRejected,
			"narrative": res.Narrative,
			"newRound":  res.Session,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    StatusSurrenderAccepted,
		"narrative": res.Narrative,
	})
}

func (h *CombatHandler) finalize(c *gin.Context) {
	res, err := h.settler.Finalize(c.Request.Context(), c.Param("playerID"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"story":        res.Story,
		"eventTitle":   res.EventTitle,
		"suggestion":   res.Suggestion,
		"victory":      res.Victory,
		"killerName":   res.KillerName,
		"roundData":    res.FinalState,
		"locationData": res.Location,
	})
}

func (h *CombatHandler) renderError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("combat request failed",
			zap.String("path", c.FullPath()),
			zap.String("player_id", c.Param("playerID")),
			zap.Error(err),
		)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// statusFor maps domain errors onto HTTP statuses: validation failures are
// 400, missing state 404, state conflicts 409, oracle outages 503.
func statusFor(err error) int {
	switch {
	case errors.Is(err, combat.ErrInvalidStrategy),
		errors.Is(err, combat.ErrUnknownSkill),
		errors.Is(err, combat.ErrWeaponMismatch),
		errors.Is(err, combat.ErrInsufficientResource),
		errors.Is(err, combat.ErrNoValidTarget),
		errors.Is(err, combat.ErrTargetNotInPool),
		errors.Is(err, session.ErrInvalidIntention),
		errors.Is(err, session.ErrMissingTarget):
		return http.StatusBadRequest
	case errors.Is(err, combat.ErrNoActiveSession),
		errors.Is(err, postgres.ErrPlayerNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrCombatInProgress),
		errors.Is(err, session.ErrNotColocated),
		errors.Is(err, session.ErrTargetUnavailable),
		errors.Is(err, combat.ErrSessionConflict),
		errors.Is(err, settle.ErrNothingToSettle):
		return http.StatusConflict
	case errors.Is(err, oracle.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
