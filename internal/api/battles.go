package api

import (
	"net/http"
	"strconv"

	"github.com/soloran/hunter-arena/internal/constants"
	"github.com/soloran/hunter-arena/internal/service"
	"github.com/soloran/hunter-arena/internal/storage"

	"github.com/gin-gonic/gin"
)

// BattleHandler serves the battle lifecycle and the read endpoints around
// it. One instance is shared across all routes.
type BattleHandler struct {
	svc  *service.Service
	repo storage.Repository
}

func NewBattleHandler(svc *service.Service, repo storage.Repository) *BattleHandler {
	return &BattleHandler{svc: svc, repo: repo}
}

// StartArena opens a ranked match for the calling player.
func (h *BattleHandler) StartArena(c *gin.Context) {
	playerID, playerName := playerIdentity(c)
	view, err := h.svc.StartRankedBattle(playerID, playerName)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

type startRaidRequest struct {
	BossID string `json:"boss_id" binding:"required"`
}

// StartRaid opens a boss encounter hosted by the calling player.
func (h *BattleHandler) StartRaid(c *gin.Context) {
	playerID, playerName := playerIdentity(c)
	var req startRaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	view, err := h.svc.StartRaid(playerID, playerName, req.BossID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// JoinRaid adds the calling player to an open raid.
func (h *BattleHandler) JoinRaid(c *gin.Context) {
	playerID, playerName := playerIdentity(c)
	view, err := h.svc.JoinRaid(c.Param("sessionID"), playerID, playerName)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type startGateRequest struct {
	Rank string `json:"rank" binding:"required"`
}

// StartGate opens a solo gate run for the calling player.
func (h *BattleHandler) StartGate(c *gin.Context) {
	playerID, playerName := playerIdentity(c)
	var req startGateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	view, err := h.svc.StartGate(playerID, playerName, req.Rank)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

type raidAttackRequest struct {
	SkillID string `json:"skill_id"`
}

// RaidAttack is the raid-flavored action route: a basic attack, or a
// skill when skill_id is set. Equivalent to posting the same choice on
// the generic battle route.
func (h *BattleHandler) RaidAttack(c *gin.Context) {
	playerID, _ := playerIdentity(c)
	sessionID := c.Param("sessionID")
	var req raidAttackRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
			return
		}
	}
	choice := service.Choice{Kind: service.ChoiceAttack}
	if req.SkillID != "" {
		choice = service.Choice{Kind: service.ChoiceSkill, SkillID: req.SkillID}
	}
	if err := h.svc.SubmitChoice(sessionID, playerID, choice); err != nil {
		abortWithError(c, err)
		return
	}
	view, err := h.svc.GetSession(sessionID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetBattle returns a snapshot of an active or recently finished session.
func (h *BattleHandler) GetBattle(c *gin.Context) {
	view, err := h.svc.GetSession(c.Param("sessionID"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type choiceRequest struct {
	Kind       string `json:"kind" binding:"required"`
	ActorIndex int    `json:"actor_index"`
	SkillID    string `json:"skill_id"`
}

// SubmitChoice routes one battle input from the calling player and
// returns the updated snapshot.
func (h *BattleHandler) SubmitChoice(c *gin.Context) {
	playerID, _ := playerIdentity(c)
	sessionID := c.Param("sessionID")
	var req choiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	choice := service.Choice{
		Kind:       service.ChoiceKind(req.Kind),
		ActorIndex: req.ActorIndex,
		SkillID:    req.SkillID,
	}
	if err := h.svc.SubmitChoice(sessionID, playerID, choice); err != nil {
		abortWithError(c, err)
		return
	}
	view, err := h.svc.GetSession(sessionID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ListLeaderboard returns the top ranked accounts, highest points first.
func (h *BattleHandler) ListLeaderboard(c *gin.Context) {
	limit := 10
	if s := c.Query("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	accounts, err := h.svc.Ledger().Top(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchBoard})
		return
	}
	c.JSON(http.StatusOK, accounts)
}

// GetRanking returns one player's ledger row plus its audit log.
func (h *BattleHandler) GetRanking(c *gin.Context) {
	acc, err := h.svc.Ledger().Account(c.Param("playerID"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"account": acc,
		"audit":   service.AuditEntries(acc),
	})
}

// GetProfile returns the calling player's profile and hero roster.
func (h *BattleHandler) GetProfile(c *gin.Context) {
	playerID, _ := playerIdentity(c)
	profile, err := h.repo.GetProfile(playerID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrProfileNotFound})
		return
	}
	heroes, err := h.repo.GetHeroes(playerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchStats})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"profile": profile,
		"heroes":  heroes,
	})
}

// ListSkills returns the skills usable by the calling player's roster.
func (h *BattleHandler) ListSkills(c *gin.Context) {
	playerID, _ := playerIdentity(c)
	c.JSON(http.StatusOK, h.svc.Skills().For(playerID))
}
