package api

import (
	"errors"
	"net/http"

	"github.com/soloran/hunter-arena/internal/constants"
	"github.com/soloran/hunter-arena/internal/service"

	"github.com/gin-gonic/gin"
)

// errStatus maps service errors onto HTTP status codes. Setup and
// protocol rejections carry their sentinel text; anything unrecognized is
// treated as an internal failure without leaking detail.
func errStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrProfileNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrNoOpponent):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrUnknownSkill),
		errors.Is(err, service.ErrPartyEmpty),
		errors.Is(err, service.ErrNoGateKeys),
		errors.Is(err, service.ErrIllegalChoice):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrAlreadyInBattle),
		errors.Is(err, service.ErrOnCooldown),
		errors.Is(err, service.ErrAlreadyJoined),
		errors.Is(err, service.ErrNotYourTurn),
		errors.Is(err, service.ErrLateInput),
		errors.Is(err, service.ErrNotEnoughMP),
		errors.Is(err, service.ErrDefeated),
		errors.Is(err, service.ErrNotInRaid),
		errors.Is(err, service.ErrBattleOver):
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, constants.ErrInvalidRequest
	}
}

func abortWithError(c *gin.Context, err error) {
	status, msg := errStatus(err)
	c.JSON(status, gin.H{constants.JSONKeyError: msg})
}
