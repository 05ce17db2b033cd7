package api

import (
	"net/http"
	"strings"

	"github.com/soloran/hunter-arena/internal/constants"

	"github.com/gin-gonic/gin"
)

// PlayerRequired extracts the caller identity from the player headers and
// injects it into the request context. The engine trusts the gateway in
// front of it to have authenticated the id.
func PlayerRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID := strings.TrimSpace(c.GetHeader(constants.HeaderPlayerID))
		if playerID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{constants.JSONKeyError: constants.ErrPlayerIDRequired})
			return
		}
		c.Set("playerID", playerID)
		c.Set("playerName", strings.TrimSpace(c.GetHeader(constants.HeaderPlayerName)))
		c.Next()
	}
}

func playerIdentity(c *gin.Context) (string, string) {
	id, _ := c.Get("playerID")
	name, _ := c.Get("playerName")
	playerID, _ := id.(string)
	playerName, _ := name.(string)
	if playerName == "" {
		playerName = playerID
	}
	return playerID, playerName
}
