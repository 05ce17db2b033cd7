package main

import (
	"net/http"

	"github.com/soloran/hunter-arena/internal/api"
	"github.com/soloran/hunter-arena/internal/constants"
	"github.com/soloran/hunter-arena/internal/service"
	"github.com/soloran/hunter-arena/internal/storage"

	"github.com/gin-gonic/gin"
)

func newRouter(svc *service.Service, repo storage.Repository) *gin.Engine {
	handler := api.NewBattleHandler(svc, repo)
	router := gin.Default()

	apiRoutes := router.Group(constants.RouteAPIPrefix)
	{
		// Public endpoints
		apiRoutes.GET(constants.RouteHealth, func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{constants.JSONKeyStatus: "ok"})
		})
		apiRoutes.GET(constants.RouteVersion, api.Version)
		apiRoutes.GET(constants.RouteLeaderboard, handler.ListLeaderboard)
		apiRoutes.GET(constants.RouteRankingByID, handler.GetRanking)

		// Player endpoints
		protected := apiRoutes.Group("")
		protected.Use(api.PlayerRequired())

		protected.POST(constants.RouteArena, handler.StartArena)
		protected.POST(constants.RouteRaids, handler.StartRaid)
		protected.POST(constants.RouteRaidJoin, handler.JoinRaid)
		protected.POST(constants.RouteRaidAttack, handler.RaidAttack)
		protected.POST(constants.RouteGates, handler.StartGate)
		protected.GET(constants.RouteBattleByID, handler.GetBattle)
		protected.POST(constants.RouteBattleChoice, handler.SubmitChoice)
		protected.GET(constants.RoutePlayerProfile, handler.GetProfile)
		protected.GET(constants.RoutePlayerSkills, handler.ListSkills)
	}

	return router
}
