package restapi

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires the execution endpoints under /api/v1 on an
// existing router.
func RegisterRoutes(router *gin.Engine, handler *ExecutionHandler) {
	v1 := router.Group("/api/v1")
	{
		v1.POST("/invest", handler.InvestHandler)
		v1.POST("/invest/multi", handler.MultiInvestHandler)
		v1.POST("/redeem", handler.RedeemHandler)
		v1.GET("/positions/:address", handler.GetPositionsHandler)
		v1.GET("/positions/:address/profits", handler.GetProfitsHandler)
		v1.GET("/protocols", handler.GetProtocolsHandler)
	}
}

// SetupRouter builds a router with the default middleware stack and the
// execution endpoints registered. Handy for tests.
func SetupRouter(handler *ExecutionHandler) *gin.Engine {
	router := gin.Default()
	RegisterRoutes(router, handler)
	return router
}
