package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lankasafe-hq/handlers"
	"lankasafe-hq/metrics"
)

func SetupRouter(h *handlers.Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.Log))

	r.GET("/", handlers.Hello)
	r.GET("/healthz", h.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api/hq")
	{
		api.POST("/login", h.Login)
		api.POST("/logout", h.Logout)
		api.GET("/session", h.Session)
	}

	staff := api.Group("")
	staff.Use(h.Sessions.RequireSession())
	{
		staff.GET("/districts", h.ListDistricts)
		staff.GET("/districts/classify", h.ClassifyPoint)
		staff.GET("/ws", h.WebSocket)

		staff.PATCH("/incidents/:id/status", h.UpdateIncidentStatus)
		staff.PATCH("/aid-requests/:id/status", h.UpdateAidRequestStatus)
		staff.PATCH("/camps/:id/status", h.UpdateCampStatus)
		staff.PATCH("/camps/:id/approval", h.UpdateCampApproval)
		staff.POST("/camps", h.CreateCamp)
		staff.PATCH("/volunteers/:id/approval", h.UpdateVolunteerApproval)

		staff.GET("/users/:id/presence", h.UserPresence)
		staff.POST("/users/:id/reachability", h.RequestReachability)
		staff.GET("/reachability/:id", h.ReachabilityCheck)
	}

	// reads and anything that consults the snapshot wait for the live feed
	live := staff.Group("")
	live.Use(h.RequireFeed())
	{
		live.GET("/overview", h.Overview)
		live.GET("/incidents", h.ListIncidents)
		live.POST("/incidents/:id/notify", h.NotifyIncident)
		live.GET("/aid-requests", h.ListAidRequests)
		live.POST("/aid-requests/:id/notify", h.NotifyAidRequest)
		live.GET("/camps", h.ListCamps)
		live.PATCH("/camps/:id/occupancy", h.UpdateCampOccupancy)
		live.GET("/volunteers", h.ListVolunteers)
	}

	return r
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
		)
	}
}
