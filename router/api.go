package router

import (
	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"

	"github.com/phonginreallife/sentinel/docstore"
	"github.com/phonginreallife/sentinel/handlers"
	"github.com/phonginreallife/sentinel/internal/config"
	"github.com/phonginreallife/sentinel/internal/scheduler"
	"github.com/phonginreallife/sentinel/services"
)

func NewGinRouter(store docstore.Store, cfg config.Config, logger hclog.Logger) *gin.Engine {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Add CORS middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-Id")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Initialize services
	actionService := services.NewActionService(store, cfg.Collections.Action, logger)
	teamService := services.NewTeamService(store, cfg.Collections.Team, logger)
	userService := services.NewUserService(store, cfg.Collections.User, logger)
	scheduleService := services.NewScheduleService(scheduler.NewClient(scheduler.Config{
		BaseURL:        cfg.Scheduler.APIURL,
		Timeout:        cfg.Scheduler.Timeout,
		ForwardHeaders: cfg.Scheduler.ForwardHeaders,
	}, logger))

	// Initialize handlers
	actionHandler := handlers.NewActionHandler(actionService, logger)
	teamHandler := handlers.NewTeamHandler(teamService, logger)
	userHandler := handlers.NewUserHandler(userService, logger)
	scheduleHandler := handlers.NewScheduleHandler(scheduleService, logger)
	healthHandler := handlers.NewHealthHandler(store, logger)
	auth := handlers.NewAuthMiddleware(userService, cfg.Auth.JWTSecret, cfg.Auth.CookieName, logger)

	r.GET("/health", healthHandler.Health)

	protected := r.Group("/")
	protected.Use(auth.RequireActiveUser())
	{
		actionRoutes := protected.Group("/action")
		{
			actionRoutes.GET("", actionHandler.ListActions)
			actionRoutes.POST("", actionHandler.CreateAction)
			actionRoutes.GET("/json_schema", actionHandler.GetJSONSchema)
			actionRoutes.GET("/:key", actionHandler.GetAction)
			actionRoutes.PUT("/:key", actionHandler.UpdateAction)
			actionRoutes.DELETE("/:key", actionHandler.DeleteAction)
			actionRoutes.POST("/:key/test", actionHandler.TestAction)
		}

		teamRoutes := protected.Group("/team")
		{
			teamRoutes.GET("", teamHandler.ListTeams)
			teamRoutes.POST("", teamHandler.CreateTeam)
			teamRoutes.GET("/:key", teamHandler.GetTeam)
			teamRoutes.PUT("/:key", teamHandler.UpdateTeam)
			teamRoutes.DELETE("/:key", teamHandler.DeleteTeam)
		}

		protected.GET("/user", userHandler.ListUsers)

		scheduleRoutes := protected.Group("/schedule")
		{
			scheduleRoutes.GET("", scheduleHandler.ListSchedules)
			scheduleRoutes.POST("", scheduleHandler.CreateSchedule)
			scheduleRoutes.DELETE("", scheduleHandler.DeleteSchedules)
			scheduleRoutes.GET("/json-schema", scheduleHandler.GetJSONSchema)
			scheduleRoutes.POST("/next-run-times", scheduleHandler.NextRunTimes)
			scheduleRoutes.GET("/:id", scheduleHandler.GetSchedule)
			scheduleRoutes.PUT("/:id", scheduleHandler.UpdateSchedule)
			scheduleRoutes.DELETE("/:id", scheduleHandler.DeleteSchedule)
		}
	}

	return r
}
