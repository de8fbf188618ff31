package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/fixroute/backend/internal/classifier"
	"github.com/fixroute/backend/internal/config"
	"github.com/fixroute/backend/internal/db"
	"github.com/fixroute/backend/internal/http/handlers"
	"github.com/fixroute/backend/internal/http/middleware"
	"github.com/fixroute/backend/internal/notify"
	"github.com/fixroute/backend/internal/service"

	_ "github.com/fixroute/backend/docs"
)

func Router(cfg config.Config, store *db.Store, clf classifier.Classifier, dispatcher notify.Dispatcher, weights service.ScoreWeights, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.MaxMultipartMemory = cfg.MaxUploadSizeMB << 20

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Store:      store,
		Classifier: clf,
		Dispatcher: dispatcher,
		Weights:    weights,
		Validator:  validator.New(),
		Logger:     logger,
		AdminKey:   cfg.AdminKey,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.GET("/issues", h.IssuesList)
		api.GET("/issues/:id", h.IssueDetails)
		api.GET("/providers", h.ProvidersList)
		api.GET("/rules", h.RulesList)
		api.GET("/runs/latest", h.RunsLatest)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/import", h.Import)
		admin.POST("/process", h.Process)
		admin.POST("/route", h.Route)
		admin.POST("/issues/:id/reroute", h.Reroute)
		admin.GET("/debug/score", h.DebugScore)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
