package main

import (
	"fmt"
	"log"
	"net/http/pprof"

	"github.com/gin-gonic/gin"

	internalcore "github.com/Skywind5487/tnfsh-timetable-core/internal/core"
	internalhandler "github.com/Skywind5487/tnfsh-timetable-core/internal/handler"
	"github.com/Skywind5487/tnfsh-timetable-core/internal/metrics"
	internalmiddleware "github.com/Skywind5487/tnfsh-timetable-core/internal/middleware"
	"github.com/Skywind5487/tnfsh-timetable-core/pkg/config"
	"github.com/Skywind5487/tnfsh-timetable-core/pkg/fetch"
	"github.com/Skywind5487/tnfsh-timetable-core/pkg/logger"
	corsmiddleware "github.com/Skywind5487/tnfsh-timetable-core/pkg/middleware/cors"
	reqidmiddleware "github.com/Skywind5487/tnfsh-timetable-core/pkg/middleware/requestid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	metricsSvc := metrics.New()
	metricsHandler := internalhandler.NewMetricsHandler(metricsSvc)

	client := fetch.New(cfg.Upstream, logr, metricsSvc)
	coreSvc := internalcore.New(cfg, logr, client, metricsSvc, metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		registerPprof(r)
	}

	indexHandler := internalhandler.NewIndexHandler(coreSvc)
	timetableHandler := internalhandler.NewTimetableHandler(coreSvc)
	schedulingHandler := internalhandler.NewSchedulingHandler(coreSvc)
	preloadHandler := internalhandler.NewPreloadHandler(coreSvc, cfg.Preload)

	api := r.Group(cfg.APIPrefix)
	api.GET("/index", indexHandler.Get)
	api.GET("/index/resolve", indexHandler.Resolve)
	api.GET("/timetables/:target", timetableHandler.Get)

	schedulingGroup := api.Group("/scheduling")
	schedulingGroup.GET("/rotation", schedulingHandler.Rotation)
	schedulingGroup.GET("/swap", schedulingHandler.Swap)

	api.POST("/cache/preload", preloadHandler.Run)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func registerPprof(r *gin.Engine) {
	group := r.Group("/debug/pprof")
	group.GET("/", gin.WrapF(pprof.Index))
	group.GET("/cmdline", gin.WrapF(pprof.Cmdline))
	group.GET("/profile", gin.WrapF(pprof.Profile))
	group.POST("/symbol", gin.WrapF(pprof.Symbol))
	group.GET("/symbol", gin.WrapF(pprof.Symbol))
	group.GET("/trace", gin.WrapF(pprof.Trace))
	group.GET("/allocs", gin.WrapH(pprof.Handler("allocs")))
	group.GET("/goroutine", gin.WrapH(pprof.Handler("goroutine")))
	group.GET("/heap", gin.WrapH(pprof.Handler("heap")))
}
