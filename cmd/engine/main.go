package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"

	"github.com/dynavest/strategy-engine/internal/app/service"
	"github.com/dynavest/strategy-engine/internal/app/strategy"
	"github.com/dynavest/strategy-engine/internal/infrastructure/chain"
	"github.com/dynavest/strategy-engine/internal/infrastructure/configloader"
	"github.com/dynavest/strategy-engine/internal/infrastructure/positionstore"
	"github.com/dynavest/strategy-engine/internal/infrastructure/quote"
	"github.com/dynavest/strategy-engine/internal/infrastructure/relay"
	"github.com/dynavest/strategy-engine/internal/infrastructure/restapi"
	"github.com/dynavest/strategy-engine/internal/pkg/logger"
	"github.com/dynavest/strategy-engine/internal/pkg/metrics"
	"github.com/dynavest/strategy-engine/internal/pkg/utils"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize zap logger: %v", err)
	}
	defer zapLogger.Sync()

	// Route the core's slog-based logger through zap so every layer
	// emits through the same sink.
	logger.InitWithHandler(zapslog.NewHandler(zapLogger.Core()))
	coreLogger := logger.NewSlogAdapter()

	cfgPath := utils.GetEnv("CONFIG_PATH", "config/config.yml")
	cfg, err := configloader.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		log.Warnf("Invalid log level in config: %s. Defaulting to Info.", cfg.Logging.Level)
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	zapLogger.Info("Configuration loaded", zap.String("path", cfgPath))

	metrics.MustRegisterMetrics()

	networks := make([]chain.NetworkConfig, 0, len(cfg.Networks))
	for _, n := range cfg.Networks {
		networks = append(networks, chain.NetworkConfig{
			ChainID:         n.ChainID,
			Name:            n.Name,
			PrimaryRPCURL:   n.RPCURL,
			FallbackRPCURLs: n.FallbackRPCURLs,
		})
	}
	reader := chain.NewEVMReader(networks, cfg.RPC.ReadsPerSecond, coreLogger)
	defer reader.Close()

	quoteClient := quote.NewClient(
		cfg.QuoteAPI.BaseURL,
		time.Duration(cfg.QuoteAPI.RequestTimeoutMillis)*time.Millisecond,
		zapLogger,
	)
	zapLogger.Info("Quote client initialized")

	store := positionstore.NewHTTPStore(
		cfg.PositionStore.BaseURL,
		time.Duration(cfg.PositionStore.RequestTimeoutMillis)*time.Millisecond,
		zapLogger,
	)
	zapLogger.Info("Position store client initialized")

	submitter := relay.NewSubmitter(
		cfg.Relay.BaseURL,
		time.Duration(cfg.Relay.RequestTimeoutMillis)*time.Millisecond,
		zapLogger,
	)
	zapLogger.Info("Relay submitter initialized")

	deps := strategy.Deps{Reader: reader, Quotes: quoteClient}
	fees := service.NewFeeCalculator(cfg.Fee.Bps, common.HexToAddress(cfg.Fee.Recipient))
	accounting := service.NewPositionAccounting(store, coreLogger)
	executor := service.NewExecutor(deps, fees, accounting, submitter, coreLogger)
	zapLogger.Info("Executor initialized", zap.Int64("fee_bps", cfg.Fee.Bps))

	router := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true // Adjust for production
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	router.Use(utils.ZapLoggerMiddleware(zapLogger))
	router.Use(gin.Recovery())

	restapi.RegisterRoutes(router, restapi.NewExecutionHandler(executor, store, coreLogger))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	zapLogger.Info("Prometheus metrics endpoint enabled", zap.String("path", "/metrics"))

	// Protect these in a production environment.
	pprofRouter := router.Group("/debug/pprof")
	{
		pprofRouter.GET("/", gin.WrapF(pprof.Index))
		pprofRouter.GET("/cmdline", gin.WrapF(pprof.Cmdline))
		pprofRouter.GET("/profile", gin.WrapF(pprof.Profile))
		pprofRouter.POST("/symbol", gin.WrapF(pprof.Symbol))
		pprofRouter.GET("/symbol", gin.WrapF(pprof.Symbol))
		pprofRouter.GET("/trace", gin.WrapF(pprof.Trace))
		pprofRouter.GET("/allocs", gin.WrapH(pprof.Handler("allocs")))
		pprofRouter.GET("/block", gin.WrapH(pprof.Handler("block")))
		pprofRouter.GET("/goroutine", gin.WrapH(pprof.Handler("goroutine")))
		pprofRouter.GET("/heap", gin.WrapH(pprof.Handler("heap")))
		pprofRouter.GET("/mutex", gin.WrapH(pprof.Handler("mutex")))
		pprofRouter.GET("/threadcreate", gin.WrapH(pprof.Handler("threadcreate")))
	}
	zapLogger.Info("Pprof endpoints enabled under /debug/pprof")

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		zapLogger.Info(fmt.Sprintf("Server starting on port %s", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		zapLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exiting")
}
