package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stock-insight/api"
	"stock-insight/internal/config"
	"stock-insight/internal/engine"
	"stock-insight/internal/infrastructure"
	"stock-insight/internal/marketdata"
	"stock-insight/internal/prediction"
	"stock-insight/internal/push"
	"stock-insight/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// App defines the application structure and its dependencies
type App struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *pgxpool.Pool
	NC     *nats.Conn
	JS     nats.JetStreamContext

	Market  *marketdata.Client
	History *marketdata.History

	Watchlist   *storage.WatchlistRepo
	Predictions *storage.PredictionRepo
	Bars        *storage.BarRepo

	Checker     *prediction.Checker
	ScanPool    *engine.ScanPool
	PushGateway *push.PushGateway
	HTTPServer  *http.Server
}

// NewApp creates a new application instance
func NewApp() (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}

	logger := infrastructure.NewLogger(cfg.Development)

	return &App{
		Config: &cfg,
		Logger: logger,
	}, nil
}

// Init initializes all application components
func (a *App) Init(ctx context.Context) error {
	// 1. Database
	dbPool, err := pgxpool.Connect(ctx, a.Config.DBDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	a.DB = dbPool

	if err := a.initDatabase(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	// 2. NATS
	nc, js, err := infrastructure.InitNATS(a.Config.NatsURL, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	a.NC = nc
	a.JS = js

	// 3. Market data
	a.Market = marketdata.NewClient(a.Config.MarketDataURL, a.Logger)
	a.Bars = storage.NewBarRepo(a.DB, a.Logger)
	a.History = marketdata.NewHistory(a.Market, a.Bars, a.Logger)

	// 4. Repositories and services
	a.Watchlist = storage.NewWatchlistRepo(a.DB)
	a.Predictions = storage.NewPredictionRepo(a.DB)
	a.Checker = prediction.NewChecker(a.Predictions, a.Market, a.JS, a.Logger)
	a.PushGateway = push.NewPushGateway(a.JS, a.Logger)
	a.ScanPool = engine.NewScanPool(4, 256, a.scanSymbol, a.publishSignal, a.Logger)

	return nil
}

// Run starts the application services and the HTTP server
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.ScanPool.Start(ctx)
	go a.runWatchlistScanner(ctx)
	go a.runPredictionChecker(ctx)

	a.HTTPServer = &http.Server{
		Addr:    ":" + a.Config.Port,
		Handler: a.setupRouter(),
	}

	go func() {
		a.Logger.Info("starting http server", zap.String("port", a.Config.Port))
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	return a.waitForShutdown(cancel)
}

// waitForShutdown handles graceful shutdown signals
func (a *App) waitForShutdown(cancel context.CancelFunc) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	a.Logger.Info("shutting down...")
	cancel()

	ctx, timeout := context.WithTimeout(context.Background(), 10*time.Second)
	defer timeout()

	if err := a.HTTPServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.NC.Close()
	a.DB.Close()

	return nil
}

// initDatabase runs the database initialization script
func (a *App) initDatabase(ctx context.Context) error {
	sqlFile := "scripts/init.sql"
	content, err := os.ReadFile(sqlFile)
	if err != nil {
		return fmt.Errorf("failed to read init script: %w", err)
	}

	_, err = a.DB.Exec(ctx, string(content))
	if err != nil {
		return fmt.Errorf("failed to execute init script: %w", err)
	}

	a.Logger.Info("database initialized successfully")
	return nil
}

// setupRouter configures the Gin router and its routes
func (a *App) setupRouter() *gin.Engine {
	r := gin.Default()

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	auth := api.NewAuth(a.Config.JWTSecret)
	apiHandler := api.NewHandler(a.DB, a.History, a.Market, a.Watchlist, a.Predictions, a.Checker, auth, a.Logger)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/register", apiHandler.Register)
		v1.POST("/login", apiHandler.Login)
		v1.GET("/bars/:symbol", apiHandler.GetBars)
	}

	protected := r.Group("/api/v1")
	protected.Use(auth.Middleware())
	{
		protected.POST("/backtest", apiHandler.RunBacktest)
		protected.GET("/signal/:symbol", apiHandler.GetSignal)

		protected.GET("/watchlist", apiHandler.GetWatchlist)
		protected.POST("/watchlist", apiHandler.AddToWatchlist)
		protected.DELETE("/watchlist/:symbol", apiHandler.RemoveFromWatchlist)

		protected.POST("/predictions", apiHandler.CreatePrediction)
		protected.GET("/predictions", apiHandler.ListPredictions)
		protected.GET("/predictions/stats", apiHandler.GetPredictionStats)
		protected.POST("/predictions/check", apiHandler.CheckPredictions)
	}

	r.GET("/ws", func(c *gin.Context) {
		a.PushGateway.ServeHTTP(c.Writer, c.Request)
	})

	return r
}
