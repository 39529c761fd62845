package api

import (
	"errors"
	"net/http"
	"time"

	"stock-insight/internal/engine"
	"stock-insight/internal/indicator"
	"stock-insight/internal/infrastructure"
	"stock-insight/internal/marketdata"
	"stock-insight/internal/model"
	"stock-insight/internal/prediction"
	"stock-insight/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// defaultLookback is the history window used when the caller does not give
// an explicit range (two years, like the analysis UI defaults to).
const defaultLookback = 2 * 365 * 24 * time.Hour

var defaultInitialCapital = decimal.NewFromInt(100000)

type Handler struct {
	db          *pgxpool.Pool
	history     *marketdata.History
	market      *marketdata.Client
	watchlist   *storage.WatchlistRepo
	predictions *storage.PredictionRepo
	checker     *prediction.Checker
	auth        *Auth
	logger      *zap.Logger
}

func NewHandler(
	db *pgxpool.Pool,
	history *marketdata.History,
	market *marketdata.Client,
	watchlist *storage.WatchlistRepo,
	predictions *storage.PredictionRepo,
	checker *prediction.Checker,
	auth *Auth,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		db:          db,
		history:     history,
		market:      market,
		watchlist:   watchlist,
		predictions: predictions,
		checker:     checker,
		auth:        auth,
		logger:      logger,
	}
}

// Auth Handlers

func (h *Handler) Register(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required,min=3,max=50"`
		Password string `json:"password" binding:"required,min=6"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
		return
	}

	var id int64
	err = h.db.QueryRow(c.Request.Context(),
		"INSERT INTO users (username, password_hash) VALUES ($1, $2) RETURNING id",
		req.Username, string(hash)).Scan(&id)

	if err != nil {
		h.logger.Error("failed to register user", zap.Error(err))
		c.JSON(http.StatusConflict, gin.H{"error": "username already exists"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "user created", "id": id})
}

func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var id int64
	var hash string
	err := h.db.QueryRow(c.Request.Context(),
		"SELECT id, password_hash FROM users WHERE username = $1", req.Username).Scan(&id, &hash)

	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
		return
	}

	token, err := h.auth.GenerateToken(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Data Handlers

func (h *Handler) GetBars(c *gin.Context) {
	symbol := c.Param("symbol")
	start, end, err := parseRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bars, err := h.history.Bars(c.Request.Context(), symbol, start, end)
	if err != nil {
		h.logger.Error("failed to load bars", zap.String("symbol", symbol), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load bars"})
		return
	}
	if len(bars) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no data for symbol"})
		return
	}

	c.JSON(http.StatusOK, bars)
}

func (h *Handler) RunBacktest(c *gin.Context) {
	var req struct {
		Symbol         string     `json:"symbol" binding:"required"`
		Start          *time.Time `json:"start"`
		End            *time.Time `json:"end"`
		InitialCapital *float64   `json:"initial_capital"`
		CommissionRate *float64   `json:"commission_rate"`
		LotSize        *int64     `json:"lot_size"`
		Warmup         *int       `json:"warmup"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	end := time.Now()
	if req.End != nil {
		end = *req.End
	}
	start := end.Add(-defaultLookback)
	if req.Start != nil {
		start = *req.Start
	}

	capital := defaultInitialCapital
	if req.InitialCapital != nil {
		capital = decimal.NewFromFloat(*req.InitialCapital)
	}
	cfg := engine.DefaultConfig(capital)
	if req.CommissionRate != nil {
		cfg.CommissionRate = decimal.NewFromFloat(*req.CommissionRate)
	}
	if req.LotSize != nil {
		cfg.LotSize = *req.LotSize
	}
	if req.Warmup != nil {
		cfg.Warmup = *req.Warmup
	}

	tester, err := engine.NewBacktester(cfg)
	if err != nil {
		c.JSON(coreErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	bars, err := h.history.Bars(c.Request.Context(), req.Symbol, start, end)
	if err != nil {
		h.logger.Error("failed to load bars for backtest", zap.String("symbol", req.Symbol), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load bars"})
		return
	}

	frame, err := indicator.Enrich(bars)
	if err != nil {
		c.JSON(coreErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	report, err := tester.Run(frame)
	if err != nil {
		c.JSON(coreErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	infrastructure.BacktestRuns.Inc()
	c.JSON(http.StatusOK, report)
}

func (h *Handler) GetSignal(c *gin.Context) {
	symbol := c.Param("symbol")
	end := time.Now()
	start := end.Add(-defaultLookback)

	bars, err := h.history.Bars(c.Request.Context(), symbol, start, end)
	if err != nil {
		h.logger.Error("failed to load bars for signal", zap.String("symbol", symbol), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load bars"})
		return
	}

	frame, err := indicator.Enrich(bars)
	if err != nil {
		c.JSON(coreErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	report, err := engine.ScoreLatest(frame)
	if err != nil {
		c.JSON(coreErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	infrastructure.SignalScans.WithLabelValues(symbol).Inc()
	c.JSON(http.StatusOK, report)
}

// Watchlist Handlers

func (h *Handler) AddToWatchlist(c *gin.Context) {
	var req struct {
		Symbol    string `json:"symbol" binding:"required"`
		StockName string `json:"stock_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.watchlist.Add(c.Request.Context(), userID(c), req.Symbol, req.StockName)
	if errors.Is(err, storage.ErrAlreadyWatched) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("failed to add watchlist entry", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "added to watchlist"})
}

func (h *Handler) RemoveFromWatchlist(c *gin.Context) {
	if err := h.watchlist.Remove(c.Request.Context(), userID(c), c.Param("symbol")); err != nil {
		h.logger.Error("failed to remove watchlist entry", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "removed from watchlist"})
}

func (h *Handler) GetWatchlist(c *gin.Context) {
	items, err := h.watchlist.List(c.Request.Context(), userID(c))
	if err != nil {
		h.logger.Error("failed to list watchlist", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, items)
}

// Prediction Handlers

func (h *Handler) CreatePrediction(c *gin.Context) {
	var req struct {
		Symbol    string `json:"symbol" binding:"required"`
		StockName string `json:"stock_name"`
		Direction string `json:"direction" binding:"required,oneof=UP DOWN"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// The entry price is captured now and frozen on the row.
	quote, err := h.market.Quote(c.Request.Context(), req.Symbol)
	if err != nil {
		h.logger.Error("failed to fetch quote", zap.String("symbol", req.Symbol), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "quote unavailable"})
		return
	}

	id, err := h.predictions.Create(c.Request.Context(), model.Prediction{
		UserID:       userID(c),
		Symbol:       req.Symbol,
		StockName:    req.StockName,
		Direction:    model.Direction(req.Direction),
		InitialPrice: quote.Price,
	})
	if errors.Is(err, storage.ErrDuplicatePending) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("failed to create prediction", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id, "initial_price": quote.Price})
}

func (h *Handler) ListPredictions(c *gin.Context) {
	preds, err := h.predictions.List(c.Request.Context(), userID(c))
	if err != nil {
		h.logger.Error("failed to list predictions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, preds)
}

func (h *Handler) GetPredictionStats(c *gin.Context) {
	stats, err := h.predictions.Stats(c.Request.Context(), userID(c))
	if err != nil {
		h.logger.Error("failed to load prediction stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// CheckPredictions settles the caller's pending predictions on demand and
// returns the outcomes decided in this pass.
func (h *Handler) CheckPredictions(c *gin.Context) {
	outcomes, err := h.checker.CheckUser(c.Request.Context(), userID(c))
	if err != nil {
		h.logger.Error("failed to check predictions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if outcomes == nil {
		outcomes = []model.PredictionOutcome{}
	}
	c.JSON(http.StatusOK, gin.H{"outcomes": outcomes})
}

// helpers

func parseRange(c *gin.Context) (time.Time, time.Time, error) {
	end := time.Now()
	start := end.Add(-defaultLookback)
	var err error
	if raw := c.Query("start"); raw != "" {
		start, err = time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if raw := c.Query("end"); raw != "" {
		end, err = time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return start, end, nil
}

// coreErrorStatus maps the engine's error taxonomy onto HTTP: bad
// parameters are the caller's fault, bad or insufficient data means the
// request was well-formed but not servable.
func coreErrorStatus(err error) int {
	var cfgErr *engine.ConfigError
	var dataErr *engine.DataError
	var insufficient *engine.InsufficientDataError
	switch {
	case errors.As(err, &cfgErr):
		return http.StatusBadRequest
	case errors.As(err, &dataErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &insufficient):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
