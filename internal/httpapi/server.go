package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rickgao/wfm-tracker/internal/catalog"
	"github.com/rickgao/wfm-tracker/internal/metrics"
	"github.com/rickgao/wfm-tracker/internal/model"
	"github.com/rickgao/wfm-tracker/internal/poller"
	"github.com/rickgao/wfm-tracker/internal/store"
	"github.com/rickgao/wfm-tracker/internal/version"
)

// PollRunner runs one poll cycle. *poller.Runner satisfies it.
type PollRunner interface {
	RunCycle(ctx context.Context) (poller.Summary, error)
}

// CatalogSyncer runs one catalog sync. *catalog.Syncer satisfies it.
type CatalogSyncer interface {
	Sync(ctx context.Context) (catalog.Result, error)
}

// Config holds read API settings.
type Config struct {
	HistoryLimit int    // price points returned per item (default: 100)
	BookDepth    int    // orders returned per side (default: 20)
	MetricsPath  string // empty disables the metrics route
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		HistoryLimit: 100,
		BookDepth:    20,
		MetricsPath:  "/metrics",
	}
}

// Server serves the read API.
type Server struct {
	cfg    Config
	store  store.Store
	poller PollRunner
	syncer CatalogSyncer
	logger *slog.Logger
}

// New creates a Server.
func New(cfg Config, st store.Store, p PollRunner, s CatalogSyncer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = def.HistoryLimit
	}
	if cfg.BookDepth <= 0 {
		cfg.BookDepth = def.BookDepth
	}
	return &Server{
		cfg:    cfg,
		store:  st,
		poller: p,
		syncer: s,
		logger: logger,
	}
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	if s.cfg.MetricsPath != "" {
		r.Method(http.MethodGet, s.cfg.MetricsPath, metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/items", s.handleListItems)
		r.Get("/items/{slug}", s.handleGetItem)

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/poll-market", s.handlePoll)
			r.Post("/poll-market", s.handlePoll)
			r.Get("/sync-items", s.handleSync)
			r.Post("/sync-items", s.handleSync)
		})
	})

	return r
}

type itemsResponse struct {
	Success bool         `json:"success"`
	Items   []model.Item `json:"items"`
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListItems(r.Context())
	if err != nil {
		s.logger.Error("list items", "err", err)
		failed := false
		WriteJSON(w, http.StatusInternalServerError, jsonError{Success: &failed, Error: "Failed to fetch items"})
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	WriteJSON(w, http.StatusOK, itemsResponse{Success: true, Items: items})
}

// ItemStats summarises an item's stored order book.
type ItemStats struct {
	LowestSellPrice *int `json:"lowestSellPrice"`
	HighestBuyPrice *int `json:"highestBuyPrice"`
	TotalOrders     int  `json:"totalOrders"`
	SellOrdersCount int  `json:"sellOrdersCount"`
	BuyOrdersCount  int  `json:"buyOrdersCount"`
}

// ItemDetail is the payload of GET /api/items/{slug}.
type ItemDetail struct {
	Item         model.Item         `json:"item"`
	Stats        ItemStats          `json:"stats"`
	BuyOrders    []model.Order      `json:"buyOrders"`
	SellOrders   []model.Order      `json:"sellOrders"`
	PriceHistory []model.PricePoint `json:"priceHistory"`
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := chi.URLParam(r, "slug")

	item, err := s.store.GetItemBySlug(ctx, slug)
	if errors.Is(err, store.ErrNotFound) {
		WriteJSONError(w, http.StatusNotFound, "Item not found", "")
		return
	}
	if err != nil {
		s.logger.Error("get item", "slug", slug, "err", err)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to fetch item details", "")
		return
	}

	orders, err := s.store.ListOrders(ctx, item.ID)
	if err != nil {
		s.logger.Error("list orders", "slug", slug, "err", err)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to fetch item details", "")
		return
	}

	history, err := s.store.ListPricePoints(ctx, item.ID, s.cfg.HistoryLimit)
	if err != nil {
		s.logger.Error("list price history", "slug", slug, "err", err)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to fetch item details", "")
		return
	}

	WriteJSON(w, http.StatusOK, BuildItemDetail(item, orders, history, s.cfg.BookDepth))
}

// BuildItemDetail assembles the item detail view. Buy orders are sorted by
// price descending and sell orders ascending, each cut to depth. Stats cover
// the full book. history arrives newest first and is returned oldest first.
func BuildItemDetail(item model.Item, orders []model.Order, history []model.PricePoint, depth int) ItemDetail {
	buy := []model.Order{}
	sell := []model.Order{}
	for _, o := range orders {
		switch o.Side {
		case model.SideBuy:
			buy = append(buy, o)
		case model.SideSell:
			sell = append(sell, o)
		}
	}
	slices.SortStableFunc(buy, func(a, b model.Order) int { return b.Price - a.Price })
	slices.SortStableFunc(sell, func(a, b model.Order) int { return a.Price - b.Price })

	stats := ItemStats{
		TotalOrders:     len(orders),
		SellOrdersCount: len(sell),
		BuyOrdersCount:  len(buy),
	}
	if len(sell) > 0 {
		p := sell[0].Price
		stats.LowestSellPrice = &p
	}
	if len(buy) > 0 {
		p := buy[0].Price
		stats.HighestBuyPrice = &p
	}

	chart := slices.Clone(history)
	slices.Reverse(chart)
	if chart == nil {
		chart = []model.PricePoint{}
	}

	return ItemDetail{
		Item:         item,
		Stats:        stats,
		BuyOrders:    buy[:min(depth, len(buy))],
		SellOrders:   sell[:min(depth, len(sell))],
		PriceHistory: chart,
	}
}

type pollResponse struct {
	Success bool `json:"success"`
	poller.Summary
}

func (s *Server) handlePoll(w http.ResponseWriter, r *http.Request) {
	if s.poller == nil {
		WriteJSONError(w, http.StatusServiceUnavailable, "Poller not configured", "")
		return
	}
	summary, err := s.poller.RunCycle(r.Context())
	if errors.Is(err, poller.ErrCycleRunning) {
		WriteJSONError(w, http.StatusConflict, "Poll already in progress", err.Error())
		return
	}
	if err != nil {
		s.logger.Error("manual poll failed", "err", err)
		writeJobError(w, "Failed to poll market data", err)
		return
	}
	WriteJSON(w, http.StatusOK, pollResponse{Success: true, Summary: summary})
}

type syncResponse struct {
	Success bool `json:"success"`
	catalog.Result
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if s.syncer == nil {
		WriteJSONError(w, http.StatusServiceUnavailable, "Catalog sync not configured", "")
		return
	}
	result, err := s.syncer.Sync(r.Context())
	if err != nil {
		s.logger.Error("manual sync failed", "err", err)
		writeJobError(w, "Failed to sync items", err)
		return
	}
	WriteJSON(w, http.StatusOK, syncResponse{Success: true, Result: result})
}

type healthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{
		Status:  "ok",
		Storage: "ok",
		Version: version.Version,
		Commit:  version.Commit,
	}
	status := http.StatusOK
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Warn("health check: storage ping failed", "err", err)
		resp.Status = "degraded"
		resp.Storage = err.Error()
		status = http.StatusServiceUnavailable
	}
	WriteJSON(w, status, resp)
}

// logRequests logs each request at debug level with its status and latency.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
