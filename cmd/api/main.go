package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/otel/trace"

	_ "stockflow/docs"
	"stockflow/pkg/fulfillment"
	"stockflow/pkg/inventory"
	"stockflow/pkg/inventory/httpclient"
	"stockflow/pkg/logger"
	"stockflow/pkg/order"
	"stockflow/pkg/order/memory"
	pg "stockflow/pkg/order/postgres"
	"stockflow/pkg/otel"
)

var (
	redisClient *redis.Client
	coord       *fulfillment.Coordinator
	log         *logger.Logger
	tracer      trace.Tracer
)

type config struct {
	Addr              string
	DatabaseURL       string
	RedisAddr         string
	ProductServiceURL string
	OtelHost          string
	RetryMax          uint64
	InventoryTimeout  time.Duration
	CertFile          string
	KeyFile           string
}

func loadConfig() config {
	cfg := config{
		Addr:              envOr("ADDR", ":8443"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisAddr:         envOr("REDIS_ADDR", "localhost:6379"),
		ProductServiceURL: envOr("PRODUCT_SERVICE_URL", "http://localhost:3000"),
		OtelHost:          os.Getenv("OTEL_HOST"),
		RetryMax:          3,
		InventoryTimeout:  5 * time.Second,
		CertFile:          os.Getenv("TLS_CERT"),
		KeyFile:           os.Getenv("TLS_KEY"),
	}
	if v := os.Getenv("INVENTORY_RETRY_MAX"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.RetryMax = n
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// @title StockFlow API
// @version 1.0
// @description Order fulfillment coordinator keeping orders and product stock consistent
// @host localhost:8443
// @BasePath /
func main() {
	cfg := loadConfig()
	log = logger.New(os.Stdout, logger.LevelInfo, "stockflow", otel.GetTraceID)

	tp, shutdown, err := otel.InitTracing(log, otel.Config{ServiceName: "stockflow", Host: cfg.OtelHost, Probability: 1.0})
	if err != nil {
		log.Error(context.Background(), "init tracing", "error", err)
		os.Exit(1)
	}
	defer shutdown(context.Background())
	tracer = tp.Tracer("stockflow")

	var repo order.Repository
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error(context.Background(), "db connect", "error", err)
			os.Exit(1)
		}
		if _, err := db.Exec("CREATE TABLE IF NOT EXISTS orders (id TEXT PRIMARY KEY, product_id TEXT, quantity INT, total_price NUMERIC)"); err != nil {
			log.Error(context.Background(), "create table", "error", err)
			os.Exit(1)
		}
		repo = pg.New(db)
	} else {
		log.Info(context.Background(), "no DATABASE_URL, using in-memory order store")
		repo = memory.New()
	}

	inv := inventory.NewRetrier(
		httpclient.New(httpclient.Config{BaseURL: cfg.ProductServiceURL, Timeout: cfg.InventoryTimeout}),
		inventory.RetryConfig{MaxRetries: cfg.RetryMax},
	)
	coord = fulfillment.New(log, repo, inv)

	redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	r := mux.NewRouter()
	r.Use(traceMiddleware)
	r.HandleFunc("/login", loginHandler).Methods(http.MethodPost)

	api := r.PathPrefix("/orders").Subrouter()
	api.Use(authMiddleware)
	api.HandleFunc("", createOrderHandler).Methods(http.MethodPost)
	api.HandleFunc("", listOrdersHandler).Methods(http.MethodGet)
	api.HandleFunc("/{id}", getOrderHandler).Methods(http.MethodGet)
	api.HandleFunc("/{id}", resizeOrderHandler).Methods(http.MethodPut)
	api.HandleFunc("/{id}", cancelOrderHandler).Methods(http.MethodDelete)

	r.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	log.Info(context.Background(), "listening", "addr", cfg.Addr)
	if cfg.CertFile != "" {
		err = http.ListenAndServeTLS(cfg.Addr, cfg.CertFile, cfg.KeyFile, r)
	} else {
		err = http.ListenAndServe(cfg.Addr, r)
	}
	log.Error(context.Background(), "server closed", "error", err)
}

// loginRequest represents login credentials.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// createOrderRequest is the inbound create transition.
type createOrderRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// resizeOrderRequest is the inbound resize transition.
type resizeOrderRequest struct {
	Quantity int `json:"quantity"`
}

// cancelOrderResponse reports the cancel outcome.
type cancelOrderResponse struct {
	Deleted bool   `json:"deleted"`
	Message string `json:"message"`
}

// loginHandler handles user login and session creation.
// @Summary Login
// @Description Authenticates user and sets session cookie
// @Accept json
// @Produce json
// @Param creds body loginRequest true "Credentials"
// @Success 200
// @Router /login [post]
func loginHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "loginHandler")
	defer span.End()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		http.Error(w, "invalid credentials", http.StatusBadRequest)
		return
	}
	sid := strconv.FormatInt(time.Now().UnixNano(), 10)
	if err := redisClient.Set(ctx, "session:"+sid, req.Username, time.Hour).Err(); err != nil {
		http.Error(w, "session error", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "session_id", Value: sid, Path: "/", Expires: time.Now().Add(time.Hour), HttpOnly: true})
	w.WriteHeader(http.StatusOK)
}

// authMiddleware ensures a valid session exists.
func authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("session_id")
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		user, err := redisClient.Get(r.Context(), "session:"+c.Value).Result()
		if err != nil || user == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), "user", user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// createOrderHandler reserves stock and creates an order.
// @Summary Create order
// @Accept json
// @Produce json
// @Param order body createOrderRequest true "Order"
// @Success 201 {object} order.Order
// @Security ApiKeyAuth
// @Router /orders [post]
func createOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "createOrderHandler")
	defer span.End()

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	o, err := coord.CreateOrder(ctx, req.ProductID, req.Quantity)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(o)
}

// listOrdersHandler lists orders.
// @Summary List orders
// @Produce json
// @Success 200 {array} order.Order
// @Security ApiKeyAuth
// @Router /orders [get]
func listOrdersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "listOrdersHandler")
	defer span.End()

	orders, err := coord.ListOrders(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(orders)
}

// getOrderHandler retrieves an order by ID.
// @Summary Get order
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} order.Order
// @Security ApiKeyAuth
// @Router /orders/{id} [get]
func getOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "getOrderHandler")
	defer span.End()

	o, err := coord.GetOrder(ctx, mux.Vars(r)["id"])
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(o)
}

// resizeOrderHandler changes an order's quantity, reserving or releasing the
// stock difference.
// @Summary Resize order
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param order body resizeOrderRequest true "New quantity"
// @Success 200 {object} order.Order
// @Security ApiKeyAuth
// @Router /orders/{id} [put]
func resizeOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "resizeOrderHandler")
	defer span.End()

	var req resizeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	o, err := coord.ResizeOrder(ctx, mux.Vars(r)["id"], req.Quantity)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(o)
}

// cancelOrderHandler releases an order's stock and deletes the order.
// @Summary Cancel order
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} cancelOrderResponse
// @Security ApiKeyAuth
// @Router /orders/{id} [delete]
func cancelOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "cancelOrderHandler")
	defer span.End()

	id := mux.Vars(r)["id"]
	deleted, err := coord.CancelOrder(ctx, id)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	resp := cancelOrderResponse{Deleted: deleted, Message: "order " + id + " deleted, stock released"}
	if !deleted {
		resp.Message = "order " + id + " not found, nothing to do"
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// writeError maps coordinator errors onto HTTP statuses.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var cf *fulfillment.CompensationFailedError
	switch {
	case errors.Is(err, fulfillment.ErrInvalidQuantity):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, fulfillment.ErrInsufficientStock):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, order.ErrNotFound), errors.Is(err, inventory.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, inventory.ErrUnavailable):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case errors.As(err, &cf):
		// Already logged with full context by the coordinator.
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		log.Error(ctx, "request failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.InjectTracing(r.Context(), tracer)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
