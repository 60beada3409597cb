package server

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/MrEthical07/authsvc"
	"github.com/MrEthical07/authsvc/internal/logging"
	"github.com/MrEthical07/authsvc/internal/observability"
	"github.com/MrEthical07/authsvc/metrics/export/prometheus"
	"github.com/MrEthical07/authsvc/middleware"
	"github.com/MrEthical07/authsvc/realtime"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

// Options wires a Server. Engine and Redis are required.
type Options struct {
	Engine *authsvc.Engine

	// Redis backs chat room membership.
	Redis  redis.UniversalClient
	Logger logging.Logger

	// Metrics is mounted at /metrics. Defaults to the Prometheus exporter
	// over Engine.
	Metrics http.Handler

	// AllowedOrigins restricts WebSocket handshakes. Empty allows any
	// origin.
	AllowedOrigins []string

	// WSPongWait is how long a WebSocket may stay silent, pongs included,
	// before it is dropped. Pings go out at nine tenths of it. Defaults to
	// 60s.
	WSPongWait time.Duration

	// Realtime tunes the WebSocket protocol. Nil uses the defaults.
	Realtime *realtime.DispatcherConfig
}

// Server is the HTTP and WebSocket front of an Engine.
type Server struct {
	engine     *authsvc.Engine
	config     authsvc.Config
	hub        *realtime.Manager
	dispatcher *realtime.Dispatcher
	metrics    http.Handler
	logger     logging.Logger
	upgrader   websocket.Upgrader
	proxies    middleware.TrustedProxies
	pongWait   time.Duration
	now        func() time.Time
}

func New(opts Options) (*Server, error) {
	if opts.Engine == nil {
		return nil, errors.New("server: engine is required")
	}
	if opts.Redis == nil {
		return nil, errors.New("server: redis client is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = opts.Engine.Logger()
	}
	if logger == nil {
		logger = logging.Nop()
	}

	engine := opts.Engine
	proxies, err := middleware.ParseTrustedProxies(engine.Config().RateLimit.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	hub := realtime.NewManager(logger.With("component", "realtime"), realtime.Hooks{
		OnConnect:    func(string) { engine.RecordMetric(authsvc.MetricWSConnect) },
		OnDisconnect: func(string) { engine.RecordMetric(authsvc.MetricWSDisconnect) },
	})

	rtCfg := realtime.DefaultDispatcherConfig()
	if opts.Realtime != nil {
		rtCfg = *opts.Realtime
	}
	rtCfg.OnMessage = func(string) { engine.RecordMetric(authsvc.MetricWSMessage) }
	rtCfg.OnRateLimited = func(string) { engine.RecordMetric(authsvc.MetricWSRateLimited) }

	pongWait := opts.WSPongWait
	if pongWait <= 0 {
		pongWait = defaultPongWait
	}

	metrics := opts.Metrics
	if metrics == nil {
		metrics = prometheus.New(engine).Handler()
	}

	s := &Server{
		engine:     engine,
		config:     engine.Config(),
		hub:        hub,
		dispatcher: realtime.NewDispatcher(hub, realtime.NewRoomStore(opts.Redis), rtCfg, logger),
		metrics:    metrics,
		logger:     logger,
		proxies:    proxies,
		pongWait:   pongWait,
		now:        time.Now,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(opts.AllowedOrigins),
	}
	return s, nil
}

// Hub exposes the connection registry.
func (s *Server) Hub() *realtime.Manager {
	return s.hub
}

// Handler returns the router wrapped in the request middleware stack.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router()
	h = middleware.RequestContext(s.proxies)(h)
	h = middleware.SecurityHeaders(h)
	h = observability.RequestLoggingMiddleware(s.logger, h)
	return observability.RecoverMiddleware(s.logger, h)
}

func (s *Server) router() *mux.Router {
	r := mux.NewRouter()
	rl := s.config.RateLimit

	guard := middleware.Guard(s.engine, s.logger)
	limit := func(scope string, tier authsvc.RateTier, h http.Handler) http.Handler {
		if !rl.Enabled {
			return h
		}
		return middleware.RateLimit(s.engine, scope, tier)(h)
	}

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics).Methods(http.MethodGet)

	auth := r.PathPrefix("/api/auth").Subrouter()
	auth.Handle("/register", limit("register", rl.Strict, http.HandlerFunc(s.handleRegister))).Methods(http.MethodPost)
	auth.Handle("/login", limit("login", rl.Normal, http.HandlerFunc(s.handleLogin))).Methods(http.MethodPost)
	auth.Handle("/refresh", limit("refresh", rl.Normal, http.HandlerFunc(s.handleRefresh))).Methods(http.MethodPost)
	auth.Handle("/logout", guard(http.HandlerFunc(s.handleLogout))).Methods(http.MethodPost)
	auth.Handle("/me", limit("me", rl.Normal, guard(http.HandlerFunc(s.handleMe)))).Methods(http.MethodGet)
	auth.Handle("/password/reset-request", limit("password_reset", rl.Strict, http.HandlerFunc(s.handleResetRequest))).Methods(http.MethodPost)
	auth.Handle("/password/reset-confirm", limit("password_reset_confirm", rl.Strict, http.HandlerFunc(s.handleResetConfirm))).Methods(http.MethodPost)
	auth.Handle("/password/change", guard(http.HandlerFunc(s.handleChangePassword))).Methods(http.MethodPost)

	admin := func(h http.HandlerFunc) http.Handler { return guard(middleware.RequireSuperuser(h)) }
	r.Handle("/api/users", limit("users_list", rl.Normal, admin(s.handleListUsers))).Methods(http.MethodGet)
	r.Handle("/api/users", admin(s.handleCreateUser)).Methods(http.MethodPost)
	users := r.PathPrefix("/api/users").Subrouter()
	users.Handle("/{id}", guard(http.HandlerFunc(s.handleGetUser))).Methods(http.MethodGet)
	users.Handle("/{id}", guard(http.HandlerFunc(s.handleUpdateUser))).Methods(http.MethodPatch, http.MethodPut)
	users.Handle("/{id}", guard(http.HandlerFunc(s.handleDeleteUser))).Methods(http.MethodDelete)

	ws := r.PathPrefix("/api/ws").Subrouter()
	ws.HandleFunc("/connect", s.handleWSConnect).Methods(http.MethodGet)
	ws.HandleFunc("/health", s.handleWSHealth).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	return r
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}
