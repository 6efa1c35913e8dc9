// Package httpapi exposes the bookshelf services as a JSON-over-HTTP API.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/bookshelf/internal/logging"
	"github.com/dmitrijs2005/bookshelf/internal/server/models"
	"github.com/dmitrijs2005/bookshelf/internal/server/services"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, string, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, string, error)
	Profile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, in services.UpdateProfileInput) (*models.User, error)
	DeleteAccount(ctx context.Context, userID string) error
}

type CartService interface {
	List(ctx context.Context, userID string) ([]*models.CartItem, error)
	Add(ctx context.Context, userID string, in services.AddItemInput) (models.AddOutcome, error)
	Remove(ctx context.Context, userID, itemID string) error
	Clear(ctx context.Context, userID string) (int64, error)
}

type CheckoutService interface {
	Checkout(ctx context.Context, userID string) (*models.CheckoutResult, error)
}

type PurchaseService interface {
	List(ctx context.Context, userID string) ([]*models.PurchaseRecord, error)
}

// TokenVerifier resolves a session token to a user id.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Deps are the collaborators of Server. Limiter, Registry and DBHealth are
// optional.
type Deps struct {
	Users     UserService
	Cart      CartService
	Checkout  CheckoutService
	Purchases PurchaseService
	Tokens    TokenVerifier
	Limiter   RateLimiter
	Registry  *prometheus.Registry
	DBHealth  func(context.Context) error
}

// Options are the transport settings of Server.
type Options struct {
	Address            string
	AllowedOrigins     []string
	RateLimitPerMinute int
	TrustedProxies     []string
	ShutdownTimeout    time.Duration
}

type Server struct {
	opts      Options
	deps      Deps
	logger    logging.Logger
	metrics   *metrics
	router    *mux.Router
	handler   http.Handler
	origins   map[string]bool
	anyOrigin bool
	proxies   trustedProxies
}

func NewServer(opts Options, deps Deps, l logging.Logger) *Server {
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	s := &Server{
		opts:    opts,
		deps:    deps,
		logger:  l.With("module", "http_server"),
		metrics: newMetrics(deps.Registry),
		router:  mux.NewRouter(),
		origins: map[string]bool{},
	}
	for _, o := range opts.AllowedOrigins {
		if o == "*" {
			s.anyOrigin = true
		}
		s.origins[o] = true
	}
	proxies, err := parseTrustedProxies(opts.TrustedProxies)
	if err != nil {
		s.logger.Warn(context.Background(), "ignoring trusted proxies, client addresses come from the peer", "error", err)
	}
	s.proxies = proxies
	s.routes()
	s.handler = s.withRequestID(s.withCORS(s.router))
	return s
}

// Handler is the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() {
	r := s.router
	r.Use(s.metrics.middleware)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "route not found", Kind: "not_found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed", Kind: "validation"})
	})

	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.deps.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/signup", s.public("auth.signup", s.handleSignup)).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.public("auth.login", s.handleLogin)).Methods(http.MethodPost)

	api.HandleFunc("/cart", s.private("cart.list", s.handleCartList)).Methods(http.MethodGet)
	api.HandleFunc("/cart", s.private("cart.add", s.handleCartAdd)).Methods(http.MethodPost)
	api.HandleFunc("/cart", s.private("cart.clear", s.handleCartClear)).Methods(http.MethodDelete)
	api.HandleFunc("/cart/{itemId}", s.private("cart.remove", s.handleCartRemove)).Methods(http.MethodDelete)

	api.HandleFunc("/checkout", s.private("checkout", s.handleCheckout)).Methods(http.MethodPost)
	api.HandleFunc("/purchased-books", s.private("purchases.list", s.handlePurchases)).Methods(http.MethodGet)

	api.HandleFunc("/profile", s.private("profile.get", s.handleProfileGet)).Methods(http.MethodGet)
	api.HandleFunc("/profile", s.private("profile.update", s.handleProfileUpdate)).Methods(http.MethodPut)
	api.HandleFunc("/profile", s.private("profile.delete", s.handleProfileDelete)).Methods(http.MethodDelete)
}

// Run serves until ctx is cancelled, then drains in-flight requests for at
// most ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.opts.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

func (s *Server) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())
		errCh <- srv.Serve(listen)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
