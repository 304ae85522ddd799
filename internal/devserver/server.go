// Package devserver serves the prediction page and a POST /predict endpoint
// for local development. It renders the page from the request contract,
// serves the static assets (including the wasm submit handler) and answers
// predictions through a pluggable Predictor.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/goliatone/go-predictform/pkg/contract"
	"github.com/goliatone/go-predictform/pkg/formdata"
	"github.com/goliatone/go-predictform/pkg/predict"
	"github.com/goliatone/go-predictform/pkg/render"
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRenderer replaces the default page renderer.
func WithRenderer(r *render.Renderer) Option {
	return func(s *Server) {
		if r != nil {
			s.renderer = r
		}
	}
}

// WithStaticDir serves dir under /static. An empty dir disables the route.
func WithStaticDir(dir string) Option {
	return func(s *Server) {
		s.staticDir = strings.TrimSpace(dir)
	}
}

// WithStaticFS serves fsys under /static. It is used when no static
// directory is configured.
func WithStaticFS(fsys fs.FS) Option {
	return func(s *Server) {
		s.staticFS = fsys
	}
}

// WithAllowedOrigins enables CORS for the given origins. "*" allows any.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.origins = append([]string(nil), origins...)
	}
}

// WithStrictEnums rejects enumerated fields whose value is not one of the
// listed options. Off by default.
func WithStrictEnums(strict bool) Option {
	return func(s *Server) {
		s.strictEnums = strict
	}
}

// WithShutdownGrace bounds how long Run waits for in-flight requests.
func WithShutdownGrace(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.grace = d
		}
	}
}

// Server is the development HTTP server.
type Server struct {
	contract  *contract.Contract
	predictor Predictor
	renderer  *render.Renderer
	logger    *slog.Logger
	staticDir string
	staticFS  fs.FS
	origins   []string
	grace     time.Duration

	strictEnums bool

	engine *gin.Engine
}

// New builds a Server for c answering through p.
func New(c *contract.Contract, p Predictor, opts ...Option) (*Server, error) {
	if c == nil {
		return nil, errors.New("devserver: contract is nil")
	}
	if p == nil {
		return nil, errors.New("devserver: predictor is nil")
	}
	s := &Server{
		contract:  c,
		predictor: p,
		logger:    slog.Default(),
		grace:     5 * time.Second,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.renderer == nil {
		r, err := render.New()
		if err != nil {
			return nil, fmt.Errorf("devserver: create renderer: %w", err)
		}
		s.renderer = r
	}
	s.engine = s.routes()
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("devserver listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("devserver: listen: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("devserver shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("devserver: shutdown: %w", err)
	}
	return nil
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())
	if cfg, ok := corsConfig(s.origins); ok {
		router.Use(cors.New(cfg))
	}

	router.GET("/", s.index)
	router.GET("/health", s.health)
	router.GET("/openapi.yaml", s.openAPI)
	router.POST(s.contract.Path, s.predict)
	switch {
	case s.staticDir != "":
		router.Static("/static", s.staticDir)
	case s.staticFS != nil:
		router.StaticFS("/static", http.FS(s.staticFS))
	}
	return router
}

func corsConfig(origins []string) (cors.Config, bool) {
	var allowed []string
	all := false
	for _, o := range origins {
		switch o = strings.TrimSpace(o); o {
		case "":
		case "*":
			all = true
		default:
			allowed = append(allowed, o)
		}
	}
	if !all && len(allowed) == 0 {
		return cors.Config{}, false
	}

	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	cfg.AllowHeaders = []string{"Content-Type"}
	if all {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowed
	}
	return cfg, true
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (s *Server) index(c *gin.Context) {
	markup, err := s.renderer.PageString(s.contract)
	if err != nil {
		s.logger.Error("render page", "error", err)
		c.String(http.StatusInternalServerError, "failed to render page")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(markup))
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"operation": s.contract.OperationID,
	})
}

func (s *Server) openAPI(c *gin.Context) {
	c.Data(http.StatusOK, "application/yaml", contract.Document())
}

func (s *Server) predict(c *gin.Context) {
	values, err := formdata.ParseRequest(c.Request)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, formdata.ErrUnsupportedContentType) {
			status = http.StatusUnsupportedMediaType
		}
		c.JSON(status, gin.H{"detail": err.Error()})
		return
	}

	var decodeOpts []contract.DecodeOption
	if s.strictEnums {
		decodeOpts = append(decodeOpts, contract.StrictEnums())
	}
	features, err := s.contract.Decode(values, decodeOpts...)
	if err != nil {
		var fieldErrs contract.FieldErrors
		if errors.As(err, &fieldErrs) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": fieldErrs})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	price, err := s.predictor.Predict(c.Request.Context(), Request{Values: values, Features: features})
	if err != nil {
		s.logger.Error("prediction failed", "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, ErrUpstream) {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"detail": "prediction failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{predict.PriceField: roundPrice(price)})
}

// roundPrice rounds to cents, ties to even.
func roundPrice(price decimal.Decimal) float64 {
	rounded, _ := price.RoundBank(2).Float64()
	return rounded
}
