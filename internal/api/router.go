package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"ledgerview/internal/contacts"
	"ledgerview/internal/export"
	"ledgerview/internal/ledger"
	"ledgerview/internal/projection"
)

// Options configures the HTTP API.
type Options struct {
	CORSOrigins []string
	PageSize    int
	Decimals    int32
	CSV         export.Options
	Timeout     time.Duration
}

// Server serves account histories over HTTP.
type Server struct {
	source    ledger.Source
	lookup    contacts.Lookup
	projector *projection.Projector
	exporter  *export.Exporter
	opts      Options
	logger    *zap.Logger
}

func NewServer(source ledger.Source, lookup contacts.Lookup, projector *projection.Projector, opts Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if lookup == nil {
		lookup = contacts.None{}
	}
	if projector == nil {
		projector = projection.New(nil)
	}
	if opts.PageSize <= 0 {
		opts.PageSize = ledger.DefaultPageSize
	}
	return &Server{
		source:    source,
		lookup:    lookup,
		projector: projector,
		exporter:  export.NewExporter(source, projector, logger, export.WithOptions(opts.CSV)),
		opts:      opts,
		logger:    logger,
	}
}

// Router builds the chi router with middleware and routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	origins := s.opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	if s.opts.Timeout > 0 {
		r.Use(middleware.Timeout(s.opts.Timeout))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/accounts/{account}/transactions", func(r chi.Router) {
		r.Get("/", s.listTransactions)
		r.Get("/export", s.exportTransactions)
	})

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
