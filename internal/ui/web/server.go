package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	conndto "connviewer/internal/modules/connectivity/dto"
	linkdto "connviewer/internal/modules/link/dto"
	plotdto "connviewer/internal/modules/plot/dto"
	"connviewer/internal/platform/logging"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("index.html").ParseFS(templateFS, "templates/index.html"))

// ─── ports ───────────────────────────────────────────────────────────────────

type ConnectivityPort interface {
	Connectivity(ctx context.Context, input conndto.ConnectivityInput) (conndto.ConnectivityOutput, error)
	CellTypeTables(ctx context.Context) []conndto.Option
	CellTypeTable(ctx context.Context, input conndto.CellTypeTableInput) (conndto.Table, error)
}

type LinkPort interface {
	SynapseLink(ctx context.Context, input linkdto.SynapseLinkInput) (linkdto.LinkOutput, error)
	CellTypeLink(ctx context.Context, input linkdto.CellTypeLinkInput) (linkdto.LinkOutput, error)
}

type PlotPort interface {
	FiguresFor(conn conndto.ConnectivityOutput) plotdto.FiguresOutput
}

// Page holds the dashboard settings rendered into the index page.
type Page struct {
	Title            string
	Datastack        string
	LiveQueryDefault bool
	DisallowLive     bool
	DefaultTable     string
}

// Server serves the dashboard page and its JSON callbacks.
type Server struct {
	conn    ConnectivityPort
	link    LinkPort
	plot    PlotPort
	page    Page
	timeout time.Duration
	logger  *zap.Logger
}

func NewServer(conn ConnectivityPort, link LinkPort, plot PlotPort, page Page, timeout time.Duration, logger *zap.Logger) *Server {
	return &Server{conn: conn, link: link, plot: plot, page: page, timeout: timeout, logger: logging.OrNop(logger)}
}

// Routes builds the router. Every request gets an id, a log line and panic
// recovery.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	if s.timeout > 0 {
		r.Use(middleware.Timeout(s.timeout))
	}

	r.Get("/", s.handleIndex)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/api", func(r chi.Router) {
		r.Post("/connectivity", s.handleConnectivity)
		r.Post("/table", s.handleTable)
		r.Post("/plots", s.handlePlots)
		r.Post("/link", s.handleLink)
		r.Post("/cell-type-link", s.handleCellTypeLink)
		r.Get("/cell-type-tables", s.handleCellTypeTables)
		r.Post("/cell-type-table", s.handleCellTypeTable)
	})
	return r
}

// ListenAndServe runs the server until ctx ends, then drains requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("serving dashboard", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down dashboard")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Page
		Tables []conndto.Option
	}{Page: s.page, Tables: s.conn.CellTypeTables(r.Context())}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		s.logger.Error("render index", zap.Error(err))
	}
}
