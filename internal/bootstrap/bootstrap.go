package bootstrap

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	conninadapter "connviewer/internal/modules/connectivity/adapter/in"
	connoutadapter "connviewer/internal/modules/connectivity/adapter/out"
	connout "connviewer/internal/modules/connectivity/port/out"
	connservice "connviewer/internal/modules/connectivity/service"
	connusecase "connviewer/internal/modules/connectivity/usecase"
	linkinadapter "connviewer/internal/modules/link/adapter/in"
	linkoutadapter "connviewer/internal/modules/link/adapter/out"
	linkservice "connviewer/internal/modules/link/service"
	linkusecase "connviewer/internal/modules/link/usecase"
	plotinadapter "connviewer/internal/modules/plot/adapter/in"
	plotusecase "connviewer/internal/modules/plot/usecase"
	"connviewer/internal/platform/clock"
	"connviewer/internal/platform/config"
	"connviewer/internal/platform/id"
	"connviewer/internal/platform/logging"
	uiapp "connviewer/internal/ui/app"
	"connviewer/internal/ui/web"
)

const dashboardTitle = "Connectivity Viewer"

type App struct {
	Config          config.Config
	Logger          *zap.Logger
	ConnectivityCLI conninadapter.CLIHandler
	PlotCLI         plotinadapter.CLIHandler
	LinkCLI         linkinadapter.CLIHandler
	Web             *web.Server

	closers []func() error
}

func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	logger = logging.OrNop(logger)
	clk := clock.SystemClock{}
	ids := id.UUID{}

	app := &App{Config: cfg, Logger: logger}

	var queries connout.QueryCache
	if cfg.Server.CachePath != "" {
		cache, err := connoutadapter.NewSQLiteQueryCache(cfg.Server.CachePath)
		if err != nil {
			return nil, fmt.Errorf("new query cache: %w", err)
		}
		app.closers = append(app.closers, cache.Close)
		queries = cache
	}
	httpClient := connoutadapter.NewHTTPAnnotationClient(cfg.Common.ServerAddress, cfg.Server.AuthToken, cfg.Server.RequestTimeout, logger)
	client, err := connoutadapter.NewCachedAnnotationClient(httpClient, queries, cfg.Server.InfoCacheSize, logger)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("new annotation client: %w", err)
	}

	connUC := connusecase.NewInteractor(connservice.NewNeuronService(cfg, client, clk, logger), cfg, logger)
	plotUC := plotusecase.NewInteractor(connUC, cfg)
	linkUC := linkusecase.NewInteractor(
		linkservice.NewLinkService(
			linkoutadapter.NewHTTPStateUploader(cfg.Server.AuthToken, cfg.Server.RequestTimeout, logger),
			cfg.Common.MaxURLLength,
			logger,
		),
		ids,
		cfg,
		logger,
	)

	app.ConnectivityCLI = conninadapter.NewCLIHandler(connUC)
	app.PlotCLI = plotinadapter.NewCLIHandler(plotUC)
	app.LinkCLI = linkinadapter.NewCLIHandler(linkUC)
	app.Web = web.NewServer(connUC, linkUC, plotUC, web.Page{
		Title:            dashboardTitle,
		Datastack:        cfg.Common.Datastack,
		LiveQueryDefault: cfg.Common.LiveQueryDefault && !cfg.Common.DisallowLiveQuery,
		DisallowLive:     cfg.Common.DisallowLiveQuery,
		DefaultTable:     cfg.Typed.DefaultCellTypeOption,
	}, cfg.Server.RequestTimeout, logger)
	return app, nil
}

// Close releases the query cache.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func RunTUI(app *App, query uiapp.Query) error {
	model := uiapp.NewModel(app.ConnectivityCLI, app.LinkCLI, query)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}
