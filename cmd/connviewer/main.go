package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"connviewer/internal/bootstrap"
	conninadapter "connviewer/internal/modules/connectivity/adapter/in"
	conndto "connviewer/internal/modules/connectivity/dto"
	linkdto "connviewer/internal/modules/link/dto"
	"connviewer/internal/platform/config"
	"connviewer/internal/platform/logging"
	uiapp "connviewer/internal/ui/app"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	datastack  string
	server     string
	logLevel   string
}

// overrides turns the flags that were set into settings.
func (g globalFlags) overrides() config.Settings {
	out := config.Settings{}
	if g.datastack != "" {
		out["datastack"] = g.datastack
	}
	if g.server != "" {
		out["server_address"] = g.server
	}
	if g.logLevel != "" {
		out["log_level"] = g.logLevel
	}
	return out
}

func newRootCmd() *cobra.Command {
	var g globalFlags

	root := &cobra.Command{
		Use:           "connviewer",
		Short:         "Browse the synaptic connectivity of a neuron",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "YAML settings file")
	root.PersistentFlags().StringVar(&g.datastack, "datastack", "", "datastack name")
	root.PersistentFlags().StringVar(&g.server, "server", "", "annotation service address")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level: debug|info|warn|error")

	root.AddCommand(newServeCmd(&g))
	root.AddCommand(newTableCmd(&g))
	root.AddCommand(newLinkCmd(&g))
	root.AddCommand(newPlotCmd(&g))
	root.AddCommand(newCellTypesCmd(&g))
	root.AddCommand(newTUICmd(&g))
	return root
}

func loadApp(g *globalFlags, extra config.Settings) (*bootstrap.App, error) {
	cfg, err := config.Load(g.configPath, g.overrides().Merge(extra))
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Server.LogLevel, cfg.Server.LogFormat)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(cfg, logger)
}

// cellFlags are the flags every per-cell command shares.
type cellFlags struct {
	id            string
	idType        string
	direction     string
	live          bool
	cellTypeTable string
}

func (c *cellFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&c.id, "id", "", "root id or nucleus id")
	cmd.Flags().StringVar(&c.idType, "id-type", "root_id", "id type: root_id|nucleus_id")
	cmd.Flags().StringVar(&c.direction, "direction", "output", "partner table: output|input")
	cmd.Flags().BoolVar(&c.live, "live", false, "query live data instead of the latest materialization")
	cmd.Flags().StringVar(&c.cellTypeTable, "cell-type-table", "", "cell type table to annotate partners with")
	_ = cmd.MarkFlagRequired("id")
}

func (c cellFlags) input() conndto.ConnectivityInput {
	return conndto.ConnectivityInput{AnnoID: c.id, IDType: c.idType, LiveQuery: c.live, CellTypeTable: c.cellTypeTable}
}

// tab maps the direction flag onto a partner table.
func (c cellFlags) tab() (linkdto.Tab, error) {
	switch c.direction {
	case "output", "pre":
		return linkdto.TabPre, nil
	case "input", "post":
		return linkdto.TabPost, nil
	}
	return "", fmt.Errorf("unknown direction %q: want output or input", c.direction)
}

func partnerTable(out conndto.ConnectivityOutput, tab linkdto.Tab) conndto.Table {
	if tab == linkdto.TabPost {
		return out.Sources
	}
	return out.Targets
}

func load(ctx context.Context, app *bootstrap.App, c cellFlags) (conndto.ConnectivityOutput, error) {
	return app.ConnectivityCLI.Connectivity(ctx, c.id, c.idType, c.live, c.cellTypeTable)
}

func newServeCmd(g *globalFlags) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the connectivity dashboard",
		RunE: func(cmd *cobra.Command, _ []string) error {
			extra := config.Settings{}
			if cmd.Flags().Changed("port") {
				extra["port"] = port
			}
			app, err := loadApp(g, extra)
			if err != nil {
				return err
			}
			defer app.Close()
			defer func() { _ = app.Logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.Web.ListenAndServe(ctx, fmt.Sprintf(":%d", app.Config.Server.Port))
		},
	}
	cmd.Flags().IntVar(&port, "port", 8050, "listen port")
	return cmd
}

func newTableCmd(g *globalFlags) *cobra.Command {
	var c cellFlags
	var format string
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Print the output or input partner table of a cell",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tab, err := c.tab()
			if err != nil {
				return err
			}
			app, err := loadApp(g, nil)
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := load(cmd.Context(), app, c)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), out.Message)
			return conninadapter.WriteTable(cmd.OutOrStdout(), partnerTable(out, tab), format)
		},
	}
	c.register(cmd)
	cmd.Flags().StringVar(&format, "format", "tsv", "output format: tsv|json")
	return cmd
}

func newLinkCmd(g *globalFlags) *cobra.Command {
	var c cellFlags
	var rows []int
	var byCellType bool
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Print a viewer link for a cell's partners",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tab, err := c.tab()
			if err != nil {
				return err
			}
			app, err := loadApp(g, nil)
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := load(cmd.Context(), app, c)
			if err != nil {
				return err
			}
			table := partnerTable(out, tab)
			var link linkdto.LinkOutput
			if byCellType {
				link, err = app.LinkCLI.PartnerCellTypeLink(cmd.Context(), table, rows, out.Info)
			} else {
				link, err = app.LinkCLI.SynapseLink(cmd.Context(), tab, table, rows, out.Info)
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), link.URL)
			return nil
		},
	}
	c.register(cmd)
	cmd.Flags().IntSliceVar(&rows, "rows", nil, "partner table rows to select (0 based)")
	cmd.Flags().BoolVar(&byCellType, "by-cell-type", false, "one annotation layer per partner cell type")
	return cmd
}

func newPlotCmd(g *globalFlags) *cobra.Command {
	var c cellFlags
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Print the plotly figures of a cell as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(g, nil)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.PlotCLI.WriteFigures(cmd.Context(), cmd.OutOrStdout(), c.input())
		},
	}
	c.register(cmd)
	return cmd
}

func newCellTypesCmd(g *globalFlags) *cobra.Command {
	cellTypes := &cobra.Command{
		Use:   "cell-types",
		Short: "List selectable cell type tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(g, nil)
			if err != nil {
				return err
			}
			defer app.Close()
			for _, opt := range app.ConnectivityCLI.CellTypeTables(cmd.Context()) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), opt.Value)
			}
			return nil
		},
	}

	var cellType, format string
	var live, link bool
	showCmd := &cobra.Command{
		Use:   "show <table>",
		Short: "Print the rows of a cell type table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(g, nil)
			if err != nil {
				return err
			}
			defer app.Close()
			table, err := app.ConnectivityCLI.CellTypeTable(cmd.Context(), args[0], cellType, live)
			if err != nil {
				return err
			}
			if !link {
				return conninadapter.WriteTable(cmd.OutOrStdout(), table, format)
			}
			info, err := app.ConnectivityCLI.Info(cmd.Context())
			if err != nil {
				return err
			}
			out, err := app.LinkCLI.CellTypeLink(cmd.Context(), table, info)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), out.URL)
			return nil
		},
	}
	showCmd.Flags().StringVar(&cellType, "cell-type", "", "only rows of this cell type")
	showCmd.Flags().StringVar(&format, "format", "tsv", "output format: tsv|json")
	showCmd.Flags().BoolVar(&live, "live", false, "query live data")
	showCmd.Flags().BoolVar(&link, "link", false, "print a viewer link instead of the rows")

	cellTypes.AddCommand(showCmd)
	return cellTypes
}

func newTUICmd(g *globalFlags) *cobra.Command {
	var c cellFlags
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Run the terminal connectivity browser",
		RunE: func(_ *cobra.Command, _ []string) error {
			app, err := loadApp(g, config.Settings{"log_level": "error"})
			if err != nil {
				return err
			}
			defer app.Close()
			return bootstrap.RunTUI(app, uiapp.Query{ID: c.id, IDType: c.idType, Live: c.live, CellTypeTable: c.cellTypeTable})
		},
	}
	cmd.Flags().StringVar(&c.id, "id", "", "root id or nucleus id to open")
	cmd.Flags().StringVar(&c.idType, "id-type", "root_id", "id type: root_id|nucleus_id")
	cmd.Flags().BoolVar(&c.live, "live", false, "query live data")
	cmd.Flags().StringVar(&c.cellTypeTable, "cell-type-table", "", "cell type table to annotate partners with")
	return cmd
}
