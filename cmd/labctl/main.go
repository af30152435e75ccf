// Command labctl manages lab templates and their setup steps from the
// terminal.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tphummel/lab_templates/internal/appctx"
	"github.com/tphummel/lab_templates/internal/config"
	"github.com/tphummel/lab_templates/internal/controller"
	"github.com/tphummel/lab_templates/internal/labapi"
	"github.com/tphummel/lab_templates/internal/telemetry"
	"github.com/tphummel/lab_templates/internal/ui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// env is what every subcommand works with, built once per invocation.
type env struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	configPath string
	baseURL    string
	token      string
	verbose    bool

	logger *slog.Logger
	app    *appctx.Context
	client *labapi.Client
	render *ui.Renderer
	toast  *ui.Toaster
}

func newRootCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	e := &env{in: in, out: out, errOut: errOut}

	cmd := &cobra.Command{
		Use:           "labctl",
		Short:         "Manage lab templates and their setup steps",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return e.close()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&e.configPath, "config", "", "Config file (default $LABCTL_CONFIG or ~/.config/labctl/config.yaml)")
	flags.StringVar(&e.baseURL, "base-url", "", "Lab API base URL, e.g. http://localhost:8080/api")
	flags.StringVar(&e.token, "token", "", "Bearer token for the lab API")
	flags.BoolVarP(&e.verbose, "verbose", "v", false, "Log requests and failures to stderr")

	cmd.AddCommand(newLabCommand(e))
	cmd.AddCommand(newStepCommand(e))
	cmd.AddCommand(newSettingsCommand(e))
	return cmd
}

func (e *env) setup() error {
	level := slog.LevelWarn
	if e.verbose {
		level = slog.LevelDebug
	}
	e.logger = slog.New(slog.NewTextHandler(e.errOut, &slog.HandlerOptions{Level: level}))

	path := e.configPath
	if path == "" {
		path = os.Getenv("LABCTL_CONFIG")
	}
	cfg, err := config.LoadClientFrom(path)
	if err != nil {
		return err
	}
	if e.baseURL != "" {
		cfg.BaseURL = e.baseURL
	}
	if e.token != "" {
		cfg.Token = e.token
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	app, err := appctx.Init(appctx.NewFileStore(cfg.SettingsPath))
	if err != nil {
		return err
	}
	e.app = app

	client, err := labapi.NewClient(cfg.BaseURL,
		labapi.WithToken(cfg.Token),
		labapi.WithHTTPClient(&http.Client{
			Timeout:   cfg.Timeout,
			Transport: telemetry.Transport(http.DefaultTransport),
		}),
	)
	if err != nil {
		return err
	}
	e.client = client
	e.render = ui.NewRenderer(e.out, app)
	e.toast = ui.NewToaster(e.errOut, app)
	e.logger.Debug("labctl configured", "base_url", cfg.BaseURL, "settings", cfg.SettingsPath)
	return nil
}

func (e *env) close() error {
	if e.app == nil {
		return nil
	}
	return e.app.Close()
}

func (e *env) labList() *controller.LabList {
	l := controller.NewLabList(e.client, e.toast, e.logger)
	f := l.Filters()
	f.Locale = e.app.Locale()
	l.SetFilters(f)
	return l
}

// loadLab loads a lab and its steps. Load already reported the failure.
func (e *env) loadLab(ctx context.Context, id string) (*controller.LabDetail, error) {
	d := controller.NewLabDetail(e.client, e.client, e.toast, nil, e.logger)
	if err := d.Load(ctx, id); err != nil {
		return nil, err
	}
	return d, nil
}
