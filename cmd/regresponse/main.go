package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/castlemilk/regresponse/internal/config"
	"github.com/castlemilk/regresponse/internal/logging"
	"github.com/castlemilk/regresponse/internal/pipeline"
	"github.com/castlemilk/regresponse/internal/render"
	"github.com/castlemilk/regresponse/internal/service"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "regresponse",
		Short:        "Draft structured responses to health authority queries",
		Version:      version,
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newGenerateCmd(), newSweepCmd())
	return root
}

// setup loads configuration and builds the logger and dependencies.
func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Sync()
		return nil, err
	}
	return a, nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.logger.Sync()
			defer a.Close()

			return serve(ctx, a)
		},
	}
}

func serve(ctx context.Context, a *app) error {
	h := service.NewHandler(a.pipeline, a.uploads, a.outputs, a.store,
		service.Options{MaxUploadBytes: a.cfg.MaxUploadBytes()}, a.logger.Named("http"))

	c := cors.New(cors.Options{
		AllowedOrigins: a.cfg.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"User-Agent",
		},
		ExposedHeaders: []string{
			"Content-Disposition",
		},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", a.cfg.Port),
		Handler:           h2c.NewHandler(c.Handler(h.Routes()), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	a.sweeper.Start()
	defer a.sweeper.Stop()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting server", zap.String("port", a.cfg.Port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GenerationTimeout+5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type generateFlags struct {
	out       string
	queryType string
}

func newGenerateCmd() *cobra.Command {
	var flags generateFlags
	cmd := &cobra.Command{
		Use:   "generate <file>",
		Short: "Run a local document through the pipeline and write the response PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.logger.Sync()
			defer a.Close()

			if flags.out == "" {
				flags.out = a.cfg.OutputDir
			}
			return runGenerate(cmd.Context(), a.pipeline, args[0], flags, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&flags.out, "out", "", "Directory for the generated PDF (default OUTPUT_DIR)")
	cmd.Flags().StringVar(&flags.queryType, "query-type", "", "Optional query classification hint")
	return cmd
}

func runGenerate(ctx context.Context, p *pipeline.Pipeline, path string, flags generateFlags, w io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	analysis, err := p.Analyze(ctx, pipeline.Input{Filename: path, Data: data, QueryType: flags.queryType})
	if errors.Is(err, pipeline.ErrNoText) {
		return errors.New(service.MsgNoText)
	}
	if err != nil {
		return err
	}

	r, err := render.NewRenderer(flags.out)
	if err != nil {
		return err
	}
	pdfPath, err := r.RenderFile(analysis.Generation.Text)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Risk level: %s\n", analysis.RiskLevel)
	fmt.Fprintf(w, "Generation: %s\n", analysis.Generation.Source)
	fmt.Fprintf(w, "Preview:\n%s\n", analysis.Preview)
	fmt.Fprintf(w, "PDF: %s\n", pdfPath)
	return nil
}

func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete uploads, PDFs and records older than RETENTION_TTL once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.logger.Sync()
			defer a.Close()

			if !a.sweeper.Enabled() {
				fmt.Fprintln(cmd.OutOrStdout(), "RETENTION_TTL is not set; nothing to do")
				return nil
			}
			report, err := a.sweeper.SweepOnce(cmd.Context())
			for name, n := range report {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d removed\n", name, n)
			}
			return err
		},
	}
}
