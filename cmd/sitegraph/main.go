package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitegraph/internal/build"
	"git.home.luguber.info/inful/sitegraph/internal/config"
	sgerrors "git.home.luguber.info/inful/sitegraph/internal/errors"
	"git.home.luguber.info/inful/sitegraph/internal/linkverify"
	"git.home.luguber.info/inful/sitegraph/internal/metrics"
	"git.home.luguber.info/inful/sitegraph/internal/preview"
	"git.home.luguber.info/inful/sitegraph/internal/site"
	"git.home.luguber.info/inful/sitegraph/internal/sitemap"
)

const version = "0.3.0"

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"sitegraph.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct {
		Output string `short:"o" help:"Output directory for the generated site (overrides config)"`
		Verify bool   `help:"Verify intra-site links and fragments in the rendered output"`
	} `cmd:"" help:"Resolve the content graph and write the static site"`

	Serve struct {
		Addr string `short:"a" help:"Listen address (overrides config)"`
	} `cmd:"" help:"Serve the site from memory, rebuilding on content changes"`

	Sitemap struct {
		Out   string `help:"Path for sitemap.xml (default <output>/sitemap.xml)"`
		Index string `help:"Path for the SQLite link index (overrides config)"`
	} `cmd:"" help:"Resolve the content graph and export sitemap.xml and the link index without writing the site"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	Version struct{} `cmd:"" help:"Print version"`
}

func main() {
	_ = godotenv.Load()
	ctx := kong.Parse(&CLI)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: config.LogLevel(CLI.Verbose),
	}))
	slog.SetDefault(logger)

	adapter := sgerrors.NewCLIErrorAdapter(CLI.Verbose, logger)

	var err error
	switch ctx.Command() {
	case "build":
		err = runBuild()
	case "serve":
		err = runServe()
	case "sitemap":
		err = runSitemap()
	case "init":
		err = runInit(CLI.Config, CLI.Init.Force)
	case "version":
		fmt.Printf("sitegraph %s\n", version)
	default:
		err = fmt.Errorf("unknown command: %s", ctx.Command())
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, adapter.FormatError(err))
		os.Exit(adapter.ExitCodeFor(err))
	}
}

func runBuild() error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}
	if CLI.Build.Output != "" {
		cfg.Output = CLI.Build.Output
	}

	result, err := build.New(cfg, nil).Run(context.Background())
	if err != nil {
		return err
	}

	writer := &site.Writer{Output: cfg.Output}
	if err := writer.WriteAll(result.Registry, result.Pages); err != nil {
		return err
	}
	if err := sitemap.Export(filepath.Join(cfg.Output, "sitemap.xml"), cfg.BaseURL, result.Registry); err != nil {
		return err
	}
	if cfg.Build.LinkIndex != "" {
		if err := sitemap.ExportIndex(cfg.Build.LinkIndex, result.Registry, result.Pages); err != nil {
			return err
		}
	}

	if CLI.Build.Verify {
		issues := linkverify.Verify(result.Pages)
		for _, issue := range issues {
			slog.Error("broken reference",
				slog.String("source", issue.SourceURL),
				slog.String("href", issue.Href),
				slog.String("reason", issue.Reason))
		}
		if len(issues) > 0 {
			return sgerrors.New(sgerrors.CategoryLink, sgerrors.SeverityFatal,
				"rendered output has broken references").WithContext("count", len(issues))
		}
	}

	slog.Info("site written", slog.String("output", cfg.Output))
	return nil
}

// runSitemap runs the full resolution but only emits the exports, so link
// validators can be fed without touching the static site tree.
func runSitemap() error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}

	result, err := build.New(cfg, nil).Run(context.Background())
	if err != nil {
		return err
	}

	out := CLI.Sitemap.Out
	if out == "" {
		out = filepath.Join(cfg.Output, "sitemap.xml")
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return sgerrors.ExportFailed("sitemap", err)
	}
	if err := sitemap.Export(out, cfg.BaseURL, result.Registry); err != nil {
		return err
	}

	index := cfg.Build.LinkIndex
	if CLI.Sitemap.Index != "" {
		index = CLI.Sitemap.Index
	}
	if index != "" {
		if err := os.MkdirAll(filepath.Dir(index), 0o755); err != nil {
			return sgerrors.ExportFailed("link-index", err)
		}
		if err := sitemap.ExportIndex(index, result.Registry, result.Pages); err != nil {
			return err
		}
	}

	slog.Info("sitemap exported", slog.String("path", out))
	return nil
}

func runServe() error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}
	if CLI.Serve.Addr != "" {
		cfg.Preview.Addr = CLI.Serve.Addr
	}

	promReg := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(promReg)
	builder := build.New(cfg, recorder)
	server := preview.New(cfg, builder, metrics.HTTPHandler(promReg))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return server.Run(ctx)
}

func runInit(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return sgerrors.New(sgerrors.CategoryConfig, sgerrors.SeverityFatal,
				"configuration file already exists (use --force to overwrite)").WithContext("path", path)
		}
	}
	if err := os.WriteFile(path, []byte(config.ExampleYAML), 0o644); err != nil {
		return sgerrors.Wrap(err, sgerrors.CategoryFileSystem, sgerrors.SeverityFatal, "writing configuration failed")
	}
	slog.Info("configuration written", slog.String("path", path))
	return nil
}
