package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/systemstart/doxgen-worker/pkg/compile"
	"github.com/systemstart/doxgen-worker/pkg/config"
	"github.com/systemstart/doxgen-worker/pkg/convert"
	"github.com/systemstart/doxgen-worker/pkg/generation"
	"github.com/systemstart/doxgen-worker/pkg/health"
	"github.com/systemstart/doxgen-worker/pkg/logging"
	"github.com/systemstart/doxgen-worker/pkg/observability"
	"github.com/systemstart/doxgen-worker/pkg/place"
	"github.com/systemstart/doxgen-worker/pkg/render"
	"github.com/systemstart/doxgen-worker/pkg/server"
)

var version = "dev"

const (
	_ = iota
	exitDotenvError
	exitLoadConfigurationFileFailed
	exitInvalidConfiguration
	exitLoggingSetupFailed
	exitStorageDirectoryCheckFailed
	exitGeneratedDirectoryCreateFailed
	exitLoadContextFailed
	exitServerFailed
)

const shutdownTimeout = 10 * time.Second

var (
	configFile     string
	listenAddr     string
	storageDir     string
	generatedDir   string
	timeoutSeconds int
	contextFile    string
	loggingType    string
	logLevel       string
	showVersion    bool
)

func init() {
	flag.StringVar(
		&configFile,
		"config",
		"",
		"YAML configuration file")
	flag.StringVar(
		&listenAddr,
		"listen",
		"",
		"listen address (default "+config.DefaultListenAddr+", env LISTEN_ADDR)")
	flag.StringVar(
		&storageDir,
		"storage-directory",
		"",
		"template and destination root (default "+config.DefaultStorageDir+", env STORAGE_DIR)")
	flag.StringVar(
		&generatedDir,
		"generated-directory",
		"",
		"parent of per-compilation working areas (default "+config.DefaultGeneratedDir+", env GENERATED_DIR)")
	flag.IntVar(
		&timeoutSeconds,
		"timeout",
		0,
		"generation timeout in seconds (default 120, env GENERATION_TIMEOUT)")
	flag.StringVar(
		&contextFile,
		"context-file",
		"",
		"global context YAML file merged under every request (env CONTEXT_FILE)")
	flag.StringVar(
		&loggingType,
		"logging-type",
		"",
		"logging type: json, text or tint (env LOG_TYPE)")
	flag.StringVar(
		&logLevel,
		"log-level",
		"",
		"logging level: debug, info, warn, error (env LOG_LEVEL)")
	flag.BoolVar(
		&showVersion,
		"version",
		false,
		"print version and exit")
}

func main() {
	flag.Parse()

	if showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	includeEnv()
	cfg := loadConfiguration()

	if err := logging.Initialize(os.Stdout, cfg.LogType, cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "logging setup failed: %v\n", err)
		os.Exit(exitLoggingSetupFailed)
	}

	checkStorageDirectory(cfg.StorageDir)
	ensureGeneratedDirectory(cfg.GeneratedDir)
	globalContext := loadGlobalContext(cfg.ContextFile)

	state := health.New()
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	observability.RegisterHealth(registry, state.IsHealthy)

	templates := os.DirFS(cfg.StorageDir)
	pipeline := generation.New(generation.Options{
		Renderer: render.NewTemplates(templates, render.Options{
			LeftDelim:  cfg.LeftDelim,
			RightDelim: cfg.RightDelim,
			Converter:  convert.NewPandoc(cfg.Pandoc),
			Global:     globalContext,
		}),
		Compiler: compile.NewPDFLaTeX(cfg.PDFLaTeX, cfg.GeneratedDir),
		Placer:   place.New(),
		Health:   state,
		Metrics:  observability.NewMetrics(registry),
	})

	gin.SetMode(gin.ReleaseMode)
	router := server.NewRouter(server.Deps{
		Generator:  pipeline,
		Health:     state,
		Templates:  templates,
		StorageDir: cfg.StorageDir,
		Timeout:    cfg.Timeout(),
		Metrics:    promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	serve(cfg, router)
	slog.Info("done")
}

func serve(cfg config.Config, handler http.Handler) {
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("worker listening",
			"addr", cfg.ListenAddr,
			"version", version,
			"timeout", cfg.Timeout(),
			"storage", cfg.StorageDir,
			"generated", cfg.GeneratedDir)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(exitServerFailed)
		}
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("graceful shutdown incomplete", "error", err)
		}
	}
}

func includeEnv() {
	err := godotenv.Load()
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
			os.Exit(exitDotenvError)
		}
	}
}

func loadConfiguration() config.Config {
	cfg := config.Default()

	if configFile != "" {
		if err := cfg.LoadFile(configFile); err != nil {
			fmt.Fprintf(os.Stderr, "failed to load configuration file %s: %v\n", configFile, err)
			os.Exit(exitLoadConfigurationFileFailed)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		fmt.Fprintf(os.Stderr, "invalid environment: %v\n", err)
		os.Exit(exitInvalidConfiguration)
	}

	applyFlags(&cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(exitInvalidConfiguration)
	}
	return cfg
}

func applyFlags(cfg *config.Config) {
	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}
	if storageDir != "" {
		cfg.StorageDir = storageDir
	}
	if generatedDir != "" {
		cfg.GeneratedDir = generatedDir
	}
	if timeoutSeconds != 0 {
		cfg.TimeoutSeconds = timeoutSeconds
	}
	if contextFile != "" {
		cfg.ContextFile = contextFile
	}
	if loggingType != "" {
		cfg.LogType = loggingType
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
}

func checkStorageDirectory(dir string) {
	st, err := os.Stat(dir)
	if err != nil {
		slog.Error("failed to check storage directory", "directory", dir, "error", err)
		os.Exit(exitStorageDirectoryCheckFailed)
	}

	if !st.IsDir() {
		slog.Error("storage directory is not a directory", "directory", dir)
		os.Exit(exitStorageDirectoryCheckFailed)
	}
}

func ensureGeneratedDirectory(dir string) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		slog.Error("failed to create generated directory", "directory", dir, "error", err)
		os.Exit(exitGeneratedDirectoryCreateFailed)
	}
}

func loadGlobalContext(filename string) map[string]any {
	if filename == "" {
		return nil
	}

	ctx, err := render.LoadContextFile(filename)
	if err != nil {
		slog.Error("failed to load context file", "filename", filename, "error", err)
		os.Exit(exitLoadContextFailed)
	}
	slog.Info("global context loaded", "filename", filename, "keys", len(ctx))
	return ctx
}
