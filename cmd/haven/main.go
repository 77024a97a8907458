// Haven is a conversational crisis-assistance agent.
//
// It pairs a language model with live web search to help people
// experiencing homelessness find real resources (shelters, food banks,
// clinics), over a realtime WebSocket channel with per-conversation
// history and end-of-conversation reports for service providers.
// Configuration is loaded from a single YAML file discovered
// automatically (see [config.DefaultSearchPaths]).
//
// Usage:
//
//	haven serve              Start the API server
//	haven ask <question>     Ask a single question (for testing)
//	haven version            Print version and build information
//	haven -o json version    Output version information as JSON
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/havenline/haven/internal/agent"
	"github.com/havenline/haven/internal/api"
	"github.com/havenline/haven/internal/buildinfo"
	"github.com/havenline/haven/internal/config"
	"github.com/havenline/haven/internal/convo"
	"github.com/havenline/haven/internal/gateway"
	"github.com/havenline/haven/internal/llm"
	"github.com/havenline/haven/internal/search"
	"github.com/havenline/haven/internal/tools"
)

// main is intentionally minimal. It constructs the OS-level environment
// (context, stdio, argv) and delegates immediately to [run]. This keeps
// os.Exit, os.Stdout, and os.Args out of the application logic so that
// the full startup-to-shutdown lifecycle can be driven from tests.
func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point for the haven command. All OS-level
// dependencies are injected as parameters: ctx controls the process
// lifetime, stdout and stderr receive all output, and args is
// os.Args[1:]. Arguments are parsed by hand because the flag package's
// package-level globals interfere with calling run() concurrently from
// tests, and the surface is small.
func run(ctx context.Context, stdout io.Writer, stderr io.Writer, args []string) error {
	var configPath string
	var outputFmt string // "text" (default) or "json"
	var command string
	var cmdArgs []string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++ // skip the value
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case (args[i] == "-o" || args[i] == "--output") && i+1 < len(args):
			outputFmt = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-o="):
			outputFmt = strings.TrimPrefix(args[i], "-o=")
		case strings.HasPrefix(args[i], "--output="):
			outputFmt = strings.TrimPrefix(args[i], "--output=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-") && command == "":
			command = args[i]
		default:
			if command != "" {
				cmdArgs = append(cmdArgs, args[i])
			} else {
				return fmt.Errorf("unknown flag: %s", args[i])
			}
		}
	}

	if outputFmt == "" {
		outputFmt = "text"
	}
	if outputFmt != "text" && outputFmt != "json" {
		return fmt.Errorf("unknown output format: %q (expected text or json)", outputFmt)
	}

	switch command {
	case "serve":
		return runServe(ctx, stdout, configPath)
	case "ask":
		if len(cmdArgs) == 0 {
			return fmt.Errorf("usage: haven ask <question>")
		}
		return runAsk(ctx, stdout, configPath, cmdArgs)
	case "version":
		return runVersion(stdout, outputFmt)
	case "":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// printUsage writes the top-level help text to w.
func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "Haven - Crisis Assistance Agent")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: haven [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve        Start the API server")
	fmt.Fprintln(w, "  ask          Ask a single question (for testing)")
	fmt.Fprintln(w, "  version      Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <path>    Path to config file (default: auto-discover)")
	fmt.Fprintln(w, "  -o, --output fmt  Output format: text (default) or json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Config search order:")
	fmt.Fprintln(w, "  "+strings.Join(config.DefaultSearchPaths(), ", "))
	return nil
}

// runVersion prints build metadata in the requested output format.
func runVersion(w io.Writer, outputFmt string) error {
	info := buildinfo.Info()
	if outputFmt == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	fmt.Fprintln(w, buildinfo.String())
	for _, k := range []string{"version", "git_commit", "git_branch", "build_time", "go_version", "os", "arch"} {
		if v, ok := info[k]; ok {
			fmt.Fprintf(w, "  %-12s %s\n", k+":", v)
		}
	}
	return nil
}

// runServe starts the full service: store, model client, search stack,
// orchestrator, gateway, and HTTP server, then blocks until shutdown.
func runServe(ctx context.Context, stdout io.Writer, configPath string) error {
	cfg, cfgPath, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger, err := buildLogger(stdout, cfg)
	if err != nil {
		return err
	}
	logger.Info("starting", "build", buildinfo.String(), "config", cfgPath)

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	client, err := buildModelClient(cfg, logger)
	if err != nil {
		return err
	}

	registry := buildRegistry(cfg, logger)
	orchestrator := agent.NewOrchestrator(client, cfg.Gemini.Model, registry, logger)
	reporter := agent.NewReportGenerator(client, cfg.Gemini.Model, logger)
	gw := gateway.New(store, orchestrator, logger)
	server := api.NewServer(cfg.Listen.Address, cfg.Listen.Port, store, reporter, gw, client, logger)

	// SIGINT/SIGTERM cancellation flows through the same ctx used by
	// all components.
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		logger.Info("shutdown signal received")

		gw.Close()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.Start(ctx); err != nil {
		if ctx.Err() == nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	logger.Info("Haven stopped")
	return nil
}

// runAsk handles "haven ask <question>": one turn against an in-memory
// store, printed to stdout. Useful for smoke tests without a server.
func runAsk(ctx context.Context, stdout io.Writer, configPath string, args []string) error {
	cfg, cfgPath, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger, err := buildLogger(stdout, cfg)
	if err != nil {
		return err
	}
	logger.Debug("config loaded", "path", cfgPath)

	client, err := buildModelClient(cfg, logger)
	if err != nil {
		return err
	}

	question := strings.Join(args, " ")

	// Nothing to persist for a one-shot question.
	store := convo.NewMemStore()
	conv, err := store.CreateConversation("cli")
	if err != nil {
		return err
	}
	sess, err := convo.Open(store, conv.ID)
	if err != nil {
		return err
	}
	if _, err := sess.Append(convo.RoleUser, question, false); err != nil {
		return err
	}

	registry := buildRegistry(cfg, logger)
	orchestrator := agent.NewOrchestrator(client, cfg.Gemini.Model, registry, logger)

	fmt.Fprintln(stdout, orchestrator.Turn(ctx, sess.History(), nil))
	return nil
}

// buildLogger creates the process logger from config. Format must be
// "text" or "json"; anything else defaults to text.
func buildLogger(w io.Writer, cfg *config.Config) (*slog.Logger, error) {
	level := slog.LevelInfo
	if cfg.LogLevel != "" {
		parsed, err := config.ParseLogLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		level = parsed
	}

	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler), nil
}

// loadConfig locates and parses the YAML configuration file. If
// explicit is non-empty, that exact path is used (and must exist).
func loadConfig(explicit string) (*config.Config, string, error) {
	cfgPath, err := config.FindConfig(explicit)
	if err != nil {
		return nil, "", err
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, cfgPath, fmt.Errorf("load config %s: %w", cfgPath, err)
	}

	return cfg, cfgPath, nil
}

// openStore opens the configured conversation store. An empty path
// means conversations live only in memory.
func openStore(cfg *config.Config, logger *slog.Logger) (convo.Store, error) {
	if cfg.Store.Path == "" {
		logger.Warn("no store path configured; conversations are not persisted")
		return convo.NewMemStore(), nil
	}
	store, err := convo.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", cfg.Store.Path, err)
	}
	logger.Info("store opened", "path", cfg.Store.Path)
	return store, nil
}

// buildModelClient constructs the Gemini client from config.
func buildModelClient(cfg *config.Config, logger *slog.Logger) (llm.Client, error) {
	if !cfg.Gemini.Configured() {
		return nil, fmt.Errorf("gemini api_key is not configured (set gemini.api_key or GEMINI_API_KEY in config)")
	}
	return llm.NewGeminiClient(cfg.Gemini.APIKey, cfg.Gemini.Timeout, logger)
}

// buildRegistry wires the capability registry with the search stack.
func buildRegistry(cfg *config.Config, logger *slog.Logger) *tools.Registry {
	manager := search.NewManager(cfg.Search.Provider)
	manager.Register(search.NewDuckDuckGo(cfg.Search.SearchTimeout))

	geocoder := search.NewNominatim(cfg.Search.GeocodeTimeout)
	searcher := search.NewResourceSearcher(manager, geocoder, cfg.Search.GeocodeTimeout, cfg.Search.SearchTimeout, logger)

	registry := tools.NewRegistry()
	if err := search.RegisterTool(registry, searcher); err != nil {
		// Both names are registered at construction; this cannot fail
		// with the builtin manifest.
		logger.Error("register search capability", "error", err)
	}
	return registry
}
