package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/codefionn/rechenschnell/internal/cli"
	"github.com/codefionn/rechenschnell/internal/config"
	"github.com/codefionn/rechenschnell/internal/logger"
	"github.com/codefionn/rechenschnell/internal/pprof"
	"github.com/codefionn/rechenschnell/internal/tui"
	"github.com/codefionn/rechenschnell/internal/web"
)

type stringSlice []string

func (s *stringSlice) String() string {
	if s == nil {
		return ""
	}
	return strings.Join(*s, ",")
}

func (s *stringSlice) Set(value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("value cannot be empty")
	}
	*s = append(*s, value)
	return nil
}

// cliArgs is the parsed command line.
type cliArgs struct {
	configPath  string
	web         bool
	addr        string
	openBrowser bool
	expressions []string
	keys        bool
	profiling   pprof.Config
}

func main() {
	if err := run(); err != nil {
		if !errors.Is(err, cli.ErrInvalidInput) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run() (err error) {
	args, parseErr := parseCLIArgs(os.Args[1:], os.Stderr)
	if parseErr != nil {
		if errors.Is(parseErr, flag.ErrHelp) {
			return nil
		}
		return parseErr
	}

	cfg, err := config.Load(args.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ApplyEnv()
	args.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	if initErr := logger.Init(logger.ParseLevel(cfg.LogLevel), cfg.LogPath); initErr != nil {
		return fmt.Errorf("failed to initialize logger: %w", initErr)
	}
	defer func() {
		if err != nil && !errors.Is(err, cli.ErrInvalidInput) {
			logger.Error("Fatal error: %v", err)
		}
		if closeErr := logger.Global().Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close logger: %v\n", closeErr)
		}
	}()

	logger.Info("rechenschnell starting")
	logger.Debug("Configuration loaded: path=%s, log_level=%s, log_path=%s", args.configPath, cfg.LogLevel, cfg.LogPath)

	if args.profiling.Enabled() {
		profiler := pprof.NewHandler(args.profiling)
		if err := profiler.Start(); err != nil {
			return fmt.Errorf("failed to start profiling: %w", err)
		}
		defer func() {
			if stopErr := profiler.Stop(); stopErr != nil {
				logger.Warn("Failed to stop profiling: %v", stopErr)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case len(args.expressions) > 0:
		return cli.New(cfg, cli.Options{Keys: args.keys}, os.Stdout, os.Stderr).Evaluate(args.expressions)
	case args.web:
		return runWeb(ctx, cfg, args.configPath)
	case !term.IsTerminal(int(os.Stdin.Fd())):
		return cli.New(cfg, cli.Options{Keys: args.keys}, os.Stdout, os.Stderr).Stream(ctx, os.Stdin)
	default:
		return tui.Run(ctx, cfg)
	}
}

func parseCLIArgs(argv []string, output io.Writer) (*cliArgs, error) {
	fs := flag.NewFlagSet("rechenschnell", flag.ContinueOnError)
	fs.SetOutput(output)

	var (
		args        cliArgs
		expressions stringSlice
		showHelp    bool
	)

	fs.StringVar(&args.configPath, "config", config.GetConfigPath(), "Path to the config file (.json, .yaml or .yml)")
	fs.BoolVar(&args.web, "web", false, "Serve the calculator in the browser")
	fs.StringVar(&args.addr, "addr", "", "Listen address for -web (overrides web.addr)")
	fs.BoolVar(&args.openBrowser, "open", false, "Open the browser when -web starts")
	fs.Var(&expressions, "e", "Evaluate an expression and print the result (repeatable, accepts a leading -)")
	fs.BoolVar(&args.keys, "keys", false, "Treat input lines as key presses on one calculator instead of expressions")
	fs.StringVar(&args.profiling.HTTPAddr, "pprof", "", "Serve /debug/pprof/ on this address")
	fs.StringVar(&args.profiling.CPUProfile, "cpuprofile", "", "Write a CPU profile to this file")
	fs.StringVar(&args.profiling.HeapProfile, "memprofile", "", "Write a heap profile to this file on exit")
	fs.BoolVar(&showHelp, "help", false, "Show usage information")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [options] [expression ...]\n\n", fs.Name())
		fmt.Fprintln(fs.Output(), "Without expressions, reads lines from stdin when it is not a terminal")
		fmt.Fprintln(fs.Output(), "and opens the terminal calculator otherwise.")
		fmt.Fprintf(fs.Output(), "Put expressions starting with '-' after --, as in: %s -- -5+3\n", fs.Name())
		fmt.Fprintln(fs.Output(), "\nOptions:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(argv); err != nil {
		return nil, err
	}

	if showHelp {
		fs.Usage()
		return nil, flag.ErrHelp
	}

	args.expressions = append(expressions, fs.Args()...)
	for _, expr := range fs.Args() {
		if strings.TrimSpace(expr) == "" {
			return nil, fmt.Errorf("expression must not be empty")
		}
	}

	if args.web && len(args.expressions) > 0 {
		return nil, fmt.Errorf("-web does not accept expressions")
	}
	if !args.web && (args.addr != "" || args.openBrowser) {
		return nil, fmt.Errorf("-addr and -open require -web")
	}
	return &args, nil
}

// apply copies command line overrides into cfg.
func (a *cliArgs) apply(cfg *config.Config) {
	if a.addr != "" {
		cfg.Web.Addr = a.addr
	}
	if a.openBrowser {
		cfg.Web.OpenBrowser = true
	}
}

func runWeb(ctx context.Context, cfg *config.Config, configPath string) error {
	srv, err := web.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create web server: %w", err)
	}
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("failed to start web server: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Calculator available at %s\n", srv.GetURL())
	if cfg.Web.OpenBrowser {
		if err := srv.OpenBrowser(); err != nil {
			logger.Warn("Failed to open browser: %v", err)
		}
	}

	go func() {
		err := config.Watch(ctx, configPath, func(updated *config.Config) {
			level := logger.ParseLevel(updated.LogLevel)
			logger.Global().SetLevel(level)
			logger.Info("log level changed to %s", level)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("Config watcher stopped: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown requested")
	return srv.Stop()
}
