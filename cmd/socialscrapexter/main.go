// cmd/socialscrapexter/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/valpere/SocialScrapexter/internal/config"
	scrapeerrors "github.com/valpere/SocialScrapexter/internal/errors"
	"github.com/valpere/SocialScrapexter/internal/social"
	"github.com/valpere/SocialScrapexter/internal/utils"
	"github.com/valpere/SocialScrapexter/pkg/api"
)

var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
	verbose   bool
)

// Global error service for CLI output
var errorService = scrapeerrors.NewService(scrapeerrors.CircuitBreakerConfig{})

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	args, verbose = stripVerbose(args)
	errorService.WithVerbose(verbose)

	if len(args) < 1 {
		printUsage(stdout)
		return 1
	}

	var err error
	switch args[0] {
	case "serve":
		err = serveCommand(args[1:])
	case "scrape":
		err = scrapeCommand(args[1:], stdout)
	case "validate":
		err = validateCommand(args[1:], stdout)
	case "template":
		err = templateCommand(stdout)
	case "version", "--version":
		printVersion(stdout)
	case "help", "--help", "-h":
		printUsage(stdout)
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", args[0])
		printUsage(stderr)
		return 1
	}

	if err != nil {
		fmt.Fprint(stderr, errorService.FormatErrorForCLI(err))
		return errorService.GetExitCode(err)
	}
	return 0
}

func stripVerbose(args []string) ([]string, bool) {
	out := make([]string, 0, len(args))
	found := false
	for _, a := range args {
		if a == "-v" || a == "--verbose" {
			found = true
			continue
		}
		out = append(out, a)
	}
	return out, found
}

// flagValue returns the value following name and the remaining arguments.
func flagValue(args []string, name string) (string, []string, error) {
	rest := make([]string, 0, len(args))
	value := ""
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == name:
			if i+1 >= len(args) {
				return "", nil, fmt.Errorf("flag %s requires a value", name)
			}
			value = args[i+1]
			i++
		case strings.HasPrefix(args[i], name+"="):
			value = strings.TrimPrefix(args[i], name+"=")
		default:
			rest = append(rest, args[i])
		}
	}
	return value, rest, nil
}

func serveCommand(args []string) error {
	configPath := ""
	if len(args) > 0 {
		configPath = args[0]
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	configureLogging(cfg, verbose)
	logger := utils.NewComponentLogger("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	a.health.Start(ctx)
	defer a.health.Stop()

	if configPath != "" {
		watcher, err := config.NewConfigWatcher(configPath, utils.NewComponentLogger("config"))
		if err != nil {
			logger.Warnf("configuration hot reload disabled: %v", err)
		} else {
			watcher.OnChange(a.reload)
			defer watcher.Close()
		}
	}

	opts := []api.Option{
		api.WithHealth(a.health),
		api.WithRateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst),
		api.WithCORSOrigins(cfg.Server.CORSOrigins),
	}
	if a.store != nil {
		opts = append(opts, api.WithHistory(a.store))
	}
	if a.metrics != nil {
		opts = append(opts, api.WithMetrics(a.metrics, cfg.Metrics.Path))
	}

	logger.Infof("SocialScrapexter %s starting with %s engine; platforms: %v",
		version, cfg.Browser.Engine, a.service.Platforms())

	return api.NewServer(a.service, opts...).ListenAndServe(ctx, cfg.Server)
}

func scrapeCommand(args []string, stdout io.Writer) error {
	configPath, rest, err := flagValue(args, "--config")
	if err != nil {
		return scrapeerrors.NewValidationError("config", err.Error())
	}
	if len(rest) != 2 {
		return scrapeerrors.NewValidationError("args", "usage: socialscrapexter scrape <platform> <url> [--config file]")
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	configureLogging(cfg, verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.service.GetMetrics(ctx, social.Request{Platform: rest[0], URL: rest[1]})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func validateCommand(args []string, stdout io.Writer) error {
	if len(args) < 1 {
		return scrapeerrors.NewValidationError("args", "usage: socialscrapexter validate <config.yaml>")
	}

	cfg, err := loadConfig(args[0])
	if err != nil {
		return err
	}

	result := cfg.ValidateDetailed()
	for _, w := range result.Warnings {
		fmt.Fprintf(stdout, "Warning: %s\n", w)
	}
	fmt.Fprintf(stdout, "Configuration is valid: %s\n", args[0])
	fmt.Fprintf(stdout, "  engine:    %s\n", cfg.Browser.Engine)
	fmt.Fprintf(stdout, "  platforms: %s\n", strings.Join(enabledPlatforms(cfg), ", "))
	return nil
}

func enabledPlatforms(cfg *config.Config) []string {
	var names []string
	for _, name := range []string{"twitter", "facebook", "instagram", "linkedin"} {
		if opts, ok := cfg.Platforms[name]; ok && !opts.Disabled {
			names = append(names, name)
		}
	}
	return names
}

func templateCommand(stdout io.Writer) error {
	_, err := fmt.Fprint(stdout, config.GenerateTemplate())
	return err
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "SocialScrapexter - Social media profile metrics scraper")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  socialscrapexter serve [config.yaml]                   Start the HTTP API")
	fmt.Fprintln(w, "  socialscrapexter scrape <platform> <url> [--config f]  Scrape one profile and print JSON")
	fmt.Fprintln(w, "  socialscrapexter validate <config.yaml>                Validate a configuration file")
	fmt.Fprintln(w, "  socialscrapexter template                              Print an example configuration")
	fmt.Fprintln(w, "  socialscrapexter version                               Show version information")
	fmt.Fprintln(w, "  socialscrapexter help                                  Show this help")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -v, --verbose   Debug logging and technical error details")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Platforms: twitter (x), facebook, instagram, linkedin")
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "SocialScrapexter %s\n", version)
	fmt.Fprintf(w, "Build time: %s\n", buildTime)
	fmt.Fprintf(w, "Git commit: %s\n", gitCommit)
}
