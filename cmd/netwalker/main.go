package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"netwalker/internal/boundary"
	"netwalker/internal/config"
	"netwalker/internal/connector"
	"netwalker/internal/facts"
	"netwalker/internal/repository/sqlite"
	"netwalker/internal/sweep"
	"netwalker/internal/walker"
)

func main() {
	cfgPath := flag.String("config", "./netwalker.yaml", "path to config file")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if *debug {
		log = log.Level(zerolog.DebugLevel)
	} else {
		log = log.Level(zerolog.InfoLevel)
	}

	if err := run(*cfgPath, *dbPath, log); err != nil {
		log.Fatal().Err(err).Msg("discovery run failed")
	}
}

func run(cfgPath, dbPath string, log zerolog.Logger) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := sqlite.New(cfg.Database.Path, log)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer repo.Close()
	log.Info().Str("path", cfg.Database.Path).Msg("database opened")

	creds, err := buildCredentials(cfg)
	if err != nil {
		return err
	}

	seeds := make([]walker.Seed, 0, len(cfg.Seeds))
	for _, s := range cfg.Seeds {
		name := s.Name
		if name == "" {
			name = s.Address
		}
		seeds = append(seeds, walker.Seed{Name: name, Address: s.Address})
	}

	if len(cfg.Sweep.Networks) > 0 {
		scanner := sweep.NewScanner(cfg.Walk.DiscoveryTimeout.Duration(), log)
		addrs, err := scanner.Run(ctx, cfg.Sweep.Networks)
		if err != nil {
			// A failed sweep still leaves the configured seeds; only
			// abort when the sweep was the sole seed source.
			if len(seeds) == 0 {
				return fmt.Errorf("seed sweep: %w", err)
			}
			log.Warn().Err(err).Msg("seed sweep failed, continuing with configured seeds")
		}
		for _, addr := range addrs {
			seeds = append(seeds, walker.Seed{Name: addr, Address: addr})
		}
	}

	eng, err := walker.New(walker.Options{
		Seeds:            seeds,
		MaxDepth:         *cfg.Walk.MaxDepth,
		Concurrency:      cfg.Walk.ConcurrentConnections,
		DiscoveryTimeout: cfg.Walk.DiscoveryTimeout.Duration(),
		ConnectTimeout:   cfg.Walk.ConnectTimeout.Duration(),
		RetryAttempts:    *cfg.Walk.RetryAttempts,
		RetryBackoff:     cfg.Walk.RetryBackoff.Duration(),
		Credentials:      creds,
		Boundary: boundary.Policy{
			Pattern:     cfg.Boundary.SitePattern,
			CollectSite: cfg.Boundary.CollectSite,
		},
		ExcludeCapabilities: cfg.Exclude.Capabilities,
		ExcludePlatforms:    cfg.Exclude.Platforms,
	}, repo, connector.NewSSH(cfg.Walk.CommandTimeout.Duration()), facts.NewCiscoGatherer(), log)
	if err != nil {
		return err
	}

	summary, runErr := eng.Run(ctx)
	if summary != nil {
		fmt.Printf("\nDiscovery run %s\n", summary.RunID)
		fmt.Printf("  duration:         %s\n", summary.Duration.Round(time.Millisecond))
		fmt.Printf("  devices walked:   %d\n", summary.Walked)
		fmt.Printf("  devices failed:   %d\n", summary.Failed)
		fmt.Printf("  skipped boundary: %d\n", summary.SkippedBoundary)
		fmt.Printf("  skipped depth:    %d\n", summary.SkippedDepth)
		fmt.Printf("  skipped excluded: %d\n", summary.SkippedExcluded)
		fmt.Printf("  total seen:       %d\n", summary.Total)
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

func buildCredentials(cfg *config.Config) (connector.Credentials, error) {
	creds := connector.Credentials{
		Username:   cfg.Credentials.Username,
		Password:   cfg.Credentials.Password,
		Passphrase: cfg.Credentials.Passphrase,
	}
	if cfg.Credentials.SSHKeyPath != "" {
		key, err := os.ReadFile(cfg.Credentials.SSHKeyPath)
		if err != nil {
			return creds, fmt.Errorf("reading ssh key: %w", err)
		}
		creds.PrivateKey = string(key)
	}
	return creds, nil
}
