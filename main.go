// Command gxtract is an MCP server exposing GroundX document-search
// tools, backed by an in-memory metadata cache of the remote catalog.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"

	"log/slog"

	"github.com/jessevdk/go-flags"
	"github.com/user/gxtract/internal/api"
	"github.com/user/gxtract/internal/config"
	"github.com/user/gxtract/internal/groundx"
	"github.com/user/gxtract/internal/metadata"
	mcpserver "github.com/user/gxtract/internal/mcp"
	"github.com/user/gxtract/internal/tools"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load(args)
	if err != nil {
		if flags.WroteHelp(err) {
			fmt.Fprintln(os.Stderr, err)
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	logger := cfg.NewLogger()
	slog.SetDefault(logger)
	logger.Info("gxtract starting",
		"transport", cfg.Transport,
		"cache_disabled", cfg.DisableCache,
		"has_api_key", cfg.APIKey != "")

	client := groundx.NewClient(groundx.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.APIBaseURL,
		Logger:  logger,
	})
	cache := metadata.NewCache(client, logger)
	direct := metadata.NewDirect(client, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.DisableCache {
		logger.Info("metadata cache disabled; all lookups will use direct API calls")
	} else {
		logger.Info("initializing metadata cache")
		if cache.Refresh(ctx) {
			logger.Info("metadata cache populated")
		} else {
			logger.Warn("initial metadata cache refresh failed")
			if cfg.FailOnCacheInitError {
				logger.Error("configured to exit on cache initialization failure")
				return 1
			}
		}
		cache.StartAutoRefresh(ctx, cfg.RefreshInterval)
	}

	registry := tools.NewRegistry(logger,
		tools.NewGroundXTools(client, cache, direct, tools.GroundXConfig{
			DefaultBucketID: cfg.DefaultBucketID,
			CacheDisabled:   cfg.DisableCache,
		}, logger),
		tools.NewCacheTools(cache, logger),
	)
	server := mcpserver.NewServer(registry, logger)

	if cfg.DiagnosticsAddr != "" {
		go func() {
			if err := api.ListenAndServe(cfg.DiagnosticsAddr, cache, logger); err != nil {
				logger.Error("diagnostics API stopped", "error", err)
			}
		}()
	}

	switch cfg.Transport {
	case "stdio":
		logger.Info("serving MCP over stdio")
		err = mcpserver.ServeStdio(ctx, server)
	case "http":
		err = mcpserver.ServeHTTP(net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)), server, logger)
	}
	if err != nil {
		logger.Error("server stopped", "error", err)
		return 1
	}

	logger.Info("gxtract shut down")
	return 0
}
