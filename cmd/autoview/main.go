// Entry point for the autoview inspector daemon: HTTP bridge for the
// embedding dev tool, optional MCP stdio transport for AI tooling.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/autoview/httpapi"
	"github.com/hazyhaar/autoview/inspect"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file (env-only when empty)")
	previewURL := flag.String("url", "", "preview URL to open and start inspecting at boot")
	mcpStdio := flag.Bool("mcp", false, "also serve the MCP tools on stdio")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	var cfg *inspect.FileConfig
	if *configPath != "" {
		loaded, err := inspect.LoadConfigFile(*configPath)
		if err != nil {
			slog.Error("load config", "path", *configPath, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	} else {
		cfg = inspect.LoadConfigEnv()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rt, err := inspect.NewRuntime(cfg, logger)
	if err != nil {
		slog.Error("runtime", "error", err)
		os.Exit(1)
	}
	defer rt.Close(context.Background())

	if err := rt.Start(ctx); err != nil {
		slog.Error("runtime start", "error", err)
		os.Exit(1)
	}
	svc := rt.Service()

	if *previewURL != "" {
		id, err := svc.OpenSurface(ctx, *previewURL)
		if err != nil {
			slog.Error("open preview", "url", *previewURL, "error", err)
			os.Exit(1)
		}
		if _, err := svc.Start(ctx, id); err != nil {
			slog.Error("start inspection", "surface", id, "error", err)
			os.Exit(1)
		}
	}

	if *mcpStdio {
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "autoview",
			Version: "1.0.0",
		}, nil)
		svc.RegisterMCP(mcpSrv)
		go func() {
			if err := mcpSrv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
				slog.Error("mcp stdio", "error", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           httpapi.NewServer(svc, logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}
