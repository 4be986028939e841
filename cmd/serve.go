package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yorulabs/skills-mcp/internal/api"
	"github.com/yorulabs/skills-mcp/internal/config"
	"github.com/yorulabs/skills-mcp/internal/server"
	"github.com/yorulabs/skills-mcp/internal/skill"
	"github.com/yorulabs/skills-mcp/internal/skill/executor"
	"github.com/yorulabs/skills-mcp/pkg/logger"
)

var (
	addrHTTP, addrGrpc string
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the skills server (HTTP REST API + MCP endpoint + gRPC health)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if addrHTTP != "" {
			cfg.Server.HTTP.Addr = addrHTTP
		}
		if addrGrpc != "" {
			cfg.Server.GRPC.Addr = addrGrpc
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

		service, err := initService(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize skills service: %w", err)
		}

		go func() {
			if err := server.Serve(ctx, cfg, service); err != nil {
				logger.Errorf("Server error: %v", err)
				cancel()
			}
		}()

		sig := <-quit
		logger.Infof("Received signal %s, shutting down...", sig.String())
		cancel()

		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&addrHTTP, "addr-http", "", "HTTP server address (overrides config file)")
	serveCmd.Flags().StringVar(&addrGrpc, "addr-grpc", "", "gRPC server address (overrides config file)")

	_ = viper.BindPFlag("server.http.addr", serveCmd.Flags().Lookup("addr-http"))
	_ = viper.BindPFlag("server.grpc.addr", serveCmd.Flags().Lookup("addr-grpc"))

	rootCmd.AddCommand(serveCmd)
}

// initService builds the registry, resolver, executor and facade from
// config, with an eager initial scan so startup surfaces bad skills.
func initService(cfg *config.Config) (*api.Service, error) {
	registry := skill.NewRegistry(cfg.Skills.Dir)

	warnings, err := registry.Scan()
	if err != nil {
		return nil, fmt.Errorf("failed to scan skills directory %s: %w", cfg.Skills.Dir, err)
	}
	for _, w := range warnings {
		logger.Warnf("Skipped skill directory %s: %s", w.Dir, w.Reason)
	}

	resolver := skill.NewResolver(registry)
	exec := executor.New(registry,
		executor.WithDefaultTimeout(cfg.Skills.ExecTimeout),
		executor.WithMaxConcurrent(cfg.Skills.MaxConcurrent),
	)

	return api.NewService(registry, resolver, exec), nil
}
