package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yorulabs/skills-mcp/internal/config"
	"github.com/yorulabs/skills-mcp/internal/server"
	"github.com/yorulabs/skills-mcp/pkg/logger"
)

// mcpCmd serves MCP over stdio, the transport agent hosts spawn
// directly. Logs must not touch stdout here; the root --stderr flag or
// the default file logger keep the protocol stream clean.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the Model Context Protocol on stdin/stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		service, err := initService(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize skills service: %w", err)
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigChan
			logger.Info("Shutting down...")
			cancel()
		}()

		mcpServer := server.NewSkillsMCPServer(service, server.Version)

		logger.Info("MCP server ready (stdio)")
		if err := mcpServer.ServeStdio(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}

		logger.Info("MCP server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
