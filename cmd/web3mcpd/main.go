package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"Web3-MCP/internal/api"
	"Web3-MCP/internal/config"
	"Web3-MCP/internal/events"
	"Web3-MCP/internal/tools"
	"Web3-MCP/internal/web3"
	"Web3-MCP/internal/web3/ethereum"
	"Web3-MCP/pkg/logger"

	"github.com/mark3labs/mcp-go/server"
)

var version = "dev"

// main 是 Web3-MCP 守护进程的入口。
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("web3mcpd 运行失败: %v", err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(os.Getenv("WEB3MCP_ENV_FILE"))
	if err != nil {
		return err
	}

	outputs := cfg.Logging.Outputs
	if cfg.Server.Transport == "stdio" && len(outputs) == 0 {
		// stdout 承载协议帧，日志只能写 stderr。
		outputs = []string{"stderr"}
	}
	if err := logger.Init(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: outputs,
		Audit: logger.AuditConfig{
			Path:       cfg.Logging.AuditPath,
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAgeDays: cfg.Logging.MaxAgeDays,
		},
	}); err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	networks, err := web3.LoadNetworkTable(cfg.Web3.NetworksFile)
	if err != nil {
		return err
	}
	profile, err := networks.Profile(cfg.Web3.Network)
	if err != nil {
		return err
	}

	publisher, err := events.New(cfg.Events, logger.Audit())
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.L().Warn("关闭事件发布器失败", slog.Any("error", err))
		}
	}()

	connector, err := ethereum.NewConnector(ethereum.Config{
		RPCURL:       cfg.Web3.RPCURL,
		PrivateKey:   cfg.Web3.PrivateKey,
		PollInterval: cfg.Web3.ReceiptPollInterval,
	})
	if err != nil {
		return err
	}
	defer connector.Close()

	toolkit, err := tools.New(tools.Options{
		Network:             profile,
		Sessions:            connector,
		Publisher:           publisher,
		ConfirmationTimeout: cfg.Web3.ConfirmationTimeout,
		PriceStaleness:      cfg.Web3.PriceStaleness,
	})
	if err != nil {
		return err
	}
	mcpServer := tools.NewMCPServer(toolkit, version)

	logger.L().Info("web3 mcp server starting",
		slog.String("network", profile.Name),
		slog.String("transport", cfg.Server.Transport),
		slog.String("version", version),
	)

	switch cfg.Server.Transport {
	case "stdio":
		err = server.NewStdioServer(mcpServer).Listen(ctx, os.Stdin, os.Stdout)
	default:
		srv := api.NewServer(api.Config{
			Addr:      cfg.Server.Address(),
			Endpoint:  cfg.Server.Endpoint,
			AuthToken: cfg.Server.AuthToken,
			Network:   profile.Name,
			Ready:     connector.Ready,
		}, mcpServer)
		err = srv.Start(ctx)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
