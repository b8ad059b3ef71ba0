package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cosmossdk.io/log"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/stakevault/api"
)

func main() {
	host := flag.String("host", "0.0.0.0", "Server host")
	port := flag.Int("port", 8080, "Server port")
	admin := flag.String("admin", "", "Bootstrap admin address allowed to initialize staking")
	mintAuthority := flag.String("mint-authority", "", "Address allowed to mint test tokens")
	benchMode := flag.Bool("bench", false, "Enable benchmark mode (no rate limiting)")
	flag.Parse()

	logger := log.NewLogger(os.Stderr)

	for name, addr := range map[string]string{"admin": *admin, "mint-authority": *mintAuthority} {
		if addr == "" {
			logger.Warn("Address flag not set", "flag", name)
			continue
		}
		if _, err := sdk.AccAddressFromBech32(addr); err != nil {
			logger.Error("Invalid address flag", "flag", name, "error", err)
			os.Exit(1)
		}
	}

	config := api.DefaultConfig()
	config.Host = *host
	config.Port = *port
	config.BootstrapAdmin = *admin
	config.MintAuthority = *mintAuthority
	config.DisableRateLimit = *benchMode

	server, err := api.NewServer(config, logger)
	if err != nil {
		logger.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("Stakevault API server started",
		"addr", config.Host,
		"port", config.Port,
		"websocket", "/ws",
		"health", "/health",
	)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server exited")
}
