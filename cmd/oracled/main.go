package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/mario-areias/padding-oracle/cbc"
	"github.com/mario-areias/padding-oracle/internal/config"
	"github.com/mario-areias/padding-oracle/internal/helpers"
	"github.com/mario-areias/padding-oracle/key"
	"github.com/mario-areias/padding-oracle/oracle"
)

func main() {
	cfg := config.Load()

	host := flag.String("ip", cfg.Oracle.Host, "IP address to bind to")
	port := flag.Int("port", cfg.Oracle.Port, "Port to listen on")
	cipherName := flag.String("cipher", cfg.Oracle.Cipher, "cipher: aes or blowfish")
	secret := flag.String("secret", cfg.Oracle.Secret, "message served encrypted on /challenge")
	hexKey := flag.String("key", cfg.Oracle.Key, "hex encoded key; random when empty")
	debug := flag.Bool("debug", cfg.Attack.Debug, "log rejected probes")
	flag.Parse()

	cfg.Oracle.Host = *host
	cfg.Oracle.Port = *port
	cfg.Oracle.Cipher = *cipherName
	cfg.Oracle.Secret = *secret
	cfg.Oracle.Key = *hexKey

	fmt.Println("Configuration loaded:")
	fmt.Println(cfg)

	logger := helpers.NewLogger("oracle")
	logger.SetDebug(*debug)

	k, err := key.Parse(cfg.Oracle.Key)
	if err != nil {
		log.Fatalf("Invalid key: %v", err)
	}

	c, err := cbc.ByName(cfg.Oracle.Cipher, k)
	if err != nil {
		log.Fatalf("Failed to create cipher: %v", err)
	}

	s, err := oracle.NewServer(oracle.NewRandomLocal(c), []byte(cfg.Oracle.Secret), logger)
	if err != nil {
		log.Fatalf("Failed to create oracle: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", err)
		}
	}()

	logger.Info("listening", cfg.Addr(), c.Name())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Oracle server failed: %v", err)
	}
	logger.Info("stopped after queries", s.Queries())
}
