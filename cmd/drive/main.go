package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sir_venger/drive_lite/internal/app/drivehttp"
	"github.com/sir_venger/drive_lite/internal/config"
)

// main инициализирует HTTP-сервис и обеспечивает корректное завершение по сигналу.
func main() {
	addr := flag.String("addr", "", "listen address (overrides config)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler, srv, err := drivehttp.NewServer(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}

	// Фоновый GC: возвращает место из-под брошенных сессий загрузки.
	gcStop := srv.FilesService.StartGC(
		time.Duration(cfg.GCTTLHours)*time.Hour,
		time.Duration(cfg.GCIntervalMin)*time.Minute,
	)
	defer gcStop()

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: handler,
	}

	// Сценарий graceful shutdown при получении SIGTERM/SIGINT.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("shutdown error: %v", err)
		}
	}()

	log.Printf("drive_lite listening on %s (uploads=%s, storage=%s, GC ttl=%dh, every=%dm)",
		cfg.ListenAddr, cfg.UploadDir, cfg.StorageDir, cfg.GCTTLHours, cfg.GCIntervalMin)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("final shutdown error: %v", err)
	}
}
