package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/petminder/breed-api/internal/config"
	"github.com/petminder/breed-api/internal/handlers"
	"github.com/petminder/breed-api/internal/registry"
)

func enableCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		modelsDir  string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "breed-api",
		Short: "Pet breed classification API",
		Long: "Serves pet breed predictions over HTTP with selectable inference " +
			"strategies: base, tta, mix, ensemble and multitask.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if modelsDir != "" {
				cfg.ModelsDir = modelsDir
			}
			if port != 0 {
				cfg.Port = port
			}
			return serve(cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	cmd.Flags().StringVarP(&modelsDir, "models-dir", "m", "", "directory to scan for .onnx models")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides config)")

	return cmd
}

func serve(cfg config.Config) error {
	reg := registry.New(cfg.ModelsDir)
	defer reg.Close()

	paths, err := reg.ModelPaths()
	if err != nil {
		log.Printf("Warning: %v", err)
	} else {
		log.Printf("Found %d model(s) in %s", len(paths), cfg.ModelsDir)
	}

	handler := handlers.NewHandler(reg, cfg)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", enableCORS(handler.Health))
	mux.HandleFunc("/models", enableCORS(handler.Models))
	mux.HandleFunc("/predict", enableCORS(handler.Predict))

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on port %d", cfg.Port)
		log.Printf("Default model: %s", cfg.DefaultModel)
		log.Println("Endpoints:")
		log.Println("  GET  /health  - Health check")
		log.Println("  GET  /models  - List available models")
		log.Println("  POST /predict - Predict from image upload (?strategy=base|tta|mix|ensemble|multitask)")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		log.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}

	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}
