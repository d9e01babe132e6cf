package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mayedalfalasi/bizdoc-min/internal/config"
	"github.com/mayedalfalasi/bizdoc-min/internal/httpapi"
	"github.com/mayedalfalasi/bizdoc-min/internal/pipeline"
)

func pipelineConfig(cfg config.Config) pipeline.Config {
	return pipeline.Config{
		OCRKey:           cfg.OCR.Key,
		LLMKey:           cfg.LLM.Key,
		LLMBaseURL:       cfg.LLM.BaseURL,
		LLMModel:         cfg.LLM.Model,
		SearchKey:        cfg.Search.Key,
		ChartEndpoint:    cfg.Chart.Endpoint,
		ConfidenceFloor:  cfg.Report.ConfidenceFloor,
		OCRTimeout:       cfg.OCR.Timeout.Std(),
		LLMTimeout:       cfg.LLM.Timeout.Std(),
		SearchTimeout:    cfg.Search.Timeout.Std(),
		ChartTimeout:     cfg.Chart.Timeout.Std(),
		MaxSearchResults: cfg.Search.MaxResults,
	}
}

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the report API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Serve.Addr = addr
			}
			p, err := pipeline.New(pipelineConfig(cfg))
			if err != nil {
				return err
			}

			server := &httpapi.Server{
				Pipeline: p,
				Health: httpapi.Health{
					LLMConfigured:    cfg.LLM.Key != "",
					OCRConfigured:    cfg.OCR.Key != "",
					SearchConfigured: cfg.Search.Key != "",
				},
			}
			srv := &http.Server{
				Addr:              cfg.Serve.Addr,
				Handler:           server.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", cfg.Serve.Addr).Msg("listening")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
				log.Info().Msg("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	return cmd
}
