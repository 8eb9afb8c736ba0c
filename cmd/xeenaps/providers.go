package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xeenaps/pkm/internal/adapter/gas"
	"github.com/xeenaps/pkm/internal/adapter/gemini"
	"github.com/xeenaps/pkm/internal/adapter/litellm"
	xnats "github.com/xeenaps/pkm/internal/adapter/nats"
	"github.com/xeenaps/pkm/internal/adapter/natskv"
	"github.com/xeenaps/pkm/internal/adapter/ristretto"
	"github.com/xeenaps/pkm/internal/adapter/s3vault"
	"github.com/xeenaps/pkm/internal/adapter/tiered"
	"github.com/xeenaps/pkm/internal/config"
	"github.com/xeenaps/pkm/internal/port/ai"
	"github.com/xeenaps/pkm/internal/port/cache"
	"github.com/xeenaps/pkm/internal/port/filestore"
	"github.com/xeenaps/pkm/internal/resilience"
)

// Provider wiring selected by configuration.

func breaker(cfg *config.Config, name string) *resilience.Breaker {
	return resilience.Named(name, cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)
}

// newFileStore returns the vault file store for storage.driver.
func newFileStore(ctx context.Context, cfg *config.Config, gasClient *gas.Client) (filestore.Store, error) {
	switch cfg.Storage.Driver {
	case "s3":
		store, err := s3vault.New(ctx, s3vault.Config{
			Bucket:    cfg.Storage.S3Bucket,
			Region:    cfg.Storage.S3Region,
			Endpoint:  cfg.Storage.S3Endpoint,
			PathStyle: cfg.Storage.S3PathStyle,
			AccessKey: cfg.Storage.S3AccessKey,
			SecretKey: cfg.Storage.S3SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 vault: %w", err)
		}
		slog.Info("file store ready", "driver", "s3", "node", store.NodeURL())
		return store, nil
	default:
		if gasClient == nil {
			return nil, fmt.Errorf("storage driver gas requires storage.gas_url")
		}
		slog.Info("file store ready", "driver", "gas")
		return gasClient, nil
	}
}

// newGenerator returns the text generator for ai.provider.
func newGenerator(ctx context.Context, cfg *config.Config, gasClient *gas.Client, llm *litellm.Client) (ai.Generator, error) {
	switch cfg.AI.Provider {
	case ai.ProviderLiteLLM:
		if llm == nil {
			return nil, fmt.Errorf("ai provider litellm requires litellm.url")
		}
		return llm, nil
	case ai.ProviderGAS:
		if gasClient == nil {
			return nil, fmt.Errorf("ai provider gas requires storage.gas_url")
		}
		return gasClient.Generator(ai.ProviderGemini), nil
	default:
		g, err := gemini.New(ctx, cfg.AI.GeminiAPIKey, cfg.AI.Model)
		if err != nil {
			return nil, fmt.Errorf("gemini: %w", err)
		}
		g.SetBreaker(breaker(cfg, "gemini"))
		return g, nil
	}
}

// newCache returns the ristretto L1, tiered over a NATS KV bucket when a
// queue is connected and cache.l2_bucket is set. The returned func releases
// the L1.
func newCache(ctx context.Context, cfg *config.Config, queue *xnats.Queue) (cache.Cache, func(), error) {
	l1, err := ristretto.New(cfg.Cache.L1MaxSizeMB)
	if err != nil {
		return nil, nil, fmt.Errorf("ristretto: %w", err)
	}
	if queue == nil || cfg.Cache.L2Bucket == "" {
		return l1, l1.Close, nil
	}
	l2, err := natskv.Open(ctx, queue.JetStream(), cfg.Cache.L2Bucket, cfg.Cache.L2TTL)
	if err != nil {
		l1.Close()
		return nil, nil, err
	}
	slog.Info("tiered cache enabled", "bucket", cfg.Cache.L2Bucket)
	return tiered.New(l1, l2, cfg.Cache.LogContentTTL), l1.Close, nil
}
