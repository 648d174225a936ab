package main

import (
	"fmt"
	"log"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/productrecommend/backend/config"
	httpDelivery "github.com/productrecommend/backend/internal/delivery/http"
	"github.com/productrecommend/backend/internal/infrastructure/cache"
	"github.com/productrecommend/backend/internal/infrastructure/retriever"
	"github.com/productrecommend/backend/internal/metrics"
	"github.com/productrecommend/backend/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting product recommendation backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Cache: %s (TTL %s)", cfg.Cache.Type, cfg.Cache.TTL)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	memoryCache := cache.NewMemoryCache(cache.DefaultCleanupInterval)
	defer memoryCache.Close()

	retrieverClient := retriever.NewClient(retriever.ClientConfig{
		BaseURL:       cfg.Retriever.BaseURL,
		APIKey:        cfg.Retriever.APIKey,
		TopK:          cfg.Retriever.TopK,
		Timeout:       cfg.Retriever.Timeout,
		RatePerSecond: cfg.Retriever.RatePerSecond,
		Burst:         cfg.Retriever.Burst,
		MaxRetries:    cfg.Retriever.MaxRetries,
	})
	retrieverClient.SetObserver(appMetrics)
	if cfg.Debug {
		retrieverClient.SetDebug(true)
		log.Printf("Retriever client debug mode enabled")
	}
	log.Printf("Retriever: %s (top_k=%d, retries=%d)", cfg.Retriever.BaseURL, cfg.Retriever.TopK, cfg.Retriever.MaxRetries)

	recommendationService := usecase.NewRecommendationService(
		retrieverClient,
		memoryCache,
		appMetrics,
		usecase.RecommendationServiceConfig{
			CacheTTL:           cfg.Cache.TTL,
			EnableDebugLogging: cfg.Debug,
			Presenter: usecase.PresenterConfig{
				ImageDir:    cfg.Display.ImageDir,
				ProductURL:  cfg.Display.ProductURL,
				Placeholder: cfg.Display.Placeholder,
			},
		},
	)

	handler := httpDelivery.NewHandler(recommendationService)
	router := httpDelivery.SetupRouter(cfg, handler, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
