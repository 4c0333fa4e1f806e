// File: cmd/app/main.go
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
	"strings"
	"syscall"
	"time"

	"whatsapp-ai-assistant/internal/config"
	"whatsapp-ai-assistant/internal/domain/ports/adapter"
	"whatsapp-ai-assistant/internal/domain/ports/repository"
	aiAdapters "whatsapp-ai-assistant/internal/infra/adapters/ai"
	"whatsapp-ai-assistant/internal/infra/adapters/scheduling"
	opshttp "whatsapp-ai-assistant/internal/infra/http"
	"whatsapp-ai-assistant/internal/infra/logging"
	"whatsapp-ai-assistant/internal/infra/memory"
	"whatsapp-ai-assistant/internal/infra/metrics"
	red "whatsapp-ai-assistant/internal/infra/redis"
	"whatsapp-ai-assistant/internal/infra/sched"
	"whatsapp-ai-assistant/internal/infra/web"
	"whatsapp-ai-assistant/internal/usecase"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Populated via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (in-memory store, noop fallbacks)")
	flag.Parse()

	// Secrets may live in a .env file during development.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("dev mode enabled")
	}
	metrics.SetBuildInfo(version, commit)

	// ---- Session store, rate limiter, turn lock ----
	var (
		conversations repository.ConversationRepository
		limiter       repository.RateLimiter
		locker        repository.Locker
	)
	if cfg.Redis.Addr != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer redisClient.Close()
		conversations = red.NewConversationCache(redisClient, cfg.Redis.TTL)
		limiter = red.NewRateLimiter(redisClient)
		locker = red.NewLocker(redisClient)
		logger.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Redis.TTL).Msg("session store: redis")
	} else {
		if !cfg.Runtime.Dev {
			logger.Warn().Msg("redis.addr not set; sessions held in process memory")
		}
		conversations = memory.NewConversationStore(cfg.Redis.TTL)
		limiter = memory.NewRateLimiter()
		locker = memory.NewLocker()
		logger.Info().Msg("session store: in-memory")
	}

	// ---- Text generation ----
	ai, err := buildGenerator(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("ai adapter: %v", err)
	}
	ai = aiAdapters.NewLimitedAI(ai, cfg.AI.ConcurrentLimit)

	// ---- Clinic scheduling backend ----
	var backend adapter.SchedulingBackend
	if cfg.Backend.BaseURL != "" {
		backend, err = scheduling.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout)
		if err != nil {
			log.Fatalf("scheduling backend: %v", err)
		}
		logger.Info().Str("base_url", cfg.Backend.BaseURL).Msg("scheduling backend: clinic service")
	} else {
		backend = scheduling.NewNoopBackend()
		logger.Warn().Msg("backend.base_url not set; using in-memory scheduling backend")
	}

	// ---- Use case ----
	resolver := usecase.NewIntentResolver(keywordConfig(cfg))
	chatUC := usecase.NewChatUseCase(
		conversations,
		limiter,
		locker,
		ai,
		backend,
		resolver,
		usecase.Options{
			Model:             cfg.AI.DefaultModel,
			ClinicName:        cfg.Chat.ClinicName,
			HistoryWindow:     cfg.Chat.HistoryWindow,
			PromptTokenBudget: cfg.Chat.PromptTokenBudget,
			RateLimit:         cfg.Chat.RateLimit,
			RateWindow:        cfg.Chat.RateWindow,
			LockTTL:           cfg.Chat.LockTTL,
		},
		logger,
	)

	// ---- Public chat API ----
	webSrv := web.NewServer(chatUC, logger)
	apiServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: webSrv.Router(),
	}
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("chat API listening")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("chat API server stopped")
		}
	}()

	// ---- Ops listener (metrics, health) ----
	opsSrv := opshttp.NewServer(cfg.Admin.Port, logger)
	go func() {
		if err := opsSrv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("ops server stopped")
		}
	}()

	// ---- Backend health monitor ----
	monitor := sched.NewHealthMonitor(cfg.Backend.HealthInterval, backend, logger)
	go func() { _ = monitor.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("chat API shutdown")
	}
	if err := opsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("ops server shutdown")
	}
}

// buildGenerator picks providers from config. With more than one key set,
// requests route by model prefix and the primary follows default_model.
func buildGenerator(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (adapter.TextGenerator, error) {
	providers := make(map[string]adapter.TextGenerator)

	if cfg.AI.GatewayBaseURL != "" {
		gw, err := aiAdapters.NewGatewayAdapter(cfg.AI.GatewayBaseURL, cfg.AI.GatewayKey, cfg.AI.DefaultModel, cfg.AI.MaxTokens, cfg.AI.Temperature)
		if err != nil {
			return nil, err
		}
		providers["gateway"] = gw
		logger.Info().Str("base", cfg.AI.GatewayBaseURL).Str("model", cfg.AI.DefaultModel).Msg("AI provider: OpenAI-compatible gateway")
	}
	if cfg.AI.GeminiKey != "" {
		gm, err := aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.DefaultModel, cfg.AI.MaxTokens)
		if err != nil {
			return nil, err
		}
		providers["gemini"] = gm
		logger.Info().Msg("AI provider: Gemini")
	}
	if cfg.AI.OpenAIKey != "" {
		oa, err := aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.DefaultModel, cfg.AI.MaxTokens, cfg.AI.Temperature)
		if err != nil {
			return nil, err
		}
		providers["openai"] = oa
		logger.Info().Str("model", cfg.AI.DefaultModel).Msg("AI provider: OpenAI")
	}

	switch len(providers) {
	case 0:
		if !cfg.Runtime.Dev {
			return nil, errors.New("no AI provider configured: set ai.gateway_base_url, ai.gemini_key or ai.openai_key")
		}
		logger.Warn().Msg("no AI provider configured; using canned test responses")
		return aiAdapters.NewNoopAIAdapter(), nil
	case 1:
		for _, p := range providers {
			return p, nil
		}
	}
	return aiAdapters.NewMultiAIAdapter(primaryProvider(cfg.AI.DefaultModel, providers), providers, nil), nil
}

func primaryProvider(model string, providers map[string]adapter.TextGenerator) string {
	switch {
	case strings.HasPrefix(strings.ToLower(model), "gemini") && providers["gemini"] != nil:
		return "gemini"
	case providers["gateway"] != nil:
		return "gateway"
	case providers["openai"] != nil:
		return "openai"
	default:
		return "gemini"
	}
}

func keywordConfig(cfg *config.Config) usecase.KeywordConfig {
	kw := cfg.Chat.Keywords
	return usecase.KeywordConfig{
		Affirmative: kw.Affirmative,
		Negative:    kw.Negative,
		Cancel:      kw.Cancel,
		Reschedule:  kw.Reschedule,
		Schedule:    kw.Schedule,
		Lookup:      kw.Lookup,
	}
}
