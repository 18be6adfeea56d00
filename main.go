package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/ordena-bot/server/internal/agent/catalog"
	"github.com/ordena-bot/server/internal/agent/dialog"
	"github.com/ordena-bot/server/internal/agent/extractor"
	"github.com/ordena-bot/server/internal/agent/finalize"
	"github.com/ordena-bot/server/internal/agent/llm"
	"github.com/ordena-bot/server/internal/agent/model"
	"github.com/ordena-bot/server/internal/agent/repo"
	"github.com/ordena-bot/server/internal/agent/responder"
	"github.com/ordena-bot/server/internal/agent/schema"
	"github.com/ordena-bot/server/internal/agent/session"
	"github.com/ordena-bot/server/internal/core"
	"github.com/ordena-bot/server/internal/transport/httpapi"
	logx "github.com/ordena-bot/server/pkg/logger"
	pkgredis "github.com/ordena-bot/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the order bot, sourced
// from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"APP_ENV" default:"development"`
	Port        int    `envconfig:"PORT" default:"8080"`

	// Infrastructure
	Redis pkgredis.Config

	// LLM provider (chat-completions endpoint, bearer auth)
	APIKey  string `envconfig:"LLM_API_KEY" required:"true"`
	BaseURL string `envconfig:"LLM_BASE_URL"`

	// Bot configs
	Extractor model.ExtractorModelConfig
	Responder model.ResponderModelConfig
	Dialog    model.DialogConfig
	Catalog   model.CatalogConfig
	Ledger    model.LedgerConfig
}

func main() {
	ctx := context.Background()

	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load structured config from env
	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(envCfg.Environment)})

	rdb, err := envCfg.Redis.New()
	if err != nil {
		log.Fatalf("Failed to initialise Redis client: %v", err)
	}
	defer rdb.Close()
	logx.Info().Msg("Connected to Redis successfully")

	timeout, err := time.ParseDuration(envCfg.Extractor.Timeout)
	if err != nil {
		log.Fatalf("Invalid EXTRACTOR_TIMEOUT '%s': %v", envCfg.Extractor.Timeout, err)
	}

	// Catalog: built-in menu, optionally replaced by an ingested price list.
	// A failed ingestion keeps the built-in menu as last known good.
	catalogs := catalog.NewLoader(catalog.DefaultMenu())
	if envCfg.Catalog.Path != "" {
		if err := catalogs.Reload(envCfg.Catalog.Path); err != nil {
			logx.Warn().Err(err).Str("path", envCfg.Catalog.Path).Msg("using built-in menu")
		}
	}

	cms, err := llm.NewChatModels(ctx, llm.ChatModelConfig{
		APIKey:          envCfg.APIKey,
		BaseURL:         envCfg.BaseURL,
		Timeout:         timeout,
		ExtractorConfig: &envCfg.Extractor,
		ResponderConfig: &envCfg.Responder,
	})
	if err != nil {
		log.Fatalf("Failed to create chat models: %v", err)
	}

	orderSchema := schema.New()
	strategy := model.ParseStrategy(envCfg.Dialog.Strategy)

	engine := dialog.New(dialog.Config{
		Store:    session.NewStore(strategy),
		Schema:   orderSchema,
		Catalogs: catalogs,
		Extractor: extractor.New(cms.Extractor, extractor.Config{
			Timeout:      timeout,
			BusinessName: envCfg.Dialog.BusinessName,
			OpeningHours: envCfg.Dialog.OpeningHours,
			Fields:       orderSchema.Names(),
		}),
		Responder:    responder.New(cms.Responder, timeout, envCfg.Dialog.BusinessName, envCfg.Dialog.OpeningHours),
		Finalizer:    finalize.New(repo.NewRedisLedgerRepository(rdb, envCfg.Ledger.Key)),
		MaxHistory:   envCfg.Dialog.MaxHistory,
		BusinessName: envCfg.Dialog.BusinessName,
		MenuImageURL: envCfg.Dialog.MenuImageURL,
	})

	addr := fmt.Sprintf(":%d", envCfg.Port)
	logx.Info().
		Str("addr", addr).
		Str("strategy", string(strategy)).
		Str("extractor_model", cms.ExtractorModelName).
		Msg("order bot listening")

	if err := http.ListenAndServe(addr, httpapi.Router(engine)); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
