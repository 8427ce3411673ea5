package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sandevgo/loopbot/internal/config"
	"github.com/sandevgo/loopbot/internal/core"
	"github.com/sandevgo/loopbot/internal/providers/llm"
	"github.com/sandevgo/loopbot/internal/providers/websearch"
	"github.com/sandevgo/loopbot/internal/service/agent"
	"github.com/sandevgo/loopbot/internal/service/command"
	"github.com/sandevgo/loopbot/internal/service/executor"
	"github.com/sandevgo/loopbot/internal/service/memory"
	"github.com/sandevgo/loopbot/internal/service/reason"
	"github.com/sandevgo/loopbot/internal/storage/snapshot"
	"github.com/sandevgo/loopbot/internal/transport/telegram"
	"github.com/sandevgo/loopbot/pkg/log"
	"github.com/sandevgo/loopbot/pkg/srv"
)

func NewServices(ctx context.Context) []srv.Service {
	logger := log.FromCtx(ctx)
	services := make([]srv.Service, 0)

	// init env
	err := initEnv(ctx, config.GetRuntimePath())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	memCfg := config.NewMemoryConfig(ctx)
	llmCfg := config.NewLLMConfig(ctx)

	// 2. Memory store backed by the JSON snapshot
	store := memory.NewStore(memCfg, snapshot.NewFile(appCfg.GetSnapshotPath()))
	if err := store.Load(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to load memory store")
	}
	services = append(services, srv.NewCleanup(store.Close))

	// 3. AI Provider (optional, the agent degrades without it)
	var aiProvider core.TextCompleter
	if llmCfg.Configured() {
		aiProvider, err = llm.NewProvider(ctx, llmCfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize LLM provider")
		}
	} else {
		logger.Warn().Msg("no LLM configured, running in degraded mode")
	}

	// 4. Memory Consolidator Service
	// Runs in background to fold old low-importance memories into summaries
	if memCfg.AutoSummarize {
		services = append(services, memory.NewConsolidator(store, aiProvider))
	}

	// 5. Action Executor
	exec := executor.NewExecutor(executor.Deps{
		Memory:   store,
		Searcher: websearch.NewDuckDuckGo(),
	})
	services = append(services, srv.NewCleanup(func() error {
		return exec.Shutdown(context.Background())
	}))

	// 6. Reasoning Engine
	engine := reason.NewEngine(llmCfg, memCfg, aiProvider)

	// 7. Agent Service
	ag := agent.NewAgent(appCfg, store, engine, exec)
	services = append(services, ag)

	// 8. Transports
	transports, err := initTransports(ctx, appCfg, ag, exec, store)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize transports")
	}
	services = append(services, transports...)

	return services
}

func initTransports(
	ctx context.Context,
	cfg *config.AppConfig,
	ag *agent.Agent,
	exec *executor.Executor,
	store *memory.Store,
) ([]srv.Service, error) {
	var services []srv.Service

	// Telegram Bot
	if cfg.EnableTelegram {
		tgCfg := config.NewTelegramConfig(ctx)
		router := command.New(command.NewCommands(ag, store))
		bot, err := telegram.NewBot(ctx, tgCfg, ag, router)
		if err != nil {
			return nil, err
		}
		ag.SetNotifier(bot)
		exec.SetNotifier(bot)
		services = append(services, bot)
	}

	return services, nil
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
