//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/ai-stockassistant/internal/bootstrap"
	"github.com/yanqian/ai-stockassistant/internal/domain/advisor"
	"github.com/yanqian/ai-stockassistant/internal/domain/auth"
	"github.com/yanqian/ai-stockassistant/internal/domain/portfolio"
	"github.com/yanqian/ai-stockassistant/internal/infra/config"
	"github.com/yanqian/ai-stockassistant/internal/infra/llm/gemini"
	"github.com/yanqian/ai-stockassistant/internal/infra/tokenizer"
	httpiface "github.com/yanqian/ai-stockassistant/internal/interface/http"
	"github.com/yanqian/ai-stockassistant/pkg/logger"
)

var advisorSet = wire.NewSet(
	provideAdvisorConfig,
	provideGeminiClient,
	provideTokenCounter,
	provideCacheStore,
	provideHistoryRepository,
	advisor.NewService,
	wire.Bind(new(advisor.GenerationClient), new(*gemini.Client)),
	wire.Bind(new(advisor.TokenCounter), new(*tokenizer.Counter)),
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		advisorSet,
		provideAuthConfig,
		auth.NewService,
		portfolio.NewService,
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}

func initializeAdvisor() (advisor.Service, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		advisorSet,
	)
	return nil, nil, nil
}

func initializeTokenService() (auth.TokenService, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideAuthConfig,
		auth.NewService,
	)
	return nil, nil
}
