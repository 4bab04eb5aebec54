package server

import (
	"github.com/google/wire"
	"github.com/iWorld-y/fact_radar/app/portal/internal/data"
	"github.com/iWorld-y/fact_radar/app/portal/internal/service"
	"github.com/iWorld-y/fact_radar/app/portal/internal/usecase"
)

// ProviderSet 是门户服务的依赖注入 Provider 集合
var ProviderSet = wire.NewSet(
	// Server providers
	NewHTTPServer,
	NewFactRadar,
	NewSweeper,

	// Data providers
	data.NewData,
	data.NewAnalyzer,
	data.NewHistoryRepo,
	data.NewCancelRegistry,

	// UseCase providers
	usecase.NewAnalysisUseCase,

	// Service providers
	service.NewAnalysisService,
)
