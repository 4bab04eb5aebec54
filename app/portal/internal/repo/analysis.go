package repo

import (
	"context"

	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/engine"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/model"
)

// Analyzer 分析引擎接口
type Analyzer interface {
	// Analyze 执行一次完整分析
	Analyze(ctx context.Context, req engine.Request) (*model.Analysis, error)
	// KeyStatus 返回搜索与模型 key 的轮换状态
	KeyStatus() engine.KeyStatus
}

// HistoryRepo 历史分析仓库接口
type HistoryRepo interface {
	// List 按时间倒序返回最近的分析
	List(ctx context.Context, limit int) ([]*model.Analysis, error)
}
