package data

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/engine"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/model"
	"github.com/iWorld-y/fact_radar/app/portal/internal/repo"
)

type analyzer struct {
	data *Data
}

// NewAnalyzer 创建分析引擎适配
func NewAnalyzer(data *Data) repo.Analyzer {
	return &analyzer{data: data}
}

func (a *analyzer) Analyze(ctx context.Context, req engine.Request) (*model.Analysis, error) {
	return a.data.rt.Engine.Analyze(ctx, req)
}

func (a *analyzer) KeyStatus() engine.KeyStatus {
	return a.data.rt.KeyStatus()
}

type historyRepo struct {
	data *Data
	log  *log.Helper
}

// NewHistoryRepo 创建历史仓库；未配置数据库时返回空列表
func NewHistoryRepo(data *Data, logger log.Logger) repo.HistoryRepo {
	return &historyRepo{data: data, log: log.NewHelper(logger)}
}

func (r *historyRepo) List(ctx context.Context, limit int) ([]*model.Analysis, error) {
	if r.data.rt.Store == nil {
		r.log.WithContext(ctx).Debug("storage disabled, history is empty")
		return nil, nil
	}
	return r.data.rt.Store.List(ctx, limit)
}
