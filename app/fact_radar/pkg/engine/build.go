package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/article"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/assessor"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/cancel"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/classifier"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/config"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/crosscheck"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/keypool"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/llm"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/logger"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/search/factory"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/storage"
)

// Runtime 由配置构建的引擎及其持有的资源
type Runtime struct {
	Engine    *Engine
	Checker   *crosscheck.Checker
	Generator *llm.Pool
	Store     *storage.Storage
	Registry  cancel.Registry
}

// KeyStatus 搜索与生成式模型的 key 状态
type KeyStatus struct {
	CrossCheck crosscheck.KeyStatus `json:"cross_check"`
	LLM        keypool.Status       `json:"llm"`
}

// KeyStatus 返回当前 key 轮换状态
func (r *Runtime) KeyStatus() KeyStatus {
	return KeyStatus{CrossCheck: r.Checker.KeyStatus(), LLM: r.Generator.KeyStatus()}
}

// Close 释放数据库与 redis 连接
func (r *Runtime) Close() error {
	var errs []error
	if r.Store != nil {
		errs = append(errs, r.Store.Close())
	}
	if c, ok := r.Registry.(interface{ Close() error }); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Build 根据配置组装全部组件；缺少搜索或模型凭据时降级而不是失败
func Build(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	if cfg.Classifier.ModelPath == "" {
		return nil, errors.New("classifier model_path is required")
	}
	m, err := classifier.Load(cfg.Classifier.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("分类模型加载失败: %w", err)
	}

	gen, err := llm.NewPoolFromConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("LLM 初始化失败: %w", err)
	}
	if !gen.Available() {
		logger.Log.Warn("未配置 LLM key，生成式评估将使用回退逻辑")
	}

	similarity, err := llm.NewSimilarityGenerator(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("相似度模型初始化失败: %w", err)
	}

	searchers, err := factory.NewSearcherPool(cfg)
	if err != nil {
		if !errors.Is(err, factory.ErrNotConfigured) {
			return nil, fmt.Errorf("搜索客户端初始化失败: %w", err)
		}
		logger.Log.Warnf("交叉验证不可用: %v", err)
	}
	checker := crosscheck.NewChecker(searchers, similarity,
		crosscheck.WithWorkers(cfg.Search.Workers),
		crosscheck.WithTimeout(time.Duration(cfg.Search.Timeout)*time.Second))

	registry, err := cancel.NewRegistry(cfg.Redis)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{Checker: checker, Generator: gen, Registry: registry}
	deps := Deps{
		Classifier: classifier.New(m),
		Checker:    checker,
		Assessor:   assessor.NewAssessor(gen),
		Fetcher:    article.NewFetcher(&http.Client{Timeout: 30 * time.Second}),
		Registry:   registry,
	}

	if cfg.DB.Enabled() || cfg.DB.Driver == storage.DriverSQLite {
		store, err := storage.NewStorage(cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("数据库初始化失败: %w", err)
		}
		rt.Store = store
		deps.Store = store
	}

	rt.Engine = NewEngine(deps, Options{
		RequirePolitical: cfg.Analysis.RequirePolitical,
		ReuseExisting:    cfg.Analysis.ReuseExisting,
	})
	return rt, nil
}
