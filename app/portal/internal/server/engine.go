package server

import (
	"context"
	"errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/config"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/engine"
	frLogger "github.com/iWorld-y/fact_radar/app/fact_radar/pkg/logger"
	"github.com/iWorld-y/fact_radar/app/portal/internal/conf"
)

// NewFactRadar 初始化 fact_radar 运行时
func NewFactRadar(c *conf.FactRadar, logger log.Logger) (*engine.Runtime, func(), error) {
	helper := log.NewHelper(logger)
	if c == nil {
		return nil, nil, errors.New("fact_radar config section is required")
	}

	cfg := toConfig(c)
	cfg.ApplyEnv()
	cfg.ApplyDefaults()

	// 初始化日志
	if err := frLogger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		helper.Errorf("Failed to init fact_radar logger: %v", err)
		_ = frLogger.InitLogger("info", "") // 降级处理
	}

	rt, err := engine.Build(context.Background(), cfg)
	if err != nil {
		helper.Errorf("Failed to build fact_radar engine: %v", err)
		return nil, nil, err
	}

	cleanup := func() {
		helper.Info("Cleaning up fact_radar engine")
		if err := rt.Close(); err != nil {
			helper.Errorf("close fact_radar runtime: %v", err)
		}
	}
	return rt, cleanup, nil
}

// toConfig 将 internal/conf.FactRadar 转换为 pkg/config.Config
func toConfig(c *conf.FactRadar) *config.Config {
	cfg := &config.Config{}
	if c.Llm != nil {
		cfg.LLM = config.LLMConfig{
			BaseURL:          c.Llm.BaseUrl,
			Model:            c.Llm.Model,
			APIKeys:          c.Llm.ApiKeys,
			SimilarityAPIKey: c.Llm.SimilarityApiKey,
			Timeout:          int(c.Llm.Timeout),
		}
	}
	if s := c.Search; s != nil {
		cfg.Search.Provider = s.Provider
		cfg.Search.Timeout = int(s.Timeout)
		cfg.Search.Workers = int(s.Workers)
		if s.Google != nil {
			cfg.Search.Google = config.GoogleConfig{APIKeys: s.Google.ApiKeys, CX: s.Google.Cx}
		}
		if s.Tavily != nil {
			cfg.Search.Tavily = config.TavilyConfig{APIKeys: s.Tavily.ApiKeys}
		}
		if s.Searxng != nil {
			cfg.Search.SearXNG = config.SearXNGConfig{BaseURL: s.Searxng.BaseUrl, Timeout: int(s.Searxng.Timeout)}
		}
	}
	if c.Classifier != nil {
		cfg.Classifier.ModelPath = c.Classifier.ModelPath
	}
	if c.Analysis != nil {
		cfg.Analysis = config.AnalysisConfig{
			RequirePolitical: c.Analysis.RequirePolitical,
			ReuseExisting:    c.Analysis.ReuseExisting,
		}
	}
	if c.Log != nil {
		cfg.Log = config.LogConfig{Level: c.Log.Level, File: c.Log.File}
	}
	if c.Concurrency != nil {
		cfg.Concurrency = config.ConcurrencyConfig{QPS: int(c.Concurrency.Qps), RPM: int(c.Concurrency.Rpm)}
	}
	if c.Db != nil {
		cfg.DB = config.DBConfig{
			Driver:   c.Db.Driver,
			DSN:      c.Db.Dsn,
			Host:     c.Db.Host,
			Port:     int(c.Db.Port),
			User:     c.Db.User,
			Password: c.Db.Password,
			Name:     c.Db.Name,
		}
	}
	if c.Redis != nil {
		cfg.Redis = config.RedisConfig{URL: c.Redis.Url, Prefix: c.Redis.Prefix, TTL: int(c.Redis.Ttl)}
	}
	return cfg
}
