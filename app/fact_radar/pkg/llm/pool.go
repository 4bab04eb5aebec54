package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/config"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/keypool"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/logger"
)

// Pool 多 key 轮换的生成器，实现 Generator
type Pool struct {
	gens    *keypool.Pool[Generator]
	limiter *rate.Limiter
}

// Ensure Pool implements Generator
var _ Generator = (*Pool)(nil)

// NewPool 由已构造的生成器创建轮换池，limiter 可为 nil
func NewPool(gens []Generator, keys []string, limiter *rate.Limiter) *Pool {
	return &Pool{gens: keypool.New(gens, keys), limiter: limiter}
}

// NewPoolFromConfig 为每个 key 创建一个 eino ChatModel
func NewPoolFromConfig(ctx context.Context, cfg *config.Config) (*Pool, error) {
	gens := make([]Generator, 0, len(cfg.LLM.APIKeys))
	for _, key := range cfg.LLM.APIKeys {
		g, err := NewChatGenerator(ctx, cfg.LLM.BaseURL, key, cfg.LLM.Model, time.Duration(cfg.LLM.Timeout)*time.Second)
		if err != nil {
			return nil, err
		}
		gens = append(gens, g)
	}
	return NewPool(gens, cfg.LLM.APIKeys, NewLimiter(cfg.Concurrency)), nil
}

// NewSimilarityGenerator 相似度比较使用独立 key，未配置时返回 nil
func NewSimilarityGenerator(ctx context.Context, cfg *config.Config) (Generator, error) {
	if cfg.LLM.SimilarityAPIKey == "" {
		return nil, nil
	}
	g, err := NewChatGenerator(ctx, cfg.LLM.BaseURL, cfg.LLM.SimilarityAPIKey, cfg.LLM.Model, time.Duration(cfg.LLM.Timeout)*time.Second)
	if err != nil {
		return nil, err
	}
	return NewPool([]Generator{g}, []string{cfg.LLM.SimilarityAPIKey}, NewLimiter(cfg.Concurrency)), nil
}

// NewLimiter 按 RPM/QPS 创建限流器
func NewLimiter(c config.ConcurrencyConfig) *rate.Limiter {
	limit := rate.Limit(float64(c.RPM) / 60.0)
	burst := c.QPS
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(limit, burst)
}

// Available 是否至少有一个 key
func (p *Pool) Available() bool {
	return p != nil && p.gens.Len() > 0
}

// Generate 轮换 key 请求，最多尝试 key 数量次；限流或鉴权错误换 key，其他错误直接返回
func (p *Pool) Generate(ctx context.Context, prompt string) (string, error) {
	if !p.Available() {
		return "", ErrNoKeys
	}

	attempts := p.gens.Len()
	var lastErr error
	for i := 0; i < attempts; i++ {
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return "", err
			}
		}

		g, idx, _ := p.gens.Next()
		text, err := g.Generate(ctx, prompt)
		if err == nil {
			return text, nil
		}
		err = Classify(err)
		if !Rotatable(err) {
			return "", err
		}
		lastErr = err
		logger.Log.Warnf("LLM key #%d 不可用，切换下一个 (%d/%d): %v", idx+1, i+1, attempts, err)
	}
	return "", fmt.Errorf("all %d keys exhausted: %w", attempts, lastErr)
}

// KeyStatus 返回 key 轮换状态
func (p *Pool) KeyStatus() keypool.Status {
	if p == nil {
		return keypool.Status{CurrentIndex: -1}
	}
	return p.gens.Status()
}
