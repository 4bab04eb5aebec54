package factory

import (
	"errors"
	"fmt"

	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/config"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/googlecse"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/keypool"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/search"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/searxng"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/tavily"
)

// ErrNotConfigured 未配置任何搜索凭据
var ErrNotConfigured = errors.New("search provider not configured")

// NewSearcherPool 根据配置创建搜索实例池，每个 key 一个客户端
func NewSearcherPool(cfg *config.Config) (*keypool.Pool[search.Searcher], error) {
	sc := cfg.Search
	provider := sc.Provider
	if provider == "" {
		switch {
		case len(sc.Google.APIKeys) > 0:
			provider = "google"
		case len(sc.Tavily.APIKeys) > 0:
			provider = "tavily"
		default:
			return nil, ErrNotConfigured
		}
	}

	switch provider {
	case "google":
		if len(sc.Google.APIKeys) == 0 || sc.Google.CX == "" {
			return nil, fmt.Errorf("google cse api key or cx is missing: %w", ErrNotConfigured)
		}
		clients := make([]search.Searcher, 0, len(sc.Google.APIKeys))
		for _, key := range sc.Google.APIKeys {
			clients = append(clients, googlecse.NewClient(key, sc.Google.CX, sc.Timeout))
		}
		return keypool.New(clients, sc.Google.APIKeys), nil

	case "tavily":
		if len(sc.Tavily.APIKeys) == 0 {
			return nil, fmt.Errorf("tavily api key is missing: %w", ErrNotConfigured)
		}
		clients := make([]search.Searcher, 0, len(sc.Tavily.APIKeys))
		for _, key := range sc.Tavily.APIKeys {
			clients = append(clients, tavily.NewClient(key, sc.Timeout))
		}
		return keypool.New(clients, sc.Tavily.APIKeys), nil

	case "searxng":
		if sc.SearXNG.BaseURL == "" {
			return nil, fmt.Errorf("searxng base url is missing: %w", ErrNotConfigured)
		}
		timeout := sc.SearXNG.Timeout
		if timeout == 0 {
			timeout = sc.Timeout
		}
		return keypool.New([]search.Searcher{searxng.NewClient(sc.SearXNG.BaseURL, timeout)}, nil), nil

	default:
		return nil, fmt.Errorf("unknown search provider: %s", provider)
	}
}
