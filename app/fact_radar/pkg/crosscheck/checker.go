package crosscheck

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/sync/errgroup"

	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/keypool"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/llm"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/logger"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/model"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/search"
)

const (
	// MaxResults 最多保留的佐证数量
	MaxResults = 5
	// SimThreshold 接受佐证的最低相似度
	SimThreshold = 60
	// FetchChunk 每次 OR 查询包含的域名数
	FetchChunk = 5

	maxQueryLen    = 200
	maxNumResults  = 10
	defaultTimeout = 10 * time.Second
)

// Checker 可信来源交叉验证
type Checker struct {
	searchers  *keypool.Pool[search.Searcher]
	comparator llm.Generator
	workers    int
	timeout    time.Duration
	policy     *bluemonday.Policy
}

// Option Checker 可选项
type Option func(*Checker)

// WithWorkers 并行查询的分块数，<=1 为串行
func WithWorkers(n int) Option {
	return func(c *Checker) { c.workers = n }
}

// WithTimeout 单次搜索请求超时
func WithTimeout(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewChecker 创建交叉验证器，searchers 为空时结果恒为 unavailable，comparator 可为 nil
func NewChecker(searchers *keypool.Pool[search.Searcher], comparator llm.Generator, opts ...Option) *Checker {
	c := &Checker{
		searchers:  searchers,
		comparator: comparator,
		workers:    1,
		timeout:    defaultTimeout,
		policy:     bluemonday.StrictPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Available 是否配置了搜索凭据
func (c *Checker) Available() bool {
	return c != nil && c.searchers.Len() > 0
}

// KeyStatus 搜索 key 与相似度比较器的状态
type KeyStatus struct {
	Search              keypool.Status `json:"search"`
	SearchAvailable     bool           `json:"search_available"`
	SimilarityAvailable bool           `json:"similarity_available"`
}

// KeyStatus 返回当前 key 状态
func (c *Checker) KeyStatus() KeyStatus {
	if c == nil {
		return KeyStatus{Search: keypool.Status{CurrentIndex: -1}}
	}
	return KeyStatus{
		Search:              c.searchers.Status(),
		SearchAvailable:     c.Available(),
		SimilarityAvailable: c.comparator != nil,
	}
}

// PerformCrossCheck 在可信站点中检索同一报道，返回按相似度降序的佐证
// 任何搜索错误都按该分块无结果处理，不会向上返回
func (c *Checker) PerformCrossCheck(ctx context.Context, articleURL, articleTitle, _ string) model.CrossCheckResult {
	if !c.Available() {
		return model.CrossCheckResult{
			Status:         model.StatusUnavailable,
			ConfidenceTier: model.TierUnknown,
			Matches:        []model.SearchMatch{},
			Summary:        "Cross-check unavailable: search credentials required.",
		}
	}

	orig := DomainOf(articleURL)
	query := truncateQuery(articleTitle)
	logger.Log.Infof("交叉验证: %q (原始域名: %s, key 数: %d)", query, orDefault(orig, "N/A"), c.searchers.Len())

	var chunks [][]string
	for _, chunk := range Chunk(TrustedDomains, FetchChunk) {
		if subsumes(orig, chunk) {
			logger.Log.Debugf("跳过分块 %v: 与原文域名相同", chunk)
			continue
		}
		chunks = append(chunks, chunk)
	}

	st := &collectState{orig: orig, checked: make(map[string]struct{})}
	if c.workers > 1 {
		c.collectParallel(ctx, query, articleTitle, chunks, st)
	} else {
		for _, chunk := range chunks {
			if c.collect(ctx, articleTitle, c.searchChunk(ctx, orQuery(query, chunk), numResults(chunk)), st) {
				break
			}
		}
	}

	matches := st.matches
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if len(matches) > MaxResults {
		matches = matches[:MaxResults]
	}
	if matches == nil {
		matches = []model.SearchMatch{}
	}

	res := model.CrossCheckResult{
		Matches:             matches,
		SearchQuery:         query,
		TotalDomainsChecked: len(st.checked),
	}
	res.ConfidenceTier, res.Status = TierFor(res.MeanSimilarity())
	res.Summary = Summary(matches, res.ConfidenceTier)

	logger.Log.Infof("交叉验证完成: %d 条佐证, 置信度 %s", len(matches), res.ConfidenceTier)
	return res
}

type collectState struct {
	orig    string
	checked map[string]struct{}
	matches []model.SearchMatch
}

// collect 处理一个分块的结果，返回是否已收满
func (c *Checker) collect(ctx context.Context, title string, results []search.Result, st *collectState) bool {
	for _, r := range results {
		dom := DomainOf(r.URL)
		if dom == "" || dom == st.orig || !IsTrusted(dom) {
			continue
		}
		if _, seen := st.checked[dom]; seen {
			continue
		}
		st.checked[dom] = struct{}{}

		hitTitle := c.plain(r.Title)
		sim, reason := c.similarity(ctx, title, hitTitle, dom)
		logger.Log.Debugf("候选 %s: %d%% %s", dom, sim, r.URL)
		if sim < SimThreshold {
			continue
		}

		st.matches = append(st.matches, model.SearchMatch{
			SourceDomain: dom,
			Title:        hitTitle,
			Link:         r.URL,
			Snippet:      c.plain(r.Content),
			Similarity:   sim,
			Reasoning:    reason,
		})
		if len(st.matches) >= MaxResults {
			return true
		}
	}
	return false
}

// collectParallel 并发预取分块，按分块顺序处理结果；收满后取消尚未发出的查询
func (c *Checker) collectParallel(ctx context.Context, query, title string, chunks [][]string, st *collectState) {
	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	ready := make([]chan []search.Result, len(chunks))
	for i := range ready {
		ready[i] = make(chan []search.Result, 1)
	}

	g, gctx := errgroup.WithContext(fetchCtx)
	g.SetLimit(c.workers)
	launched := make(chan struct{})
	go func() {
		defer close(launched)
		for i, chunk := range chunks {
			g.Go(func() error {
				if gctx.Err() != nil {
					ready[i] <- nil
					return nil
				}
				ready[i] <- c.searchChunk(gctx, orQuery(query, chunk), numResults(chunk))
				return nil
			})
		}
	}()

	for i := range chunks {
		if c.collect(ctx, title, <-ready[i], st) {
			logger.Log.Debugf("已收满佐证，取消剩余 %d 个分块", len(chunks)-i-1)
			break
		}
	}
	cancel()
	<-launched
	_ = g.Wait()
}

// searchChunk 轮换 key 执行一次查询；429 时换下一个 key，最多尝试 key 数量次
func (c *Checker) searchChunk(ctx context.Context, query string, n int) []search.Result {
	attempts := c.searchers.Len()
	for i := 0; i < attempts; i++ {
		s, idx, ok := c.searchers.Next()
		if !ok {
			return nil
		}

		reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
		resp, err := s.Search(reqCtx, &search.Request{Query: query, Topic: "news", MaxResults: n})
		cancel()

		switch {
		case err == nil:
			return resp.Results
		case errors.Is(err, search.ErrRateLimited):
			logger.Log.Warnf("搜索 key #%d 被限流，切换下一个 (%d/%d)", idx+1, i+1, attempts)
			continue
		default:
			logger.Log.Errorf("搜索失败 (key #%d): %v", idx+1, err)
			return nil
		}
	}
	logger.Log.Errorf("所有搜索 key 均被限流，跳过该分块")
	return nil
}

// plain 去掉 HTML 标记并还原实体
func (c *Checker) plain(s string) string {
	return strings.TrimSpace(html.UnescapeString(c.policy.Sanitize(s)))
}

func numResults(chunk []string) int {
	return min(maxNumResults, len(chunk)*2)
}

func truncateQuery(title string) string {
	r := []rune(strings.TrimSpace(title))
	if len(r) > maxQueryLen {
		return string(r[:maxQueryLen]) + "..."
	}
	return string(r)
}

// TierFor 平均相似度对应的置信层级与状态
func TierFor(mean float64) (model.Tier, model.CrossCheckStatus) {
	switch {
	case mean >= 85:
		return model.TierVeryHigh, model.StatusVerified
	case mean >= 70:
		return model.TierHigh, model.StatusConfirmed
	case mean >= 60:
		return model.TierMedium, model.StatusPartial
	default:
		return model.TierLow, model.StatusLimited
	}
}

// Summary 生成人类可读的交叉验证摘要
func Summary(matches []model.SearchMatch, tier model.Tier) string {
	if len(matches) == 0 {
		return "No matching reports found."
	}
	total := 0
	for _, m := range matches {
		total += m.Similarity
	}
	avg := float64(total) / float64(len(matches))
	if len(matches) == 1 {
		return fmt.Sprintf("Found 1 report from %s at %.0f%% (%s).", matches[0].SourceDomain, avg, tier)
	}

	n := min(3, len(matches))
	names := make([]string, 0, n)
	for _, m := range matches[:n] {
		names = append(names, m.SourceDomain)
	}
	srcs := strings.Join(names, ", ")
	if len(matches) > 3 {
		srcs += fmt.Sprintf(" and %d more", len(matches)-3)
	}
	return fmt.Sprintf("Found %d reports from %s, avg %.0f%% (%s).", len(matches), srcs, avg, tier)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
