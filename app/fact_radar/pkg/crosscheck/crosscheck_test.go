package crosscheck

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/keypool"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/model"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/search"
)

// fakeSearcher 根据查询返回预设结果
type fakeSearcher struct {
	mu      sync.Mutex
	queries []string
	fn      func(query string) ([]search.Result, error)
}

func (f *fakeSearcher) Search(ctx context.Context, req *search.Request) (*search.Response, error) {
	f.mu.Lock()
	f.queries = append(f.queries, req.Query)
	f.mu.Unlock()
	res, err := f.fn(req.Query)
	if err != nil {
		return nil, err
	}
	return &search.Response{Results: res}, nil
}

func (f *fakeSearcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

type fakeGenerator struct {
	text string
	err  error
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return f.text, f.err
}

func poolOf(ss ...search.Searcher) *keypool.Pool[search.Searcher] {
	return keypool.New(ss, nil)
}

const title = "Senate approves national budget for 2025"

func hit(domain, t string) search.Result {
	return search.Result{Title: t, URL: "https://www." + domain + "/story", Content: "<b>snippet</b> &amp; more"}
}

func TestChunk_TrustedDomains(t *testing.T) {
	chunks := Chunk(TrustedDomains, FetchChunk)
	var sizes []int
	for _, c := range chunks {
		sizes = append(sizes, len(c))
	}
	if diff := cmp.Diff([]int{5, 5, 5, 3}, sizes); diff != "" {
		t.Errorf("chunk sizes mismatch (-want +got):\n%s", diff)
	}
}

func TestDomainOf(t *testing.T) {
	tests := map[string]string{
		"https://www.Rappler.com/nation/x": "rappler.com",
		"http://newsinfo.inquirer.net/1":   "newsinfo.inquirer.net",
		"https://apnews.com:443/a":         "apnews.com",
		"":                                 "",
		"://bad":                           "",
	}
	for in, want := range tests {
		if got := DomainOf(in); got != want {
			t.Errorf("DomainOf(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSubsumes(t *testing.T) {
	if subsumes("", []string{"a.com"}) {
		t.Error("empty original must not subsume")
	}
	if !subsumes("newsinfo.inquirer.net", []string{"inquirer.net", "newsinfo.inquirer.net"}) {
		t.Error("subdomain should subsume its parent chunk")
	}
	if subsumes("inquirer.net", []string{"inquirer.net", "rappler.com"}) {
		t.Error("mixed chunk must not be subsumed")
	}
}

func TestWordOverlap(t *testing.T) {
	a := "Marcos signs new budget law"
	b := "New budget law signed by Marcos"
	if WordOverlap(a, b) != WordOverlap(b, a) {
		t.Errorf("not symmetric: %d vs %d", WordOverlap(a, b), WordOverlap(b, a))
	}
	// {marcos, new, budget, law} / {marcos, signs, new, budget, law, signed, by}
	if got := WordOverlap(a, b); got != 57 {
		t.Errorf("WordOverlap = %d, want 57", got)
	}
	if got := WordOverlap(a, a); got != 100 {
		t.Errorf("identical titles = %d, want 100", got)
	}
	if got := WordOverlap("", b); got != 0 {
		t.Errorf("empty title = %d, want 0", got)
	}
	for i := 0; i < 5; i++ {
		if WordOverlap(a, b) != 57 {
			t.Fatal("WordOverlap not deterministic")
		}
	}
}

func TestPerformCrossCheck_Unavailable(t *testing.T) {
	c := NewChecker(nil, nil)
	res := c.PerformCrossCheck(context.Background(), "", title, "")
	if res.Status != model.StatusUnavailable || res.ConfidenceTier != model.TierUnknown {
		t.Errorf("got %s/%s, want unavailable/Unknown", res.Status, res.ConfidenceTier)
	}
	if len(res.Matches) != 0 {
		t.Errorf("matches = %v", res.Matches)
	}
}

func TestPerformCrossCheck_DedupAndFilter(t *testing.T) {
	s := &fakeSearcher{fn: func(q string) ([]search.Result, error) {
		return []search.Result{
			hit("rappler.com", title),
			hit("rappler.com", title),
			hit("example-blog.com", title),
			hit("philstar.com", title),
			hit("gmanetwork.com", "Unrelated weather update"),
		}, nil
	}}
	c := NewChecker(poolOf(s), nil)
	res := c.PerformCrossCheck(context.Background(), "https://www.philstar.com/headlines/1", title, "")

	var domains []string
	for _, m := range res.Matches {
		domains = append(domains, m.SourceDomain)
	}
	if diff := cmp.Diff([]string{"rappler.com"}, domains); diff != "" {
		t.Errorf("matched domains mismatch (-want +got):\n%s", diff)
	}
	// rappler + gmanetwork were evaluated; philstar is the original, the blog is untrusted
	if res.TotalDomainsChecked != 2 {
		t.Errorf("TotalDomainsChecked = %d, want 2", res.TotalDomainsChecked)
	}
	if s.calls() != 4 {
		t.Errorf("search calls = %d, want 4 chunks", s.calls())
	}
	if res.Matches[0].Snippet != "snippet & more" {
		t.Errorf("snippet not sanitized: %q", res.Matches[0].Snippet)
	}
	if res.Status != model.StatusVerified || res.ConfidenceTier != model.TierVeryHigh {
		t.Errorf("status = %s/%s", res.Status, res.ConfidenceTier)
	}
	if !strings.HasPrefix(s.queries[0], title+" site:cnn.com OR site:bbc.com") {
		t.Errorf("first query = %q", s.queries[0])
	}
}

func TestPerformCrossCheck_StopsAtMaxResults(t *testing.T) {
	s := &fakeSearcher{fn: func(q string) ([]search.Result, error) {
		var out []search.Result
		for _, d := range TrustedDomains[:7] {
			out = append(out, hit(d, title))
		}
		return out, nil
	}}
	res := NewChecker(poolOf(s), nil).PerformCrossCheck(context.Background(), "", title, "")
	if len(res.Matches) != MaxResults {
		t.Errorf("matches = %d, want %d", len(res.Matches), MaxResults)
	}
	if s.calls() != 1 {
		t.Errorf("search calls = %d, want 1 (early stop)", s.calls())
	}
	if !strings.Contains(res.Summary, "and 2 more") {
		t.Errorf("summary = %q", res.Summary)
	}
}

func TestPerformCrossCheck_RotatesOnRateLimit(t *testing.T) {
	limited := &fakeSearcher{fn: func(string) ([]search.Result, error) {
		return nil, search.ErrRateLimited
	}}
	ok := &fakeSearcher{fn: func(q string) ([]search.Result, error) {
		if strings.Contains(q, "site:rappler.com") {
			return []search.Result{hit("rappler.com", title)}, nil
		}
		return nil, nil
	}}
	res := NewChecker(poolOf(limited, ok), nil).PerformCrossCheck(context.Background(), "", title, "")
	if len(res.Matches) != 1 || res.Matches[0].SourceDomain != "rappler.com" {
		t.Fatalf("matches = %+v", res.Matches)
	}
	if ok.calls() != 4 {
		t.Errorf("healthy key calls = %d, want 4", ok.calls())
	}
}

func TestPerformCrossCheck_AllKeysLimitedIsBounded(t *testing.T) {
	a := &fakeSearcher{fn: func(string) ([]search.Result, error) { return nil, search.ErrRateLimited }}
	b := &fakeSearcher{fn: func(string) ([]search.Result, error) { return nil, search.ErrRateLimited }}
	res := NewChecker(poolOf(a, b), nil).PerformCrossCheck(context.Background(), "", title, "")
	if res.Status != model.StatusLimited || res.ConfidenceTier != model.TierLow {
		t.Errorf("status = %s/%s, want limited/Low", res.Status, res.ConfidenceTier)
	}
	if total := a.calls() + b.calls(); total != 8 {
		t.Errorf("total attempts = %d, want 8 (2 keys x 4 chunks)", total)
	}
	if res.Summary != "No matching reports found." {
		t.Errorf("summary = %q", res.Summary)
	}
}

func TestPerformCrossCheck_SearchAndGeneratorOutage(t *testing.T) {
	s := &fakeSearcher{fn: func(string) ([]search.Result, error) { return nil, errors.New("connection refused") }}
	gen := &fakeGenerator{err: errors.New("boom")}
	res := NewChecker(poolOf(s), gen).PerformCrossCheck(context.Background(), "", title, "")
	if res.Status != model.StatusLimited {
		t.Errorf("status = %s, want limited", res.Status)
	}
}

func TestPerformCrossCheck_GenerativeSimilarity(t *testing.T) {
	s := &fakeSearcher{fn: func(q string) ([]search.Result, error) {
		return []search.Result{hit("bbc.com", "Completely different words here")}, nil
	}}
	gen := &fakeGenerator{text: "```json\n{\"similarity\": 140, \"reasoning\": \"same event\"}\n```"}
	res := NewChecker(poolOf(s), gen).PerformCrossCheck(context.Background(), "", title, "")
	if len(res.Matches) != 1 {
		t.Fatalf("matches = %+v", res.Matches)
	}
	if m := res.Matches[0]; m.Similarity != 100 || m.Reasoning != "same event" {
		t.Errorf("match = %+v, want clamped similarity 100", m)
	}
}

func TestSimilarity_MalformedFallsBack(t *testing.T) {
	c := NewChecker(nil, &fakeGenerator{text: "not json"})
	sim, reason := c.similarity(context.Background(), "a b c", "a b d", "bbc.com")
	if sim != 50 {
		t.Errorf("sim = %d, want 50", sim)
	}
	if reason != "Fallback calculation - 2/4 word overlap" {
		t.Errorf("reason = %q", reason)
	}
}

func TestPerformCrossCheck_ParallelMatchesSequential(t *testing.T) {
	fn := func(q string) ([]search.Result, error) {
		switch {
		case strings.Contains(q, "site:cnn.com"):
			return []search.Result{hit("reuters.com", title), hit("cnn.com", title+" today")}, nil
		case strings.Contains(q, "site:mb.com.ph"):
			return []search.Result{hit("pna.gov.ph", title+" says senate")}, nil
		default:
			return nil, nil
		}
	}
	seq := NewChecker(poolOf(&fakeSearcher{fn: fn}), nil).PerformCrossCheck(context.Background(), "", title, "")
	par := NewChecker(poolOf(&fakeSearcher{fn: fn}), nil, WithWorkers(4)).PerformCrossCheck(context.Background(), "", title, "")
	if diff := cmp.Diff(seq, par); diff != "" {
		t.Errorf("parallel result differs (-seq +par):\n%s", diff)
	}
	if len(seq.Matches) != 3 || seq.Matches[0].Similarity != 100 {
		t.Errorf("matches = %+v", seq.Matches)
	}
}

// slowSearcher 首个分块立即返回，其余分块阻塞到 ctx 结束
type slowSearcher struct {
	fakeSearcher
	first []search.Result
}

func (f *slowSearcher) Search(ctx context.Context, req *search.Request) (*search.Response, error) {
	f.mu.Lock()
	f.queries = append(f.queries, req.Query)
	f.mu.Unlock()
	if strings.Contains(req.Query, "site:cnn.com") {
		return &search.Response{Results: f.first}, nil
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestPerformCrossCheck_ParallelStopsEarly(t *testing.T) {
	s := &slowSearcher{}
	for _, d := range TrustedDomains[:7] {
		s.first = append(s.first, hit(d, title))
	}
	res := NewChecker(poolOf(s), nil, WithWorkers(2), WithTimeout(5*time.Second)).
		PerformCrossCheck(context.Background(), "", title, "")
	if len(res.Matches) != MaxResults {
		t.Errorf("matches = %d, want %d", len(res.Matches), MaxResults)
	}
	// 最后一个分块只能在取消之后才拿到并发槽位
	if n := s.calls(); n >= 4 {
		t.Errorf("search calls = %d, want pending chunks cancelled", n)
	}
}

func TestTierFor(t *testing.T) {
	tests := []struct {
		mean   float64
		tier   model.Tier
		status model.CrossCheckStatus
	}{
		{0, model.TierLow, model.StatusLimited},
		{59.9, model.TierLow, model.StatusLimited},
		{60, model.TierMedium, model.StatusPartial},
		{70, model.TierHigh, model.StatusConfirmed},
		{85, model.TierVeryHigh, model.StatusVerified},
	}
	for _, tt := range tests {
		tier, status := TierFor(tt.mean)
		if tier != tt.tier || status != tt.status {
			t.Errorf("TierFor(%v) = %s/%s, want %s/%s", tt.mean, tier, status, tt.tier, tt.status)
		}
	}
}

func TestSummary(t *testing.T) {
	one := []model.SearchMatch{{SourceDomain: "rappler.com", Similarity: 72}}
	if got := Summary(one, model.TierHigh); got != "Found 1 report from rappler.com at 72% (High)." {
		t.Errorf("Summary(one) = %q", got)
	}
	two := []model.SearchMatch{{SourceDomain: "a.com", Similarity: 90}, {SourceDomain: "b.com", Similarity: 80}}
	if got := Summary(two, model.TierVeryHigh); got != "Found 2 reports from a.com, b.com, avg 85% (Very High)." {
		t.Errorf("Summary(two) = %q", got)
	}
}

func TestTruncateQuery(t *testing.T) {
	long := strings.Repeat("á", 250)
	got := truncateQuery(long)
	if n := len([]rune(got)); n != maxQueryLen+3 {
		t.Errorf("truncated rune length = %d", n)
	}
	if truncateQuery("  short  ") != "short" {
		t.Error("short title should be trimmed only")
	}
}
