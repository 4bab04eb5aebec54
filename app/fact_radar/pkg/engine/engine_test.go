package engine

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/article"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/assessor"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/cancel"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/classifier"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/crosscheck"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/model"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/storage"
)

type fakeClassifier struct {
	res   model.ClassifierResult
	err   error
	calls int
}

func (f *fakeClassifier) Classify(string) (model.ClassifierResult, error) {
	f.calls++
	return f.res, f.err
}

type fakeChecker struct {
	res    model.CrossCheckResult
	calls  int
	titles []string
	hook   func()
}

func (f *fakeChecker) PerformCrossCheck(_ context.Context, _, title, _ string) model.CrossCheckResult {
	f.calls++
	f.titles = append(f.titles, title)
	if f.hook != nil {
		f.hook()
	}
	return f.res
}

type fakeAssessor struct {
	assessment  model.GeminiAssessment
	political   model.ContentCheck
	assessCalls int
	scores      []int
}

func (f *fakeAssessor) AssessFactuality(context.Context, string, string, *model.CrossCheckResult) model.GeminiAssessment {
	f.assessCalls++
	return f.assessment
}

func (f *fakeAssessor) GenerateBreakdown(_ context.Context, _ string, score int, _ string) model.Breakdown {
	f.scores = append(f.scores, score)
	return assessor.FallbackBreakdown(score, "text content")
}

func (f *fakeAssessor) CheckPoliticalContent(context.Context, string) model.ContentCheck {
	return f.political
}

func (f *fakeAssessor) Summarize(_ context.Context, content, _ string) model.Summary {
	return model.Summary{Text: content, Source: "test"}
}

func (f *fakeAssessor) GenerateTitle(_ context.Context, _, extracted, _ string) string {
	if extracted != "" {
		return extracted
	}
	return "Generated title"
}

type fakeStore struct {
	saved    []*model.Analysis
	existing *model.Analysis
}

func (f *fakeStore) Save(_ context.Context, a *model.Analysis) error {
	f.saved = append(f.saved, a)
	return nil
}

func (f *fakeStore) FindByURL(context.Context, string) (*model.Analysis, error) {
	if f.existing == nil {
		return nil, storage.ErrNotFound
	}
	return f.existing, nil
}

type fakeFetcher struct{}

func (fakeFetcher) Fetch(_ context.Context, url string) (*article.Article, error) {
	return &article.Article{URL: url, Title: "Fetched title", Content: "Fetched body about the Senate."}, nil
}

func intPtr(v int) *int { return &v }

func threeMatches() model.CrossCheckResult {
	return model.CrossCheckResult{
		Status:         model.StatusConfirmed,
		ConfidenceTier: model.TierHigh,
		Matches: []model.SearchMatch{
			{SourceDomain: "rappler.com", Similarity: 80},
			{SourceDomain: "pna.gov.ph", Similarity: 75},
			{SourceDomain: "inquirer.net", Similarity: 70},
		},
	}
}

type fixture struct {
	cls      *fakeClassifier
	checker  *fakeChecker
	assessor *fakeAssessor
	store    *fakeStore
	registry *cancel.MemoryRegistry
	engine   *Engine
}

func newFixture(opts Options) *fixture {
	f := &fixture{
		cls:      &fakeClassifier{res: model.ClassifierResult{RealProbability: 0.8, MLScore: 80, Confidence: 0.8}},
		checker:  &fakeChecker{res: threeMatches()},
		assessor: &fakeAssessor{assessment: model.GeminiAssessment{Score: intPtr(85), Level: model.LevelHigh}},
		store:    &fakeStore{},
		registry: cancel.NewMemoryRegistry(),
	}
	f.engine = NewEngine(Deps{
		Classifier: f.cls,
		Checker:    f.checker,
		Assessor:   f.assessor,
		Fetcher:    fakeFetcher{},
		Store:      f.store,
		Registry:   f.registry,
	}, opts)
	return f
}

func TestAnalyze_FullFlow(t *testing.T) {
	f := newFixture(Options{})
	var stages []string
	res, err := f.engine.Analyze(context.Background(), Request{
		ID:               "a-1",
		Text:             "The Senate approved the national budget.",
		Title:            "Senate approves budget",
		ProgressCallback: func(status string, _ int) { stages = append(stages, status) },
	})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if res.Fusion.FinalScore != 84 || res.Fusion.Classification != model.Real || res.Fusion.FactualityLevel != model.LevelHigh {
		t.Errorf("fusion = %+v", res.Fusion)
	}
	if math.Abs(res.Confidence-0.9) > 1e-9 {
		t.Errorf("Confidence = %v, want 0.9", res.Confidence)
	}
	if res.Title != "Senate approves budget" || f.checker.titles[0] != "Senate approves budget" {
		t.Errorf("title not propagated: %q / %v", res.Title, f.checker.titles)
	}
	if len(f.store.saved) != 1 || f.store.saved[0].ID != "a-1" {
		t.Errorf("saved = %v", f.store.saved)
	}
	if len(f.assessor.scores) != 1 || f.assessor.scores[0] != 84 {
		t.Errorf("breakdown scores = %v", f.assessor.scores)
	}
	if res.Breakdown.Level != model.LevelHigh {
		t.Errorf("breakdown level = %s", res.Breakdown.Level)
	}
	if stages[0] != "starting" || stages[len(stages)-1] != "completed" {
		t.Errorf("progress stages = %v", stages)
	}
}

func TestAnalyze_GeneratesID(t *testing.T) {
	f := newFixture(Options{})
	res, err := f.engine.Analyze(context.Background(), Request{Text: "Senate text"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.ID) != 36 {
		t.Errorf("ID = %q, want uuid", res.ID)
	}
}

func TestAnalyze_CancelledBeforeStart(t *testing.T) {
	f := newFixture(Options{})
	_ = f.engine.Cancel(context.Background(), "a-2")

	_, err := f.engine.Analyze(context.Background(), Request{ID: "a-2", Text: "Senate text"})
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
	if f.checker.calls != 0 || len(f.store.saved) != 0 {
		t.Error("work done after cancellation")
	}
	if ok, _ := f.registry.IsCancelled(context.Background(), "a-2"); ok {
		t.Error("cancel mark not cleared")
	}
}

func TestAnalyze_CancelledDuringCrossCheck(t *testing.T) {
	f := newFixture(Options{})
	f.checker.hook = func() { _ = f.registry.Cancel(context.Background(), "a-3") }

	_, err := f.engine.Analyze(context.Background(), Request{ID: "a-3", Text: "Senate text"})
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
	if f.assessor.assessCalls != 0 || f.cls.calls != 0 {
		t.Error("assessment or classification ran after cancellation")
	}
	if len(f.store.saved) != 0 {
		t.Error("cancelled analysis persisted")
	}
}

func TestAnalyze_ContextCancelled(t *testing.T) {
	f := newFixture(Options{})
	ctx, cancelFn := context.WithCancel(context.Background())
	cancelFn()
	if _, err := f.engine.Analyze(ctx, Request{ID: "a-4", Text: "x"}); !errors.Is(err, ErrCancelled) {
		t.Errorf("err = %v, want ErrCancelled", err)
	}
}

func TestAnalyze_EmptyTextSafeDefault(t *testing.T) {
	f := newFixture(Options{})
	f.cls.err = classifier.ErrEmptyInput

	res, err := f.engine.Analyze(context.Background(), Request{ID: "a-5", Text: "123 !!!"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Fusion.Classification != model.Fake || res.Fusion.FinalScore != 50 || res.Fusion.FactualityLevel != model.LevelLow {
		t.Errorf("fusion = %+v, want safe default", res.Fusion)
	}
	if res.Confidence != 0.5 {
		t.Errorf("Confidence = %v", res.Confidence)
	}
}

func TestAnalyze_NotPolitical(t *testing.T) {
	f := newFixture(Options{RequirePolitical: true})
	f.assessor.political = model.ContentCheck{IsPhilippinePolitical: false, IsSafeContent: true}

	if _, err := f.engine.Analyze(context.Background(), Request{Text: "Football results"}); !errors.Is(err, ErrNotPolitical) {
		t.Fatalf("err = %v, want ErrNotPolitical", err)
	}
	if f.checker.calls != 0 {
		t.Error("cross-check ran for non-political content")
	}

	f.assessor.political = model.ContentCheck{IsPhilippinePolitical: true, IsSafeContent: true}
	if _, err := f.engine.Analyze(context.Background(), Request{Text: "Senate news"}); err != nil {
		t.Fatalf("political content rejected: %v", err)
	}
}

func TestAnalyze_URLInput(t *testing.T) {
	f := newFixture(Options{})
	res, err := f.engine.Analyze(context.Background(), Request{URL: "https://pna.gov.ph/articles/1"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Title != "Fetched title" || res.Content != "Fetched body about the Senate." {
		t.Errorf("fetched article not used: %+v", res)
	}
}

func TestAnalyze_ReuseExisting(t *testing.T) {
	f := newFixture(Options{ReuseExisting: true})
	f.store.existing = &model.Analysis{ID: "old", URL: "https://pna.gov.ph/articles/1"}

	res, err := f.engine.Analyze(context.Background(), Request{URL: "https://pna.gov.ph/articles/1"})
	if err != nil {
		t.Fatal(err)
	}
	if res.ID != "old" || !res.Reused {
		t.Errorf("res = %+v, want reused analysis", res)
	}
	if f.checker.calls != 0 {
		t.Error("cross-check ran for reused analysis")
	}
}

func TestAnalyze_NoInput(t *testing.T) {
	f := newFixture(Options{})
	if _, err := f.engine.Analyze(context.Background(), Request{Text: "  "}); !errors.Is(err, ErrNoInput) {
		t.Errorf("err = %v, want ErrNoInput", err)
	}
}

type failingGenerator struct{}

func (failingGenerator) Generate(context.Context, string) (string, error) {
	return "", errors.New("upstream down")
}

func TestAnalyze_OutageStillFuses(t *testing.T) {
	f := newFixture(Options{})
	eng := NewEngine(Deps{
		Classifier: f.cls,
		Checker:    crosscheck.NewChecker(nil, failingGenerator{}),
		Assessor:   assessor.NewAssessor(failingGenerator{}),
		Registry:   f.registry,
	}, Options{})

	res, err := eng.Analyze(context.Background(), Request{ID: "a-6", Text: "Senate approves budget"})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if res.CrossCheck.Status != model.StatusUnavailable {
		t.Errorf("cross-check status = %s", res.CrossCheck.Status)
	}
	if res.Assessment.Available() {
		t.Error("assessment should have no score")
	}
	if res.Fusion.FinalScore != 80 || res.Fusion.Classification != model.Real {
		t.Errorf("fusion = %+v", res.Fusion)
	}
	if math.Abs(res.Fusion.Confidence-0.70) > 1e-9 {
		t.Errorf("fusion confidence = %v, want 0.70", res.Fusion.Confidence)
	}
	if res.Breakdown.Source != assessor.SourceFallback {
		t.Errorf("breakdown source = %s", res.Breakdown.Source)
	}
}
