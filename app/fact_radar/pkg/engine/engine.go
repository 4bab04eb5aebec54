package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/article"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/cancel"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/classifier"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/fusion"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/logger"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/model"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/storage"
)

var (
	// ErrCancelled 分析在检查点被取消
	ErrCancelled = errors.New("engine: analysis cancelled")
	// ErrNotPolitical 内容不是菲律宾政治新闻
	ErrNotPolitical = errors.New("engine: content is not Philippine political news")
	// ErrNoInput 既没有文本也没有 URL
	ErrNoInput = errors.New("engine: text or url required")
)

// 空文本时的安全默认值
const (
	defaultScore      = 50
	defaultConfidence = 0.5
)

// TextClassifier 文本分类
type TextClassifier interface {
	Classify(text string) (model.ClassifierResult, error)
}

// CrossChecker 可信来源交叉验证
type CrossChecker interface {
	PerformCrossCheck(ctx context.Context, articleURL, articleTitle, unused string) model.CrossCheckResult
}

// Assessor 生成式评估及辅助能力
type Assessor interface {
	AssessFactuality(ctx context.Context, content, articleURL string, info *model.CrossCheckResult) model.GeminiAssessment
	GenerateBreakdown(ctx context.Context, content string, finalScore int, articleURL string) model.Breakdown
	CheckPoliticalContent(ctx context.Context, content string) model.ContentCheck
	Summarize(ctx context.Context, content, contentType string) model.Summary
	GenerateTitle(ctx context.Context, content, extractedTitle, articleURL string) string
}

// ArticleFetcher 抓取 URL 正文
type ArticleFetcher interface {
	Fetch(ctx context.Context, url string) (*article.Article, error)
}

// Store 分析结果持久化
type Store interface {
	Save(ctx context.Context, a *model.Analysis) error
	FindByURL(ctx context.Context, url string) (*model.Analysis, error)
}

// Deps 引擎依赖，Fetcher、Store、Registry 可为空
type Deps struct {
	Classifier TextClassifier
	Checker    CrossChecker
	Assessor   Assessor
	Fetcher    ArticleFetcher
	Store      Store
	Registry   cancel.Registry
}

// Options 引擎行为开关
type Options struct {
	RequirePolitical bool
	ReuseExisting    bool
}

// Engine 核心处理引擎
type Engine struct {
	deps Deps
	opts Options
}

// NewEngine 创建引擎实例
func NewEngine(deps Deps, opts Options) *Engine {
	if deps.Registry == nil {
		deps.Registry = cancel.NewMemoryRegistry()
	}
	return &Engine{deps: deps, opts: opts}
}

// Registry 取消登记表
func (e *Engine) Registry() cancel.Registry {
	return e.deps.Registry
}

// Request 一次分析请求
type Request struct {
	ID               string
	Text             string
	URL              string
	Title            string
	ProgressCallback func(status string, progress int)
}

// Analyze 执行一次完整分析：交叉验证 → 生成式评估 → 分类与融合
// 被取消时返回 ErrCancelled，且不落库
func (e *Engine) Analyze(ctx context.Context, req Request) (*model.Analysis, error) {
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	log := logger.ForAnalysis(id)
	defer func() {
		if err := e.deps.Registry.Clear(context.WithoutCancel(ctx), id); err != nil {
			log.Warnf("清除取消标记失败: %v", err)
		}
	}()

	progress := func(status string, p int) {
		if req.ProgressCallback != nil {
			req.ProgressCallback(status, p)
		}
	}

	text := strings.TrimSpace(req.Text)
	url := strings.TrimSpace(req.URL)
	if text == "" && url == "" {
		return nil, ErrNoInput
	}
	progress("starting", 0)

	if err := e.checkpoint(ctx, id, "开始前"); err != nil {
		return nil, err
	}

	if e.opts.ReuseExisting && url != "" && e.deps.Store != nil {
		existing, err := e.deps.Store.FindByURL(ctx, url)
		switch {
		case err == nil:
			log.Infof("复用已有分析结果 [%s]", existing.ID)
			existing.Reused = true
			progress("completed", 100)
			return existing, nil
		case !errors.Is(err, storage.ErrNotFound):
			log.Warnf("查询已有分析失败，继续分析: %v", err)
		}
	}

	extractedTitle := req.Title
	if text == "" {
		if e.deps.Fetcher == nil {
			return nil, fmt.Errorf("fetch %s: no article fetcher configured", url)
		}
		art, err := e.deps.Fetcher.Fetch(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("提取文章失败: %w", err)
		}
		text = art.Content
		if extractedTitle == "" {
			extractedTitle = art.Title
		}
		log.Infof("已提取文章正文 %d 字符", len(text))
	}
	progress("content ready", 10)

	if e.opts.RequirePolitical {
		if err := e.checkpoint(ctx, id, "内容分类前"); err != nil {
			return nil, err
		}
		check := e.deps.Assessor.CheckPoliticalContent(ctx, text)
		log.WithFields(logrus.Fields{"political": check.IsPhilippinePolitical, "safe": check.IsSafeContent}).
			Infof("内容分类: %s", check.Reason)
		if !check.IsPhilippinePolitical || !check.IsSafeContent {
			return nil, ErrNotPolitical
		}
	}

	title := e.deps.Assessor.GenerateTitle(ctx, text, extractedTitle, url)
	progress("title ready", 20)

	if err := e.checkpoint(ctx, id, "交叉验证前"); err != nil {
		return nil, err
	}
	cc := e.deps.Checker.PerformCrossCheck(ctx, url, title, "")
	log.Infof("交叉验证: status=%s tier=%s matches=%d", cc.Status, cc.ConfidenceTier, len(cc.Matches))
	progress("cross-check completed", 45)

	if err := e.checkpoint(ctx, id, "生成式评估前"); err != nil {
		return nil, err
	}
	assessment := e.deps.Assessor.AssessFactuality(ctx, text, url, &cc)
	progress("assessment completed", 70)

	if err := e.checkpoint(ctx, id, "融合前"); err != nil {
		return nil, err
	}

	res := &model.Analysis{
		ID:         id,
		Title:      title,
		URL:        url,
		Content:    text,
		CrossCheck: &cc,
		Assessment: assessment,
		CreatedAt:  time.Now(),
	}

	cls, err := e.deps.Classifier.Classify(text)
	switch {
	case errors.Is(err, classifier.ErrEmptyInput):
		log.Warn("预处理后文本为空，返回默认结果")
		res.Classifier = model.ClassifierResult{RealProbability: 0.5, MLScore: defaultScore, Confidence: defaultConfidence}
		res.Fusion = SafeDefault()
		res.Confidence = defaultConfidence
	case err != nil:
		return nil, fmt.Errorf("classify: %w", err)
	default:
		res.Classifier = cls
		res.Fusion = fusion.Fuse(fusion.Input{
			MLScore:             cls.MLScore,
			GeminiScore:         assessment.Score,
			TrustedSourceCount:  cc.MatchCount(),
			GeminiSourceBoosted: assessment.SourceBoostApplied,
		}, fusion.Verbose)
		res.Confidence = fusion.AdjustConfidence(cls.Confidence, res.Fusion.Confidence, cc.MatchCount())
	}
	progress("fusion completed", 80)

	res.Summary = e.deps.Assessor.Summarize(ctx, text, "article")
	res.Breakdown = e.deps.Assessor.GenerateBreakdown(ctx, text, res.Fusion.FinalScore, url)
	progress("breakdown completed", 95)

	if e.deps.Store != nil {
		if err := e.deps.Store.Save(ctx, res); err != nil {
			log.Errorf("保存分析结果失败: %v", err)
		}
	}

	log.Infof("分析完成: %s %d%% (%s)", res.Fusion.Classification, res.Fusion.FinalScore, res.Fusion.FactualityLevel)
	progress("completed", 100)
	return res, nil
}

// Cancel 标记分析为已取消，下一个检查点生效
func (e *Engine) Cancel(ctx context.Context, id string) error {
	return e.deps.Registry.Cancel(ctx, id)
}

func (e *Engine) checkpoint(ctx context.Context, id, stage string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCancelled, err)
	}
	cancelled, err := e.deps.Registry.IsCancelled(ctx, id)
	if err != nil {
		logger.ForAnalysis(id).Warnf("查询取消标记失败: %v", err)
		return nil
	}
	if cancelled {
		logger.ForAnalysis(id).Infof("分析在%s被取消", stage)
		return ErrCancelled
	}
	return nil
}

// SafeDefault 无法判定时的保守结果
func SafeDefault() model.FusionResult {
	return model.FusionResult{
		FinalScore:            defaultScore,
		Classification:        model.Fake,
		Confidence:            defaultConfidence,
		MLWeight:              1,
		GeminiWeight:          0,
		Reasoning:             "Insufficient text after preprocessing; returning a conservative default",
		FactualityLevel:       model.LevelLow,
		FactualityDescription: fusion.DescriptionFor(defaultScore),
	}
}
