package usecase

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/article"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/cancel"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/engine"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/model"
	"github.com/iWorld-y/fact_radar/app/portal/internal/domain"
	"github.com/iWorld-y/fact_radar/app/portal/internal/repo"
)

const notPoliticalMessage = "This detector is specifically designed for Philippine political news content. " +
	"The provided content does not appear to be related to Philippine politics or government affairs."

// AnalysisUseCase 事实性分析业务逻辑
type AnalysisUseCase struct {
	analyzer repo.Analyzer
	history  repo.HistoryRepo
	registry cancel.Registry
	log      *log.Helper
}

// NewAnalysisUseCase 创建分析业务逻辑实例
func NewAnalysisUseCase(analyzer repo.Analyzer, history repo.HistoryRepo, registry cancel.Registry, logger log.Logger) *AnalysisUseCase {
	return &AnalysisUseCase{analyzer: analyzer, history: history, registry: registry, log: log.NewHelper(logger)}
}

// Predict 执行分析，并把引擎错误映射为 HTTP 错误
func (uc *AnalysisUseCase) Predict(ctx context.Context, req *domain.PredictRequest) (*model.Analysis, error) {
	if req == nil || (strings.TrimSpace(req.Text) == "" && strings.TrimSpace(req.URL) == "") {
		return nil, errors.BadRequest("NO_INPUT", "No text or URL provided")
	}
	res, err := uc.analyzer.Analyze(ctx, engine.Request{
		ID:    req.AnalysisID,
		Text:  req.Text,
		URL:   strings.TrimSpace(req.URL),
		Title: req.Title,
	})
	if err != nil {
		return nil, uc.mapError(ctx, req.AnalysisID, err)
	}
	return res, nil
}

func (uc *AnalysisUseCase) mapError(ctx context.Context, id string, err error) error {
	switch {
	case stderrors.Is(err, engine.ErrCancelled):
		return errors.Conflict("ANALYSIS_CANCELLED", "Analysis was cancelled")
	case stderrors.Is(err, engine.ErrNotPolitical):
		return errors.New(422, "NOT_POLITICAL", notPoliticalMessage)
	case stderrors.Is(err, engine.ErrNoInput):
		return errors.BadRequest("NO_INPUT", "No text or URL provided")
	case stderrors.Is(err, article.ErrTooShort):
		return errors.BadRequest("NO_CONTENT", "No content could be extracted from the URL")
	}
	uc.log.WithContext(ctx).Errorf("analysis %s failed: %v", id, err)
	return errors.InternalServer("ANALYSIS_FAILED", err.Error())
}

// Cancel 登记取消请求，运行中的分析在下一个检查点停止
func (uc *AnalysisUseCase) Cancel(ctx context.Context, req *domain.CancelRequest) (*domain.CancelReply, error) {
	if req == nil || strings.TrimSpace(req.AnalysisID) == "" {
		return nil, errors.BadRequest("NO_ANALYSIS_ID", "No analysis ID provided")
	}
	if err := uc.registry.Cancel(ctx, req.AnalysisID); err != nil {
		return nil, errors.InternalServer("CANCEL_FAILED", err.Error())
	}
	uc.log.WithContext(ctx).Infof("analysis %s cancellation requested", req.AnalysisID)
	return &domain.CancelReply{
		Success:    true,
		AnalysisID: req.AnalysisID,
		Message:    "Analysis cancellation requested",
	}, nil
}

// KeyStatus 返回 key 轮换状态，密钥已脱敏
func (uc *AnalysisUseCase) KeyStatus(ctx context.Context) engine.KeyStatus {
	return uc.analyzer.KeyStatus()
}

// History 列出最近的分析摘要
func (uc *AnalysisUseCase) History(ctx context.Context, limit int) (*domain.HistoryReply, error) {
	list, err := uc.history.List(ctx, limit)
	if err != nil {
		return nil, errors.InternalServer("HISTORY_FAILED", err.Error())
	}
	items := make([]*domain.HistoryItem, 0, len(list))
	for _, a := range list {
		items = append(items, &domain.HistoryItem{
			ID:              a.ID,
			Title:           a.Title,
			URL:             a.URL,
			FinalScore:      a.Fusion.FinalScore,
			Classification:  string(a.Fusion.Classification),
			FactualityLevel: string(a.Fusion.FactualityLevel),
			CreatedAt:       a.CreatedAt,
		})
	}
	return &domain.HistoryReply{Items: items, Total: len(items)}, nil
}
