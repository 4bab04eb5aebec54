package service

import (
	"strconv"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/iWorld-y/fact_radar/app/portal/internal/domain"
	"github.com/iWorld-y/fact_radar/app/portal/internal/usecase"
)

// AnalysisService 分析相关 HTTP 接口
type AnalysisService struct {
	uc  *usecase.AnalysisUseCase
	log *log.Helper
}

// NewAnalysisService 创建分析服务
func NewAnalysisService(uc *usecase.AnalysisUseCase, logger log.Logger) *AnalysisService {
	return &AnalysisService{uc: uc, log: log.NewHelper(logger)}
}

// Predict POST /predict
func (s *AnalysisService) Predict(ctx http.Context) error {
	var req domain.PredictRequest
	if err := ctx.Bind(&req); err != nil {
		return errors.BadRequest("INVALID_BODY", "No data provided")
	}
	res, err := s.uc.Predict(ctx, &req)
	if err != nil {
		return err
	}
	return ctx.Result(200, res)
}

// CancelAnalysis POST /cancel-analysis
func (s *AnalysisService) CancelAnalysis(ctx http.Context) error {
	var req domain.CancelRequest
	if err := ctx.Bind(&req); err != nil {
		return errors.BadRequest("INVALID_BODY", "No data provided")
	}
	reply, err := s.uc.Cancel(ctx, &req)
	if err != nil {
		return err
	}
	return ctx.Result(200, reply)
}

// KeyStatus GET /key-status
func (s *AnalysisService) KeyStatus(ctx http.Context) error {
	return ctx.Result(200, s.uc.KeyStatus(ctx))
}

// History GET /history?limit=
func (s *AnalysisService) History(ctx http.Context) error {
	limit := 0
	if v := ctx.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.BadRequest("INVALID_LIMIT", "limit must be an integer")
		}
		limit = n
	}
	reply, err := s.uc.History(ctx, limit)
	if err != nil {
		return err
	}
	return ctx.Result(200, reply)
}
