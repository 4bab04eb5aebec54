package fusion

import (
	"fmt"
	"math"
	"strings"

	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/logger"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/model"
)

// Verbosity 控制融合过程是否输出日志
type Verbosity int

const (
	Silent Verbosity = iota
	Verbose
)

// Input 融合输入
type Input struct {
	MLScore             int
	GeminiScore         *int // nil 表示没有独立评分
	TrustedSourceCount  int
	GeminiSourceBoosted bool
}

// Weights 分类器与生成式评分的权重
type Weights struct {
	ML     float64
	Gemini float64
}

// 以下阈值为经验值，可调
var (
	// 按 min(count,3) 索引
	StandardWeights = [4]Weights{{0.90, 0.10}, {0.70, 0.30}, {0.40, 0.60}, {0.20, 0.80}}
	BoostedWeights  = [4]Weights{{0.80, 0.20}, {0.60, 0.40}, {0.30, 0.70}, {0.15, 0.85}}

	BoostedDisagreementWeights = Weights{0.45, 0.55}
	ManySourceOverrideWeights  = Weights{0.40, 0.60}
	TwoSourceOverrideWeights   = Weights{0.50, 0.50}
)

const (
	boostedDisagreement    = 50
	manySourceDisagreement = 40
	twoSourceDisagreement  = 50
	lowScoreRescueCeiling  = 40
	weightTolerance        = 1e-9
)

func init() {
	all := append(StandardWeights[:], BoostedWeights[:]...)
	all = append(all, BoostedDisagreementWeights, ManySourceOverrideWeights, TwoSourceOverrideWeights)
	for _, w := range all {
		if math.Abs(w.ML+w.Gemini-1) > weightTolerance {
			panic(fmt.Sprintf("fusion: weights %v do not sum to 1", w))
		}
	}
}

// WeightsFor 查表得到权重，boosted 仅在 count>=2 时生效
func WeightsFor(count int, boosted bool) Weights {
	idx := count
	if idx > 3 {
		idx = 3
	}
	if idx < 0 {
		idx = 0
	}
	if boosted && count >= 2 {
		return BoostedWeights[idx]
	}
	return StandardWeights[idx]
}

// Fuse 将分类器分数、生成式评分与可信来源数量融合为最终结论
func Fuse(in Input, v Verbosity) model.FusionResult {
	ml := clampScore(in.MLScore)
	count := in.TrustedSourceCount
	if count < 0 {
		count = 0
	}

	var (
		final      int
		w          Weights
		confidence float64
		notes      []string
	)

	if in.GeminiScore == nil {
		boost := mlOnlyBoost(count)
		final = clampScore(ml + boost)
		w = Weights{ML: 1, Gemini: 0}
		confidence = mlOnlyConfidence(count)
		notes = append(notes, fmt.Sprintf("Gemini score unavailable; classifier score %d", ml))
		if boost > 0 {
			notes = append(notes, fmt.Sprintf("boosted by %d for %d trusted source(s)", boost, count))
		}
	} else {
		gemini := clampScore(*in.GeminiScore)
		boosted := in.GeminiSourceBoosted && count >= 2
		w = WeightsFor(count, in.GeminiSourceBoosted)
		diff := ml - gemini
		if diff < 0 {
			diff = -diff
		}

		switch {
		case boosted:
			if diff > boostedDisagreement {
				w = BoostedDisagreementWeights
				notes = append(notes, fmt.Sprintf("large disagreement (%d) with boosted Gemini score", diff))
			}
		case count >= 3 && diff > manySourceDisagreement:
			w = ManySourceOverrideWeights
			notes = append(notes, fmt.Sprintf("disagreement (%d) despite %d trusted sources", diff, count))
		case count >= 2 && diff > twoSourceDisagreement:
			w = TwoSourceOverrideWeights
			notes = append(notes, fmt.Sprintf("disagreement (%d) with %d trusted sources", diff, count))
		}

		final = clampScore(int(math.Round(float64(ml)*w.ML + float64(gemini)*w.Gemini)))
		notes = append([]string{fmt.Sprintf("classifier %d x %.2f + Gemini %d x %.2f with %d trusted source(s)",
			ml, w.ML, gemini, w.Gemini, count)}, notes...)

		if count >= 3 && in.GeminiSourceBoosted && final < lowScoreRescueCeiling {
			extra := min(10, count*2)
			final = clampScore(final + extra)
			notes = append(notes, fmt.Sprintf("strong corroboration raised a low score by %d", extra))
		}
		confidence = 1.0
	}

	res := model.FusionResult{
		FinalScore:            final,
		Classification:        ClassificationFor(final),
		Confidence:            confidence,
		MLWeight:              w.ML,
		GeminiWeight:          w.Gemini,
		Reasoning:             strings.Join(notes, "; "),
		FactualityLevel:       LevelFor(final),
		FactualityDescription: DescriptionFor(final),
	}

	if v == Verbose {
		logger.Log.Infof("融合结果: ml=%d gemini=%s sources=%d boosted=%v weights=%.2f/%.2f final=%d (%s, %s)",
			ml, scoreString(in.GeminiScore), count, in.GeminiSourceBoosted,
			w.ML, w.Gemini, final, res.Classification, res.FactualityLevel)
	}
	return res
}

// AdjustConfidence 根据融合置信度系数与来源数量调整分类器置信度
func AdjustConfidence(base, adjustment float64, count int) float64 {
	c := base * adjustment
	switch {
	case count >= 3:
		c += 0.1
	case count >= 2:
		c += 0.05
	}
	return math.Max(0, math.Min(1, c))
}

func mlOnlyBoost(count int) int {
	switch {
	case count >= 3:
		return min(20, count*4)
	case count == 2:
		return min(10, count*3)
	case count == 1:
		return 5
	default:
		return 0
	}
}

func mlOnlyConfidence(count int) float64 {
	switch {
	case count >= 3:
		return 0.85
	case count == 2:
		return 0.80
	case count == 1:
		return 0.75
	default:
		return 0.70
	}
}

func scoreString(s *int) string {
	if s == nil {
		return "n/a"
	}
	return fmt.Sprintf("%d", *s)
}
