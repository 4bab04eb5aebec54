package assessor

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/fusion"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/llm"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/logger"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/model"
)

const (
	defaultConfidence = 0.8
	maxBoostFactor    = 25.0
)

// Assessor 生成式事实性评估器
type Assessor struct {
	gen llm.Generator
}

// NewAssessor gen 为 nil 时所有操作走回退逻辑
func NewAssessor(gen llm.Generator) *Assessor {
	return &Assessor{gen: gen}
}

// Available 生成能力是否可用
func (a *Assessor) Available() bool {
	if a == nil || a.gen == nil {
		return false
	}
	if av, ok := a.gen.(interface{ Available() bool }); ok {
		return av.Available()
	}
	return true
}

// Unavailable 无法评估时的固定结果，Score 为 nil 表示没有独立信号
func Unavailable() model.GeminiAssessment {
	return model.GeminiAssessment{
		Score:      nil,
		Level:      model.LevelUnknown,
		Confidence: 0,
		Reasoning:  "Unable to perform AI-based factuality assessment",
		KeyFactors: []string{"Gemini analysis unavailable"},
	}
}

// flexNumber 兼容 JSON 数字与数字字符串，非有限值按缺失处理
type flexNumber struct {
	value float64
	set   bool
}

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return fmt.Errorf("not a number: %q", s)
	}
	// NaN 与 Inf 视为未给出
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	n.value, n.set = v, true
	return nil
}

type assessmentReply struct {
	Score      flexNumber `json:"factuality_score"`
	Level      string     `json:"factuality_level"`
	Confidence flexNumber `json:"confidence"`
	KeyFactors []string   `json:"key_factors"`
	Reasoning  string     `json:"reasoning"`
}

// AssessFactuality 独立评分，并按可信来源佐证情况加分
// 任何失败都返回 Unavailable()，不返回错误
func (a *Assessor) AssessFactuality(ctx context.Context, content, articleURL string, info *model.CrossCheckResult) model.GeminiAssessment {
	if !a.Available() {
		return Unavailable()
	}

	text, err := a.gen.Generate(ctx, assessmentPrompt(content, articleURL, info))
	if err != nil {
		logger.Log.Warnf("生成式评估失败: %v", err)
		return Unavailable()
	}

	var reply assessmentReply
	if err := llm.ExtractJSON(text, &reply); err != nil {
		logger.Log.Warnf("生成式评估返回格式错误: %v", err)
		return Unavailable()
	}
	if !reply.Score.set {
		logger.Log.Warn("生成式评估缺少 factuality_score")
		return Unavailable()
	}

	original := clamp(int(reply.Score.value), 0, 100)
	score := original
	reasoning := reply.Reasoning

	if n := info.MatchCount(); n > 0 {
		mean := info.MeanSimilarity()
		if reason, ok := BoostQualifies(n, mean); ok {
			applied := ScaleBoost(SourceBoostFactor(n, mean, info.ConfidenceTier), original)
			score = min(100, int(math.Round(float64(original)+applied)))
			reasoning = strings.TrimSpace(fmt.Sprintf("%s Score boosted by %.1f points due to %s.", reasoning, applied, reason))
			logger.Log.Infof("来源加分: %d -> %d (+%.1f) %s", original, score, applied, reason)
		} else {
			logger.Log.Debugf("未满足来源加分条件: sources=%d avg=%.0f tier=%s", n, mean, info.ConfidenceTier)
		}
	}

	level := model.Level(reply.Level)
	if !fusion.LevelContains(level, score) {
		level = fusion.LevelFor(score)
	}

	confidence := defaultConfidence
	if reply.Confidence.set {
		confidence = reply.Confidence.value
	}
	confidence = math.Max(0, math.Min(1, confidence))
	if n := info.MatchCount(); n > 0 {
		confidence = math.Min(1, confidence+math.Min(0.2, float64(n)*0.05))
	}

	if reasoning == "" {
		reasoning = "Analysis completed"
	}
	keyFactors := reply.KeyFactors
	if keyFactors == nil {
		keyFactors = []string{}
	}

	res := model.GeminiAssessment{
		Score:      &score,
		Level:      level,
		Confidence: confidence,
		Reasoning:  reasoning,
		KeyFactors: keyFactors,
	}
	if score > original {
		res.SourceBoostApplied = true
		res.OriginalScore = &original
	}
	return res
}

// SourceBoostFactor 佐证加分系数，上限 25
func SourceBoostFactor(count int, meanSimilarity float64, tier model.Tier) float64 {
	if count < 1 {
		return 0
	}
	base := math.Min(15, float64(count*3))
	sim := math.Min(10, meanSimilarity*0.15)
	var conf float64
	switch tier {
	case model.TierVeryHigh:
		conf = 8
	case model.TierHigh:
		conf = 5
	case model.TierMedium:
		conf = 3
	}
	return math.Min(maxBoostFactor, base+sim+conf)
}

// BoostQualifies 是否满足加分条件，返回原因描述
func BoostQualifies(count int, meanSimilarity float64) (string, bool) {
	switch {
	case count >= 3 && meanSimilarity >= 70:
		return fmt.Sprintf("strong validation: %d trusted sources with %.0f%% similarity", count, meanSimilarity), true
	case count >= 2 && meanSimilarity >= 80:
		return fmt.Sprintf("high confidence validation: %d sources with %.0f%% similarity", count, meanSimilarity), true
	case count >= 4:
		return fmt.Sprintf("broad coverage: %d trusted sources reporting", count), true
	case count >= 1 && meanSimilarity >= 90:
		return fmt.Sprintf("high precision match: %.0f%% similarity from trusted source", meanSimilarity), true
	default:
		return "", false
	}
}

// ScaleBoost 原始分越低加分比例越高
func ScaleBoost(factor float64, original int) float64 {
	switch {
	case original < 30:
		return factor * 1.2
	case original < 50:
		return factor
	case original < 70:
		return factor * 0.8
	default:
		return factor * 0.5
	}
}

func assessmentPrompt(content, articleURL string, info *model.CrossCheckResult) string {
	contentType := "text content"
	urlContext := "\nContent Source: User-provided text or manual input"
	if articleURL != "" {
		contentType = "published article"
		urlContext = "\nArticle URL: " + articleURL
	}

	var sourcesContext string
	if n := info.MatchCount(); n > 0 {
		names := make([]string, 0, 3)
		for i, m := range info.Matches {
			if i == 3 {
				break
			}
			names = append(names, m.SourceDomain)
		}
		sourcesContext = fmt.Sprintf("\n\nCross-check Results: Found %d matching reports from trusted sources (%s) with %s confidence and %.0f%% average similarity. This indicates strong external validation from reputable news outlets.",
			n, strings.Join(names, ", "), info.ConfidenceTier, info.MeanSimilarity())
	}

	return fmt.Sprintf(assessmentTemplate, contentType, content, urlContext, sourcesContext)
}

const assessmentTemplate = `Analyze the following news %s and provide a numerical factuality score from 0-100.

Content: %s%s%s

SCORING GUIDELINES:
- 90-100: Very High - Highly factual, well-sourced, verifiable claims
- 75-89: High - Generally factual with minor concerns
- 51-74: Mostly Factual - Some questionable elements but generally reliable
- 26-50: Low - Frequently misleading or poorly sourced
- 0-25: Very Low - Largely false, fabricated, or contradicts verified sources

ANALYSIS CRITERIA:
- Verifiability of main claims against known facts
- Source credibility and transparency within the content
- Internal consistency and logical coherence
- Presence of bias, sensationalism, or misleading elements
- Writing quality and journalistic standards
- External validation from trusted news sources (HEAVILY WEIGHTED if present)

SOURCE ANALYSIS:
- Multiple trusted sources covering the same story with high similarity is strong evidence of legitimacy
- High similarity scores indicate the content aligns well with established reporting
- Even if content has minor issues, strong cross-validation from reputable sources indicates overall reliability

Respond in JSON format:
{
  "factuality_score": integer_0_to_100,
  "factuality_level": "Very Low/Low/Mostly Factual/High/Very High",
  "confidence": 0.0_to_1.0,
  "key_factors": ["brief", "list", "of", "main", "assessment", "factors"],
  "reasoning": "2-3 sentences explaining the score"
}`

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

// Ensure flexNumber implements json.Unmarshaler
var _ json.Unmarshaler = (*flexNumber)(nil)
