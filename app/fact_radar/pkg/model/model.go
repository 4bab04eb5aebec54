package model

import "time"

// Level 五级事实性等级
type Level string

const (
	LevelUnknown       Level = "Unknown"
	LevelVeryLow       Level = "Very Low"
	LevelLow           Level = "Low"
	LevelMostlyFactual Level = "Mostly Factual"
	LevelHigh          Level = "High"
	LevelVeryHigh      Level = "Very High"
)

// Classification 最终判定
type Classification string

const (
	Real Classification = "Real"
	Fake Classification = "Fake"
)

// CrossCheckStatus 交叉验证状态
type CrossCheckStatus string

const (
	StatusUnavailable CrossCheckStatus = "unavailable"
	StatusVerified    CrossCheckStatus = "verified"
	StatusConfirmed   CrossCheckStatus = "confirmed"
	StatusPartial     CrossCheckStatus = "partial"
	StatusLimited     CrossCheckStatus = "limited"
)

// Tier 交叉验证置信层级
type Tier string

const (
	TierUnknown  Tier = "Unknown"
	TierLow      Tier = "Low"
	TierMedium   Tier = "Medium"
	TierHigh     Tier = "High"
	TierVeryHigh Tier = "Very High"
)

// ClassifierResult 文本分类器输出
type ClassifierResult struct {
	RealProbability float64 `json:"real_probability"`
	MLScore         int     `json:"ml_score"`
	Confidence      float64 `json:"confidence"`
}

// SearchMatch 可信来源中的一条佐证
type SearchMatch struct {
	SourceDomain string `json:"source"`
	Title        string `json:"title"`
	Link         string `json:"link"`
	Snippet      string `json:"snippet"`
	Similarity   int    `json:"similarity"`
	Reasoning    string `json:"reasoning"`
}

// CrossCheckResult 交叉验证汇总
type CrossCheckResult struct {
	Status              CrossCheckStatus `json:"status"`
	ConfidenceTier      Tier             `json:"confidence"`
	Matches             []SearchMatch    `json:"matches"`
	SearchQuery         string           `json:"search_query"`
	TotalDomainsChecked int              `json:"total_domains_checked"`
	Summary             string           `json:"summary"`
}

// MatchCount 佐证数量，nil 安全
func (r *CrossCheckResult) MatchCount() int {
	if r == nil {
		return 0
	}
	return len(r.Matches)
}

// MeanSimilarity 平均相似度，无佐证时为 0
func (r *CrossCheckResult) MeanSimilarity() float64 {
	if r.MatchCount() == 0 {
		return 0
	}
	total := 0
	for _, m := range r.Matches {
		total += m.Similarity
	}
	return float64(total) / float64(len(r.Matches))
}

// GeminiAssessment 生成式模型的独立评估
type GeminiAssessment struct {
	Score              *int     `json:"score"`
	Level              Level    `json:"level"`
	Confidence         float64  `json:"confidence"`
	Reasoning          string   `json:"reasoning"`
	KeyFactors         []string `json:"key_factors"`
	SourceBoostApplied bool     `json:"source_boost_applied"`
	OriginalScore      *int     `json:"original_score,omitempty"`
}

// Available 是否给出了独立分数
func (a GeminiAssessment) Available() bool {
	return a.Score != nil
}

// FusionResult 融合结果
type FusionResult struct {
	FinalScore            int            `json:"final_score"`
	Classification        Classification `json:"classification"`
	Confidence            float64        `json:"confidence"`
	MLWeight              float64        `json:"ml_weight"`
	GeminiWeight          float64        `json:"gemini_weight"`
	Reasoning             string         `json:"reasoning"`
	FactualityLevel       Level          `json:"factuality_level"`
	FactualityDescription string         `json:"factuality_description"`
}

// Breakdown 五项分析说明
type Breakdown struct {
	ClaimVerification   string `json:"claim_verification"`
	InternalConsistency string `json:"internal_consistency"`
	SourceAssessment    string `json:"source_assessment"`
	ContentQuality      string `json:"content_quality"`
	Conclusion          string `json:"conclusion"`
	Level               Level  `json:"factuality_level"`
	ContentType         string `json:"content_type"`
	Source              string `json:"source"`
}

// ContentCheck 菲律宾政治新闻判定
type ContentCheck struct {
	IsPhilippinePolitical bool    `json:"is_philippine_political"`
	IsSafeContent         bool    `json:"is_safe_content"`
	Confidence            float64 `json:"confidence"`
	Reason                string  `json:"reason"`
}

// Summary 内容摘要
type Summary struct {
	Text      string `json:"summary"`
	WordCount int    `json:"word_count"`
	Source    string `json:"source"`
}

// Analysis 一次完整分析的输出
type Analysis struct {
	ID         string            `json:"analysis_id"`
	Title      string            `json:"title"`
	URL        string            `json:"url,omitempty"`
	Content    string            `json:"-"`
	Summary    Summary           `json:"summary"`
	Classifier ClassifierResult  `json:"classifier"`
	CrossCheck *CrossCheckResult `json:"cross_check,omitempty"`
	Assessment GeminiAssessment  `json:"gemini_assessment"`
	Fusion     FusionResult      `json:"fusion"`
	Confidence float64           `json:"confidence"`
	Breakdown  Breakdown         `json:"breakdown"`
	CreatedAt  time.Time         `json:"created_at"`
	Reused     bool              `json:"reused,omitempty"`
}
