package assessor

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/fusion"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/llm"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/logger"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/model"
)

const (
	SourceGenerated = "gemini_ai"
	SourceFallback  = "fallback"
)

var (
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},\s+\d{4}\b`),
		regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`),
		regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
	}
	// 长短语在前，避免 "as of today" 被 "today" 先行替换
	temporalPattern = regexp.MustCompile(`(?i)\b(?:as of today|current date|as of now|today|yesterday|now|recent|currently|last week|this week|last month|this month|last year|this year|hours after|days after|weeks after|months after|years after|immediately after|minutes after|soon after|shortly after)\b`)
)

// ScrubTemporal 去掉日期和相对时间表述，并压缩空白
func ScrubTemporal(text string) string {
	if text == "" {
		return text
	}
	for _, re := range datePatterns {
		text = re.ReplaceAllString(text, "[date removed]")
	}
	text = temporalPattern.ReplaceAllString(text, "[temporal removed]")
	return strings.Join(strings.Fields(text), " ")
}

type breakdownReply struct {
	ClaimVerification   string `json:"claim_verification"`
	InternalConsistency string `json:"internal_consistency"`
	SourceAssessment    string `json:"source_assessment"`
	ContentQuality      string `json:"content_quality"`
	Conclusion          string `json:"conclusion"`
}

// GenerateBreakdown 按最终分数生成五项说明，失败时使用分桶模板
// Level 始终取最终分数所在的分桶
func (a *Assessor) GenerateBreakdown(ctx context.Context, content string, finalScore int, articleURL string) model.Breakdown {
	contentType := contentDescription(articleURL)

	if !a.Available() {
		return FallbackBreakdown(finalScore, contentType)
	}

	text, err := a.gen.Generate(ctx, breakdownPrompt(content, finalScore, articleURL))
	if err != nil {
		logger.Log.Warnf("分析说明生成失败，使用模板: %v", err)
		return FallbackBreakdown(finalScore, contentType)
	}

	var reply breakdownReply
	if err := llm.ExtractJSON(text, &reply); err != nil {
		logger.Log.Warnf("分析说明格式错误，使用模板: %v", err)
		return FallbackBreakdown(finalScore, contentType)
	}

	fb := FallbackBreakdown(finalScore, contentType)
	pick := func(got, fallback string) string {
		if s := ScrubTemporal(got); s != "" {
			return s
		}
		return fallback
	}
	return model.Breakdown{
		ClaimVerification:   pick(reply.ClaimVerification, fb.ClaimVerification),
		InternalConsistency: pick(reply.InternalConsistency, fb.InternalConsistency),
		SourceAssessment:    pick(reply.SourceAssessment, fb.SourceAssessment),
		ContentQuality:      pick(reply.ContentQuality, fb.ContentQuality),
		Conclusion:          pick(reply.Conclusion, fb.Conclusion),
		Level:               fusion.LevelFor(finalScore),
		ContentType:         contentType,
		Source:              SourceGenerated,
	}
}

func contentDescription(articleURL string) string {
	if articleURL != "" {
		return "published article"
	}
	return "text content"
}

func breakdownPrompt(content string, score int, articleURL string) string {
	desc := contentDescription(articleURL)
	urlContext := "\nContent Source: User-provided text or manual input"
	sourceContext := "provided by the user"
	if articleURL != "" {
		urlContext = "\nArticle URL: " + articleURL
		sourceContext = "from a published news source"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the following %s and provide a detailed factuality breakdown based on the given factuality score of %d%%.\n\n", desc, score)
	fmt.Fprintf(&b, "Content: %s%s\n\n", content, urlContext)
	b.WriteString(`CRITICAL ANALYSIS INSTRUCTIONS:
- Focus EXCLUSIVELY on content structure, sourcing methodology, and presentation quality
- NEVER compare any statement to today's date, the system date, or any "current" timeframe
- DO NOT reference, mention, or analyze ANY specific dates or temporal sequences
- Treat the content as a standalone document without temporal context

`)
	b.WriteString("Provide analysis for exactly these 5 factors (2-3 sentences each):\n\n")
	fmt.Fprintf(&b, "1. Claim Verification: Assess the methodology used to support claims within the %s. Evaluate whether assertions are backed by named sources, institutional references, or documented evidence.\n", desc)
	b.WriteString("2. Internal Consistency: Evaluate the logical structure and coherence of arguments presented. Note any contradictions in reasoning or evidence presentation.\n")
	fmt.Fprintf(&b, "3. Source Assessment: Analyze the credibility and transparency of sources mentioned in the %s and whether attribution meets journalistic standards.\n", desc)
	fmt.Fprintf(&b, "4. Content Quality: Examine the writing style, tone, and presentation standards of this %s %s. Assess whether it shows signs of bias, sensationalism, or partisan language.\n", desc, sourceContext)
	fmt.Fprintf(&b, "5. Conclusion: Explain why this %s received a factuality score of %d%% based on the factors analyzed above.\n\n", desc, score)
	fmt.Fprintf(&b, "Your analysis should align with the factuality score of %d%% (0-25%% = Very Low, 26-50%% = Low, 51-74%% = Mostly Factual, 75-89%% = High, 90-100%% = Very High).\n\n", score)
	b.WriteString(`Respond in JSON format:
{
  "claim_verification": "2-3 sentences",
  "internal_consistency": "2-3 sentences",
  "source_assessment": "2-3 sentences",
  "content_quality": "2-3 sentences",
  "conclusion": "2-3 sentences",
  "factuality_level": "Very Low/Low/Mostly Factual/High/Very High"
}`)
	return b.String()
}

type template struct {
	claim, consistency, source, quality, conclusion string
}

// FallbackBreakdown 分桶模板，conclusion 带入分数
func FallbackBreakdown(score int, contentType string) model.Breakdown {
	var t template
	switch {
	case score >= 90:
		t = template{
			claim:       "The article presents claims that appear well-substantiated and verifiable. Main assertions align with established facts and reputable reporting standards.",
			consistency: "The content demonstrates strong internal logic with coherent timeline and consistent narrative flow. Quoted statements and arguments support each other effectively.",
			source:      "Sources mentioned appear credible and institutional. The article references verifiable entities and maintains professional journalistic standards.",
			quality:     "Writing quality is professional and informative with neutral tone. The content appears balanced and fact-focused rather than sensational.",
			conclusion:  "The model assigned %d%% based on strong indicators of reliability, credible sourcing, and professional presentation standards.",
		}
	case score >= 75:
		t = template{
			claim:       "Most claims in the article can be verified, though some minor details may lack complete substantiation. Overall factual foundation appears solid.",
			consistency: "The article maintains good internal consistency with mostly coherent arguments. Timeline and narrative structure are generally well-organized.",
			source:      "Sources are generally credible though some may have minor transparency concerns. Most references appear legitimate and verifiable.",
			quality:     "Content quality is good with mostly neutral presentation. Writing is informative though may contain slight editorial elements.",
			conclusion:  "The %d%% score reflects generally reliable content with minor concerns about complete verification or sourcing transparency.",
		}
	case score >= 51:
		t = template{
			claim:       "The article contains verifiable claims with some assertions that are difficult to confirm. Core facts appear sound but details may be speculative.",
			consistency: "Internal consistency is moderate with generally coherent flow. Some timeline or argument inconsistencies may be present but don't undermine the main narrative.",
			source:      "Sources show varied credibility with combination of reliable and questionable references. Some institutional sources present alongside less verifiable claims.",
			quality:     "Writing quality varies with informative sections alongside potentially biased or opinion-based content. Tone may show some editorial influence.",
			conclusion:  "The %d%% score indicates mostly reliable information with notable concerns about complete accuracy or source reliability.",
		}
	case score >= 26:
		t = template{
			claim:       "Many claims lack proper verification and appear speculative or misleading. Assertions often cannot be confirmed through reliable sources.",
			consistency: "Internal consistency is poor with contradictory statements and unclear timeline. Narrative flow is disrupted by logical inconsistencies.",
			source:      "Sources are largely questionable or anonymous with few credible references. Heavy reliance on unverifiable or biased sources.",
			quality:     "Content quality is poor with sensational tone and clear bias. Writing appears designed to influence rather than inform.",
			conclusion:  "The %d%% score indicates significant reliability concerns due to poor sourcing, inconsistencies, and misleading content patterns.",
		}
	default:
		t = template{
			claim:       "The article contains primarily unverifiable or false claims that contradict established facts. Main assertions appear fabricated or severely distorted.",
			consistency: "Internal consistency is severely compromised with major contradictions and illogical flow. Timeline and narrative structure are fundamentally flawed.",
			source:      "Sources are unreliable, anonymous, or completely absent. No credible institutional backing or verifiable references provided.",
			quality:     "Content quality is very poor with highly sensational and biased presentation. Writing appears deliberately misleading or inflammatory.",
			conclusion:  "The %d%% score reflects content that appears largely fabricated or severely misleading, contradicting reliable sources and journalistic standards.",
		}
	}

	return model.Breakdown{
		ClaimVerification:   t.claim,
		InternalConsistency: t.consistency,
		SourceAssessment:    t.source,
		ContentQuality:      t.quality,
		Conclusion:          fmt.Sprintf(t.conclusion, score),
		Level:               fusion.LevelFor(score),
		ContentType:         contentType,
		Source:              SourceFallback,
	}
}
