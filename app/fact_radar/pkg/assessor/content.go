package assessor

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/llm"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/logger"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/model"
)

const (
	politicalSampleLen = 2000
	titleSampleLen     = 1500
	summaryFallbackLen = 300
	maxSummarySentence = 3
	minTitleLen        = 6
)

var politicalKeywords = []string{
	"philippines", "philippine", "manila", "duterte", "marcos", "senate",
	"congress", "malacañang", "doh", "dnd", "dilg", "deped", "comelec",
}

// KeywordPolitical 关键词回退判定
func KeywordPolitical(content, reason string) model.ContentCheck {
	lower := strings.ToLower(content)
	for _, kw := range politicalKeywords {
		if strings.Contains(lower, kw) {
			return model.ContentCheck{IsPhilippinePolitical: true, IsSafeContent: true, Confidence: 0.7, Reason: reason}
		}
	}
	return model.ContentCheck{IsPhilippinePolitical: false, IsSafeContent: true, Confidence: 0.3, Reason: reason}
}

// CheckPoliticalContent 判断是否为菲律宾政治新闻且可安全分析
func (a *Assessor) CheckPoliticalContent(ctx context.Context, content string) model.ContentCheck {
	if !a.Available() {
		return KeywordPolitical(content, "Fallback keyword analysis - Gemini API unavailable")
	}

	prompt := fmt.Sprintf(`Analyze the following news content and determine:
1. Is this Philippine political news? (Consider mentions of Philippine politicians, government agencies, political events, elections, policies, etc.)
2. Is this content safe for AI analysis? (No harmful, explicit, or dangerous content)

Content: %s...

Respond in JSON format:
{
  "is_philippine_political": true/false,
  "is_safe_content": true/false,
  "confidence": 0.0-1.0,
  "reason": "brief explanation"
}`, truncateRunes(content, politicalSampleLen))

	text, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		logger.Log.Warnf("政治内容判定失败，使用关键词: %v", err)
		return KeywordPolitical(content, "Fallback keyword analysis - Gemini API unavailable")
	}
	var check model.ContentCheck
	if err := llm.ExtractJSON(text, &check); err != nil {
		return KeywordPolitical(content, "Fallback keyword analysis")
	}
	return check
}

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

func sentences(text string) []string {
	var out []string
	for _, s := range sentenceSplit.Split(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// limitSentences 超过三句时截断并以句号结尾
func limitSentences(text string) string {
	parts := sentences(text)
	if len(parts) > maxSummarySentence {
		return strings.Join(parts[:maxSummarySentence], ". ") + "."
	}
	return text
}

func fallbackSummary(content, source string) model.Summary {
	s := limitSentences(content)
	return model.Summary{
		Text:      truncateRunes(s, summaryFallbackLen),
		WordCount: len(strings.Fields(s)),
		Source:    source,
	}
}

// Summarize 不超过三句的摘要
func (a *Assessor) Summarize(ctx context.Context, content, contentType string) model.Summary {
	if !a.Available() {
		return model.Summary{
			Text:      truncateRunes(content, summaryFallbackLen),
			WordCount: len(strings.Fields(content)),
			Source:    "fallback_truncation",
		}
	}
	if contentType == "" {
		contentType = "article"
	}

	prompt := fmt.Sprintf(`Summarize the following %s in exactly 3 sentences or less.
Focus on the main facts, key points, and essential information.
Maintain objectivity and avoid adding interpretation.
Keep each sentence concise and informative.

Content: %s

Summary:`, contentType, content)

	text, err := a.gen.Generate(ctx, prompt)
	text = strings.TrimSpace(text)
	if err != nil || text == "" {
		if err != nil {
			logger.Log.Warnf("摘要生成失败: %v", err)
		}
		return fallbackSummary(content, "fallback_sentence_limit")
	}

	text = limitSentences(text)
	return model.Summary{Text: text, WordCount: len(strings.Fields(text)), Source: SourceGenerated}
}

var (
	titleSuffixes = []string{
		" | Philippine News Agency", " | Reuters", " | CNN", " | BBC",
		" - Philippine Daily Inquirer", " - Manila Bulletin", " | ABS-CBN News",
	}
	titleErrorMarkers = []string{
		"access denied", "forbidden", "404", "error", "not found",
		"unauthorized", "blocked", "unavailable",
	}
	titlePrefixes = []string{
		"manila -", "manila –", "breaking:", "update:", "news:",
		"report:", "reuters -", "ap -", "dpa -",
	}
	genericTitles = map[string]struct{}{
		"article analysis": {}, "news article": {}, "untitled": {}, "no title": {},
	}
	allCaps     = regexp.MustCompile(`^[A-Z\s]+$`)
	domainNames = map[string]string{
		"pna.gov.ph":   "Philippine News Agency Article",
		"rappler.com":  "Rappler News Article",
		"abs-cbn.com":  "ABS-CBN News Article",
		"gma.news":     "GMA News Article",
		"inquirer.net": "Philippine Daily Inquirer Article",
		"philstar.com": "Philippine Star Article",
		"mb.com.ph":    "Manila Bulletin Article",
	}
)

// CleanTitle 去掉站点后缀，错误页标题返回空串
func CleanTitle(title string) string {
	title = strings.TrimSpace(title)
	lower := strings.ToLower(title)
	for _, marker := range titleErrorMarkers {
		if strings.Contains(lower, marker) {
			return ""
		}
	}
	for _, suffix := range titleSuffixes {
		title = strings.TrimSpace(strings.TrimSuffix(title, suffix))
	}
	if utf8.RuneCountInString(title) < minTitleLen {
		return ""
	}
	return title
}

// GenerateTitle 依次尝试已抽取标题、生成式标题、正文首句、域名
func (a *Assessor) GenerateTitle(ctx context.Context, content, extractedTitle, articleURL string) string {
	if t := CleanTitle(extractedTitle); t != "" {
		return t
	}

	if a.Available() {
		prompt := fmt.Sprintf(`Please provide a single concise and descriptive title for the following article content.
Extract the title if one is already present, or create an appropriate headline that summarizes the main topic.
Do not include any quotes, formatting, or prefixes like "Title:".
Respond with only the title text:

%s`, truncateRunes(content, titleSampleLen))

		text, err := a.gen.Generate(ctx, prompt)
		if err != nil {
			logger.Log.Warnf("标题生成失败: %v", err)
		} else if t := cleanGeneratedTitle(text); t != "" {
			return t
		}
	}

	if t := firstSentenceTitle(content); t != "" {
		return t
	}
	if articleURL != "" {
		return domainTitle(articleURL)
	}
	return "News Article Analysis"
}

func cleanGeneratedTitle(text string) string {
	title, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	title = strings.TrimSpace(strings.ReplaceAll(title, "Title:", ""))
	title = strings.Trim(title, `"' `)
	if strings.HasPrefix(title, "**") && strings.HasSuffix(title, "**") && len(title) > 4 {
		title = strings.TrimSpace(title[2 : len(title)-2])
	}
	lower := strings.ToLower(title)
	if _, generic := genericTitles[lower]; generic || strings.HasPrefix(lower, "error") {
		return ""
	}
	if utf8.RuneCountInString(title) < minTitleLen {
		return ""
	}
	return title
}

func firstSentenceTitle(content string) string {
	if len(strings.TrimSpace(content)) <= 20 {
		return ""
	}
	parts := sentences(content)
	if len(parts) > 5 {
		parts = parts[:5]
	}
	for _, s := range parts {
		n := utf8.RuneCountInString(s)
		lower := strings.ToLower(s)
		if n <= 15 || n >= 120 || allCaps.MatchString(s) {
			continue
		}
		if hasAnyPrefix(lower, "http", "www", "photo", "image", "source:") {
			continue
		}
		title := strings.Join(strings.Fields(s), " ")
		for _, p := range titlePrefixes {
			if strings.HasPrefix(strings.ToLower(title), p) {
				title = strings.TrimSpace(title[len(p):])
				break
			}
		}
		title = strings.TrimRight(title, ".,!?;:")
		if utf8.RuneCountInString(title) > 10 {
			return title
		}
	}
	return ""
}

func domainTitle(articleURL string) string {
	u, err := url.Parse(articleURL)
	if err != nil || u.Host == "" {
		return "News Article from External Source"
	}
	domain := strings.TrimPrefix(u.Host, "www.")
	if name, ok := domainNames[domain]; ok {
		return name
	}
	return "News Article from " + domain
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
