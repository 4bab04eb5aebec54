package crosscheck

import (
	"context"
	"fmt"
	"strings"

	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/llm"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/logger"
)

const similarityPrompt = `You are a semantic comparator for news headlines. Rate similarity 0-100 based on:
- Topic similarity
- Event/fact alignment
- Core subject overlap

Original Title: %q
Hit Title: %q
Source: %s

Respond in JSON with keys:
{
  "similarity": integer,
  "reasoning": "brief justification"
}`

type similarityReply struct {
	Similarity *float64 `json:"similarity"`
	Reasoning  string   `json:"reasoning"`
}

// WordOverlap 小写、按空白切词后的 Jaccard 比例 (0-100，向下取整)，对称
func WordOverlap(a, b string) int {
	sim, _, _ := wordOverlap(a, b)
	return sim
}

func wordOverlap(a, b string) (sim, overlap, union int) {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0, 0, 0
	}
	for w := range setA {
		if _, ok := setB[w]; ok {
			overlap++
		}
	}
	union = len(setA) + len(setB) - overlap
	return overlap * 100 / union, overlap, union
}

func wordSet(s string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// similarity 生成式比较，失败时回退到词重叠
func (c *Checker) similarity(ctx context.Context, original, hitTitle, source string) (int, string) {
	if c.comparator == nil {
		sim, _, union := wordOverlap(original, hitTitle)
		if union == 0 {
			return 0, "Empty titles"
		}
		return sim, "Basic word overlap calculation"
	}

	text, err := c.comparator.Generate(ctx, fmt.Sprintf(similarityPrompt, original, hitTitle, source))
	if err == nil {
		var reply similarityReply
		if err = llm.ExtractJSON(text, &reply); err == nil && reply.Similarity != nil {
			sim := int(*reply.Similarity)
			return max(0, min(100, sim)), reply.Reasoning
		}
		if err == nil {
			err = fmt.Errorf("missing similarity field: %w", llm.ErrMalformed)
		}
	}
	logger.Log.Warnf("生成式相似度比较失败，使用词重叠: %v", err)

	sim, overlap, union := wordOverlap(original, hitTitle)
	if union == 0 {
		return 0, "Empty titles (fallback)"
	}
	return sim, fmt.Sprintf("Fallback calculation - %d/%d word overlap", overlap, union)
}
