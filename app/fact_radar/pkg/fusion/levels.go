package fusion

import "github.com/iWorld-y/fact_radar/app/fact_radar/pkg/model"

// RealThreshold 最终分数不低于该值判定为 Real
const RealThreshold = 51

type bucket struct {
	min, max    int
	level       model.Level
	description string
}

// buckets 五级分桶表，区间闭合且互不重叠
var buckets = []bucket{
	{0, 25, model.LevelVeryLow, "Largely false or fabricated; contradicts verified sources."},
	{26, 50, model.LevelLow, "Frequently misleading or poorly sourced; lacks consistent verification."},
	{51, 74, model.LevelMostlyFactual, "Some unverifiable or weak claims; generally reliable and informative."},
	{75, 89, model.LevelHigh, "Generally factual with minor sourcing or transparency concerns."},
	{90, 100, model.LevelVeryHigh, "Article is highly factual. Clear alignment with verified, trusted sources."},
}

func bucketFor(score int) bucket {
	score = clampScore(score)
	for _, b := range buckets {
		if score >= b.min && score <= b.max {
			return b
		}
	}
	// clampScore 之后不可达
	panic("fusion: bucket table does not cover score")
}

// LevelFor 返回分数所在的等级
func LevelFor(score int) model.Level {
	return bucketFor(score).level
}

// DescriptionFor 返回分数所在等级的描述
func DescriptionFor(score int) string {
	return bucketFor(score).description
}

// LevelContains 判断等级区间是否包含分数，未知等级返回 false
func LevelContains(level model.Level, score int) bool {
	for _, b := range buckets {
		if b.level == level {
			return score >= b.min && score <= b.max
		}
	}
	return false
}

// ClassificationFor Real iff score >= 51
func ClassificationFor(score int) model.Classification {
	if score >= RealThreshold {
		return model.Real
	}
	return model.Fake
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
