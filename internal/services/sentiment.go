package services

import "strings"

type Polarity string

const (
	Positive Polarity = "positive"
	Negative Polarity = "negative"
)

var sentimentKeywords = map[Polarity][]string{
	Positive: {"happy", "good", "great", "better", "hopeful", "grateful", "thankful"},
	Negative: {"sad", "depressed", "anxious", "worried", "scared", "angry", "hopeless"},
}

const neutralSentiment = 0.5

// Scorer turns keyword counts into a sentiment estimate. The formula is
// unbounded; Clamp pins the result to [0, 1].
type Scorer struct {
	Clamp bool
}

// Score counts each distinct keyword at most once. More positive hits give
// 0.6 + 0.1*pos, more negative hits give 0.4 - 0.1*neg, a tie gives 0.5.
func (s Scorer) Score(message string) float64 {
	lower := strings.ToLower(message)
	pos := countKeywords(lower, sentimentKeywords[Positive])
	neg := countKeywords(lower, sentimentKeywords[Negative])

	score := neutralSentiment
	switch {
	case pos > neg:
		score = 0.6 + 0.1*float64(pos)
	case neg > pos:
		score = 0.4 - 0.1*float64(neg)
	}

	if s.Clamp {
		score = min(max(score, 0), 1)
	}
	return score
}

// AnalyzeSentiment scores message without clamping.
func AnalyzeSentiment(message string) float64 {
	return Scorer{}.Score(message)
}

func countKeywords(lower string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			n++
		}
	}
	return n
}
