package feedback

import "strings"

type Sentiment string

// Sentiments
const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

var (
	positiveWords = []string{
		"excellent", "great", "good", "amazing", "wonderful", "fantastic",
		"outstanding", "brilliant", "helpful", "clear", "engaging", "interesting",
		"knowledgeable", "patient", "supportive", "inspiring", "effective",
		"well-organized", "thorough", "professional", "dedicated", "passionate",
	}
	negativeWords = []string{
		"terrible", "awful", "bad", "horrible", "disappointing", "confusing",
		"boring", "unclear", "unhelpful", "disorganized", "unprofessional",
		"difficult", "hard", "complicated", "frustrating", "poor", "weak",
		"inadequate", "insufficient", "lacking", "unsatisfactory",
	}
)

// AnalyzeSentiment classifies a comment by counting the keywords it contains.
// A rating of 4 or more counts as one more positive keyword, a rating of 2 or less as one more negative.
// Keywords are matched as substrings: "unclear" also counts as "clear".
func AnalyzeSentiment(comment string, rating int) Sentiment {
	if strings.TrimSpace(comment) == "" {
		return SentimentNeutral
	}
	comment = strings.ToLower(comment)

	var pos, neg int
	for _, w := range positiveWords {
		if strings.Contains(comment, w) {
			pos++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(comment, w) {
			neg++
		}
	}

	switch {
	case rating >= 4:
		pos++
	case rating <= 2:
		neg++
	}

	switch {
	case pos > neg:
		return SentimentPositive
	case neg > pos:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	}
	return false
}
