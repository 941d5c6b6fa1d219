package domain

type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentMixed    SentimentLabel = "mixed"
	SentimentNeutral  SentimentLabel = "neutral"
)

// Sentiment is an overall classification plus a 1-10 confidence score.
type Sentiment struct {
	Overall    SentimentLabel `json:"overall"`
	Confidence int            `json:"confidence"`
}

// DefaultSentiment is the value used when no sentiment section is found.
func DefaultSentiment() Sentiment {
	return Sentiment{Overall: SentimentNeutral, Confidence: 5}
}

// Result is the structured representation of a job's raw text output.
// Produced once per job; immutable after creation.
type Result struct {
	Summary            string    `json:"summary"`
	KeyFeatures        []string  `json:"key_features"`
	Sentiment          Sentiment `json:"sentiment"`
	ActionableInsights []string  `json:"actionable_insights"`
	Citations          []string  `json:"citations"`
	Markdown           string    `json:"markdown"`
	HTML               string    `json:"html"`
	RawOutput          string    `json:"raw_output"`
}
