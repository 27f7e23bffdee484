package models

// Status of a complaint. Changed only through an explicit status update.
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusOpen || s == StatusClosed
}

// Sentiment is set once, before the first insert.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
	SentimentUnknown  Sentiment = "unknown" // lookup failed or returned something unmapped
)

func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral, SentimentUnknown:
		return true
	}
	return false
}

// Category is "other" at insert and patched once after classification.
type Category string

const (
	CategoryTechnical Category = "technical"
	CategoryPayment   Category = "payment"
	CategoryOther     Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryTechnical, CategoryPayment, CategoryOther:
		return true
	}
	return false
}

// Stage tracks the two-phase write of a complaint.
//
//	draft:      inserted, category still the insert-time default
//	classified: category patch applied
type Stage string

const (
	StageDraft      Stage = "draft"
	StageClassified Stage = "classified"
)
