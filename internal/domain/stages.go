// Package domain defines the core persistence models for the application.
// This file declares the closed vocabularies used by the pipeline state
// machine: person stages, company stages, sentiments, and reply types.
package domain

// Person (Lead) pipeline stages. The reply path only ever writes Replied,
// Interested, or NotInterested; the remaining values are set by outreach
// tooling outside this service.
const (
	StageNew           = "new"
	StageContacted     = "contacted"
	StageReplied       = "replied"
	StageInterested    = "interested"
	StageNotInterested = "not_interested"
	StageClosedLost    = "closed_lost"
)

// Company pipeline stages. Deliberately a different enumeration from the
// person stages; the two must not be conflated.
const (
	CompanyStageProspect   = "prospect"
	CompanyStageOutreach   = "outreach"
	CompanyStageReplied    = "replied"
	CompanyStageClosedLost = "closed_lost"
	CompanyStageClosedWon  = "closed_won"
)

// Sentiment labels produced by the classifier. Any value outside this set
// coming back from the model is treated as unusable and replaced by
// SentimentNeutral before it reaches the state machine.
const (
	SentimentPositive    = "positive"
	SentimentNegative    = "negative"
	SentimentNeutral     = "neutral"
	SentimentQuestion    = "question"
	SentimentOutOfOffice = "out_of_office"
)

// Reply types, a coarser mirror of the person-stage decision kept on the
// Lead row for cheap filtering.
const (
	ReplyInterested    = "interested"
	ReplyNotInterested = "not_interested"
	ReplyMaybe         = "maybe"
)

// ValidSentiment reports whether s is one of the five recognized sentiment
// labels.
func ValidSentiment(s string) bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral,
		SentimentQuestion, SentimentOutOfOffice:
		return true
	}
	return false
}
