// Package services – pipeline state machine
//
// This file holds the pure sentiment→stage mappings applied when a reply is
// detected. Person and company vocabularies are distinct and move
// independently; the functions here are side-effect free so the mapping can
// be verified exhaustively in isolation.
package services

import "github.com/avell/go-leads-backend/internal/domain"

// StageForSentiment maps a classifier verdict to the person's next pipeline
// stage and the coarser reply-type summary stored alongside it:
//
//	positive → interested / interested
//	negative → not_interested / not_interested
//	anything else (neutral, question, out_of_office, or an unrecognized
//	label) → replied / maybe
func StageForSentiment(sentiment string) (stage, replyType string) {
	switch sentiment {
	case domain.SentimentPositive:
		return domain.StageInterested, domain.ReplyInterested
	case domain.SentimentNegative:
		return domain.StageNotInterested, domain.ReplyNotInterested
	default:
		return domain.StageReplied, domain.ReplyMaybe
	}
}

// CompanyStageForSentiment maps a classifier verdict to the company's next
// pipeline stage. An empty return means the stage is left unchanged (the
// last-reply timestamp is still stamped by the caller):
//
//	positive → replied
//	negative → closed_lost
//	anything else → "" (no stage change)
func CompanyStageForSentiment(sentiment string) string {
	switch sentiment {
	case domain.SentimentPositive:
		return domain.CompanyStageReplied
	case domain.SentimentNegative:
		return domain.CompanyStageClosedLost
	default:
		return ""
	}
}
