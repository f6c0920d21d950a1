package model

import (
	"math"
	"time"
)

// RecommendedModel is a model name recommended for a selection.
type RecommendedModel struct {
	Model         string    `json:"model"`
	ProductCode   string    `json:"product_code,omitempty"`
	Compatibility int       `json:"compatibility"`
	MatchType     MatchType `json:"match_type"`
}

// SelectionRecord is a persisted questionnaire submission and its outcome.
type SelectionRecord struct {
	ID          string             `json:"id"`
	Mode        string             `json:"mode"`
	Answers     Answers            `json:"answers"`
	Head        int                `json:"head"`
	FlowLPM     int                `json:"flow_lpm"`
	HP          float64            `json:"hp"`
	Voltage     int                `json:"voltage"`
	ResultType  MatchType          `json:"result_type"`
	Recommended []RecommendedModel `json:"recommended"`
	CreatedAt   time.Time          `json:"created_at"`
}

// NewSelectionRecord summarises a submission for the selection history.
// Head and flow are rounded to whole feet and litres per minute.
func NewSelectionRecord(answers Answers, res MatchResult) *SelectionRecord {
	return &SelectionRecord{
		Mode:        answers.Mode(),
		Answers:     answers,
		Head:        int(math.Round(res.Requirement.Head)),
		FlowLPM:     int(math.Round(res.Requirement.FlowLPM())),
		HP:          res.Requirement.HP,
		Voltage:     res.Requirement.Voltage,
		ResultType:  res.Type,
		Recommended: res.Models(),
		CreatedAt:   time.Now().UTC(),
	}
}
