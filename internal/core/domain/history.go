package domain

import "time"

// HistoryEntry is one past prediction made for a ticker.
type HistoryEntry struct {
	Date          time.Time `json:"date"` // trading day the prediction targeted
	Direction     Direction `json:"direction"`
	Confidence    float64   `json:"confidence"`
	ProbabilityUp float64   `json:"probability_up"`
	ModelVersion  string    `json:"model_version,omitempty"`
	IngestedAt    string    `json:"ingested_at,omitempty"`
}

// History is a ticker's past predictions, newest first.
type History []HistoryEntry
