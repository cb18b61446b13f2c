package domain

// Direction is the model's predicted price movement.
type Direction string

const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
)

// ParseDirection maps the upstream prediction string onto a Direction.
// Only the exact values the model emits are recognized.
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "Up":
		return DirectionUp, true
	case "Down":
		return DirectionDown, true
	}
	return "", false
}

// ConfidenceLevel buckets a raw confidence score for display.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "High"
	ConfidenceMedium ConfidenceLevel = "Medium"
	ConfidenceLow    ConfidenceLevel = "Low"
)

// LevelForScore buckets a confidence score. Boundaries are inclusive on the
// upper bucket: 0.75 is High and 0.60 is Medium.
func LevelForScore(score float64) ConfidenceLevel {
	switch {
	case score >= 0.75:
		return ConfidenceHigh
	case score >= 0.60:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Factor is one model input and its contribution to the prediction.
type Factor struct {
	Name   string  `json:"name"`   // raw feature identifier from the model
	Label  string  `json:"label"`  // display label
	Weight float64 `json:"weight"`
}

// Prediction is the dashboard-ready view of one model prediction.
type Prediction struct {
	Ticker        Ticker          `json:"ticker"`
	ForDate       string          `json:"for_date"` // trading day the prediction targets
	Direction     Direction       `json:"direction"`
	Confidence    float64         `json:"confidence"`
	Level         ConfidenceLevel `json:"confidence_level"`
	ProbabilityUp float64         `json:"probability_up"`
	Explanation   string          `json:"explanation,omitempty"`
	Factors       []Factor        `json:"factors,omitempty"`
}
