package upstream

import (
	"encoding/json"
	"fmt"

	"github.com/vietddude/predictdash/internal/core/domain"
)

// decodePrediction parses a /predict payload and rejects anything the
// dashboard cannot render: a missing ticker, an unrecognized prediction
// value, or a non-numeric confidence. The caller attaches the raw body to
// the resulting classified error.
func decodePrediction(body []byte) (*predictionPayload, error) {
	var p predictionPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("malformed prediction payload: %v", err)
	}

	if p.Ticker == nil || *p.Ticker == "" {
		return nil, fmt.Errorf("prediction payload missing ticker")
	}
	if p.Prediction == nil {
		return nil, fmt.Errorf("prediction payload missing prediction")
	}
	if _, ok := domain.ParseDirection(*p.Prediction); !ok {
		return nil, fmt.Errorf("unrecognized prediction value %q", *p.Prediction)
	}
	if p.Confidence == nil {
		return nil, fmt.Errorf("prediction payload missing confidence")
	}

	return &p, nil
}

// decodeHistory parses a /get-history payload. Every row must carry the
// fields the transform depends on; one bad row rejects the whole payload.
func decodeHistory(body []byte) ([]historyPayload, error) {
	var rows []historyPayload
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("malformed history payload: %v", err)
	}

	for i := range rows {
		switch {
		case rows[i].DataFoundFor == nil:
			return nil, fmt.Errorf("history row %d missing data_found_for", i)
		case rows[i].Prediction == nil:
			return nil, fmt.Errorf("history row %d missing prediction", i)
		case rows[i].Confidence == nil:
			return nil, fmt.Errorf("history row %d missing confidence", i)
		case rows[i].ProbabilityUp == nil:
			return nil, fmt.Errorf("history row %d missing probability_up", i)
		}
	}

	return rows, nil
}
