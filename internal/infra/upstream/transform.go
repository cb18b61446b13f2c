package upstream

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/vietddude/predictdash/internal/core/domain"
)

// featureLabels maps the feature identifiers the model pipeline emits onto
// display labels. Identifiers not listed here fall back to humanize.
var featureLabels = map[string]string{
	"ret_1d":             "1-Day Return",
	"mom_5d":             "5-Day Momentum",
	"rsi_14":             "RSI (14-Day)",
	"abn_volume":         "Abnormal Volume",
	"ret_lag_1d":         "Previous Day Return",
	"volatility_20d":     "20-Day Volatility",
	"ma_50d":             "50-Day Moving Average",
	"ma_200d":            "200-Day Moving Average",
	"ma_trend_signal":    "Moving Average Trend",
	"day_of_week":        "Day of Week",
	"month_of_year":      "Month of Year",
	"return_x_volume":    "Return x Volume",
	"avg_sentiment_24h":  "Average Sentiment (24h)",
	"avg_sentiment_3d":   "Average Sentiment (3d)",
	"news_count_24h":     "News Count (24h)",
	"positive_count_24h": "Positive News (24h)",
	"negative_count_24h": "Negative News (24h)",
	"sentiment_std_24h":  "Sentiment Spread (24h)",
}

// humanize turns an unknown feature identifier into a readable label by
// title-casing its underscore tokens: "macd_signal" becomes "Macd Signal".
func humanize(name string) string {
	parts := strings.Split(name, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

// featureLabel resolves the display label for a feature identifier.
func featureLabel(name string) string {
	if label, ok := featureLabels[name]; ok {
		return label
	}
	return humanize(name)
}

// toPrediction maps a decoded payload onto the domain type. decodePrediction
// has already guaranteed the required fields are present and recognized.
func toPrediction(p *predictionPayload) domain.Prediction {
	direction, _ := domain.ParseDirection(*p.Prediction)

	pred := domain.Prediction{
		Ticker:     domain.Ticker(domain.NormalizeSymbol(*p.Ticker)),
		Direction:  direction,
		Confidence: *p.Confidence,
		Level:      domain.LevelForScore(*p.Confidence),
	}
	if p.PredictionForDate != nil {
		pred.ForDate = *p.PredictionForDate
	}
	if p.ProbabilityUp != nil {
		pred.ProbabilityUp = *p.ProbabilityUp
	}
	if p.ModelExplanation != nil {
		pred.Explanation = *p.ModelExplanation
	}
	if p.ShapMetrics != nil {
		pred.Factors = toFactors(p.ShapMetrics.TopFeatures, p.ShapMetrics.Values)
	}
	return pred
}

// toFactors zips the parallel shap arrays into named factors. Lengths can
// disagree on older model versions; extra entries on either side are
// dropped, as are entries whose weight does not parse.
func toFactors(names, values []string) []domain.Factor {
	n := len(names)
	if len(values) < n {
		n = len(values)
	}

	factors := make([]domain.Factor, 0, n)
	for i := 0; i < n; i++ {
		weight, err := strconv.ParseFloat(values[i], 64)
		if err != nil {
			continue
		}
		factors = append(factors, domain.Factor{
			Name:   names[i],
			Label:  featureLabel(names[i]),
			Weight: weight,
		})
	}
	return factors
}

// toHistory maps decoded history rows onto domain entries, parsing the
// stringified numeric columns and sorting newest first. Row order from the
// upstream store is unspecified, so the sort is unconditional.
func toHistory(rows []historyPayload) (domain.History, error) {
	entries := make(domain.History, 0, len(rows))

	for i, row := range rows {
		date, err := parseDate(*row.DataFoundFor)
		if err != nil {
			return nil, fmt.Errorf("history row %d: bad date %q", i, *row.DataFoundFor)
		}
		direction, ok := domain.ParseDirection(*row.Prediction)
		if !ok {
			return nil, fmt.Errorf("history row %d: unrecognized prediction %q", i, *row.Prediction)
		}
		confidence, err := strconv.ParseFloat(*row.Confidence, 64)
		if err != nil {
			return nil, fmt.Errorf("history row %d: bad confidence %q", i, *row.Confidence)
		}
		probabilityUp, err := strconv.ParseFloat(*row.ProbabilityUp, 64)
		if err != nil {
			return nil, fmt.Errorf("history row %d: bad probability_up %q", i, *row.ProbabilityUp)
		}

		entry := domain.HistoryEntry{
			Date:          date,
			Direction:     direction,
			Confidence:    confidence,
			ProbabilityUp: probabilityUp,
		}
		if row.ModelVersion != nil {
			entry.ModelVersion = *row.ModelVersion
		}
		if row.IngestedAt != nil {
			entry.IngestedAt = *row.IngestedAt
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Date.After(entries[j].Date)
	})

	return entries, nil
}

// parseDate accepts the store's plain dates and full timestamps.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
