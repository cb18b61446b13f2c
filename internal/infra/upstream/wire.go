package upstream

// predictionPayload mirrors the /predict/{TICKER} response body. Pointer
// fields distinguish absent from zero so decoding can fail closed.
type predictionPayload struct {
	Ticker            *string      `json:"ticker"`
	PredictionForDate *string      `json:"prediction_for_date"`
	Prediction        *string      `json:"prediction"`
	Confidence        *float64     `json:"confidence"`
	ProbabilityUp     *float64     `json:"probability_up"`
	ModelExplanation  *string      `json:"model_explanation"`
	ShapMetrics       *shapPayload `json:"shap_metrics"`
}

// shapPayload carries the model's top features and their weights as two
// parallel arrays. Weights arrive as strings.
type shapPayload struct {
	TopFeatures []string `json:"top_features"`
	Values      []string `json:"values"`
}

// historyPayload mirrors one element of the /get-history/{TICKER} response.
// The upstream store serializes its numeric columns as strings.
type historyPayload struct {
	ModelVersion   *string `json:"model_version"`
	FeaturesS3Path *string `json:"features_s3_path"`
	Datatype       *string `json:"datatype"`
	DataFoundFor   *string `json:"data_found_for"`
	IngestedAt     *string `json:"ingested_at"`
	Confidence     *string `json:"confidence"`
	Prediction     *string `json:"prediction"`
	ProbabilityUp  *string `json:"probability_up"`
	TickerDate     *string `json:"ticker_date"`
}
