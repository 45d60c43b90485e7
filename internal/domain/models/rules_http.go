package models

// Requests and responses of the rule HTTP API.

type EvaluateRequest struct {
	Vector []float64 `json:"vector" validate:"required,min=1"`
}

type EvaluateResponse struct {
	Fitness float64       `json:"fitness"`
	Empty   bool          `json:"empty"`
	Rule    string        `json:"rule,omitempty"`
	Detail  *Rule         `json:"detail,omitempty"`
	Metrics *MetricResult `json:"metrics,omitempty"`
	Scope   *Segment      `json:"scope,omitempty"`
}

type RulesRequest struct {
	Limit int `query:"limit" json:"limit" default:"10" validate:"gte=1,lte=1000"`
}

type RunRulesRequest struct {
	RunID string `param:"id" json:"id" validate:"required"`
	Limit int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=10000"`
}

type ProblemInfo struct {
	RunID     string       `json:"run_id"`
	Mode      IntervalMode `json:"mode"`
	Dimension int          `json:"dimension"`
	Lower     float64      `json:"lower"`
	Upper     float64      `json:"upper"`
	Features  []Feature    `json:"features"`
	Rules     int          `json:"rules"`
}
