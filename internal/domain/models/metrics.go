package models

import "time"

// MetricResult holds the four rule quality measures, each in [0,1].
type MetricResult struct {
	Support    float64 `json:"support"`
	Confidence float64 `json:"confidence"`
	Inclusion  float64 `json:"inclusion"`
	Amplitude  float64 `json:"amplitude"`
}

// ArchiveEntry is one distinct rule retained by the archive.
type ArchiveEntry struct {
	Key      string       `json:"key"`
	Rule     Rule         `json:"rule"`
	Metrics  MetricResult `json:"metrics"`
	Fitness  float64      `json:"fitness"`
	Start    time.Time    `json:"start"`
	End      time.Time    `json:"end"`
	Hits     int          `json:"hits"`
	Recorded time.Time    `json:"recorded"`
}
