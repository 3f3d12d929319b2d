package model

import (
	"time"
)

// PatternType classifies a detected intensity trend.
type PatternType string

const (
	PatternRising      PatternType = "rising"
	PatternFalling     PatternType = "falling"
	PatternOscillating PatternType = "oscillating"
	PatternStable      PatternType = "stable"
)

// PulsePoint is one sample in a conversation's intensity time series,
// one-to-one with a turn.
type PulsePoint struct {
	Timestamp  time.Time `json:"timestamp"`
	Intensity  float64   `json:"intensity"`  // 0 to 1
	Sentiment  float64   `json:"sentiment"`  // -1 to 1
	Engagement float64   `json:"engagement"` // 0 to 1
	Clarity    float64   `json:"clarity"`    // 0 to 1
	TurnID     string    `json:"turn_id"`
	Role       Role      `json:"role"`

	// Snapshot of auxiliary features at this point.
	Features map[string]float64 `json:"features,omitempty"`
}

// PulsePattern is a named trend detected over a window of pulse points.
// Patterns are not mutually exclusive; a conversation may match several.
type PulsePattern struct {
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	Type         PatternType `json:"pattern_type"`
	Confidence   float64     `json:"confidence"` // 0 to 1
	StartTime    *time.Time  `json:"start_time,omitempty"`
	EndTime      *time.Time  `json:"end_time,omitempty"`
	AvgIntensity float64     `json:"avg_intensity"`
	Volatility   float64     `json:"volatility"` // population stddev over the window
}

// PulseAnalysis is the output aggregate of one analysis invocation.
// It is never mutated after construction; recomputation produces a new value.
// The pulse_points, patterns, insights, and recommendations lists preserve the
// order in which they were produced.
type PulseAnalysis struct {
	ConversationID  string         `json:"conversation_id"`
	OverallScore    float64        `json:"overall_score"` // 0 to 1
	PulsePoints     []PulsePoint   `json:"pulse_points"`
	Patterns        []PulsePattern `json:"patterns"`
	Insights        []string       `json:"insights"`
	Recommendations []string       `json:"recommendations"`

	TotalDurationMinutes float64 `json:"total_duration_minutes"`
	PeakIntensity        float64 `json:"peak_intensity"`
	AvgIntensity         float64 `json:"avg_intensity"`
	StabilityScore       float64 `json:"stability_score"` // 0 to 1
	MomentumScore        float64 `json:"momentum_score"`  // 0 to 1

	CreatedAt time.Time `json:"created_at"`
}

// AnalysisReport is the exportable view of an analysis, pairing the
// conversation's descriptive information with the computed scores.
type AnalysisReport struct {
	Conversation    ReportConversationInfo `json:"conversation_info"`
	Summary         ReportSummary          `json:"analysis_summary"`
	Patterns        []PulsePattern         `json:"pulse_patterns"`
	Insights        []string               `json:"insights"`
	Recommendations []string               `json:"recommendations"`
	PulsePoints     []PulsePoint           `json:"pulse_points"`
	Narrative       string                 `json:"narrative,omitempty"`
	ExportedAt      time.Time              `json:"exported_at"`
}

// ReportConversationInfo describes the conversation a report covers.
type ReportConversationInfo struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	TurnCount       int       `json:"turn_count"`
	CreatedAt       time.Time `json:"created_at"`
	DurationMinutes float64   `json:"duration_minutes"`
}

// ReportSummary carries the top-level scores of an analysis.
type ReportSummary struct {
	OverallScore   float64 `json:"overall_score"`
	PeakIntensity  float64 `json:"peak_intensity"`
	AvgIntensity   float64 `json:"avg_intensity"`
	StabilityScore float64 `json:"stability_score"`
	MomentumScore  float64 `json:"momentum_score"`
}
