package analysis

import (
	"time"
)

// RecordID tipe untuk Record
type RecordID string

// Kind of analyzed content
type Kind string

const (
	KindText  Kind = "text"
	KindVideo Kind = "video"
)

// Aggregate Root: Record. One row per completed analysis; records are
// append-only and never mutated after Create.
type Record struct {
	ID             RecordID  `json:"id"`
	Owner          string    `json:"owner"`
	Kind           Kind      `json:"kind"`
	Subject        string    `json:"subject"`
	ViralityScore  int       `json:"viralityScore"`
	EmotionalTone  string    `json:"emotionalTone"`
	Suggestions    []string  `json:"suggestions"`
	VisionAnalysis string    `json:"visionAnalysis,omitempty"`
	Transcript     string    `json:"transcript,omitempty"`
	Embeddings     []float32 `json:"embeddings,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Stats value object for the rolling trend summary
type Stats struct {
	Total    int     `json:"total"`
	AvgScore float64 `json:"avgScore"`
	TopTone  string  `json:"topTone"`
}
