package analysis

import (
	"context"
	"time"
)

// Repository port (interface untuk persistence)
type Repository interface {
	Create(ctx context.Context, r *Record) error
	GetByID(ctx context.Context, owner string, id RecordID) (*Record, error)
	ListByOwner(ctx context.Context, owner string) ([]*Record, error)
	StatsSince(ctx context.Context, since time.Time) (Stats, error)
}

// Provider port (interface untuk the hosted AI models)
type Provider interface {
	// GenerateAnalysis runs a structured-extraction call and returns the raw
	// model text, which is expected (not guaranteed) to contain a JSON object.
	GenerateAnalysis(ctx context.Context, content string) (string, error)
	DescribeFrames(ctx context.Context, frameURLs []string) (string, error)
	Transcribe(ctx context.Context, audioURI string) (string, error)
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ArtifactStore port (interface untuk raw-output audit uploads)
type ArtifactStore interface {
	Put(ctx context.Context, key string, payload []byte) (string, error)
}
