package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	domain "github.com/contentedge/insight/internal/domain/analysis"
)

// Clock abstraction supaya gampang ditest
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// MediaRefs locates the frame images and audio track the video path feeds to
// the vision and speech models. The pipeline that would derive these from
// the video itself is out of scope, so they come from config.
type MediaRefs struct {
	FrameURLs []string
	AudioURI  string
}

// Service implements the analysis use-cases. Stateless; safe for concurrent
// use. Artifacts may be nil, in which case no audit copies are uploaded.
type Service struct {
	Repo      domain.Repository
	Provider  domain.Provider
	Artifacts domain.ArtifactStore
	Media     MediaRefs
	Clock     Clock
	Log       *zap.Logger
}

// TextAnalysis is the response body for the text path.
type TextAnalysis struct {
	domain.Result
	SavedRecord *domain.Record `json:"savedRecord,omitempty"`
}

// VideoAnalysis is the response body for the video path. Embeddings carry
// only the first 10 components; the persisted record keeps the full vector.
type VideoAnalysis struct {
	domain.Result
	VisionAnalysis string         `json:"visionAnalysis"`
	Transcript     string         `json:"transcript"`
	Embeddings     []float32      `json:"embeddings"`
	SavedRecord    *domain.Record `json:"savedRecord,omitempty"`
}

const embeddingPreviewLen = 10

//
// ==== USE CASES ====
//

// AnalyzeText runs a single structured-extraction call against the text.
// A resolved owner gets the result persisted; persistence failure is logged
// and swallowed, the analysis is still returned.
func (s *Service) AnalyzeText(ctx context.Context, owner, text string) (*TextAnalysis, error) {
	if text == "" {
		return nil, domain.ErrInvalidInput
	}

	raw, err := s.Provider.GenerateAnalysis(ctx, text)
	if err != nil {
		return nil, upstream(err)
	}

	result, parsed := domain.ExtractResult(raw)
	if !parsed {
		s.Log.Warn("model output not parseable, using degraded result",
			zap.String("owner", owner))
	}

	out := &TextAnalysis{Result: result}
	out.SavedRecord = s.persist(ctx, &domain.Record{
		Owner:         owner,
		Kind:          domain.KindText,
		Subject:       text,
		ViralityScore: result.ViralityScore,
		EmotionalTone: result.EmotionalTone,
		Suggestions:   result.Suggestions,
	})
	s.audit(ctx, owner, out.SavedRecord, raw)
	return out, nil
}

// AnalyzeVideo runs the multi-stage pipeline: frame description and speech
// transcription concurrently (they are independent), then structured
// analysis of the transcript, then a transcript embedding. Any provider
// failure aborts the whole orchestration; nothing is retried.
func (s *Service) AnalyzeVideo(ctx context.Context, owner, videoURL string) (*VideoAnalysis, error) {
	if videoURL == "" {
		return nil, domain.ErrInvalidInput
	}

	var vision, transcript string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := s.Provider.DescribeFrames(gctx, s.Media.FrameURLs)
		if err != nil {
			return err
		}
		vision = v
		return nil
	})
	g.Go(func() error {
		t, err := s.Provider.Transcribe(gctx, s.Media.AudioURI)
		if err != nil {
			return err
		}
		transcript = t
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, upstream(err)
	}

	// The analysis call depends on the transcript and must not start earlier.
	raw, err := s.Provider.GenerateAnalysis(ctx, transcript)
	if err != nil {
		return nil, upstream(err)
	}
	result, parsed := domain.ExtractResult(raw)
	if !parsed {
		s.Log.Warn("model output not parseable, using degraded result",
			zap.String("owner", owner))
	}

	embeddings, err := s.Provider.Embed(ctx, transcript)
	if err != nil {
		return nil, upstream(err)
	}

	out := &VideoAnalysis{
		Result:         result,
		VisionAnalysis: vision,
		Transcript:     transcript,
		Embeddings:     truncate(embeddings, embeddingPreviewLen),
	}
	out.SavedRecord = s.persist(ctx, &domain.Record{
		Owner:          owner,
		Kind:           domain.KindVideo,
		Subject:        videoURL,
		ViralityScore:  result.ViralityScore,
		EmotionalTone:  result.EmotionalTone,
		Suggestions:    result.Suggestions,
		VisionAnalysis: vision,
		Transcript:     transcript,
		Embeddings:     embeddings,
	})
	s.audit(ctx, owner, out.SavedRecord, raw)
	return out, nil
}

// Get ambil 1 record by id, scoped to the owner
func (s *Service) Get(ctx context.Context, owner string, id domain.RecordID) (*domain.Record, error) {
	if owner == "" {
		return nil, domain.ErrNotFound
	}
	return s.Repo.GetByID(ctx, owner, id)
}

// ListByOwner returns the owner's records, newest first. No records is an
// empty slice, not an error.
func (s *Service) ListByOwner(ctx context.Context, owner string) ([]*domain.Record, error) {
	recs, err := s.Repo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []*domain.Record{}
	}
	return recs, nil
}

// Summary rekap analyses over the last N days
func (s *Service) Summary(ctx context.Context, sinceDays int) (domain.Stats, error) {
	if sinceDays <= 0 {
		sinceDays = 7
	}
	cut := s.Clock.Now().AddDate(0, 0, -sinceDays)
	return s.Repo.StatsSince(ctx, cut)
}

// persist writes the record when an owner was resolved. Returns nil on
// unauthenticated requests and on write failure: a failed save never fails
// the request.
func (s *Service) persist(ctx context.Context, rec *domain.Record) *domain.Record {
	if rec.Owner == "" {
		return nil
	}
	rec.ID = domain.RecordID(uuid.New().String())
	rec.CreatedAt = s.Clock.Now()
	if err := s.Repo.Create(ctx, rec); err != nil {
		s.Log.Error("persisting analysis failed, returning result anyway",
			zap.String("owner", rec.Owner), zap.Error(err))
		return nil
	}
	return rec
}

// audit uploads the raw model payload when an artifact store is configured.
// Same swallow policy as persistence.
func (s *Service) audit(ctx context.Context, owner string, rec *domain.Record, raw string) {
	if s.Artifacts == nil {
		return
	}
	key := auditKey(owner, rec)
	payload, _ := json.Marshal(map[string]string{"raw": raw})
	if _, err := s.Artifacts.Put(ctx, key, payload); err != nil {
		s.Log.Warn("audit upload failed", zap.String("key", key), zap.Error(err))
	}
}

func auditKey(owner string, rec *domain.Record) string {
	if owner == "" {
		owner = "anon"
	}
	id := uuid.New().String()
	if rec != nil {
		id = string(rec.ID)
	}
	return fmt.Sprintf("%s/%s.json", owner, id)
}

// upstream classifies provider errors: token-exchange failures keep their
// identity, everything else becomes an upstream-call failure.
func upstream(err error) error {
	if errors.Is(err, domain.ErrUpstreamAuth) || errors.Is(err, domain.ErrUpstreamCall) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrUpstreamCall, err)
}

func truncate(v []float32, n int) []float32 {
	if len(v) <= n {
		return v
	}
	return v[:n]
}
