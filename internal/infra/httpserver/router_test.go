package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appanalysis "github.com/contentedge/insight/internal/application/analysis"
	domain "github.com/contentedge/insight/internal/domain/analysis"
)

type stubProvider struct {
	raw string
	err error
}

func (s *stubProvider) GenerateAnalysis(ctx context.Context, content string) (string, error) {
	return s.raw, s.err
}

func (s *stubProvider) DescribeFrames(ctx context.Context, frameURLs []string) (string, error) {
	return "frames", s.err
}

func (s *stubProvider) Transcribe(ctx context.Context, audioURI string) (string, error) {
	return "transcript", s.err
}

func (s *stubProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2}, s.err
}

type memRepo struct {
	records []*domain.Record
}

func (m *memRepo) Create(ctx context.Context, r *domain.Record) error {
	m.records = append(m.records, r)
	return nil
}

func (m *memRepo) GetByID(ctx context.Context, owner string, id domain.RecordID) (*domain.Record, error) {
	for _, r := range m.records {
		if r.Owner == owner && r.ID == id {
			return r, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memRepo) ListByOwner(ctx context.Context, owner string) ([]*domain.Record, error) {
	var out []*domain.Record
	for _, r := range m.records {
		if r.Owner == owner {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRepo) StatsSince(ctx context.Context, since time.Time) (domain.Stats, error) {
	return domain.Stats{Total: len(m.records), AvgScore: 50, TopTone: "Neutral"}, nil
}

func newTestRouter(provider *stubProvider, repo *memRepo) http.Handler {
	svc := &appanalysis.Service{
		Repo:     repo,
		Provider: provider,
		Media: appanalysis.MediaRefs{
			FrameURLs: []string{"https://cdn.example.com/f1.jpg"},
			AudioURI:  "gs://bucket/audio.mp3",
		},
		Clock: appanalysis.SystemClock{},
		Log:   zap.NewNop(),
	}
	return NewRouter(svc, zap.NewNop(), Options{})
}

func bearer(t *testing.T, sub string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: sub})
	s, err := tok.SignedString([]byte("test-key"))
	require.NoError(t, err)
	return "Bearer " + s
}

func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const stubRaw = `{"viralityScore": 81, "emotionalTone": "Excitement", "suggestions": ["Post at peak hours"]}`

func TestAnalyzeTextSuccess(t *testing.T) {
	repo := &memRepo{}
	h := newTestRouter(&stubProvider{raw: stubRaw}, repo)

	req := httptest.NewRequest(http.MethodPost, "/v1/analyze", strings.NewReader(`{"text":"my new launch"}`))
	req.Header.Set("Authorization", bearer(t, "user-123"))
	rec := do(h, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body appanalysis.TextAnalysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 81, body.ViralityScore)
	assert.Equal(t, "Excitement", body.EmotionalTone)
	require.NotNil(t, body.SavedRecord)
	assert.Equal(t, "user-123", body.SavedRecord.Owner)
	require.Len(t, repo.records, 1)
}

func TestAnalyzeVideoSuccess(t *testing.T) {
	h := newTestRouter(&stubProvider{raw: stubRaw}, &memRepo{})

	req := httptest.NewRequest(http.MethodPost, "/v1/analyze", strings.NewReader(`{"videoUrl":"https://example.com/v.mp4"}`))
	rec := do(h, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body appanalysis.VideoAnalysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "transcript", body.Transcript)
	assert.Equal(t, "frames", body.VisionAnalysis)
	assert.Nil(t, body.SavedRecord) // anonymous, nothing saved
}

func TestAnalyzeMissingInput(t *testing.T) {
	h := newTestRouter(&stubProvider{raw: stubRaw}, &memRepo{})

	rec := do(h, httptest.NewRequest(http.MethodPost, "/v1/analyze", strings.NewReader(`{}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["error"])
}

func TestAnalyzeBadJSON(t *testing.T) {
	h := newTestRouter(&stubProvider{raw: stubRaw}, &memRepo{})
	rec := do(h, httptest.NewRequest(http.MethodPost, "/v1/analyze", strings.NewReader(`{"text":`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeBadVideoURL(t *testing.T) {
	h := newTestRouter(&stubProvider{raw: stubRaw}, &memRepo{})
	rec := do(h, httptest.NewRequest(http.MethodPost, "/v1/analyze", strings.NewReader(`{"videoUrl":"ftp://example.com/v.mp4"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeUpstreamFailure(t *testing.T) {
	h := newTestRouter(&stubProvider{err: errors.New("model unavailable")}, &memRepo{})

	rec := do(h, httptest.NewRequest(http.MethodPost, "/v1/analyze", strings.NewReader(`{"text":"hello"}`)))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Server error", body["error"])
	assert.Contains(t, body["details"], "model unavailable")
}

func TestAnalyzeMethodNotAllowed(t *testing.T) {
	h := newTestRouter(&stubProvider{raw: stubRaw}, &memRepo{})

	rec := do(h, httptest.NewRequest(http.MethodGet, "/v1/analyze", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Method not allowed", body["error"])
}

func TestPreflightCORS(t *testing.T) {
	h := newTestRouter(&stubProvider{raw: stubRaw}, &memRepo{})

	req := httptest.NewRequest(http.MethodOptions, "/v1/analyze", nil)
	req.Header.Set("Origin", "https://studio.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	rec := do(h, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestGetNotFound(t *testing.T) {
	h := newTestRouter(&stubProvider{raw: stubRaw}, &memRepo{})

	req := httptest.NewRequest(http.MethodGet, "/v1/analyses/nope", nil)
	req.Header.Set("Authorization", bearer(t, "user-123"))
	rec := do(h, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Not found", body["error"])
}

func TestGetOwnedRecord(t *testing.T) {
	repo := &memRepo{records: []*domain.Record{
		{ID: "r1", Owner: "user-123", Kind: domain.KindText, Subject: "hi", ViralityScore: 60},
	}}
	h := newTestRouter(&stubProvider{raw: stubRaw}, repo)

	req := httptest.NewRequest(http.MethodGet, "/v1/analyses/r1", nil)
	req.Header.Set("Authorization", bearer(t, "user-123"))
	rec := do(h, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body domain.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, domain.RecordID("r1"), body.ID)
}

func TestGetOtherOwnersRecordHidden(t *testing.T) {
	repo := &memRepo{records: []*domain.Record{
		{ID: "r1", Owner: "alice"},
	}}
	h := newTestRouter(&stubProvider{raw: stubRaw}, repo)

	req := httptest.NewRequest(http.MethodGet, "/v1/analyses/r1", nil)
	req.Header.Set("Authorization", bearer(t, "bob"))
	rec := do(h, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListRequiresAuth(t *testing.T) {
	h := newTestRouter(&stubProvider{raw: stubRaw}, &memRepo{})

	rec := do(h, httptest.NewRequest(http.MethodGet, "/v1/analyses", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Authentication required", body["error"])
}

func TestListReturnsOwnedRecords(t *testing.T) {
	repo := &memRepo{records: []*domain.Record{
		{ID: "r1", Owner: "user-123"},
		{ID: "r2", Owner: "someone-else"},
	}}
	h := newTestRouter(&stubProvider{raw: stubRaw}, repo)

	req := httptest.NewRequest(http.MethodGet, "/v1/analyses", nil)
	req.Header.Set("Authorization", bearer(t, "user-123"))
	rec := do(h, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body []domain.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, domain.RecordID("r1"), body[0].ID)
}

func TestListEmptyIsJSONArray(t *testing.T) {
	h := newTestRouter(&stubProvider{raw: stubRaw}, &memRepo{})

	req := httptest.NewRequest(http.MethodGet, "/v1/analyses", nil)
	req.Header.Set("Authorization", bearer(t, "user-123"))
	rec := do(h, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestTrends(t *testing.T) {
	h := newTestRouter(&stubProvider{raw: stubRaw}, &memRepo{})

	rec := do(h, httptest.NewRequest(http.MethodGet, "/v1/trends?days=30", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body domain.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Neutral", body.TopTone)
}

func TestHealth(t *testing.T) {
	h := newTestRouter(&stubProvider{raw: stubRaw}, &memRepo{})
	rec := do(h, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
