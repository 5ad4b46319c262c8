package vertex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	domain "github.com/contentedge/insight/internal/domain/analysis"
	"github.com/contentedge/insight/internal/infra/ai/prompt"
)

const (
	defaultLocation    = "us-central1"
	defaultTextModel   = "text-bison"
	defaultVisionModel = "gemini-pro-vision"
	defaultEmbedModel  = "textembedding-gecko"

	speechEndpoint = "https://speech.googleapis.com/v1p1beta1/speech:recognize"
)

// Config selects the hosted models. Zero values fall back to the defaults
// above.
type Config struct {
	Location    string
	TextModel   string
	VisionModel string
	EmbedModel  string
}

// Client calls Vertex AI prediction endpoints and Speech-to-Text over REST.
// Every call fetches an access token first; no call is retried and no
// timeout is enforced beyond the caller's context.
type Client struct {
	httpClient *http.Client
	tokens     oauth2.TokenSource
	projectID  string
	cfg        Config
}

func NewClient(ctx context.Context, keyJSON []byte, cfg Config) (*Client, error) {
	ts, projectID, err := newTokenSource(ctx, keyJSON)
	if err != nil {
		return nil, err
	}
	if cfg.Location == "" {
		cfg.Location = defaultLocation
	}
	if cfg.TextModel == "" {
		cfg.TextModel = defaultTextModel
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = defaultVisionModel
	}
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = defaultEmbedModel
	}
	return &Client{
		httpClient: http.DefaultClient,
		tokens:     ts,
		projectID:  projectID,
		cfg:        cfg,
	}, nil
}

type predictRequest struct {
	Instances  []map[string]any `json:"instances"`
	Parameters map[string]any   `json:"parameters,omitempty"`
}

type predictResponse struct {
	Predictions []struct {
		Content    string `json:"content"`
		Embeddings struct {
			Values []float32 `json:"values"`
		} `json:"embeddings"`
	} `json:"predictions"`
}

// generationParams match the original deployment's conservative settings.
var generationParams = map[string]any{
	"temperature":     0.2,
	"maxOutputTokens": 1024,
	"topK":            40,
	"topP":            0.8,
}

// GenerateAnalysis asks the text model for the structured three-field shape.
func (c *Client) GenerateAnalysis(ctx context.Context, content string) (string, error) {
	resp, err := c.predict(ctx, c.cfg.TextModel, predictRequest{
		Instances:  []map[string]any{{"content": prompt.ContentAnalysis(content)}},
		Parameters: generationParams,
	})
	if err != nil {
		return "", err
	}
	return resp.Predictions[0].Content, nil
}

// DescribeFrames sends sampled frame URLs to the vision model.
func (c *Client) DescribeFrames(ctx context.Context, frameURLs []string) (string, error) {
	images := make([]map[string]string, 0, len(frameURLs))
	for _, u := range frameURLs {
		images = append(images, map[string]string{"uri": u})
	}
	resp, err := c.predict(ctx, c.cfg.VisionModel, predictRequest{
		Instances: []map[string]any{{
			"prompt": prompt.FrameDescription(),
			"images": images,
		}},
		Parameters: generationParams,
	})
	if err != nil {
		return "", err
	}
	return resp.Predictions[0].Content, nil
}

// Embed computes a semantic embedding of the text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.predict(ctx, c.cfg.EmbedModel, predictRequest{
		Instances: []map[string]any{{"content": text}},
	})
	if err != nil {
		return nil, err
	}
	return resp.Predictions[0].Embeddings.Values, nil
}

// Transcribe runs Speech-to-Text on the audio URI and joins the top
// alternative of each result.
func (c *Client) Transcribe(ctx context.Context, audioURI string) (string, error) {
	body := map[string]any{
		"config": map[string]any{
			"encoding":                   "MP3",
			"sampleRateHertz":            16000,
			"languageCode":               "en-US",
			"enableAutomaticPunctuation": true,
			"model":                      "video",
		},
		"audio": map[string]any{"uri": audioURI},
	}

	var out struct {
		Results []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
			} `json:"alternatives"`
		} `json:"results"`
	}
	if err := c.post(ctx, speechEndpoint, body, &out); err != nil {
		return "", err
	}

	var parts []string
	for _, r := range out.Results {
		if len(r.Alternatives) > 0 {
			parts = append(parts, r.Alternatives[0].Transcript)
		}
	}
	return strings.Join(parts, " "), nil
}

func (c *Client) predict(ctx context.Context, model string, req predictRequest) (*predictResponse, error) {
	url := fmt.Sprintf(
		"https://%s-aiplatform.googleapis.com/v1/projects/%s/locations/%s/publishers/google/models/%s:predict",
		c.cfg.Location, c.projectID, c.cfg.Location, model,
	)
	var resp predictResponse
	if err := c.post(ctx, url, req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Predictions) == 0 {
		return nil, fmt.Errorf("%w: %s returned no predictions", domain.ErrUpstreamCall, model)
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, url string, body, out any) error {
	token, err := c.accessToken()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamCall, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%w: %s: %s", domain.ErrUpstreamCall, resp.Status, strings.TrimSpace(string(detail)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
