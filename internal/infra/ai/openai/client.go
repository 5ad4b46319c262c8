package openai

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	domain "github.com/contentedge/insight/internal/domain/analysis"
	"github.com/contentedge/insight/internal/infra/ai/prompt"
)

const maxTokens = 1024

// Client is the alternate provider adapter for deployments without Google
// credentials. It covers the text path, frame description, and embeddings;
// speech transcription is not available, so the video path needs the vertex
// provider unless transcripts arrive some other way.
type Client struct {
	*openai.Client
	Model      string
	EmbedModel string
}

func NewClient(apiKey, model, embedModel string) *Client {
	if model == "" {
		model = openai.GPT4oMini
	}
	if embedModel == "" {
		embedModel = string(openai.SmallEmbedding3)
	}
	return &Client{Client: openai.NewClient(apiKey), Model: model, EmbedModel: embedModel}
}

func (c *Client) GenerateAnalysis(ctx context.Context, content string) (string, error) {
	resp, err := c.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.Model,
		MaxTokens: maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt.ContentAnalysis(content)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUpstreamCall, err)
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) DescribeFrames(ctx context.Context, frameURLs []string) (string, error) {
	parts := []openai.ChatMessagePart{
		{Type: openai.ChatMessagePartTypeText, Text: prompt.FrameDescription()},
	}
	for _, u := range frameURLs {
		parts = append(parts, openai.ChatMessagePart{
			Type:     openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{URL: u},
		})
	}

	resp, err := c.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.Model,
		MaxTokens: maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUpstreamCall, err)
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.EmbedModel),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamCall, err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: empty embedding response", domain.ErrUpstreamCall)
	}
	return resp.Data[0].Embedding, nil
}

func (c *Client) Transcribe(ctx context.Context, audioURI string) (string, error) {
	return "", fmt.Errorf("%w: openai provider cannot transcribe remote audio %q", domain.ErrUpstreamCall, audioURI)
}
