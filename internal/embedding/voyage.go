package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	voyageAPI          = "https://api.voyageai.com/v1/embeddings"
	defaultVoyageModel = "voyage-3-lite"
)

// VoyageClient handles embedding generation via Voyage AI.
type VoyageClient struct {
	apiKey string
	model  string
	client *http.Client
}

// NewVoyageClient creates a Voyage embedding client.
func NewVoyageClient(apiKey, model string) (*VoyageClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("voyage api key not set")
	}
	if model == "" {
		model = defaultVoyageModel
	}
	return &VoyageClient{
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type voyageRequest struct {
	Input     []string `json:"input"`
	Model     string   `json:"model"`
	InputType string   `json:"input_type,omitempty"`
}

type voyageResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// EmbedDocument embeds a text for indexing.
func (c *VoyageClient) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return c.embed(ctx, text, "document")
}

// EmbedQuery embeds a search query.
func (c *VoyageClient) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return c.embed(ctx, query, "query")
}

func (c *VoyageClient) embed(ctx context.Context, text, inputType string) ([]float32, error) {
	reqBody := voyageRequest{
		Input:     []string{text},
		Model:     c.model,
		InputType: inputType,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, voyageAPI, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("api error (status %d): %s", resp.StatusCode, string(body))
	}

	var apiResp voyageResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(apiResp.Data) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}
	return apiResp.Data[0].Embedding, nil
}
