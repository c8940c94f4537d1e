package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Default timeouts, matching how slow local model inference can be next to a
// fast tag listing.
const (
	healthTimeout   = 5 * time.Second
	generateTimeout = 60 * time.Second
)

// Client talks to a local Ollama server to turn analysis results into prose.
// It is a plain HTTP collaborator: the analysis core never depends on it.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client for the Ollama server at baseURL using the given
// model. A nil logger falls back to slog.Default().
func NewClient(baseURL, model string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: generateTimeout},
		logger:     logger,
	}
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// Status describes the Ollama connection and whether the configured model has
// been pulled.
type Status struct {
	Connected      bool     `json:"conectado"`
	ModelAvailable bool     `json:"modelo_disponible"`
	Models         []string `json:"modelos,omitempty"`
	Error          string   `json:"error,omitempty"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Health checks the Ollama server and reports whether the configured model is
// among its pulled models. Connection problems are reported in the status, not
// as an error.
func (c *Client) Health(ctx context.Context) Status {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return Status{Error: fmt.Sprintf("error de conexión: %v", err)}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Status{Error: fmt.Sprintf("error de conexión: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Status{Error: "Ollama no responde"}
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return Status{Connected: true, Error: fmt.Sprintf("respuesta inválida: %v", err)}
	}

	status := Status{Connected: true}
	for _, m := range tags.Models {
		status.Models = append(status.Models, m.Name)
		if strings.Contains(m.Name, c.model) {
			status.ModelAvailable = true
		}
	}
	return status
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	TopK        int     `json:"top_k"`
}

type generateResponse struct {
	Response  string `json:"response"`
	EvalCount int    `json:"eval_count"`
}

// Result is one completed generation.
type Result struct {
	Text       string `json:"respuesta"`
	TokensUsed int    `json:"tokens_usados"`
}

// Generate sends one prompt and returns the model's full response. A
// non-empty grounding text is prefixed to the prompt as context.
func (c *Client) Generate(ctx context.Context, prompt, grounding string) (*Result, error) {
	full := prompt
	if grounding != "" {
		full = fmt.Sprintf("CONTEXTO:\n%s\n\nPROMPT:\n%s", grounding, prompt)
	}

	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: full,
		Stream: false,
		Options: generateOptions{
			Temperature: 0.3,
			TopP:        0.9,
			TopK:        40,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error de conexión con Ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("Ollama devolvió HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var gen generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		return nil, fmt.Errorf("failed to decode generate response: %w", err)
	}

	c.logger.DebugContext(ctx, "generation completed",
		slog.String("model", c.model),
		slog.Int("tokens", gen.EvalCount),
		slog.String("duration", time.Since(start).String()),
	)

	return &Result{
		Text:       strings.TrimSpace(gen.Response),
		TokensUsed: gen.EvalCount,
	}, nil
}
