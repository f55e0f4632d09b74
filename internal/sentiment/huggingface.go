package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/brandpulse/internal/model"
)

// DefaultHuggingFaceModel is the RoBERTa model fine-tuned on tweets
const DefaultHuggingFaceModel = "cardiffnlp/twitter-roberta-base-sentiment-latest"

// HuggingFaceProvider calls the hosted inference API of a text-classification model
type HuggingFaceProvider struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

type hfRequest struct {
	Inputs  []string  `json:"inputs"`
	Options hfOptions `json:"options"`
}

type hfOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

type hfLabel struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// NewHuggingFaceProvider creates a provider; an API key is optional for public models
func NewHuggingFaceProvider(config Config) (*HuggingFaceProvider, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://api-inference.huggingface.co"
	}
	m := config.Model
	if m == "" {
		m = DefaultHuggingFaceModel
	}

	return &HuggingFaceProvider{
		apiKey:     config.APIKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      m,
		httpClient: newHTTPClient(config, 120*time.Second),
	}, nil
}

func (p *HuggingFaceProvider) Name() string { return "huggingface" }

// IsAvailable classifies a single probe text
func (p *HuggingFaceProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.Classify(ctx, []string{"ok"})
	return err == nil
}

// Classify returns the top-scoring label of every input
func (p *HuggingFaceProvider) Classify(ctx context.Context, texts []string) ([]model.Sentiment, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	headers := map[string]string{}
	if p.apiKey != "" {
		headers["Authorization"] = "Bearer " + p.apiKey
	}

	var raw json.RawMessage
	err := postJSON(ctx, p.httpClient, p.baseURL+"/models/"+p.model, headers,
		hfRequest{Inputs: texts, Options: hfOptions{WaitForModel: true}}, &raw, "huggingface", hfErrorMessage)
	if err != nil {
		return nil, err
	}

	rows, err := decodeHFRows(raw)
	if err != nil {
		return nil, err
	}
	if len(rows) != len(texts) {
		return nil, fmt.Errorf("%w: got %d results for %d texts", ErrBatchMismatch, len(rows), len(texts))
	}

	out := make([]model.Sentiment, len(rows))
	for i, labels := range rows {
		best := hfLabel{Label: model.LabelNeutral}
		for _, l := range labels {
			if l.Score > best.Score {
				best = l
			}
		}
		out[i] = Normalize(best.Label, best.Score)
	}
	return out, nil
}

// decodeHFRows accepts [[{label,score}...]...] and, for one input, [{label,score}...]
func decodeHFRows(raw json.RawMessage) ([][]hfLabel, error) {
	var rows [][]hfLabel
	if err := json.Unmarshal(raw, &rows); err == nil {
		return rows, nil
	}
	var flat []hfLabel
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return [][]hfLabel{flat}, nil
}

func hfErrorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil {
		return e.Error
	}
	return ""
}
