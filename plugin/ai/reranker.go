package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const rerankTimeout = 30 * time.Second

// RerankResult is the position of a document in the input and its relevance.
type RerankResult struct {
	Index int
	Score float32
}

// RerankerService orders documents by relevance to a query.
type RerankerService interface {
	Rerank(ctx context.Context, query string, documents []string, topN int) ([]RerankResult, error)
	IsEnabled() bool
}

// NewRerankerService returns a SiliconFlow reranker, or a passthrough that
// keeps the input order when reranking is disabled.
func NewRerankerService(cfg *RerankerConfig) RerankerService {
	if !cfg.Enabled {
		return passthroughReranker{}
	}
	base := strings.TrimSuffix(strings.TrimRight(cfg.BaseURL, "/"), "/v1")
	return &siliconFlowReranker{
		endpoint: base + "/v1/rerank",
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		client:   &http.Client{Timeout: rerankTimeout},
	}
}

type passthroughReranker struct{}

func (passthroughReranker) IsEnabled() bool { return false }

func (passthroughReranker) Rerank(_ context.Context, _ string, documents []string, topN int) ([]RerankResult, error) {
	n := len(documents)
	if topN > 0 && topN < n {
		n = topN
	}
	results := make([]RerankResult, n)
	for i := range results {
		results[i] = RerankResult{Index: i, Score: 1 - float32(i)*0.01}
	}
	return results, nil
}

type siliconFlowReranker struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n,omitempty"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float32 `json:"relevance_score"`
	} `json:"results"`
}

func (*siliconFlowReranker) IsEnabled() bool { return true }

func (r *siliconFlowReranker) Rerank(ctx context.Context, query string, documents []string, topN int) ([]RerankResult, error) {
	if len(documents) == 0 {
		return nil, nil
	}
	response, err := r.post(ctx, &rerankRequest{
		Model:     r.model,
		Query:     query,
		Documents: documents,
		TopN:      topN,
	})
	if err != nil {
		return nil, err
	}
	return response.results(len(documents)), nil
}

func (r *siliconFlowReranker) post(ctx context.Context, payload *rerankRequest) (*rerankResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode rerank request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "rerank request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, errors.Errorf("rerank API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	var response rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, errors.Wrap(err, "failed to decode rerank response")
	}
	return &response, nil
}

// results drops indices outside the input and sorts by descending score.
func (r *rerankResponse) results(documents int) []RerankResult {
	out := make([]RerankResult, 0, len(r.Results))
	for _, hit := range r.Results {
		if hit.Index < 0 || hit.Index >= documents {
			continue
		}
		out = append(out, RerankResult{Index: hit.Index, Score: hit.RelevanceScore})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}
