package messenger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/tickerbench/tickerbench/models"
)

// DefaultTimeout bounds a single task round trip. Research runs issue one
// outbound search per ticker, so this is generous on purpose.
const DefaultTimeout = 300 * time.Second

// Messenger is the HTTP client side of the agent protocol: resolve a
// peer's card, post it a task, decode the artifact.
type Messenger struct {
	client *resty.Client
}

// New builds a messenger with the default timeout.
func New() *Messenger {
	client := resty.New()
	client.SetTimeout(DefaultTimeout)
	return &Messenger{client: client}
}

// WithTimeout overrides the round-trip timeout.
func (m *Messenger) WithTimeout(d time.Duration) *Messenger {
	m.client.SetTimeout(d)
	return m
}

// Card fetches the peer's descriptor.
func (m *Messenger) Card(ctx context.Context, baseURL string) (*models.AgentCard, error) {
	var card models.AgentCard
	resp, err := m.client.R().
		SetContext(ctx).
		SetResult(&card).
		Get(baseURL + "/card")
	if err != nil {
		return nil, fmt.Errorf("resolve card at %s: %w", baseURL, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("resolve card at %s: status %d", baseURL, resp.StatusCode())
	}
	return &card, nil
}

// Healthy probes the peer's readiness endpoint.
func (m *Messenger) Healthy(ctx context.Context, baseURL string) error {
	resp, err := m.client.R().SetContext(ctx).Get(baseURL + "/healthz")
	if err != nil {
		return fmt.Errorf("probe %s: %w", baseURL, err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("probe %s: status %d", baseURL, resp.StatusCode())
	}
	return nil
}

// Research posts a workload to the research agent and decodes its
// verdicts. Implements evaluate.Researcher.
func (m *Messenger) Research(ctx context.Context, baseURL string, req models.ResearchRequest) (*models.ResearchResponse, error) {
	var out models.ResearchResponse
	if err := m.postTask(ctx, baseURL, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Evaluate posts the benchmark request to the evaluator and decodes the
// final artifact.
func (m *Messenger) Evaluate(ctx context.Context, baseURL string, req models.EvalRequest) (*models.ResultArtifact, error) {
	var out models.ResultArtifact
	if err := m.postTask(ctx, baseURL, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (m *Messenger) postTask(ctx context.Context, baseURL string, body, out interface{}) error {
	resp, err := m.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(baseURL + "/task")
	if err != nil {
		return fmt.Errorf("post task to %s: %w", baseURL, err)
	}
	if resp.StatusCode() != 200 {
		var taskErr models.TaskError
		if json.Unmarshal(resp.Body(), &taskErr) == nil && taskErr.Error != "" {
			return fmt.Errorf("%s rejected task: %s", baseURL, taskErr.Error)
		}
		return fmt.Errorf("%s responded with status %d: %s", baseURL, resp.StatusCode(), resp.String())
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode artifact from %s: %w", baseURL, err)
	}
	return nil
}
