package wrike

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"vizzydb/pkg/logger"
	"vizzydb/pkg/models"
	"vizzydb/pkg/utils"
)

// Creator creates a project in the downstream tool and returns its
// identifier. The export guard guarantees it is invoked at most once per
// idempotency key; implementations do not need their own dedup.
type Creator interface {
	Create(ctx context.Context, c models.Campaign) (string, error)
}

// Client calls a Wrike-compatible HTTP endpoint.
type Client struct {
	endpoint string
	token    string
	hc       *http.Client
}

func NewClient(endpoint, token string) *Client {
	return &Client{
		endpoint: endpoint,
		token:    token,
		hc:       &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) Create(ctx context.Context, camp models.Campaign) (string, error) {
	body, err := json.Marshal(ProjectPayload(camp))
	if err != nil {
		return "", fmt.Errorf("marshal project payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	res, err := c.hc.Do(req)
	if err != nil {
		logger.Error("wrike_create_failed", "campaign", camp.ID, "error", err)
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		logger.Error("wrike_create_rejected", "campaign", camp.ID, "status", res.StatusCode)
		return "", fmt.Errorf("wrike create returned %s", res.Status)
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode wrike response: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("wrike response missing project id")
	}
	logger.Info("wrike_project_created", "campaign", camp.ID, "project", out.ID)
	return out.ID, nil
}

// Stub fabricates project IDs locally. Used when no endpoint is
// configured, and by tests.
type Stub struct{}

func (Stub) Create(_ context.Context, c models.Campaign) (string, error) {
	id := "wrike_" + utils.GenExportID()
	logger.Info("wrike_stub_project", "campaign", c.ID, "project", id)
	return id, nil
}
