package reportcli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/harvestpay/internal/domain/model"
	"github.com/okian/harvestpay/internal/domain/payroll"
	"github.com/okian/harvestpay/internal/domain/types"
	"github.com/okian/harvestpay/pkg/logger"
)

// maxErrorBody bounds how much of an error response is quoted.
const maxErrorBody = 4 << 10

// HTTPClient talks to a running harvestpay server.
type HTTPClient struct {
	client  *http.Client
	baseURL string
	log     logger.Logger
}

// NewHTTPClient creates a client for baseURL with a per-request timeout.
func NewHTTPClient(baseURL string, timeout time.Duration, log logger.Logger) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
	}
}

type submitResponse struct {
	ID        string          `json:"id"`
	Status    types.JobStatus `json:"status"`
	Duplicate bool            `json:"duplicate"`
}

// Submit posts snap to /reports and returns the job id.
func (c *HTTPClient) Submit(ctx context.Context, idempotencyKey string, snap *model.Snapshot) (string, error) {
	body, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/reports", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	var ack submitResponse
	if err := c.do(req, http.StatusAccepted, &ack); err != nil {
		return "", err
	}
	c.log.Debug(ctx, "report job submitted",
		logger.String("jobId", ack.ID),
		logger.Bool("duplicate", ack.Duplicate),
	)
	return ack.ID, nil
}

// Job fetches /reports/{id}.
func (c *HTTPClient) Job(ctx context.Context, id string) (types.Job, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reports/"+id, http.NoBody)
	if err != nil {
		return types.Job{}, fmt.Errorf("failed to create request: %w", err)
	}
	var job types.Job
	if err := c.do(req, http.StatusOK, &job); err != nil {
		return types.Job{}, err
	}
	return job, nil
}

// Wait polls the job until it finishes and returns its report.
func (c *HTTPClient) Wait(ctx context.Context, id string, every time.Duration) (*payroll.Report, error) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		job, err := c.Job(ctx, id)
		if err != nil {
			return nil, err
		}
		switch job.Status {
		case types.StatusDone:
			if job.Report == nil {
				return nil, fmt.Errorf("job %s finished without a report", id)
			}
			return job.Report, nil
		case types.StatusFailed:
			return nil, fmt.Errorf("job %s failed: %s", id, job.Error)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for job %s: %w", id, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (c *HTTPClient) do(req *http.Request, want int, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != want {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
