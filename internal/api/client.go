// Package api is the HTTP client for the guest assessment backend.
// All three endpoints are plain request/response JSON; any non-2xx
// status is reported uniformly as an error.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/salatiso/lifesync/internal/model"
)

const defaultTimeout = 15 * time.Second

// Client talks to one assessment backend.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// New creates a client for the backend at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: defaultTimeout},
	}
}

// NewWithHTTPClient creates a client using the given http.Client.
func NewWithHTTPClient(baseURL string, httpc *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpc: httpc}
}

// Questions fetches the guest question set, in display order.
func (c *Client) Questions(ctx context.Context) ([]model.Question, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/guest/questions", nil)
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch questions: unexpected status %s", resp.Status)
	}

	var envelope struct {
		Questions json.RawMessage `json:"questions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("fetch questions: decode response: %w", err)
	}
	questions, err := model.DecodeQuestions(envelope.Questions)
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}
	return questions, nil
}

// Feedback submits one answer and returns the backend's comment on it.
func (c *Client) Feedback(ctx context.Context, questionID, value string) (string, error) {
	body := model.Answer{QuestionID: questionID, Value: value}
	var out struct {
		Feedback string `json:"feedback"`
	}
	if err := c.postJSON(ctx, "/api/guest/feedback", body, &out); err != nil {
		return "", fmt.Errorf("request feedback: %w", err)
	}
	return out.Feedback, nil
}

// Complete submits the full ordered answer set and returns the report.
func (c *Client) Complete(ctx context.Context, answers []model.Answer) (model.Report, error) {
	body := struct {
		Answers []model.Answer `json:"answers"`
	}{Answers: answers}
	var report model.Report
	if err := c.postJSON(ctx, "/api/guest/complete", body, &report); err != nil {
		return model.Report{}, fmt.Errorf("complete assessment: %w", err)
	}
	return report, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
