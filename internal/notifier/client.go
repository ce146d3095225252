// Package notifier posts item summaries to chat webhooks.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Result reports one delivery. A failed delivery is not an error.
type Result struct {
	Delivered  bool   `json:"delivered"`
	StatusCode int    `json:"statusCode,omitempty"`
	Message    string `json:"message,omitempty"`
}

// Client sends payloads over HTTP. Deliveries are not retried.
type Client struct {
	http   *http.Client
	logger *logrus.Entry
}

func NewClient(timeout time.Duration, logger *logrus.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Client{
		http:   &http.Client{Timeout: timeout},
		logger: logger.WithField("component", "notifier"),
	}
}

// Post sends payload as JSON to url.
func (c *Client) Post(ctx context.Context, url string, payload interface{}) (Result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("invalid webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WithError(err).Warn("Webhook delivery failed")
		return Result{Message: err.Error()}, nil
	}
	defer resp.Body.Close()
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"body":   string(snippet),
		}).Warn("Webhook rejected delivery")
		return Result{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("webhook responded %d", resp.StatusCode),
		}, nil
	}
	return Result{Delivered: true, StatusCode: resp.StatusCode}, nil
}
