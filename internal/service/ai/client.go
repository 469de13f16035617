package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"objectsrecognition/internal/apperr"
	"objectsrecognition/internal/config"
	"objectsrecognition/internal/dto"
	"objectsrecognition/internal/logger"
)

const (
	inferencePath = "/inference"
	healthPath    = "/health"
	// imageField is the multipart field carrying the JPEG.
	imageField = "image"
	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 8 << 20
)

// ErrUnhealthy is wrapped when /health answers with a non-healthy status_code.
var ErrUnhealthy = errors.New("service reported unhealthy status")

// Client talks to the remote recognition service.
type Client struct {
	serviceURL string
	healthURL  string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a client for the configured service and health URLs.
func NewClient(config *config.Config, logger *logger.Logger) *Client {
	return NewClientWithHTTP(config.ServiceURL, config.HealthURL, &http.Client{Timeout: config.RequestTimeout()}, logger)
}

// NewClientWithHTTP creates a client with an explicit http.Client.
func NewClientWithHTTP(serviceURL, healthURL string, httpClient *http.Client, logger *logger.Logger) *Client {
	if healthURL == "" {
		healthURL = serviceURL
	}
	return &Client{
		serviceURL: strings.TrimRight(serviceURL, "/"),
		healthURL:  strings.TrimRight(healthURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// Detect uploads one JPEG and returns the detections the service reported.
// Transport problems wrap apperr.ErrTransport; error statuses and malformed
// bodies wrap apperr.ErrService. A single malformed object_bbox entry only
// marks that entry (ObjectBBox.Err).
func (c *Client) Detect(ctx context.Context, name string, jpeg []byte) ([]dto.ObjectBBox, error) {
	if len(jpeg) == 0 {
		return nil, fmt.Errorf("%w: image %s is empty", apperr.ErrInvalidInput, name)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(imageField, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart part: %w", err)
	}
	if _, err := part.Write(jpeg); err != nil {
		return nil, fmt.Errorf("failed to write multipart part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serviceURL+inferencePath, body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build inference request: %v", apperr.ErrTransport, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	start := time.Now()
	var response dto.RawInferenceResponse
	if err := c.do(req, &response); err != nil {
		return nil, err
	}

	c.logger.Info("Inference for %s returned %d detections in %v", name, len(response.ObjectBBox), time.Since(start))
	return response.Boxes(), nil
}

// Health performs one probe of the health endpoint. It succeeds only when the
// transport succeeds, the status is 2xx and the payload reports status_code 200.
func (c *Client) Health(ctx context.Context) (dto.HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.healthURL+healthPath, nil)
	if err != nil {
		return dto.HealthResponse{}, fmt.Errorf("%w: failed to build health request: %v", apperr.ErrTransport, err)
	}

	var health dto.HealthResponse
	if err := c.do(req, &health); err != nil {
		return health, err
	}
	if health.StatusCode != dto.HealthyStatusCode {
		return health, fmt.Errorf("%w: %w: status_code %d", apperr.ErrService, ErrUnhealthy, health.StatusCode)
	}
	return health, nil
}

// Probe implements the watchdog prober.
func (c *Client) Probe(ctx context.Context) error {
	_, err := c.Health(ctx)
	return err
}

// ServiceURL returns the base URL used for inference.
func (c *Client) ServiceURL() string {
	return c.serviceURL
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", apperr.ErrTransport, req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: failed to read %s response: %v", apperr.ErrTransport, req.URL.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s %s returned status %d", apperr.ErrService, req.Method, req.URL.Path, resp.StatusCode)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: malformed %s response: %v", apperr.ErrService, req.URL.Path, err)
	}
	return nil
}
