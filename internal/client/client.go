package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/killallgit/study-api/internal/models"
)

// Client talks to a study-api server on behalf of a viewer session
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// Config holds configuration for the study client
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// APIError is returned for any non-2xx response
type APIError struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("API returned status %d: %s (%s)", e.StatusCode, e.Message, e.Details)
	}
	return fmt.Sprintf("API returned status %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is an APIError with status 404
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// NewClient creates a new study API client
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:3001"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "StudyViewer/1.0"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
	}
}

// BaseURL returns the server root this client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

func studyPath(studyID string, parts ...string) string {
	p := "/api/studies/" + url.PathEscape(studyID)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

// do sends a request and decodes a JSON response into result when non-nil
func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if result == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	var envelope struct {
		Error   string          `json:"error"`
		Details json.RawMessage `json:"details"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(data, &envelope) == nil && envelope.Error != "" {
		apiErr.Message = envelope.Error
		apiErr.Details = detailsString(envelope.Details)
	}
	return apiErr
}

// detailsString flattens a details value that may be a string or an object
func detailsString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var text string
	if json.Unmarshal(raw, &text) == nil {
		return text
	}
	return string(raw)
}

// ListStudies returns every study the server knows about
func (c *Client) ListStudies(ctx context.Context) ([]models.StudySummary, error) {
	var studies []models.StudySummary
	if err := c.do(ctx, http.MethodGet, "/api/studies", nil, &studies); err != nil {
		return nil, err
	}
	return studies, nil
}

// GetStudy fetches one study with its models, annotations and videos
func (c *Client) GetStudy(ctx context.Context, studyID string) (*models.Study, error) {
	if studyID == "" {
		return nil, fmt.Errorf("study id cannot be empty")
	}

	var study models.Study
	if err := c.do(ctx, http.MethodGet, studyPath(studyID), nil, &study); err != nil {
		return nil, err
	}
	return &study, nil
}

type saveAnnotationsBody struct {
	ModelID     string              `json:"modelId"`
	Annotations []models.Annotation `json:"annotations"`
}

// SaveAnnotations replaces the stored annotations of one model
func (c *Client) SaveAnnotations(ctx context.Context, studyID, modelID string, annotations []models.Annotation) error {
	if annotations == nil {
		annotations = []models.Annotation{}
	}
	return c.do(ctx, http.MethodPost, studyPath(studyID, "annotations"), saveAnnotationsBody{
		ModelID:     modelID,
		Annotations: annotations,
	}, nil)
}

// AppendVideo adds a recording reference to the study's ledger
func (c *Client) AppendVideo(ctx context.Context, studyID string, video models.Video) error {
	return c.do(ctx, http.MethodPost, studyPath(studyID, "videos"), video, nil)
}

// ListActivity returns recent sync events for a study
func (c *Client) ListActivity(ctx context.Context, studyID string, limit int) ([]models.Activity, error) {
	path := studyPath(studyID, "activity")
	if limit > 0 {
		path += fmt.Sprintf("?limit=%d", limit)
	}

	var entries []models.Activity
	if err := c.do(ctx, http.MethodGet, path, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
