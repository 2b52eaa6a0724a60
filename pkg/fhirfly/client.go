// Package fhirfly is a Go client for the FHIR Fly terminology API.
package fhirfly

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is used when neither the caller nor FHIRFLY_API_URL names one.
	DefaultBaseURL = "https://api.fhirfly.me"
	// Unknown is the ICD-11 code reported for unmapped NAMASTE codes.
	Unknown = "UNKNOWN"
)

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("fhirfly: %d %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// NewClient returns a client for baseURL. An empty baseURL falls back to
// FHIRFLY_API_URL, then DefaultBaseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("FHIRFLY_API_URL")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Token() string {
	return c.token
}

// Login signs in with an ABHA id and keeps the token for later calls.
func (c *Client) Login(ctx context.Context, abhaID string) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{"abhaId": abhaID}, &resp); err != nil {
		return nil, err
	}
	c.token = resp.Token
	return &resp, nil
}

func (c *Client) SearchTerminology(ctx context.Context, query string) ([]Term, error) {
	var terms []Term
	path := "/api/terminology?query=" + url.QueryEscape(query)
	if err := c.do(ctx, http.MethodGet, path, nil, &terms); err != nil {
		return nil, err
	}
	return terms, nil
}

func (c *Client) Translate(ctx context.Context, req TranslationRequest) (*TranslationResponse, error) {
	var resp TranslationResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/conceptmaps/translate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TranslateDiagnosis looks up the ICD-11 code for a NAMASTE code through
// terminology search.
func (c *Client) TranslateDiagnosis(ctx context.Context, namasteCode string) (*MappingResult, error) {
	terms, err := c.SearchTerminology(ctx, namasteCode)
	if err != nil {
		return nil, err
	}
	for _, t := range terms {
		if strings.EqualFold(t.NamasteCode, namasteCode) && t.ICD11Code != "" {
			return &MappingResult{NamasteCode: namasteCode, ICD11Code: t.ICD11Code, Message: "Mapped successfully"}, nil
		}
	}
	return &MappingResult{NamasteCode: namasteCode, ICD11Code: Unknown, Message: "No mapping found"}, nil
}

// UploadBundle stores a FHIR Bundle. bundle is sent as-is when it is a
// []byte or json.RawMessage and JSON-encoded otherwise.
func (c *Client) UploadBundle(ctx context.Context, bundle interface{}) (*UploadResponse, error) {
	var body interface{} = bundle
	if raw, ok := bundle.([]byte); ok {
		body = json.RawMessage(raw)
	}
	var resp UploadResponse
	if err := c.do(ctx, http.MethodPost, "/api/bundles", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("fhirfly: encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fhirfly: %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("fhirfly: read response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &APIError{StatusCode: res.StatusCode, Message: errorMessage(data, res.Status)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("fhirfly: decode response: %w", err)
	}
	return nil
}

func errorMessage(data []byte, fallback string) string {
	var body struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if json.Unmarshal(data, &body) == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Detail != "" {
			return body.Detail
		}
	}
	return fallback
}
