package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ukydev/fleetsheet/internal/apperr"
	"github.com/ukydev/fleetsheet/internal/report"
)

// apiClient calls the report endpoints with a bearer token.
type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient(baseURL, token string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *apiClient) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.http.Do(req)
}

// download fetches the rendered report and the filename the server chose.
func (c *apiClient) download(ctx context.Context, r report.Request) ([]byte, string, error) {
	q := url.Values{}
	q.Set("format", r.Format)
	if r.From != "" {
		q.Set("from", r.From)
	}
	if r.To != "" {
		q.Set("to", r.To)
	}
	if r.Filename != "" {
		q.Set("filename", r.Filename)
	}
	if r.IncludeGeneratedAt {
		q.Set("generated_at", "true")
	}
	path := "/api/reports/" + url.PathEscape(r.Kind) + "/" + url.PathEscape(r.ID) + "?" + q.Encode()

	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", responseError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}

	filename := r.Kind + "_" + r.ID
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		filename = params["filename"]
	}
	return data, filename, nil
}

type emailRequest struct {
	report.Request
	Recipient string `json:"recipient"`
}

// email asks the server to mail the report and returns the attachment name.
func (c *apiClient) email(ctx context.Context, r report.Request, recipient string) (string, error) {
	body, err := json.Marshal(emailRequest{Request: r, Recipient: recipient})
	if err != nil {
		return "", err
	}
	resp, err := c.do(ctx, http.MethodPost, "/api/reports/email", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", responseError(resp)
	}
	var out struct {
		Filename string `json:"filename"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return out.Filename, nil
}

func responseError(resp *http.Response) error {
	var body apperr.Body
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Message == "" {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return fmt.Errorf("%s: %s (%s)", resp.Status, body.Message, body.Code)
}
