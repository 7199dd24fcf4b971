package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Client is the authorized REST collaborator. Every request passes
// through the authorizer transport; callers never see tokens.
type Client struct {
	baseURL    string // server URL + API base path, no trailing slash
	httpClient *http.Client
}

// NewClient builds a client for serverURL with the given API base
// path (normally /api). tokens drives bearer attachment and refresh.
func NewClient(serverURL, basePath string, timeout time.Duration, tokens TokenSource) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	base := strings.TrimSuffix(serverURL, "/") + basePath

	return &Client{
		baseURL: base,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &authTransport{
				base:    http.DefaultTransport,
				tokens:  tokens,
				apiBase: basePath,
			},
		},
	}
}

// doJSON runs one JSON request/response cycle. A nil out discards the
// response body.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// doMultipart uploads fields plus an optional file under fileField.
// The form is buffered up front so the authorizer can replay it on a
// 401 retry.
func (c *Client) doMultipart(ctx context.Context, method, path string, fields map[string]string, fileField, filePath string, out any) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return err
		}
	}

	if filePath != "" {
		file, err := os.Open(filePath)
		if err != nil {
			return fmt.Errorf("open %s: %w", filePath, err)
		}
		part, err := writer.CreateFormFile(fileField, filepath.Base(filePath))
		if err != nil {
			file.Close()
			return err
		}
		if _, err := io.Copy(part, file); err != nil {
			file.Close()
			return err
		}
		file.Close()
	}

	if err := writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
