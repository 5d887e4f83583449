// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package client talks to a remote zconvert server and falls back to the
// offline converter when the server cannot help.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/zconvert/internal/convert"
	"github.com/pdiddy/zconvert/internal/formats"
	"github.com/pdiddy/zconvert/internal/httputil"
	"github.com/pdiddy/zconvert/pkg/types"
)

// ErrNoServer is returned by New when no server URL is configured.
var ErrNoServer = errors.New("no conversion server configured")

// Result is a converted file returned by the server.
type Result struct {
	Filename string
	MIMEType string
	Data     []byte
}

// ServerError is a non-2xx response from the server.
type ServerError struct {
	Status  int
	Message string
	Reason  string
}

func (e *ServerError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, msg)
}

// Unwrap maps the status back onto the conversion error taxonomy.
func (e *ServerError) Unwrap() error {
	switch {
	case e.Status == http.StatusRequestEntityTooLarge:
		return convert.ErrLimitExceeded
	case e.Status == http.StatusBadRequest && e.Reason == convert.ReasonUnsupported:
		return convert.ErrUnsupportedConversion
	case e.Status >= 400 && e.Status < 500:
		return convert.ErrValidation
	default:
		return convert.ErrConversionFailed
	}
}

// Client posts files to a zconvert server.
type Client struct {
	baseURL    *url.URL
	http       *http.Client
	token      string
	maxRetries int
	userAgent  string
}

// New returns a client for cfg.ServerURL. token, when non-empty, is sent as
// a bearer token.
func New(cfg types.ClientConfig, token string) (*Client, error) {
	if strings.TrimSpace(cfg.ServerURL) == "" {
		return nil, ErrNoServer
	}
	u, err := url.Parse(strings.TrimRight(cfg.ServerURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q", cfg.ServerURL)
	}
	return &Client{
		baseURL:    u,
		http:       &http.Client{Timeout: cfg.Timeout},
		token:      token,
		maxRetries: cfg.MaxRetries,
		userAgent:  cfg.UserAgent,
	}, nil
}

// BaseURL returns the server URL the client posts to.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// Convert uploads the file at path and returns the converted bytes.
func (c *Client) Convert(ctx context.Context, path, target string) (Result, error) {
	body, contentType, err := multipartBody(path, target)
	if err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL.JoinPath("convert").String(), bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.maxRetries)
	if err != nil {
		return Result{}, fmt.Errorf("posting to %s: %w", c.BaseURL(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, decodeError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("reading response: %w", err)
	}
	return Result{
		Filename: responseFilename(resp, path, target),
		MIMEType: resp.Header.Get("Content-Type"),
		Data:     data,
	}, nil
}

// multipartBody buffers the form so retries can replay it.
func multipartBody(path, target string) ([]byte, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("targetFormat", target); err != nil {
		return nil, "", err
	}
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", path, err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

func decodeError(resp *http.Response) error {
	serr := &ServerError{Status: resp.StatusCode}
	var body httputil.ErrorBody
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(data, &body) == nil {
		serr.Message = body.Error
		serr.Reason = body.Reason
	}
	return serr
}

func responseFilename(resp *http.Response, path, target string) string {
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		if name := filepath.Base(params["filename"]); name != "." && name != "/" && name != "" {
			return name
		}
	}
	return OutputName(path, target)
}

// OutputName returns "<stem>.<target>" for a source path.
func OutputName(path, target string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base)) + "." + formats.Ext(target)
}
