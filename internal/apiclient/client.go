// Package apiclient is a thin HTTP client for the document API. It backs
// the docctl command and satisfies the fetcher and uploader interfaces of
// the listing and uploader packages.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"docvault/internal/model"
	"docvault/internal/repository"
	"docvault/internal/service"
	"docvault/internal/uploader"
)

// ErrNotFound is returned when the server reports a missing document.
var ErrNotFound = errors.New("document not found")

// APIError carries the server's error envelope for non-2xx responses.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.StatusCode, e.Code, e.Message)
}

type errorResponse struct {
	RequestID string `json:"request_id"`
	Error     struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// DocumentUpdate mirrors the server's partial update body. Nil fields are
// omitted and left untouched server side.
type DocumentUpdate struct {
	Title         *string `json:"title,omitempty"`
	Category      *string `json:"category,omitempty"`
	Status        *string `json:"status,omitempty"`
	Description   *string `json:"description,omitempty"`
	Project       *string `json:"project,omitempty"`
	ExtractedText *string `json:"extracted_text,omitempty"`
}

// Client talks to a running document API instance.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a client for the given base URL, e.g. "http://localhost:3000".
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchDocuments retrieves one page of documents matching the query.
func (c *Client) FetchDocuments(ctx context.Context, q repository.ListQuery) (*service.DocumentListResult, error) {
	v := url.Values{}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.Type != "" {
		v.Set("type", q.Type)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Search != "" {
		v.Set("query", q.Search)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}

	endpoint := c.baseURL + "/documents"
	if enc := v.Encode(); enc != "" {
		endpoint += "?" + enc
	}

	var res service.DocumentListResult
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// UploadDocument streams one file as multipart form data together with its
// optional metadata fields.
func (c *Client) UploadDocument(ctx context.Context, file uploader.File) (*model.Document, error) {
	if file.Open == nil {
		return nil, errors.New("file has no content")
	}
	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", file.Name, err)
	}
	defer src.Close()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	part, err := w.CreateFormFile("file", file.Name)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, src); err != nil {
		return nil, fmt.Errorf("read %s: %w", file.Name, err)
	}

	writeField := func(name, val string) {
		if val != "" {
			_ = w.WriteField(name, val)
		}
	}
	writeField("title", file.Meta.Title)
	writeField("category", file.Meta.Category)
	writeField("description", file.Meta.Description)
	if file.Meta.Project != nil {
		writeField("project", *file.Meta.Project)
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/documents", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var doc model.Document
	if err := c.do(req, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetDocument fetches one document by id.
func (c *Client) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	var doc model.Document
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/documents/"+url.PathEscape(id), nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// UpdateDocument applies a partial update and returns the new state.
func (c *Client) UpdateDocument(ctx context.Context, id string, upd DocumentUpdate) (*model.Document, error) {
	payload, err := json.Marshal(upd)
	if err != nil {
		return nil, err
	}
	var doc model.Document
	if err := c.doJSON(ctx, http.MethodPut, c.baseURL+"/documents/"+url.PathEscape(id), payload, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// DeleteDocument removes a document and its stored file.
func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, c.baseURL+"/documents/"+url.PathEscape(id), nil, nil)
}

// DownloadURL asks the server for a presigned download link. The server
// answers with a redirect; the Location target is returned without being
// followed.
func (c *Client) DownloadURL(ctx context.Context, id string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/documents/"+url.PathEscape(id)+"/download", nil)
	if err != nil {
		return "", err
	}

	noFollow := *c.http
	noFollow.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	resp, err := noFollow.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", c.decodeError(resp)
	}
	loc := resp.Header.Get("Location")
	if loc == "" {
		return "", errors.New("no download location in response")
	}
	io.Copy(io.Discard, resp.Body)
	return loc, nil
}

// DashboardStats fetches the aggregated dashboard summary.
func (c *Client) DashboardStats(ctx context.Context) (*service.DashboardStats, error) {
	var stats service.DashboardStats
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/dashboard/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) decodeError(resp *http.Response) error {
	var envelope errorResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Error.Code == "" {
		return &APIError{
			StatusCode: resp.StatusCode,
			Code:       "UNKNOWN",
			Message:    strings.TrimSpace(string(raw)),
		}
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, envelope.Error.Message)
	}
	return &APIError{
		StatusCode: resp.StatusCode,
		Code:       envelope.Error.Code,
		Message:    envelope.Error.Message,
		RequestID:  envelope.RequestID,
	}
}
