package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jiaofangliang/datahub/internal/compliance"
	"github.com/jiaofangliang/datahub/internal/model"
)

// HTTPClient implements Client using the HTTP/JSON REST API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

func datasetPath(ref string) string {
	return "/v1/datasets/" + url.PathEscape(ref)
}

// --- Lookup tables ---

func (c *HTTPClient) Classifications(ctx context.Context) ([]compliance.Option, error) {
	var resp struct {
		Options []compliance.Option `json:"options"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/compliance/classifications", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Options, nil
}

func (c *HTTPClient) ClassificationDefaults(ctx context.Context) (*ClassificationDefaults, error) {
	var resp ClassificationDefaults
	if err := c.doJSON(ctx, http.MethodGet, "/v1/compliance/classifications/defaults", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) LogicalTypes(ctx context.Context, category string) ([]compliance.Option, error) {
	q := url.Values{}
	q.Set("category", category)
	var resp struct {
		Options []compliance.Option `json:"options"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/compliance/logical-types?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Options, nil
}

func (c *HTTPClient) IdentifierTypes(ctx context.Context) ([]IdentifierType, error) {
	var resp struct {
		IdentifierTypes []IdentifierType `json:"identifier_types"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/compliance/identifier-types", nil, &resp); err != nil {
		return nil, err
	}
	return resp.IdentifierTypes, nil
}

func (c *HTTPClient) IdentifierType(ctx context.Context, value string) (*IdentifierType, error) {
	var resp IdentifierType
	if err := c.doJSON(ctx, http.MethodGet, "/v1/compliance/identifier-types/"+url.PathEscape(value), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// --- Datasets ---

func (c *HTTPClient) CreateDataset(ctx context.Context, req *CreateDatasetRequest) (*model.Dataset, error) {
	var ds model.Dataset
	if err := c.doJSON(ctx, http.MethodPost, "/v1/datasets", req, &ds); err != nil {
		return nil, err
	}
	return &ds, nil
}

func (c *HTTPClient) ListDatasets(ctx context.Context, req *ListDatasetsRequest) (*ListDatasetsResponse, error) {
	q := url.Values{}
	if len(req.Platform) > 0 {
		q.Set("platform", strings.Join(req.Platform, ","))
	}
	if req.Search != "" {
		q.Set("search", req.Search)
	}
	if req.Sort != "" {
		q.Set("sort", req.Sort)
	}
	if req.Limit > 0 {
		q.Set("limit", strconv.Itoa(req.Limit))
	}
	if req.Offset > 0 {
		q.Set("offset", strconv.Itoa(req.Offset))
	}

	path := "/v1/datasets"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp ListDatasetsResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) GetDataset(ctx context.Context, ref string) (*model.Dataset, error) {
	var ds model.Dataset
	if err := c.doJSON(ctx, http.MethodGet, datasetPath(ref), nil, &ds); err != nil {
		return nil, err
	}
	return &ds, nil
}

func (c *HTTPClient) DeleteDataset(ctx context.Context, ref, actor string) error {
	path := datasetPath(ref)
	if actor != "" {
		path += "?" + url.Values{"actor": {actor}}.Encode()
	}
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

func (c *HTTPClient) SetSchema(ctx context.Context, ref string, schema *model.SchemaDefinition, updatedBy string) (*model.Dataset, error) {
	body := map[string]any{"schema": schema}
	if updatedBy != "" {
		body["updated_by"] = updatedBy
	}
	var ds model.Dataset
	if err := c.doJSON(ctx, http.MethodPut, datasetPath(ref)+"/schema", body, &ds); err != nil {
		return nil, err
	}
	return &ds, nil
}

// --- Compliance ---

func (c *HTTPClient) GetCompliance(ctx context.Context, ref string) (*model.ComplianceInfo, error) {
	var info model.ComplianceInfo
	if err := c.doJSON(ctx, http.MethodGet, datasetPath(ref)+"/compliance", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *HTTPClient) SetCompliance(ctx context.Context, ref string, req *SetComplianceRequest) (*model.ComplianceInfo, error) {
	var info model.ComplianceInfo
	if err := c.doJSON(ctx, http.MethodPut, datasetPath(ref)+"/compliance", req, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// --- Events ---

func (c *HTTPClient) GetEvents(ctx context.Context, ref string) ([]*model.Event, error) {
	var resp struct {
		Events []*model.Event `json:"events"`
	}
	if err := c.doJSON(ctx, http.MethodGet, datasetPath(ref)+"/events", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

// --- Health ---

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// NotFound reports whether the server answered 404.
func (e *APIError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded (for DELETE/204 responses).
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
