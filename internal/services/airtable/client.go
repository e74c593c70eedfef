package airtable

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

	"golang.org/x/time/rate"

	"github.com/RabowNicholas/swna-automation/internal/registry"
	"github.com/RabowNicholas/swna-automation/internal/services"
)

// DefaultBaseURL is the public Airtable API endpoint.
const DefaultBaseURL = "https://api.airtable.com"

// Fields maps registry concepts to Airtable column names.
type Fields struct {
	Name   string
	CaseID string
	Log    string
}

// Config describes one Airtable table.
type Config struct {
	BaseURL           string
	BaseID            string
	Table             string
	APIKey            string
	Fields            Fields
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
}

// Client talks to a single Airtable table.
type Client struct {
	baseURL    string
	baseID     string
	table      string
	apiKey     string
	fields     Fields
	timeout    time.Duration
	limiter    *rate.Limiter
	httpClient *http.Client
}

var _ registry.Client = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New validates cfg and returns a client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("airtable api key required")
	}
	if strings.TrimSpace(cfg.BaseID) == "" {
		return nil, errors.New("airtable base id required")
	}
	if strings.TrimSpace(cfg.Table) == "" {
		return nil, errors.New("airtable table required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	fields := cfg.Fields
	if fields.Name == "" {
		fields.Name = "Name"
	}
	if fields.CaseID == "" {
		fields.CaseID = "Case ID"
	}
	if fields.Log == "" {
		fields.Log = "Log"
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := max(cfg.Burst, 1)
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := &Client{
		baseURL:    baseURL,
		baseID:     strings.TrimSpace(cfg.BaseID),
		table:      strings.TrimSpace(cfg.Table),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		fields:     fields,
		timeout:    timeout,
		limiter:    rate.NewLimiter(limit, burst),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type apiRecord struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

type listResponse struct {
	Records []apiRecord `json:"records"`
	Offset  string      `json:"offset"`
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// FindByName lists records whose name field equals name or starts with it.
// Pages are followed until Airtable stops returning an offset.
func (c *Client) FindByName(ctx context.Context, name string) ([]registry.Record, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, services.Wrap(services.ErrValidation, services.StageResolve, "find record", "name must not be empty", nil)
	}
	formula := NameFormula(c.fields.Name, name)

	var out []registry.Record
	offset := ""
	for {
		params := url.Values{}
		params.Set("filterByFormula", formula)
		params.Set("pageSize", "100")
		if offset != "" {
			params.Set("offset", offset)
		}
		var page listResponse
		if err := c.do(ctx, http.MethodGet, c.tableURL("")+"?"+params.Encode(), nil, &page); err != nil {
			return nil, wrapErr(services.StageResolve, "find record", err)
		}
		for _, rec := range page.Records {
			out = append(out, c.toRecord(rec))
		}
		if page.Offset == "" {
			return out, nil
		}
		offset = page.Offset
	}
}

// Get fetches one record by id.
func (c *Client) Get(ctx context.Context, id string) (registry.Record, error) {
	var rec apiRecord
	if err := c.do(ctx, http.MethodGet, c.tableURL(id), nil, &rec); err != nil {
		return registry.Record{}, wrapErr(services.StageCommit, "get record", err)
	}
	return c.toRecord(rec), nil
}

// Update PATCHes the case id and log fields. Only non-empty fields are sent.
func (c *Client) Update(ctx context.Context, id string, update registry.Update) (registry.Record, error) {
	fields := map[string]any{}
	if update.CaseID != "" {
		fields[c.fields.CaseID] = update.CaseID
	}
	if update.Log != "" {
		fields[c.fields.Log] = update.Log
	}
	if len(fields) == 0 {
		return c.Get(ctx, id)
	}
	body, err := json.Marshal(map[string]any{"fields": fields})
	if err != nil {
		return registry.Record{}, fmt.Errorf("encode update: %w", err)
	}
	var rec apiRecord
	if err := c.do(ctx, http.MethodPatch, c.tableURL(id), body, &rec); err != nil {
		return registry.Record{}, wrapErr(services.StageCommit, "update record", err)
	}
	return c.toRecord(rec), nil
}

func (c *Client) tableURL(id string) string {
	u := c.baseURL + "/v0/" + url.PathEscape(c.baseID) + "/" + url.PathEscape(c.table)
	if id != "" {
		u += "/" + url.PathEscape(id)
	}
	return u
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error.Type != "" {
			return fmt.Errorf("airtable returned %d %s: %s (latency=%v)", resp.StatusCode, apiErr.Error.Type, apiErr.Error.Message, latency)
		}
		return fmt.Errorf("airtable returned %d (latency=%v)", resp.StatusCode, latency)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode airtable response: %w", err)
	}
	return nil
}

func (c *Client) toRecord(rec apiRecord) registry.Record {
	return registry.Record{
		ID:          rec.ID,
		DisplayName: stringField(rec.Fields, c.fields.Name),
		CaseID:      stringField(rec.Fields, c.fields.CaseID),
		Log:         stringField(rec.Fields, c.fields.Log),
	}
}

func stringField(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprint(v)
	}
}

// NameFormula builds the filterByFormula expression matching name exactly or
// as a prefix of the name field.
func NameFormula(field, name string) string {
	quoted := quoteFormulaString(name)
	ref := "{" + field + "}"
	return "OR(" + ref + "=" + quoted + ",FIND(" + quoted + "," + ref + ")=1)"
}

func quoteFormulaString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

func wrapErr(stage, operation string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, stage, operation, "registry request timed out",
			fmt.Errorf("%w: %w", services.ErrRegistryAPI, err))
	}
	return services.Wrap(services.ErrRegistryAPI, stage, operation, "", err)
}
