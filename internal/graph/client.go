// Package graph is a thin read-only client for the Facebook Graph API endpoints
// that describe catalog product feeds and their uploads.
package graph

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"feedwatch/internal/core"
)

// Field selections requested for each read.
const (
	feedListFields        = "id,name"
	feedMetadataFields    = "id,name,created_time,product_count,schedule,update_schedule,latest_upload"
	uploadMetadataFields  = "id,start_time,end_time,error_count,warning_count,num_detected_items,num_persisted_items,url"
	feedInformationFields = "id,name,url,schedule,update_schedule,uploads{id,start_time,end_time,url}"
)

// maxBodySize bounds how much of a response body is read.
const maxBodySize = 4 << 20

// Response is the status code and raw body of a Graph API call
type Response struct {
	StatusCode int
	Body       []byte
}

// Config holds client settings
type Config struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
	UserAgent   string
}

// Client reads feed data from the Graph API
type Client struct {
	baseURL     string
	accessToken string
	userAgent   string
	httpClient  *http.Client
	logger      *core.Logger
}

// NewClient creates a Graph API client
func NewClient(config Config, logger *core.Logger) *Client {
	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = "feedwatch/1.0"
	}

	return &Client{
		baseURL:     strings.TrimRight(config.BaseURL, "/"),
		accessToken: config.AccessToken,
		userAgent:   userAgent,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger,
	}
}

// ReadFeeds lists the product feeds configured for a catalog
func (c *Client) ReadFeeds(ctx context.Context, catalogID string) (*Response, error) {
	return c.get(ctx, catalogID, "/product_feeds", feedListFields)
}

// ReadFeedMetadata reads a feed's schedules, product count and latest upload reference
func (c *Client) ReadFeedMetadata(ctx context.Context, feedID string) (*Response, error) {
	return c.get(ctx, feedID, "", feedMetadataFields)
}

// ReadUploadMetadata reads the counters and source URL of a single feed upload
func (c *Client) ReadUploadMetadata(ctx context.Context, uploadID string) (*Response, error) {
	return c.get(ctx, uploadID, "", uploadMetadataFields)
}

// ReadFeedInformation reads a feed's URL, schedules and upload history
func (c *Client) ReadFeedInformation(ctx context.Context, feedID string) (*Response, error) {
	return c.get(ctx, feedID, "", feedInformationFields)
}

// get reads node id, optionally through edge ("/product_feeds"). Only the id is escaped.
func (c *Client) get(ctx context.Context, id, edge, fields string) (*Response, error) {
	query := url.Values{}
	query.Set("fields", fields)
	path := url.PathEscape(id) + edge
	endpoint := c.baseURL + "/" + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("graph request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug("Graph API request", "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}
