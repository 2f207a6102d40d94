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
	"time"

	"bug_track_app_go/models"
)

// RequestTimeout bounds every API call
const RequestTimeout = 10 * time.Second

// retryDelays drive the backoff between attempts on network-level
// failures. Server error responses are never retried.
var retryDelays = []time.Duration{1 * time.Second, 2 * time.Second}

// APIError is a non-2xx response from the server
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Client is an API client holding an explicit session. The token
// lives on the client instance, not in ambient global state, so two
// clients with different sessions can coexist.
type Client struct {
	baseURL  string
	http     *http.Client
	token    string
	username string
}

// New creates an unauthenticated client for the given server
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: RequestTimeout},
	}
}

// Username returns the logged-in user, empty before login
func (c *Client) Username() string {
	return c.username
}

// SetSession installs an existing token (e.g. restored from disk)
func (c *Client) SetSession(token, username string) {
	c.token = token
	c.username = username
}

type authResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Login authenticates and stores the session on the client
func (c *Client) Login(ctx context.Context, username, password string) error {
	var resp authResponse
	err := c.do(ctx, http.MethodPost, "/api/login",
		map[string]string{"username": username, "password": password}, &resp)
	if err != nil {
		return err
	}
	c.token = resp.Token
	c.username = resp.User.Username
	return nil
}

// ListFilters mirrors the server-side query parameters
type ListFilters struct {
	Search    string
	Pims      string
	Tester    string
	Status    string
	Stage     string
	StartDate string
	EndDate   string
}

type listResponse struct {
	Bugs []models.Bug `json:"bugs"`
}

// ListAll fetches the complete matching set in one response
// (all=true), ordered by updatedAt descending
func (c *Client) ListAll(ctx context.Context, f ListFilters) ([]models.Bug, error) {
	q := url.Values{}
	q.Set("all", "true")
	setIfNotEmpty(q, "search", f.Search)
	setIfNotEmpty(q, "pims", f.Pims)
	setIfNotEmpty(q, "tester", f.Tester)
	setIfNotEmpty(q, "status", f.Status)
	setIfNotEmpty(q, "stage", f.Stage)
	setIfNotEmpty(q, "startDate", f.StartDate)
	setIfNotEmpty(q, "endDate", f.EndDate)

	var resp listResponse
	if err := c.do(ctx, http.MethodGet, "/api/bugs?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Bugs, nil
}

// GetBug fetches a single record via a filtered list lookup
func (c *Client) GetBug(ctx context.Context, id string) (*models.Bug, error) {
	bugs, err := c.ListAll(ctx, ListFilters{})
	if err != nil {
		return nil, err
	}
	for i := range bugs {
		if bugs[i].ID == id {
			return &bugs[i], nil
		}
	}
	return nil, &APIError{Status: http.StatusNotFound, Message: "bug not found"}
}

// CreateBug creates a record and returns the server-assigned id
func (c *Client) CreateBug(ctx context.Context, bug *models.Bug) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/bugs", bug, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// UpdateBug replaces fields of an existing record
func (c *Client) UpdateBug(ctx context.Context, bug *models.Bug) (*models.Bug, error) {
	var updated models.Bug
	if err := c.do(ctx, http.MethodPut, "/api/bugs/"+bug.ID, bug, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteBug permanently removes a record
func (c *Client) DeleteBug(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/bugs/"+id, nil, nil)
}

// AddComment prepends a comment and returns the full updated record
func (c *Client) AddComment(ctx context.Context, id, text string) (*models.Bug, error) {
	var updated models.Bug
	err := c.do(ctx, http.MethodPost, "/api/bugs/"+id+"/comments",
		map[string]string{"text": text}, &updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteComment removes the comment at the given index
func (c *Client) DeleteComment(ctx context.Context, id string, index int) (*models.Bug, error) {
	var updated models.Bug
	err := c.do(ctx, http.MethodDelete,
		"/api/bugs/"+id+"/comments/"+strconv.Itoa(index), nil, &updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// AddMeeting prepends a meeting note and returns the updated record
func (c *Client) AddMeeting(ctx context.Context, id, text string) (*models.Bug, error) {
	var updated models.Bug
	err := c.do(ctx, http.MethodPost, "/api/bugs/"+id+"/meetings",
		map[string]string{"text": text}, &updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// AppendLog records a client-driven operation log entry
func (c *Client) AppendLog(ctx context.Context, entry *models.OperationLog) error {
	return c.do(ctx, http.MethodPost, "/api/logs", entry, nil)
}

// Copy duplicates a bug for the logged-in user: identity and
// timestamps are stripped, the tester becomes the acting user, the
// date becomes today, and a COPY log entry referencing the new record
// is appended carrying the source's tcid/title.
func (c *Client) Copy(ctx context.Context, source *models.Bug) (string, error) {
	dup := *source
	dup.ID = ""
	dup.CreatedAt = time.Time{}
	dup.UpdatedAt = time.Time{}
	dup.Tester = c.username
	dup.Date = time.Now().Format(models.DateLayout)

	newID, err := c.CreateBug(ctx, &dup)
	if err != nil {
		return "", err
	}

	entry := &models.OperationLog{
		Action:      models.OperationCopy,
		Target:      newID,
		TargetTitle: dup.Title,
		Details:     fmt.Sprintf("Copied from %s - %s", source.TCID, source.Title),
		BugPims:     dup.Pims,
		BugTester:   dup.Tester,
		BugDate:     dup.Date,
		BugTCID:     dup.TCID,
	}
	if err := c.AppendLog(ctx, entry); err != nil {
		return newID, fmt.Errorf("copy created %s but log entry failed: %w", newID, err)
	}

	return newID, nil
}

// do executes one API call with capped retry on network failures
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= len(retryDelays); attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retryDelays[attempt-1]):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("failed to build request: %w", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			// Network-level failure: retry with backoff
			lastErr = err
			continue
		}

		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		// Server responses, including errors, are terminal
		if resp.StatusCode >= 400 {
			return &APIError{Status: resp.StatusCode, Message: errorMessage(data)}
		}

		if out != nil && len(data) > 0 {
			if err := json.Unmarshal(data, out); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
		}
		return nil
	}

	return fmt.Errorf("request failed after %d attempts: %w", len(retryDelays)+1, lastErr)
}

func errorMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Message != "" {
		return body.Message
	}
	return string(data)
}

func setIfNotEmpty(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}
