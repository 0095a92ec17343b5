// Package client is the typed HTTP client for the RecordNote API.
//
// Note and category endpoints live under the versioned /api/v1 base and
// exchange wire-shaped records ([models.WireNote], snake_case fields, epoch
// millisecond timestamps). Auth and user endpoints predate the versioned
// API and live under the bare /api base, exchanging domain-shaped JSON; see
// auth.go.
//
// The client marshals requests and unmarshals responses automatically, adds
// the bearer token once one is held, and uses a 30-second request timeout.
// Any response with status 400 or above becomes an error carrying the
// status code and body. Client instances are safe for concurrent use except
// for SetAuthToken, which callers are expected to invoke during setup or
// through the sign-in methods.
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

	"github.com/ReliveRS/RecordNote/pkg/models"
)

// Client provides typed access to the RecordNote REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	authToken  string
}

// NewClient creates a client for the service at baseURL. The URL carries
// protocol and host (e.g. "http://localhost:8080") with no trailing slash
// and no API prefix.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetAuthToken sets the bearer token attached to subsequent requests.
func (c *Client) SetAuthToken(token string) {
	c.authToken = token
}

// AuthToken returns the bearer token currently held by the client.
func (c *Client) AuthToken() string {
	return c.authToken
}

// BaseURL returns the service base URL the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// doRequest performs an HTTP request with JSON body handling and auth.
func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	return c.httpClient.Do(req)
}

// decodeResponse decodes the JSON response into target. Statuses of 400 and
// above become errors carrying the status and body.
func decodeResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	if target != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// Health checks service availability.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/health", nil)
	if err != nil {
		return nil, err
	}
	var result map[string]any
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// ListNotes fetches all notes owned by the user.
func (c *Client) ListNotes(ctx context.Context, userID models.UserID) ([]*models.WireNote, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/v1/notes/user/"+userID.String(), nil)
	if err != nil {
		return nil, err
	}
	var notes []*models.WireNote
	if err := decodeResponse(resp, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// GetNote fetches a single note.
func (c *Client) GetNote(ctx context.Context, id models.NoteID) (*models.WireNote, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/v1/notes/"+id.String(), nil)
	if err != nil {
		return nil, err
	}
	var note models.WireNote
	if err := decodeResponse(resp, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// CreateNote writes a note to the service. The service treats an existing
// id as a replace, so this is also how locally modified notes are pushed.
func (c *Client) CreateNote(ctx context.Context, note *models.WireNote) (*models.WireNote, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/v1/notes", note)
	if err != nil {
		return nil, err
	}
	var created models.WireNote
	if err := decodeResponse(resp, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateNote replaces a note on the service.
func (c *Client) UpdateNote(ctx context.Context, note *models.WireNote) (*models.WireNote, error) {
	resp, err := c.doRequest(ctx, http.MethodPut, "/api/v1/notes/"+note.ID.String(), note)
	if err != nil {
		return nil, err
	}
	var updated models.WireNote
	if err := decodeResponse(resp, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteNote removes a note from the service.
func (c *Client) DeleteNote(ctx context.Context, id models.NoteID) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, "/api/v1/notes/"+id.String(), nil)
	if err != nil {
		return err
	}
	return decodeResponse(resp, nil)
}

// UploadNotes pushes a batch of notes in one request and returns how many
// the service accepted.
func (c *Client) UploadNotes(ctx context.Context, notes []*models.WireNote) (int, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/v1/notes/sync", notes)
	if err != nil {
		return 0, err
	}
	var result struct {
		Synced int `json:"synced"`
	}
	if err := decodeResponse(resp, &result); err != nil {
		return 0, err
	}
	return result.Synced, nil
}

// Changes fetches the user's notes created or modified since the given
// instant. This is the only incremental mechanism the service offers: no
// cursor, no pagination.
func (c *Client) Changes(ctx context.Context, userID models.UserID, since time.Time) ([]*models.WireNote, error) {
	path := "/api/v1/notes/changes/" + userID.String() +
		"?since=" + strconv.FormatInt(since.UnixMilli(), 10)
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var notes []*models.WireNote
	if err := decodeResponse(resp, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// SearchNotes runs a substring search across the user's notes.
func (c *Client) SearchNotes(ctx context.Context, userID models.UserID, query string) ([]*models.WireNote, error) {
	path := "/api/v1/notes/search/" + userID.String() + "?q=" + url.QueryEscape(query)
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var notes []*models.WireNote
	if err := decodeResponse(resp, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// NotesByTag fetches the user's notes carrying the given tag.
func (c *Client) NotesByTag(ctx context.Context, userID models.UserID, tag string) ([]*models.WireNote, error) {
	path := "/api/v1/notes/tag/" + userID.String() + "?tag=" + url.QueryEscape(tag)
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var notes []*models.WireNote
	if err := decodeResponse(resp, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// FavoriteNotes fetches the user's favorite notes.
func (c *Client) FavoriteNotes(ctx context.Context, userID models.UserID) ([]*models.WireNote, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/v1/notes/favorites/"+userID.String(), nil)
	if err != nil {
		return nil, err
	}
	var notes []*models.WireNote
	if err := decodeResponse(resp, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// AttachAudio records an audio reference on a note.
func (c *Client) AttachAudio(ctx context.Context, id models.NoteID, audioURL string, duration int64) error {
	body := map[string]any{
		"audio_url":      audioURL,
		"audio_duration": duration,
	}
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/v1/notes/"+id.String()+"/audio", body)
	if err != nil {
		return err
	}
	return decodeResponse(resp, nil)
}

// DetachAudio removes the audio reference from a note.
func (c *Client) DetachAudio(ctx context.Context, id models.NoteID) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, "/api/v1/notes/"+id.String()+"/audio", nil)
	if err != nil {
		return err
	}
	return decodeResponse(resp, nil)
}

// DeleteNotesBatch removes several notes in one request.
func (c *Client) DeleteNotesBatch(ctx context.Context, ids []models.NoteID) error {
	body := map[string]any{"ids": ids}
	resp, err := c.doRequest(ctx, http.MethodDelete, "/api/v1/notes/batch", body)
	if err != nil {
		return err
	}
	return decodeResponse(resp, nil)
}

// ExportNotes fetches the user's notes rendered in the given format
// (json, txt, csv, md, html) as raw bytes.
func (c *Client) ExportNotes(ctx context.Context, userID models.UserID, format string) ([]byte, error) {
	path := "/api/v1/notes/export/" + userID.String() + "?format=" + url.QueryEscape(format)
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error: status=%d, body=%s", resp.StatusCode, string(body))
	}
	return io.ReadAll(resp.Body)
}

// NoteStats carries the per-user counters from the stats endpoint.
type NoteStats struct {
	Total        int64 `json:"total"`
	Favorites    int64 `json:"favorites"`
	WithAudio    int64 `json:"with_audio"`
	AudioSeconds int64 `json:"audio_seconds"`
}

// GetNoteStats fetches the user's note counters.
func (c *Client) GetNoteStats(ctx context.Context, userID models.UserID) (*NoteStats, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/v1/notes/stats/"+userID.String(), nil)
	if err != nil {
		return nil, err
	}
	var stats NoteStats
	if err := decodeResponse(resp, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ListCategories fetches all categories.
func (c *Client) ListCategories(ctx context.Context) ([]*models.Category, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/v1/categories", nil)
	if err != nil {
		return nil, err
	}
	var categories []*models.Category
	if err := decodeResponse(resp, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// CreateCategory creates a category.
func (c *Client) CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/v1/categories", category)
	if err != nil {
		return nil, err
	}
	var created models.Category
	if err := decodeResponse(resp, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateCategory replaces a category.
func (c *Client) UpdateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	resp, err := c.doRequest(ctx, http.MethodPut, "/api/v1/categories/"+category.ID.String(), category)
	if err != nil {
		return nil, err
	}
	var updated models.Category
	if err := decodeResponse(resp, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteCategory removes a category. The service nulls the category
// reference on dependent notes.
func (c *Client) DeleteCategory(ctx context.Context, id models.CategoryID) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, "/api/v1/categories/"+id.String(), nil)
	if err != nil {
		return err
	}
	return decodeResponse(resp, nil)
}
