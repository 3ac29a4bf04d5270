package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yourusername/yt-batch/internal/domain"
	"github.com/yourusername/yt-batch/pkg/logger"
)

// apiError is an error response from the server
type apiError struct {
	StatusCode int
	Message    string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// apiClient talks to the ytbatch-server HTTP API
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

type startResponse struct {
	RunID  string          `json:"run_id"`
	Status domain.Snapshot `json:"status"`
}

type runsResponse struct {
	Count int                 `json:"count"`
	Runs  []*domain.RunRecord `json:"runs"`
}

type logsResponse struct {
	Category string             `json:"category"`
	Count    int                `json:"count"`
	Entries  []*logger.LogEntry `json:"entries"`
}

func (c *apiClient) StartBatch(req domain.BatchRequest) (*startResponse, error) {
	var resp startResponse
	if err := c.do(http.MethodPost, "/api/v1/batch", req, http.StatusAccepted, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *apiClient) StopBatch(terminate bool) (*domain.Snapshot, error) {
	var resp struct {
		Status domain.Snapshot `json:"status"`
	}
	body := map[string]bool{"terminate": terminate}
	if err := c.do(http.MethodPost, "/api/v1/batch/stop", body, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return &resp.Status, nil
}

func (c *apiClient) Status() (*domain.Snapshot, error) {
	var snap domain.Snapshot
	if err := c.do(http.MethodGet, "/api/v1/batch/status", nil, http.StatusOK, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *apiClient) ListRuns(limit int) ([]*domain.RunRecord, error) {
	var resp runsResponse
	path := fmt.Sprintf("/api/v1/runs?limit=%d", limit)
	if err := c.do(http.MethodGet, path, nil, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return resp.Runs, nil
}

func (c *apiClient) GetRun(id string) (*domain.RunRecord, error) {
	var run domain.RunRecord
	if err := c.do(http.MethodGet, "/api/v1/runs/"+url.PathEscape(id), nil, http.StatusOK, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

func (c *apiClient) RunStats() (*domain.RunStats, error) {
	var stats domain.RunStats
	if err := c.do(http.MethodGet, "/api/v1/runs/stats", nil, http.StatusOK, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Logs reads entries of a category. An empty query lists, otherwise searches.
func (c *apiClient) Logs(category, date, query string, limit int) ([]*logger.LogEntry, error) {
	path := "/api/v1/logs/" + url.PathEscape(category)
	params := url.Values{}
	if query != "" {
		path += "/search"
		params.Set("q", query)
	}
	if date != "" {
		params.Set("date", date)
	}
	if limit > 0 {
		params.Set("limit", fmt.Sprint(limit))
	}
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var resp logsResponse
	if err := c.do(http.MethodGet, path, nil, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

// FollowBatch prints run output from the stream until the run finishes.
// It returns the final snapshot.
func (c *apiClient) FollowBatch(out io.Writer) (*domain.Snapshot, error) {
	conn, err := c.dial("/api/v1/batch/stream")
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	for {
		var e domain.Event
		if err := conn.ReadJSON(&e); err != nil {
			return nil, fmt.Errorf("stream closed: %w", err)
		}
		switch e.Kind {
		case domain.EventLine:
			fmt.Fprintln(out, e.Line)
		case domain.EventSnapshot:
			// The first snapshot may describe a run that already ended
			if e.Snapshot != nil && e.Snapshot.State.IsTerminal() {
				return e.Snapshot, nil
			}
		case domain.EventDone:
			return e.Snapshot, nil
		}
	}
}

// FollowLogs prints entries of a category as they are written, until the
// connection drops.
func (c *apiClient) FollowLogs(category string, out io.Writer) error {
	conn, err := c.dial("/api/v1/logs/" + url.PathEscape(category) + "/stream")
	if err != nil {
		return err
	}
	defer conn.Close()

	for {
		var entry logger.LogEntry
		if err := conn.ReadJSON(&entry); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("stream closed: %w", err)
		}
		printLogEntry(out, &entry)
	}
}

func (c *apiClient) dial(path string) (*websocket.Conn, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			return nil, readAPIError(resp)
		}
		return nil, fmt.Errorf("failed to connect to server: %w", err)
	}
	return conn, nil
}

func (c *apiClient) do(method, path string, body interface{}, want int, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		return readAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid server response: %w", err)
	}
	return nil
}

func readAPIError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(data, &body); err != nil || body.Error == "" {
		body.Error = strings.TrimSpace(string(data))
	}
	return &apiError{StatusCode: resp.StatusCode, Message: body.Error}
}

// isStatus reports whether err is an API error with the given status code
func isStatus(err error, code int) bool {
	var apiErr *apiError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

func printLogEntry(w io.Writer, e *logger.LogEntry) {
	line := fmt.Sprintf("%s  %-5s  %s", e.Timestamp, strings.ToUpper(e.Level), e.Message)
	if u, ok := e.Fields["url"]; ok {
		line += fmt.Sprintf("  url=%v", u)
	}
	if errMsg, ok := e.Fields["error"]; ok {
		line += fmt.Sprintf("  error=%v", errMsg)
	}
	fmt.Fprintln(w, line)
}
