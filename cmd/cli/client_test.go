package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/yt-batch/internal/domain"
	"github.com/yourusername/yt-batch/pkg/logger"
)

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func TestAPIClient_StartBatch(t *testing.T) {
	var got domain.BatchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/batch", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusAccepted, map[string]interface{}{
			"run_id": "run-1",
			"status": domain.Snapshot{RunID: "run-1", State: domain.StateRunning, Status: "Downloading..."},
		})
	}))
	defer srv.Close()

	resp, err := newAPIClient(srv.URL + "/").StartBatch(domain.BatchRequest{
		File:      "/tmp/urls.txt",
		Quality:   domain.Quality720p,
		AudioOnly: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "run-1", resp.RunID)
	assert.Equal(t, domain.StateRunning, resp.Status.State)
	assert.Equal(t, "/tmp/urls.txt", got.File)
	assert.Equal(t, domain.Quality720p, got.Quality)
	assert.True(t, got.AudioOnly)
}

func TestAPIClient_ErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "a download is already in progress"})
	}))
	defer srv.Close()

	_, err := newAPIClient(srv.URL).StartBatch(domain.BatchRequest{URL: "https://example.com/v"})
	require.Error(t, err)

	assert.True(t, isStatus(err, http.StatusConflict))
	assert.False(t, isStatus(err, http.StatusNotFound))
	assert.Contains(t, err.Error(), "already in progress")
}

func TestAPIClient_StopBatch(t *testing.T) {
	var body map[string]bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/batch/stop", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message": "stop requested",
			"status":  domain.Snapshot{State: domain.StateRunning, Status: "Downloading 2/3"},
		})
	}))
	defer srv.Close()

	snap, err := newAPIClient(srv.URL).StopBatch(true)
	require.NoError(t, err)

	assert.True(t, body["terminate"])
	assert.Equal(t, "Downloading 2/3", snap.Status)
}

func TestAPIClient_Logs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/logs/batch/search", r.URL.Path)
		assert.Equal(t, "item_failed", r.URL.Query().Get("q"))
		assert.Equal(t, "2024-01-31", r.URL.Query().Get("date"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"category": "batch",
			"count":    1,
			"entries": []logger.LogEntry{{
				Timestamp: "2024-01-31T10:00:00Z",
				Level:     "error",
				Message:   "item_failed",
				Fields:    map[string]interface{}{"url": "https://example.com/v"},
			}},
		})
	}))
	defer srv.Close()

	entries, err := newAPIClient(srv.URL).Logs("batch", "2024-01-31", "item_failed", 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	var out bytes.Buffer
	printLogEntry(&out, entries[0])
	assert.Equal(t, "2024-01-31T10:00:00Z  ERROR  item_failed  url=https://example.com/v\n", out.String())
}

func TestAPIClient_GetRun(t *testing.T) {
	finished := time.Date(2024, 1, 31, 10, 5, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/runs/run-1" {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
			return
		}
		writeJSON(w, http.StatusOK, domain.RunRecord{
			ID:         "run-1",
			Source:     domain.SourceFile,
			State:      domain.StateCompleted,
			Total:      3,
			Succeeded:  2,
			Failed:     1,
			FailedURLs: "https://example.com/b",
			FinishedAt: &finished,
		})
	}))
	defer srv.Close()

	client := newAPIClient(srv.URL)

	run, err := client.GetRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/b"}, run.FailedURLList())

	_, err = client.GetRun("missing")
	assert.True(t, isStatus(err, http.StatusNotFound))
}

func TestAPIClient_FollowBatch(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/batch/stream", r.URL.Path)
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		running := domain.Snapshot{RunID: "run-1", State: domain.StateRunning, Total: 1}
		done := domain.Snapshot{RunID: "run-1", State: domain.StateCompleted, Total: 1, Processed: 1, Succeeded: 1}
		for _, e := range []domain.Event{
			{Kind: domain.EventSnapshot, RunID: "run-1", Snapshot: &running},
			{Kind: domain.EventLine, RunID: "run-1", Line: "Downloading: https://example.com/v"},
			{Kind: domain.EventLine, RunID: "run-1", Line: "Download completed!"},
			{Kind: domain.EventDone, RunID: "run-1", Snapshot: &done},
		} {
			require.NoError(t, conn.WriteJSON(e))
		}
		// Hold the connection until the client hangs up
		conn.ReadMessage()
	}))
	defer srv.Close()

	var out bytes.Buffer
	final, err := newAPIClient(srv.URL).FollowBatch(&out)
	require.NoError(t, err)

	require.NotNil(t, final)
	assert.Equal(t, domain.StateCompleted, final.State)
	assert.Equal(t, "Downloading: https://example.com/v\nDownload completed!\n", out.String())
}

func TestAPIClient_FollowBatchAlreadyFinished(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		stopped := domain.Snapshot{RunID: "run-1", State: domain.StateStopped, Total: 4, Processed: 2}
		require.NoError(t, conn.WriteJSON(domain.Event{Kind: domain.EventSnapshot, Snapshot: &stopped}))
		conn.ReadMessage()
	}))
	defer srv.Close()

	final, err := newAPIClient(srv.URL).FollowBatch(&bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, domain.StateStopped, final.State)
}

func TestAPIClient_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := newAPIClient(addr).Status()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to server")
}

func TestIsServerRunning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}))

	assert.True(t, isServerRunning(srv.URL))
	assert.NoError(t, waitForServer(srv.URL))

	srv.Close()
	assert.False(t, isServerRunning(srv.URL))
}
