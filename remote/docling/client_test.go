package docling_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jpalmerr/longrun"
	"github.com/jpalmerr/longrun/remote/docling"

	"github.com/stretchr/testify/require"
)

type fakeServe struct {
	mu       sync.Mutex
	statuses []string
	polls    int

	filename string
	apiKey   string
}

func newFakeServe(t *testing.T, statuses ...string) (*fakeServe, *httptest.Server) {
	t.Helper()

	f := &fakeServe{statuses: statuses}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/convert/file/async", func(w http.ResponseWriter, r *http.Request) {
		_, header, err := r.FormFile("files")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		f.mu.Lock()
		f.filename = header.Filename
		f.apiKey = r.Header.Get("X-Api-Key")
		f.mu.Unlock()

		_ = json.NewEncoder(w).Encode(map[string]any{"task_id": "task-7", "task_status": "pending"})
	})

	mux.HandleFunc("GET /v1/status/poll/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "task-7" {
			http.NotFound(w, r)
			return
		}

		f.mu.Lock()
		idx := min(f.polls, len(f.statuses)-1)
		status := f.statuses[idx]
		f.polls++
		f.mu.Unlock()

		task := map[string]any{"task_id": "task-7", "task_status": status}
		if status == "failure" {
			task["error_message"] = "conversion crashed"
		}

		_ = json.NewEncoder(w).Encode(task)
	})

	mux.HandleFunc("GET /v1/result/{id}", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"document": map[string]any{
				"filename":   "report.pdf",
				"md_content": "# Report",
			},
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return f, server
}

var noDelay = longrun.StrategyFunc(func(int, longrun.State) (time.Duration, error) { return 0, nil })

func TestConvert(t *testing.T) {
	ctx := context.Background()
	f, server := newFakeServe(t, "pending", "started", "success")

	c, err := docling.New(server.URL, docling.WithToken("key"))
	require.NoError(t, err)

	p, err := longrun.New(c.Convert())
	require.NoError(t, err)

	h, err := p.Start(ctx, docling.File{Name: "report.pdf", Content: []byte("%PDF")})
	require.NoError(t, err)
	require.Equal(t, "task-7", h.ID())
	require.Equal(t, longrun.StatusNotStarted, h.Status())
	require.Equal(t, "report.pdf", f.filename)
	require.Equal(t, "key", f.apiKey)

	out, err := p.Wait(ctx, h, noDelay)
	require.NoError(t, err)
	require.Equal(t, 3, out.Attempts)

	doc, err := p.Result(out.Handle)
	require.NoError(t, err)
	require.Equal(t, "# Report", doc.Markdown)
}

func TestConvert_Failure(t *testing.T) {
	ctx := context.Background()
	_, server := newFakeServe(t, "started", "failure")

	c, err := docling.New(server.URL)
	require.NoError(t, err)

	p, err := longrun.New(c.Convert())
	require.NoError(t, err)

	h, err := p.Start(ctx, docling.File{Name: "report.pdf", Content: []byte("%PDF")})
	require.NoError(t, err)

	out, err := p.Wait(ctx, h, noDelay)
	require.NoError(t, err)
	require.Equal(t, longrun.StatusFailed, out.Handle.Status())

	_, err = p.Result(out.Handle)

	var failed *longrun.OperationFailedError
	require.ErrorAs(t, err, &failed)
	require.Equal(t, "conversion crashed", failed.Message)
}

func TestConvert_Revoked(t *testing.T) {
	ctx := context.Background()
	_, server := newFakeServe(t, "revoked")

	c, err := docling.New(server.URL)
	require.NoError(t, err)

	p, err := longrun.New(c.Convert())
	require.NoError(t, err)

	h, err := p.Start(ctx, docling.File{Name: "report.pdf", Content: []byte("%PDF")})
	require.NoError(t, err)

	out, err := p.Wait(ctx, h, noDelay)
	require.NoError(t, err)
	require.False(t, out.Cancelled)
	require.Equal(t, longrun.StatusCancelled, out.Handle.Status())

	_, err = p.Result(out.Handle)

	var notCompleted *longrun.NotCompletedError
	require.ErrorAs(t, err, &notCompleted)
}

func TestConvert_Unsupported(t *testing.T) {
	c, err := docling.New("http://localhost:5001")
	require.NoError(t, err)

	_, err = c.Convert().Initiate(context.Background(), docling.File{Name: "archive.zip", Content: []byte("PK")})
	require.Error(t, err)

	_, err = c.Convert().Initiate(context.Background(), docling.File{Name: "empty.pdf"})
	require.Error(t, err)
}

func TestConvert_UnknownTask(t *testing.T) {
	_, server := newFakeServe(t, "started")

	c, err := docling.New(server.URL)
	require.NoError(t, err)

	_, err = c.Convert().CheckStatus(context.Background(), "other")
	require.Error(t, err)
}
