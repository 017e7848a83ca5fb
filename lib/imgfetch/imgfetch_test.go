package imgfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"scrapekit/lib/fileutil"
	"scrapekit/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	client, err := NewClient(ClientOptions{
		Headers: map[string]string{"User-Agent": "scrapekit-test"},
	})
	require.NoError(t, err)
	return client
}

func TestFetch(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:imgfetch")
	t.Cleanup(cleanup)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/images/a.jpg":
			w.Write([]byte("jpeg bytes"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := newTestClient(t)

	data, err := client.Fetch(context.Background(), server.URL+"/images/a.jpg")
	require.NoError(t, err)
	require.Equal(t, []byte("jpeg bytes"), data)

	_, err = client.Fetch(context.Background(), server.URL+"/images/missing.jpg")
	require.Error(t, err)
}

func TestDownloadAll(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:imgfetch")
	t.Cleanup(cleanup)

	var inflight atomic.Int32
	var peak atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inflight.Add(1)
		defer inflight.Add(-1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}

		if r.URL.Path == "/broken.png" {
			http.Error(w, "nope", http.StatusInternalServerError)
			return
		}
		w.Write([]byte("img:" + r.URL.Path))
	}))
	defer server.Close()

	client := newTestClient(t)
	dir := t.TempDir()

	items := []Item{
		{ID: "DHSG3MBBM", URL: server.URL + "/images/DHSG3MBBM.jpg?width=720&height=720"},
		{ID: "B0C2FG3HLC", URL: server.URL + "/images/B0C2FG3HLC.png"},
		{ID: "no ext", URL: server.URL + "/images/raw"},
		{ID: "dead", URL: server.URL + "/broken.png"},
	}

	written, err := client.DownloadAll(context.Background(), dir, items, 2)
	require.Error(t, err)
	require.Equal(t, 3, written)
	require.LessOrEqual(t, peak.Load(), int32(2))

	data, err := fileutil.ReadBytes(filepath.Join(dir, "DHSG3MBBM.jpg"))
	require.NoError(t, err)
	require.Equal(t, "img:/images/DHSG3MBBM.jpg", string(data))

	require.True(t, fileutil.Exists(filepath.Join(dir, "B0C2FG3HLC.png")))
	require.True(t, fileutil.Exists(filepath.Join(dir, "no_ext.jpg")))
	require.False(t, fileutil.Exists(filepath.Join(dir, "dead.png")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 3)
}

func TestDownloadAllEmpty(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:imgfetch")
	t.Cleanup(cleanup)

	client := newTestClient(t)

	written, err := client.DownloadAll(context.Background(), t.TempDir(), nil, 0)
	require.NoError(t, err)
	require.Equal(t, 0, written)
}
