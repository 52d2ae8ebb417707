package driver_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benedictaitor/uiprobe/internal/driver"
)

// fakeWire is a scripted WebDriver endpoint.
type fakeWire struct {
	t        *testing.T
	requests []string
	handlers map[string]func(w http.ResponseWriter, r *http.Request)
}

func newFakeWire(t *testing.T) (*fakeWire, *httptest.Server) {
	f := &fakeWire{t: t, handlers: map[string]func(http.ResponseWriter, *http.Request){}}

	f.handle("POST /session", func(w http.ResponseWriter, r *http.Request) {
		writeValue(w, map[string]any{"sessionId": "sess-1", "capabilities": map[string]any{}})
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		f.requests = append(f.requests, key)
		if h, ok := f.handlers[key]; ok {
			h(w, r)
			return
		}
		t.Errorf("unexpected request %s", key)
		writeWireError(w, http.StatusInternalServerError, "unknown command", key)
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeWire) handle(key string, h func(http.ResponseWriter, *http.Request)) {
	f.handlers[key] = h
}

func writeValue(w http.ResponseWriter, value any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"value": value})
}

func writeWireError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"value": map[string]any{"error": code, "message": message},
	})
}

const elementKey = "element-6066-11e4-a52e-4f735466cecf"

func newTestSession(t *testing.T) (*fakeWire, *driver.Client) {
	f, srv := newFakeWire(t)
	client, err := driver.NewSession(context.Background(), srv.URL, driver.Capabilities{BrowserName: "chrome"})
	require.NoError(t, err)
	assert.Equal(t, "sess-1", client.SessionID())
	return f, client
}

func TestNewSession_SendsCapabilities(t *testing.T) {
	f, srv := newFakeWire(t)
	var captured map[string]any
	f.handle("POST /session", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		writeValue(w, map[string]any{"sessionId": "sess-caps"})
	})

	_, err := driver.NewSession(context.Background(), srv.URL, driver.Capabilities{
		BrowserName: "chrome",
		Args:        []string{"--headless=new"},
	})
	require.NoError(t, err)

	caps := captured["capabilities"].(map[string]any)
	always := caps["alwaysMatch"].(map[string]any)
	assert.Equal(t, "chrome", always["browserName"])
	chromeOpts := always["goog:chromeOptions"].(map[string]any)
	assert.Equal(t, []any{"--headless=new"}, chromeOpts["args"])
}

func TestNewSession_EmptySessionID(t *testing.T) {
	f, srv := newFakeWire(t)
	f.handle("POST /session", func(w http.ResponseWriter, r *http.Request) {
		writeValue(w, map[string]any{})
	})

	_, err := driver.NewSession(context.Background(), srv.URL, driver.Capabilities{})
	assert.Error(t, err)
}

func TestClient_NavigateAndTitle(t *testing.T) {
	f, client := newTestSession(t)
	f.handle("POST /session/sess-1/url", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "http://localhost:3000/teacher", body["url"])
		writeValue(w, nil)
	})
	f.handle("GET /session/sess-1/title", func(w http.ResponseWriter, r *http.Request) {
		writeValue(w, "Benedictaitor")
	})

	ctx := context.Background()
	require.NoError(t, client.Navigate(ctx, "http://localhost:3000/teacher"))

	title, err := client.Title(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Benedictaitor", title)
}

func TestClient_FindElement(t *testing.T) {
	f, client := newTestSession(t)
	f.handle("POST /session/sess-1/element", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "css selector", body["using"])
		assert.Equal(t, "header", body["value"])
		writeValue(w, map[string]string{elementKey: "el-7"})
	})

	id, err := client.FindElement(context.Background(), "header")
	require.NoError(t, err)
	assert.Equal(t, driver.ElementID("el-7"), id)
}

func TestClient_FindElement_NoSuchElement(t *testing.T) {
	f, client := newTestSession(t)
	f.handle("POST /session/sess-1/element", func(w http.ResponseWriter, r *http.Request) {
		writeWireError(w, http.StatusNotFound, "no such element", "Unable to locate element")
	})

	_, err := client.FindElement(context.Background(), "#missing")
	assert.ErrorIs(t, err, driver.ErrNoSuchElement)
}

func TestClient_StaleSession(t *testing.T) {
	f, client := newTestSession(t)
	f.handle("GET /session/sess-1/title", func(w http.ResponseWriter, r *http.Request) {
		writeWireError(w, http.StatusNotFound, "invalid session id", "session deleted")
	})

	_, err := client.Title(context.Background())
	assert.ErrorIs(t, err, driver.ErrStaleSession)
}

func TestClient_GetAttribute_NullMeansEmpty(t *testing.T) {
	f, client := newTestSession(t)
	f.handle("GET /session/sess-1/element/el-1/attribute/disabled", func(w http.ResponseWriter, r *http.Request) {
		writeValue(w, nil)
	})
	f.handle("GET /session/sess-1/element/el-1/attribute/value", func(w http.ResponseWriter, r *http.Request) {
		writeValue(w, "es-ES")
	})

	ctx := context.Background()
	got, err := client.GetAttribute(ctx, "el-1", "disabled")
	require.NoError(t, err)
	assert.Equal(t, "", got)

	got, err = client.GetAttribute(ctx, "el-1", "value")
	require.NoError(t, err)
	assert.Equal(t, "es-ES", got)
}

func TestClient_EvaluateScript(t *testing.T) {
	f, client := newTestSession(t)
	f.handle("POST /session/sess-1/execute/sync", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "return 1 + 1;", body["script"])
		// Args must always be an array, even when empty.
		assert.Equal(t, []any{}, body["args"])
		writeValue(w, 2)
	})

	result, err := client.EvaluateScript(context.Background(), "return 1 + 1;")
	require.NoError(t, err)
	assert.Equal(t, float64(2), result)
}

func TestClient_Screenshot(t *testing.T) {
	f, client := newTestSession(t)
	png := []byte("\x89PNG\r\n\x1a\nfake")
	f.handle("GET /session/sess-1/screenshot", func(w http.ResponseWriter, r *http.Request) {
		writeValue(w, base64.StdEncoding.EncodeToString(png))
	})

	got, err := client.Screenshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, png, got)
}

func TestClient_QuitIdempotent(t *testing.T) {
	f, client := newTestSession(t)
	deletes := 0
	f.handle("DELETE /session/sess-1", func(w http.ResponseWriter, r *http.Request) {
		deletes++
		writeValue(w, nil)
	})

	ctx := context.Background()
	require.NoError(t, client.Quit(ctx))
	require.NoError(t, client.Quit(ctx))
	assert.Equal(t, 1, deletes, "only the first quit hits the wire")
}
