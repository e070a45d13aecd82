package gateway

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getHealth(t *testing.T, g *Gateway) healthResponse {
	t.Helper()
	resp, err := g.server.Test(httptest.NewRequest("GET", "/health", nil), -1)
	require.NoError(t, err)
	// never raises: in-band failure reporting only
	assert.Equal(t, 200, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	var out healthResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestHealthNativeUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			w.Write([]byte(`{"models":[{"name":"llama3.1:latest"},{"name":"mistral:7b"}]}`))
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	out := getHealth(t, testGateway(t, srv.URL))
	assert.True(t, out.OK)
	assert.Equal(t, "ollama", out.Backend)
	assert.Equal(t, srv.URL, out.Base)
	assert.Equal(t, []string{"llama3.1:latest", "mistral:7b"}, out.Models)
}

func TestHealthFallsBackToOpenAI(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"object":"list","data":[{"id":"gpt-oss-120b","object":"model"}]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	out := getHealth(t, testGateway(t, srv.URL))
	assert.True(t, out.OK)
	assert.Equal(t, "openai", out.Backend)
	assert.Equal(t, []string{"gpt-oss-120b"}, out.Models)
}

func TestHealthBothProbesFail(t *testing.T) {
	out := getHealth(t, testGateway(t, "http://127.0.0.1:1"))
	assert.False(t, out.OK)
	assert.Empty(t, out.Backend)
	assert.NotEmpty(t, out.Error)
}
