package padelwin

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(ClientConfig{
		HTTPClient:  srv.Client(),
		BaseURL:     srv.URL + "/ajax/ajax.aspx/",
		Referer:     "https://padelandwin.cat/torneo/?t=MzE5",
		Origin:      "https://padelandwin.cat",
		UserAgent:   "test-agent",
		CookieName:  "PadelWinCookie",
		CookieValue: "user=abc",
	})
}

func writeEnvelope(t *testing.T, w http.ResponseWriter, rows any) {
	t.Helper()
	inner, err := json.Marshal(rows)
	require.NoError(t, err)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	require.NoError(t, json.NewEncoder(w).Encode(map[string]string{"d": string(inner)}))
}

func TestClientFetch_SendsIdentityAndDecodesEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/ajax/ajax.aspx/Get_Cats_Competi", r.URL.Path)
		assert.Equal(t, "application/json; charset=UTF-8", r.Header.Get("Content-Type"))
		assert.Equal(t, "XMLHttpRequest", r.Header.Get("X-Requested-With"))
		assert.Equal(t, "https://padelandwin.cat/torneo/?t=MzE5", r.Header.Get("Referer"))
		assert.Equal(t, "https://padelandwin.cat", r.Header.Get("Origin"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))

		cookie, err := r.Cookie("PadelWinCookie")
		require.NoError(t, err)
		assert.Equal(t, "user=abc", cookie.Value)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"v":"MzA4"}`, string(body))

		writeEnvelope(t, w, []map[string]any{
			{"idcategoria": 5, "name": " Open Masc ", "genero": "M"},
			{"idcategoria": 9007199254740993, "name": "Big", "genero": "F"},
		})
	})

	rows := client.Fetch(context.Background(), EndpointCategories, map[string]any{"v": "MzA4"})
	require.Len(t, rows, 2)
	assert.Equal(t, json.Number("5"), rows[0]["idcategoria"])
	assert.Equal(t, " Open Masc ", rows[0]["name"])
	assert.Equal(t, json.Number("9007199254740993"), rows[1]["idcategoria"], "ids keep every digit")
}

func TestClientFetch_AcceptsBareArray(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"d":[{"nom":"<b>Club</b>"}]}`)
	})

	rows := client.Fetch(context.Background(), EndpointClubs, map[string]any{})
	require.Len(t, rows, 1)
	assert.Equal(t, "<b>Club</b>", rows[0]["nom"])
}

func TestClientFetch_EmptyTableIsNotFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"d":"[]"}`)
	})

	rows := client.Fetch(context.Background(), EndpointFixtures, map[string]any{})
	require.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestClientFetch_FailuresReturnNil(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "non-200",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "session expired", http.StatusInternalServerError)
			},
		},
		{
			name: "html body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, "<html>login</html>")
			},
		},
		{
			name: "inner data not json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"d":"not json"}`)
			},
		},
		{
			name: "missing data",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"other":1}`)
			},
		},
		{
			name: "null data",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"d":null}`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)
			assert.Nil(t, client.Fetch(context.Background(), EndpointCompetitions, map[string]any{"v": "100"}))
		})
	}
}

func TestClientFetch_TransportErrorReturnsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := srv.URL + "/"
	srv.Close()

	client := NewClient(ClientConfig{BaseURL: baseURL})
	assert.Nil(t, client.Fetch(context.Background(), EndpointCompetitions, nil))
}

func TestClientFetch_CancelledContextReturnsNil(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, []any{})
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Nil(t, client.Fetch(ctx, EndpointCompetitions, nil))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate([]byte("abc"), 5))
	assert.Equal(t, "ab...", truncate([]byte("abcdef"), 2))
}
