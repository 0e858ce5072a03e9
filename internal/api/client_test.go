package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_TrimsTrailingSlash(t *testing.T) {
	c := New("http://localhost:8085/", 0)
	assert.Equal(t, "http://localhost:8085", c.baseURL)
	assert.Equal(t, 30*time.Second, c.httpClient.Timeout)
}

func TestLastScene_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/project/getLastSceneForVisitor", r.URL.Path)
		assert.Equal(t, "tenant 7", r.URL.Query().Get("tenantid"))
		_, _ = w.Write([]byte(`{"code":200,"msg":"ok","data":{"id":42,"name":"Hall","sceneUrl":"https://cdn/hall.splat","cover":"https://cdn/hall.jpg"}}`))
	}))
	defer server.Close()

	info, err := New(server.URL, time.Second).LastScene(context.Background(), "tenant 7")
	require.NoError(t, err)
	assert.Equal(t, SceneInfo{ID: "42", Name: "Hall", AssetURL: "https://cdn/hall.splat", CoverURL: "https://cdn/hall.jpg"}, info)
}

func TestLastScene_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := New(server.URL, time.Second).LastScene(context.Background(), "1")
	assert.ErrorContains(t, err, "status 500")
}

func TestLastScene_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer server.Close()

	_, err := New(server.URL, time.Second).LastScene(context.Background(), "1")
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestLastScene_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(server.URL, time.Second).LastScene(ctx, "1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseScene(t *testing.T) {
	tests := []struct {
		name    string
		payload any
		want    SceneInfo
		wantErr string
	}{
		{
			name:    "bare object",
			payload: map[string]any{"id": "a", "assetUrl": "x.ply"},
			want:    SceneInfo{ID: "a", AssetURL: "x.ply"},
		},
		{
			name:    "array",
			payload: []any{},
			wantErr: "not an object",
		},
		{
			name:    "service error code",
			payload: map[string]any{"code": float64(500), "msg": "boom", "data": nil},
			wantErr: "service error",
		},
		{
			name:    "null data",
			payload: map[string]any{"code": float64(200), "data": nil},
			wantErr: "data is not an object",
		},
		{
			name:    "missing id",
			payload: map[string]any{"url": "x.splat"},
			wantErr: "missing id",
		},
		{
			name:    "missing asset",
			payload: map[string]any{"id": float64(3), "name": "n"},
			wantErr: "missing asset url",
		},
		{
			name:    "wrong field types are ignored",
			payload: map[string]any{"id": "1", "name": true, "url": "a.splat", "cover": map[string]any{}},
			want:    SceneInfo{ID: "1", AssetURL: "a.splat"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseScene(tt.payload)
			if tt.wantErr != "" {
				assert.ErrorIs(t, err, ErrInvalidPayload)
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
