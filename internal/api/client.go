package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidPayload is returned when a response does not describe a scene
var ErrInvalidPayload = errors.New("invalid scene payload")

// SceneInfo describes the point-cloud scene to load
type SceneInfo struct {
	ID       string
	Name     string
	AssetURL string
	CoverURL string
}

// Client fetches case metadata from the project service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// LastScene returns the scene most recently published for a tenant.
func (c *Client) LastScene(ctx context.Context, tenantID string) (SceneInfo, error) {
	u := c.baseURL + "/project/getLastSceneForVisitor?" + url.Values{"tenantid": {tenantID}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return SceneInfo{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return SceneInfo{}, fmt.Errorf("scene request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return SceneInfo{}, fmt.Errorf("scene request returned status %d", resp.StatusCode)
	}

	var payload any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return SceneInfo{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return ParseScene(payload)
}

// ParseScene validates an untyped response into a SceneInfo. The scene may be
// wrapped in a {"code", "msg", "data"} envelope. An ID and an asset URL are
// required.
func ParseScene(payload any) (SceneInfo, error) {
	obj, ok := payload.(map[string]any)
	if !ok {
		return SceneInfo{}, fmt.Errorf("%w: not an object", ErrInvalidPayload)
	}
	if data, ok := obj["data"]; ok {
		if code, ok := obj["code"].(float64); ok && code != 0 && code != 200 {
			msg, _ := obj["msg"].(string)
			return SceneInfo{}, fmt.Errorf("%w: service error %v: %s", ErrInvalidPayload, code, msg)
		}
		if obj, ok = data.(map[string]any); !ok {
			return SceneInfo{}, fmt.Errorf("%w: data is not an object", ErrInvalidPayload)
		}
	}

	info := SceneInfo{
		ID:       firstString(obj, "id", "sceneId"),
		Name:     firstString(obj, "name", "sceneName", "title"),
		AssetURL: firstString(obj, "assetUrl", "sceneUrl", "url", "modelUrl"),
		CoverURL: firstString(obj, "coverUrl", "cover", "thumbnail"),
	}
	if info.ID == "" {
		return SceneInfo{}, fmt.Errorf("%w: missing id", ErrInvalidPayload)
	}
	if info.AssetURL == "" {
		return SceneInfo{}, fmt.Errorf("%w: missing asset url", ErrInvalidPayload)
	}
	return info, nil
}

// firstString returns the first key holding a string or a number
func firstString(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := obj[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}
