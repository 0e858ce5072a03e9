package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/philipparndt/splatroam/internal/api"
	"github.com/philipparndt/splatroam/pkg/cloud"
	"github.com/philipparndt/splatroam/pkg/watcher"
	"github.com/rs/zerolog"
)

// Loader produces the scene point cloud, reporting progress in [0, 1]
type Loader func(ctx context.Context, progress cloud.Progress) (*cloud.Cloud, error)

// AssetLoader loads a local file or http(s) URL
func AssetLoader(location string) Loader {
	return func(ctx context.Context, progress cloud.Progress) (*cloud.Cloud, error) {
		return cloud.Open(ctx, location, progress)
	}
}

// SceneLoader asks the case service for the visitor's last scene and loads
// its asset
func SceneLoader(client *api.Client, tenantID string, log zerolog.Logger) Loader {
	return func(ctx context.Context, progress cloud.Progress) (*cloud.Cloud, error) {
		info, err := client.LastScene(ctx, tenantID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve scene: %w", err)
		}
		log.Info().Str("scene", info.ID).Str("name", info.Name).Str("asset", info.AssetURL).Msg("Scene resolved")

		c, err := cloud.Open(ctx, info.AssetURL, progress)
		if err != nil {
			return nil, err
		}
		if info.Name != "" {
			c.Name = info.Name
		}
		return c, nil
	}
}

// IsLocal reports whether an asset location is a file path that can be watched
func IsLocal(location string) bool {
	return location != "" && !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://")
}

// WatchAsset reloads the viewer whenever the local asset file changes.
// The returned watcher must be closed by the caller.
func WatchAsset(ctx context.Context, v *Viewer, path string, debounce time.Duration, log zerolog.Logger) (*watcher.FileWatcher, error) {
	fw, err := watcher.New(debounce, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fw.Watch(path, func(string) { v.Reload(ctx) }); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch asset: %w", err)
	}
	fw.Start(ctx)
	return fw, nil
}
