package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory
const FileName = "splatroam.json"

// StorageConfig selects the slot store and its slot names
type StorageConfig struct {
	Type      string `json:"type" mapstructure:"type"`
	Path      string `json:"path" mapstructure:"path"`
	PathsKey  string `json:"pathsKey" mapstructure:"pathsKey"`
	ActiveKey string `json:"activeKey" mapstructure:"activeKey"`
}

// RoamingConfig holds the playback parameters
type RoamingConfig struct {
	Step        float64       `json:"step" mapstructure:"step"`
	LookAhead   float64       `json:"lookAhead" mapstructure:"lookAhead"`
	Height      float64       `json:"height" mapstructure:"height"`
	Distance    float64       `json:"distance" mapstructure:"distance"`
	FlyDuration time.Duration `json:"flyDuration" mapstructure:"flyDuration"`
	CurveAlpha  float64       `json:"curveAlpha" mapstructure:"curveAlpha"`
}

// VisualConfig holds marker and tube sizes
type VisualConfig struct {
	MarkerRadius float64 `json:"markerRadius" mapstructure:"markerRadius"`
	TubeRadius   float64 `json:"tubeRadius" mapstructure:"tubeRadius"`
	TubeSegments int     `json:"tubeSegments" mapstructure:"tubeSegments"`
}

// ViewerConfig holds window and frame loop settings
type ViewerConfig struct {
	Width      int  `json:"width" mapstructure:"width"`
	Height     int  `json:"height" mapstructure:"height"`
	FPS        int  `json:"fps" mapstructure:"fps"`
	WatchAsset bool `json:"watchAsset" mapstructure:"watchAsset"`
}

// APIConfig holds the case metadata service settings
type APIConfig struct {
	BaseURL string        `json:"baseUrl" mapstructure:"baseUrl"`
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// SetDefaults registers default values for every key
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logFormat", "console")

	viper.SetDefault("storage.type", "sqlite")
	viper.SetDefault("storage.path", "./splatroam.db")
	viper.SetDefault("storage.pathsKey", "splatroam.paths")
	viper.SetDefault("storage.activeKey", "splatroam.activePathIndex")

	viper.SetDefault("roaming.step", 0.0005)
	viper.SetDefault("roaming.lookAhead", 0.01)
	viper.SetDefault("roaming.height", 0.6)
	viper.SetDefault("roaming.distance", 1.5)
	viper.SetDefault("roaming.flyDuration", "1s")
	viper.SetDefault("roaming.curveAlpha", 0.5)

	viper.SetDefault("visual.markerRadius", 0.08)
	viper.SetDefault("visual.tubeRadius", 0.02)
	viper.SetDefault("visual.tubeSegments", 128)

	viper.SetDefault("viewer.width", 1280)
	viper.SetDefault("viewer.height", 800)
	viper.SetDefault("viewer.fps", 60)
	viper.SetDefault("viewer.watchAsset", true)

	viper.SetDefault("api.baseUrl", "http://localhost:8080")
	viper.SetDefault("api.timeout", "10s")

	viper.SetDefault("metrics.enabled", false)
}

// Load sets defaults and reads splatroam.json from configDir. A missing
// file is not an error; defaults and SPLATROAM_* environment variables
// apply.
func Load(configDir string) error {
	SetDefaults()

	viper.SetEnvPrefix("SPLATROAM")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName(FileName)
	viper.SetConfigType("json")
	viper.AddConfigPath(configDir)

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// GetStorageConfig returns the storage settings
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type:      viper.GetString("storage.type"),
		Path:      viper.GetString("storage.path"),
		PathsKey:  viper.GetString("storage.pathsKey"),
		ActiveKey: viper.GetString("storage.activeKey"),
	}
}

// GetRoamingConfig returns the playback settings
func GetRoamingConfig() RoamingConfig {
	return RoamingConfig{
		Step:        viper.GetFloat64("roaming.step"),
		LookAhead:   viper.GetFloat64("roaming.lookAhead"),
		Height:      viper.GetFloat64("roaming.height"),
		Distance:    viper.GetFloat64("roaming.distance"),
		FlyDuration: viper.GetDuration("roaming.flyDuration"),
		CurveAlpha:  viper.GetFloat64("roaming.curveAlpha"),
	}
}

// GetVisualConfig returns marker and tube settings
func GetVisualConfig() VisualConfig {
	return VisualConfig{
		MarkerRadius: viper.GetFloat64("visual.markerRadius"),
		TubeRadius:   viper.GetFloat64("visual.tubeRadius"),
		TubeSegments: viper.GetInt("visual.tubeSegments"),
	}
}

// GetViewerConfig returns window settings
func GetViewerConfig() ViewerConfig {
	return ViewerConfig{
		Width:      viper.GetInt("viewer.width"),
		Height:     viper.GetInt("viewer.height"),
		FPS:        viper.GetInt("viewer.fps"),
		WatchAsset: viper.GetBool("viewer.watchAsset"),
	}
}

// GetAPIConfig returns the case metadata service settings
func GetAPIConfig() APIConfig {
	return APIConfig{
		BaseURL: viper.GetString("api.baseUrl"),
		Timeout: viper.GetDuration("api.timeout"),
	}
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}
