package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/receiptdesk/internal/flagx"
	"github.com/dmitrijs2005/receiptdesk/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so intervals can be written either as strings like "30s" or
// as integer nanoseconds.
type JsonConfig struct {
	EndpointURL  string         `json:"endpoint_url"`
	DataDir      string         `json:"data_dir"`
	SyncInterval timex.Duration `json:"sync_interval"`
	MaxImageDim  int            `json:"max_image_dim"`
}

// parseJson overlays cfg with values from the JSON file named by the -c or
// -config flag. When no file is given the function returns without touching
// cfg. Read or unmarshal errors panic; the caller may recover if desired.
//
// Only fields present in the file override cfg, so partial configs compose
// with the defaults.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.EndpointURL != "" {
		cfg.EndpointURL = jc.EndpointURL
	}
	if jc.DataDir != "" {
		cfg.DataDir = jc.DataDir
	}
	if jc.SyncInterval.Duration != 0 {
		cfg.SyncInterval = time.Duration(jc.SyncInterval.Duration)
	}
	if jc.MaxImageDim != 0 {
		cfg.MaxImageDim = jc.MaxImageDim
	}
}
