package config

import (
	"github.com/knadh/koanf/v2"
)

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"server.host": "0.0.0.0",
		"server.port": 8080,

		"database.max_connections": 25,

		"auth.jwt_expiry":     "24h",
		"auth.admin_username": "admin",

		"gallery.photos_dir":      "/data/photos",
		"gallery.max_upload_size": "64MB",

		"optimize.script_path":        "scripts/optimize-image.sh",
		"optimize.max_concurrent":     8,
		"optimize.worker_timeout":     "0s",
		"optimize.retention_window":   "5m",
		"optimize.sweep_interval":     "60s",
		"optimize.heartbeat_interval": "30s",

		"titles.enabled":  false,
		"titles.base_url": "https://api.openai.com/v1",
		"titles.model":    "gpt-4o-mini",

		"logging.level":  "info",
		"logging.format": "pretty",
	}

	for key, val := range defaults {
		k.Set(key, val)
	}
	return nil
}
