package main

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"mca-name-check/backend/internal/api"
	"mca-name-check/backend/internal/registry"
)

func main() {
	baseDir, err := os.Getwd()
	if err != nil {
		logrus.Fatalf("determine working directory: %v", err)
	}

	dataDir := filepath.Join(baseDir, "data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		logrus.Fatalf("create data directory: %v", err)
	}

	registryCfg := registry.Config{
		APIKey:    os.Getenv("MCA_API_KEY"),
		APISecret: os.Getenv("MCA_API_SECRET"),
		BaseURL:   os.Getenv("MCA_API_BASE_URL"),
	}
	if timeout := os.Getenv("MCA_API_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			registryCfg.Timeout = d
		}
	}
	if ttl := os.Getenv("MCA_API_CACHE_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			registryCfg.CacheTTL = d
		}
	}
	if rows := os.Getenv("MCA_API_ROWS"); rows != "" {
		if v, err := strconv.Atoi(rows); err == nil {
			registryCfg.Rows = v
		}
	}

	cfg := api.Config{
		DBPath:         filepath.Join(dataDir, "name-check.db"),
		TermsPath:      strings.TrimSpace(os.Getenv("NAMING_TERMS_PATH")),
		RegistryConfig: registryCfg,
	}

	if override := strings.TrimSpace(os.Getenv("NAME_CHECK_DB_PATH")); override != "" {
		cfg.DBPath = override
	}
	if origins := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	}
	if timeout := strings.TrimSpace(os.Getenv("FETCH_TIMEOUT")); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			cfg.FetchTimeout = d
		}
	}
	if limit := strings.TrimSpace(os.Getenv("SEARCH_LIMIT")); limit != "" {
		if v, err := strconv.Atoi(limit); err == nil && v > 0 {
			cfg.SearchLimit = v
		}
	}
	if workers := strings.TrimSpace(os.Getenv("CHECK_WORKERS")); workers != "" {
		if v, err := strconv.Atoi(workers); err == nil && v > 0 {
			cfg.Workers = v
		}
	}

	server, err := api.NewServer(cfg)
	if err != nil {
		logrus.Fatalf("create server: %v", err)
	}

	router := server.Router()

	port := os.Getenv("PORT")
	if port == "" {
		port = "2000"
	}

	logrus.Infof("starting mca-name-check backend on :%s", port)
	if err := router.Run(":" + port); err != nil {
		logrus.Fatalf("server exited: %v", err)
	}
}
