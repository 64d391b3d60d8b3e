package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds service configuration derived from environment variables and
// an optional YAML file. Environment values win over file values.
type Config struct {
	HTTPPort string

	APIToken   string
	APIBaseURL string

	TeamID          string
	ProjectsSpaceID string
	IntakeListID    string

	// Custom-field id fallbacks used when field-name matching fails.
	PhaseFieldID   string
	PercentFieldID string

	CacheTTL       time.Duration
	WorkerCount    int
	QueueSize      int
	RequestTimeout time.Duration

	EnableWatcher bool
	ConfigPath    string
	StrictConfig  bool
	Environment   string
}

type fileConfig struct {
	HTTPPort        string `yaml:"http_port"`
	APIBaseURL      string `yaml:"api_base_url"`
	TeamID          string `yaml:"team_id"`
	ProjectsSpaceID string `yaml:"projects_space_id"`
	IntakeListID    string `yaml:"intake_list_id"`
	PhaseFieldID    string `yaml:"phase_field_id"`
	PercentFieldID  string `yaml:"percent_field_id"`
	CacheTTLSec     *int   `yaml:"cache_ttl_sec"`
	WorkerCount     *int   `yaml:"worker_count"`
	QueueSize       *int   `yaml:"queue_size"`
}

const (
	defaultPort       = ":8080"
	defaultBaseURL    = "https://api.clickup.com/api/v2"
	defaultCacheTTL   = 5 * time.Minute
	defaultWorkers    = 5
	minWorkers        = 1
	maxWorkers        = 32
	defaultQueueSize  = 64
	minQueueSize      = 8
	maxQueueSize      = 1024
	defaultReqTimeout = 30 * time.Second
)

// Load reads configuration from environment variables, a .env file, and an
// optional YAML config file, applying sane defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		APIToken:      os.Getenv("CLICKUP_API_TOKEN"),
		TeamID:        os.Getenv("CLICKUP_TEAM_ID"),
		StrictConfig:  parseBoolEnv("STRICT_CONFIG", false),
		EnableWatcher: parseBoolEnv("ENABLE_WATCHER", true),
		Environment:   getEnv("ENVIRONMENT", "local"),
		CacheTTL:      defaultCacheTTL,
		WorkerCount:   defaultWorkers,
		QueueSize:     defaultQueueSize,
	}

	cfg.ConfigPath = getEnv("CONFIG_PATH", filepath.Join("config", "config.yaml"))
	fileCfg, fileErr := loadFileConfig(cfg.ConfigPath)
	if fileErr != nil {
		if cfg.StrictConfig {
			return cfg, fmt.Errorf("config load failed (%s): %w", cfg.ConfigPath, fileErr)
		}
		if !errors.Is(fileErr, os.ErrNotExist) {
			log.Printf("config load failed (%s): %v (using defaults)", cfg.ConfigPath, fileErr)
		}
	}

	cfg.APIBaseURL = strings.TrimRight(firstNonEmpty(os.Getenv("CLICKUP_BASE_URL"), fileCfg.APIBaseURL, defaultBaseURL), "/")
	cfg.TeamID = firstNonEmpty(cfg.TeamID, fileCfg.TeamID)
	cfg.ProjectsSpaceID = firstNonEmpty(os.Getenv("PROJECTS_SPACE_ID"), fileCfg.ProjectsSpaceID)
	cfg.IntakeListID = firstNonEmpty(os.Getenv("INTAKE_LIST_ID"), fileCfg.IntakeListID)
	cfg.PhaseFieldID = firstNonEmpty(os.Getenv("PHASE_FIELD_ID"), fileCfg.PhaseFieldID)
	cfg.PercentFieldID = firstNonEmpty(os.Getenv("PERCENT_FIELD_ID"), fileCfg.PercentFieldID)

	cfg.HTTPPort = firstNonEmpty(os.Getenv("HTTP_PORT"), fileCfg.HTTPPort, defaultPort)
	if !strings.HasPrefix(cfg.HTTPPort, ":") {
		cfg.HTTPPort = ":" + cfg.HTTPPort
	}

	if fileCfg.CacheTTLSec != nil && *fileCfg.CacheTTLSec > 0 {
		cfg.CacheTTL = time.Duration(*fileCfg.CacheTTLSec) * time.Second
	}
	if v, ok, err := parseIntEnv("CACHE_TTL_SEC"); err != nil {
		if cfg.StrictConfig {
			return cfg, fmt.Errorf("invalid CACHE_TTL_SEC: %w", err)
		}
		log.Printf("invalid CACHE_TTL_SEC: %v (using default)", err)
	} else if ok && v > 0 {
		cfg.CacheTTL = time.Duration(v) * time.Second
	}

	if fileCfg.WorkerCount != nil && *fileCfg.WorkerCount > 0 {
		cfg.WorkerCount = *fileCfg.WorkerCount
	}
	if v, ok, err := parseIntEnv("WORKER_COUNT"); err != nil {
		log.Printf("invalid WORKER_COUNT: %v (using default %d)", err, defaultWorkers)
	} else if ok {
		cfg.WorkerCount = v
	}
	cfg.WorkerCount = clampInt(cfg.WorkerCount, minWorkers, maxWorkers)

	if fileCfg.QueueSize != nil && *fileCfg.QueueSize > 0 {
		cfg.QueueSize = *fileCfg.QueueSize
	}
	if v, ok, err := parseIntEnv("QUEUE_SIZE"); err != nil {
		log.Printf("invalid QUEUE_SIZE: %v (using default %d)", err, defaultQueueSize)
	} else if ok {
		cfg.QueueSize = v
	}
	cfg.QueueSize = clampInt(cfg.QueueSize, minQueueSize, maxQueueSize)
	if cfg.QueueSize < cfg.WorkerCount {
		log.Printf("QUEUE_SIZE raised to worker count %d (was %d)", cfg.WorkerCount, cfg.QueueSize)
		cfg.QueueSize = cfg.WorkerCount
	}

	cfg.RequestTimeout = defaultReqTimeout
	if v, ok, err := parseIntEnv("REQUEST_TIMEOUT_SEC"); err != nil {
		return cfg, fmt.Errorf("invalid REQUEST_TIMEOUT_SEC: %w", err)
	} else if ok {
		if v <= 0 {
			return cfg, fmt.Errorf("REQUEST_TIMEOUT_SEC must be positive")
		}
		cfg.RequestTimeout = time.Duration(v) * time.Second
	}

	if err := validate(cfg); err != nil {
		if cfg.StrictConfig {
			return cfg, err
		}
		log.Printf("config validation failed: %v (continuing)", err)
	}

	return cfg, nil
}

func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if len(data) == 0 {
		return cfg, errors.New("empty config file")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if strings.TrimSpace(cfg.APIToken) == "" {
		return errors.New("CLICKUP_API_TOKEN is required")
	}
	if strings.TrimSpace(cfg.TeamID) == "" {
		return errors.New("CLICKUP_TEAM_ID is required")
	}
	if strings.TrimSpace(cfg.ProjectsSpaceID) == "" {
		return errors.New("PROJECTS_SPACE_ID is required")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, val := range values {
		if strings.TrimSpace(val) != "" {
			return val
		}
	}
	return ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolEnv(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		switch strings.ToLower(v) {
		case "yes", "on":
			return true
		case "no", "off":
			return false
		}
		return fallback
	}
	return b
}

func parseIntEnv(key string) (int, bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false, nil
	}
	val, err := strconv.Atoi(raw)
	return val, true, err
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Now returns a UTC timestamp truncated to seconds for stable snapshots.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
