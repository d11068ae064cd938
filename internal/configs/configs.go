package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"case-board.com/case-board/internal/board"
	"case-board.com/case-board/internal/client"
)

type Config struct {
	AppURL                      string
	APIURL                      string
	CaseAPIURL                  string
	Endpoints                   client.Endpoints
	SessionCookieName           string
	SessionCookie               string
	SessionIdleTimeoutSeconds   int
	SessionSweepIntervalSeconds int
	PageSize                    int
	ReconcilePolicy             board.ReconcilePolicy
	AllowReopen                 bool
	JournalDSN                  string
	APIDatabaseDSN              string
	RedisAddr                   string
	RedisNotifyChannel          string
	RateLimit                   int
	ShutdownTimeoutSeconds      int
	Debug                       bool
	LogFormat                   string
}

func Load() Config {
	cfg, err := load()
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

func load() (Config, error) {
	appHost := getEnv("APP_HOST", "127.0.0.1")
	appPort := getEnv("APP_PORT", "8080")
	apiHost := getEnv("API_HOST", "127.0.0.1")
	apiPort := getEnv("API_PORT", "5000")

	redisAddr := ""
	if redisHost := getEnv("REDIS_HOST", ""); redisHost != "" {
		redisAddr = fmt.Sprintf("%s:%s", redisHost, getEnv("REDIS_PORT", "6379"))
	}

	policy, err := board.ParseReconcilePolicy(getEnv("RECONCILE_POLICY", "rollback"))
	if err != nil {
		return Config{}, fmt.Errorf("RECONCILE_POLICY: %w", err)
	}

	ints := map[string]int{}
	for key, def := range map[string]int{
		"SESSION_IDLE_TIMEOUT_SECONDS":   1800,
		"SESSION_SWEEP_INTERVAL_SECONDS": 60,
		"BOARD_PAGE_SIZE":                10,
		"RATE_LIMIT_PER_MINUTE":          120,
		"SHUTDOWN_TIMEOUT_SECONDS":       20,
	} {
		v, err := getEnvAsInt(key, def)
		if err != nil {
			return Config{}, err
		}
		ints[key] = v
	}

	allowReopen, err := getEnvAsBool("ALLOW_REOPEN", true)
	if err != nil {
		return Config{}, err
	}
	debug, err := getEnvAsBool("DEBUG", false)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppURL:     fmt.Sprintf("%s:%s", appHost, appPort),
		APIURL:     fmt.Sprintf("%s:%s", apiHost, apiPort),
		CaseAPIURL: getEnv("CASE_API_URL", fmt.Sprintf("http://%s:%s", apiHost, apiPort)),
		Endpoints: client.Endpoints{
			Tasks:      getEnv("CASE_API_TASKS_PATH", "/tasks"),
			Update:     getEnv("CASE_API_UPDATE_PATH", "/tasks"),
			Upload:     getEnv("CASE_API_UPLOAD_PATH", "/tasks/upload"),
			Attachment: getEnv("CASE_API_ATTACHMENT_PATH", "/tasks/attachment"),
		},
		SessionCookieName:           getEnv("SESSION_COOKIE_NAME", "connect.sid"),
		SessionCookie:               getEnv("SESSION_COOKIE", ""),
		SessionIdleTimeoutSeconds:   ints["SESSION_IDLE_TIMEOUT_SECONDS"],
		SessionSweepIntervalSeconds: ints["SESSION_SWEEP_INTERVAL_SECONDS"],
		PageSize:                    ints["BOARD_PAGE_SIZE"],
		ReconcilePolicy:             policy,
		AllowReopen:                 allowReopen,
		JournalDSN:                  getEnv("JOURNAL_DSN", "board.db"),
		APIDatabaseDSN:              getEnv("API_DATABASE_DSN", "case-api.db"),
		RedisAddr:                   redisAddr,
		RedisNotifyChannel:          getEnv("REDIS_NOTIFY_CHANNEL", ""),
		RateLimit:                   ints["RATE_LIMIT_PER_MINUTE"],
		ShutdownTimeoutSeconds:      ints["SHUTDOWN_TIMEOUT_SECONDS"],
		Debug:                       debug,
		LogFormat:                   getEnv("LOG_FORMAT", "text"),
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.CaseAPIURL == "" {
		return fmt.Errorf("CASE_API_URL must not be empty (e.g. http://127.0.0.1:5000/api)")
	}
	if !strings.HasPrefix(cfg.CaseAPIURL, "http://") && !strings.HasPrefix(cfg.CaseAPIURL, "https://") {
		return fmt.Errorf("CASE_API_URL must be an http(s) URL")
	}
	if cfg.SessionCookieName == "" {
		return fmt.Errorf("SESSION_COOKIE_NAME must not be empty")
	}
	if cfg.SessionIdleTimeoutSeconds <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT_SECONDS must be greater than 0")
	}
	if cfg.SessionSweepIntervalSeconds <= 0 {
		return fmt.Errorf("SESSION_SWEEP_INTERVAL_SECONDS must be greater than 0")
	}
	if cfg.PageSize <= 0 {
		return fmt.Errorf("BOARD_PAGE_SIZE must be greater than 0")
	}
	if cfg.RateLimit <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be greater than 0")
	}
	if cfg.JournalDSN == "" {
		return fmt.Errorf("JOURNAL_DSN must not be empty")
	}
	if cfg.RedisAddr != "" && cfg.RedisNotifyChannel == "" {
		return fmt.Errorf("REDIS_NOTIFY_CHANNEL must be set when REDIS_HOST is")
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be text or json")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) (int, error) {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid integer value for %s", key)
		}
		return i, nil
	}
	return defaultVal, nil
}

func getEnvAsBool(key string, defaultVal bool) (bool, error) {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("invalid boolean value for %s", key)
		}
		return b, nil
	}
	return defaultVal, nil
}
