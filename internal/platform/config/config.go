package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Leaderboard time models. A deployment serves exactly one of them.
const (
	TimeModelPenalty  = "penalty"
	TimeModelDuration = "duration"
)

type Config struct {
	APIPort            string
	Env                string
	JWTKey             []byte
	CORSAllowedOrigins []string
	EnvFileLoaded      bool

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBMaxConns int
	DBConnStr  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JudgeAPIURL       string
	JudgeAPIKey       string
	JudgeAPIHost      string
	JudgePollInterval time.Duration
	JudgePollTimeout  time.Duration
	JudgeHTTPTimeout  time.Duration
	JudgeMaxInFlight  int
	JudgeSlotTTL      time.Duration
	JudgeSlotWait     time.Duration

	SubmitRatePerMinute int
	SubmitBurst         int

	LeaderboardTimeModel string
	ProctorTimeout       time.Duration
}

var AppConfig *Config

// Load reads .env (when present) and the process environment into AppConfig.
func Load() error {
	loaded := godotenv.Load() == nil

	cfg := &Config{
		APIPort:            getEnv("API_PORT", "8080"),
		Env:                getEnv("APP_ENV", "development"),
		JWTKey:             []byte(getEnv("JWT_SECRET", "defaultsecret")),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		EnvFileLoaded:      loaded,

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "user"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "contest_arena"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),
		DBMaxConns: getEnvAsInt("DB_MAX_CONNS", 25),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		JudgeAPIURL:       strings.TrimRight(getEnv("JUDGE_API_URL", "http://localhost:2358"), "/"),
		JudgeAPIKey:       getEnv("JUDGE_API_KEY", ""),
		JudgeAPIHost:      getEnv("JUDGE_API_HOST", ""),
		JudgePollInterval: getEnvAsDuration("JUDGE_POLL_INTERVAL", 2*time.Second),
		JudgePollTimeout:  getEnvAsDuration("JUDGE_POLL_TIMEOUT", 60*time.Second),
		JudgeHTTPTimeout:  getEnvAsDuration("JUDGE_HTTP_TIMEOUT", 15*time.Second),
		JudgeMaxInFlight:  getEnvAsInt("JUDGE_MAX_INFLIGHT", 8),
		JudgeSlotTTL:      getEnvAsDuration("JUDGE_SLOT_TTL", 2*time.Minute),
		JudgeSlotWait:     getEnvAsDuration("JUDGE_SLOT_WAIT", 10*time.Second),

		SubmitRatePerMinute: getEnvAsInt("SUBMIT_RATE_PER_MINUTE", 6),
		SubmitBurst:         getEnvAsInt("SUBMIT_BURST", 3),

		LeaderboardTimeModel: strings.ToLower(getEnv("LEADERBOARD_TIME_MODEL", TimeModelPenalty)),
		ProctorTimeout:       getEnvAsDuration("PROCTOR_TIMEOUT", 5*time.Second),
	}

	cfg.DBConnStr = "host=" + cfg.DBHost +
		" port=" + cfg.DBPort +
		" user=" + cfg.DBUser +
		" password=" + cfg.DBPassword +
		" dbname=" + cfg.DBName +
		" sslmode=" + cfg.DBSslMode

	if err := cfg.Validate(); err != nil {
		return err
	}
	AppConfig = cfg
	return nil
}

// JudgeRequestTimeout bounds a request that judges code: waiting for a slot,
// the full poll window, and the submit and final fetch calls to the judge.
func (c *Config) JudgeRequestTimeout() time.Duration {
	return c.JudgeSlotWait + c.JudgePollTimeout + 2*c.JudgeHTTPTimeout + 15*time.Second
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.JudgeAPIURL == "" {
		errs = append(errs, errors.New("JUDGE_API_URL is required"))
	}
	if c.JudgePollInterval <= 0 {
		errs = append(errs, errors.New("JUDGE_POLL_INTERVAL must be positive"))
	}
	if c.JudgePollTimeout < c.JudgePollInterval {
		errs = append(errs, errors.New("JUDGE_POLL_TIMEOUT must not be shorter than JUDGE_POLL_INTERVAL"))
	}
	if c.JudgeMaxInFlight < 1 {
		errs = append(errs, errors.New("JUDGE_MAX_INFLIGHT must be at least 1"))
	}
	if c.SubmitRatePerMinute < 1 || c.SubmitBurst < 1 {
		errs = append(errs, errors.New("SUBMIT_RATE_PER_MINUTE and SUBMIT_BURST must be at least 1"))
	}
	if c.LeaderboardTimeModel != TimeModelPenalty && c.LeaderboardTimeModel != TimeModelDuration {
		errs = append(errs, fmt.Errorf("LEADERBOARD_TIME_MODEL must be %q or %q, got %q", TimeModelPenalty, TimeModelDuration, c.LeaderboardTimeModel))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
