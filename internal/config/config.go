// Package config provides centralized configuration loaded from environment
// variables. The ingest command calls Load once at startup; nothing else reads
// the environment.
package config

import (
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

// --------------------------------------------------------------------------
// Table names, matching the Supabase schema
// --------------------------------------------------------------------------

const (
	CategoriesTable = "categorias"
	ClubsTable      = "clubs"
	FixturesTable   = "enfrentamientos"
	ResultsTable    = "resultados"
)

// --------------------------------------------------------------------------
// Defaults for the padelandwin ajax endpoints
// --------------------------------------------------------------------------

const (
	DefaultAPIBaseURL        = "https://padelandwin.cat/ajax/ajax.aspx/"
	DefaultAPIReferer        = "https://padelandwin.cat/torneo/?t=MzE5"
	DefaultAPIOrigin         = "https://padelandwin.cat"
	DefaultAPIUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	DefaultSessionCookieName = "PadelWinCookie"
	DefaultCompetitionFilter = "lliga14"
	DefaultTimezone          = "Europe/Madrid"
)

// --------------------------------------------------------------------------
// Config struct, populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Remote API
	APIBaseURL        string        `validate:"required,url"`
	APIReferer        string        `validate:"omitempty,url"`
	APIOrigin         string        `validate:"omitempty,url"`
	APIUserAgent      string        `validate:"required"`
	SessionCookieName string        `validate:"required"`
	SessionCookie     string        // value of the session cookie; may be empty
	APITimeout        time.Duration `validate:"gt=0"`
	APIRequestsPerMin int           `validate:"gte=0"` // 0 = unlimited

	// Extraction
	CompetitionFilter string `validate:"required"`

	// Database
	DatabaseURL string `validate:"required"`

	// Load
	LoadBatchSize int  `validate:"gte=1"`
	LoadAtomic    bool // one transaction for the whole load phase

	// Snapshot
	Location *time.Location `validate:"required"`

	// Logging
	LogDir   string `validate:"required"`
	LogLevel string `validate:"oneof=debug info warn error"`
}

var validate = validator.New()

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	dbURL, err := databaseURL()
	if err != nil {
		return nil, err
	}

	tz := envOr("TIMEZONE", DefaultTimezone)
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, errors.Wrapf(err, "load TIMEZONE %q", tz)
	}

	timeoutSecs, err := envInt("PADEL_API_TIMEOUT_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	requestsPerMin, err := envInt("PADEL_API_REQUESTS_PER_MINUTE", 0)
	if err != nil {
		return nil, err
	}
	batchSize, err := envInt("LOAD_BATCH_SIZE", 100)
	if err != nil {
		return nil, err
	}
	loadAtomic, err := envBool("LOAD_ATOMIC", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		APIBaseURL:        envOr("PADEL_API_BASE_URL", DefaultAPIBaseURL),
		APIReferer:        envOr("PADEL_API_REFERER", DefaultAPIReferer),
		APIOrigin:         envOr("PADEL_API_ORIGIN", DefaultAPIOrigin),
		APIUserAgent:      envOr("PADEL_API_USER_AGENT", DefaultAPIUserAgent),
		SessionCookieName: envOr("PADEL_SESSION_COOKIE_NAME", DefaultSessionCookieName),
		SessionCookie:     envOr("PADEL_SESSION_COOKIE", ""),
		APITimeout:        time.Duration(timeoutSecs) * time.Second,
		APIRequestsPerMin: requestsPerMin,

		CompetitionFilter: strings.TrimSpace(envOr("COMPETITION_FILTER", DefaultCompetitionFilter)),

		DatabaseURL: dbURL,

		LoadBatchSize: batchSize,
		LoadAtomic:    loadAtomic,

		Location: loc,

		LogDir:   envOr("LOG_DIR", "logs"),
		LogLevel: strings.ToLower(envOr("LOG_LEVEL", "info")),
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// databaseURL prefers DATABASE_URL and falls back to the discrete DB_* variables
// of the Supabase setup.
func databaseURL() (string, error) {
	if v := envOr("DATABASE_URL", ""); v != "" {
		return v, nil
	}

	user := envOr("DB_USER", "")
	host := envOr("DB_HOST", "")
	name := envOr("DB_NAME", "")
	if user == "" || host == "" || name == "" {
		return "", errors.New("DATABASE_URL or DB_USER, DB_HOST and DB_NAME must be set")
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, envOr("DB_PORT", "5432")),
		Path:   "/" + name,
	}
	if pw := os.Getenv("DB_PASSWORD"); pw != "" {
		u.User = url.UserPassword(user, pw)
	} else {
		u.User = url.User(user)
	}
	return u.String(), nil
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envInt returns fallback when key is unset and an error when it is set but
// not an integer.
func envInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "parse %s=%q", key, v)
	}
	return n, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.Wrapf(err, "parse %s=%q", key, v)
	}
	return b, nil
}
