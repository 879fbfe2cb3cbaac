package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/riskibarqy/highlight-sync/internal/platform/logging"
)

// Config stores runtime configuration for the sync binaries and the internal API.
type Config struct {
	AppEnv                  string
	ServiceName             string
	ServiceVersion          string
	HTTPAddr                string
	ReadTimeout             time.Duration
	WriteTimeout            time.Duration
	LogLevel                logging.Level
	LogFormat               string
	DBURL                   string
	DBDisablePreparedBinary bool
	DBMaxOpenConns          int
	InternalJobToken        string
	StatusCacheTTL          time.Duration

	HighlightlyBaseURL             string
	HighlightlyAPIKey              string
	HighlightlyTimeout             time.Duration
	HighlightlyRequestsPerWindow   int
	HighlightlyRateWindow          time.Duration
	HighlightlyCallDelay           time.Duration
	HighlightlyMaxRetries          int
	HighlightlyRetryBaseDelay      time.Duration
	HighlightlyRateLimitMultiplier int
	HighlightlyCircuitEnabled      bool
	HighlightlyCircuitFailureCount int
	HighlightlyCircuitOpenTimeout  time.Duration
	HighlightlyCircuitHalfOpenMax  int

	SyncStrategies          []string
	SyncBatchSize           int
	SyncBatchDelay          time.Duration
	SyncLeagueIDs           []int64
	SyncSeasons             []string
	SyncPriorityLeagueIDs   []int64
	SyncLeagueTiers         map[int64]int
	SyncHeadToHeadPairs     [][2]int64
	SyncMaxMatchesPerLeague int
	SyncMaxPages            int
	SyncWindowFrom          time.Time
	SyncWindowTo            time.Time
	SyncWindowDays          int
	SyncHighlightOrphan     string
	SyncTeamCacheTTL        time.Duration
	SyncDryRun              bool

	UptraceEnabled             bool
	UptraceDSN                 string
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
}

const (
	OrphanPolicyNull = "null"
	OrphanPolicyDrop = "drop"
)

const dateLayout = "2006-01-02"

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	logFormatDefault := logging.FormatConsole
	if appEnv != EnvDev {
		logFormatDefault = logging.FormatJSON
	}
	logFormat := strings.ToLower(strings.TrimSpace(getEnv("APP_LOG_FORMAT", logFormatDefault)))
	if logFormat != logging.FormatJSON && logFormat != logging.FormatConsole {
		return Config{}, fmt.Errorf("invalid APP_LOG_FORMAT %q: valid values are %s, %s", logFormat, logging.FormatJSON, logging.FormatConsole)
	}

	cfg := Config{
		AppEnv:           appEnv,
		ServiceName:      getEnv("APP_SERVICE_NAME", "highlight-sync"),
		ServiceVersion:   getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:         getEnv("APP_HTTP_ADDR", ":8080"),
		LogLevel:         logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info")),
		LogFormat:        logFormat,
		DBURL:            strings.TrimSpace(getEnv("DB_URL", "")),
		InternalJobToken: strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),
	}

	if cfg.ReadTimeout, err = getEnvAsDuration("APP_READ_TIMEOUT", "10s"); err != nil {
		return Config{}, err
	}
	if cfg.WriteTimeout, err = getEnvAsDuration("APP_WRITE_TIMEOUT", "15s"); err != nil {
		return Config{}, err
	}
	if cfg.DBDisablePreparedBinary, err = getEnvAsBool("DB_DISABLE_PREPARED_BINARY_RESULT", true); err != nil {
		return Config{}, err
	}
	if cfg.DBMaxOpenConns, err = getEnvAsPositiveInt("DB_MAX_OPEN_CONNS", 5); err != nil {
		return Config{}, err
	}
	if cfg.AppEnv == EnvProd && cfg.DBURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required when APP_ENV=%s", EnvProd)
	}
	if cfg.StatusCacheTTL, err = getEnvAsDuration("API_STATUS_CACHE_TTL", "5s"); err != nil {
		return Config{}, err
	}

	if err := loadHighlightly(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadSync(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadObservability(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadHighlightly(cfg *Config) error {
	var err error
	cfg.HighlightlyBaseURL = strings.TrimRight(strings.TrimSpace(getEnv("HIGHLIGHTLY_BASE_URL", "https://soccer.highlightly.net")), "/")
	cfg.HighlightlyAPIKey = strings.TrimSpace(getEnv("HIGHLIGHTLY_API_KEY", ""))
	if cfg.AppEnv == EnvProd && cfg.HighlightlyAPIKey == "" {
		return fmt.Errorf("HIGHLIGHTLY_API_KEY is required when APP_ENV=%s", EnvProd)
	}

	if cfg.HighlightlyTimeout, err = getEnvAsDuration("HIGHLIGHTLY_TIMEOUT", "20s"); err != nil {
		return err
	}
	if cfg.HighlightlyRequestsPerWindow, err = getEnvAsPositiveInt("HIGHLIGHTLY_REQUESTS_PER_WINDOW", 100); err != nil {
		return err
	}
	if cfg.HighlightlyRateWindow, err = getEnvAsDuration("HIGHLIGHTLY_RATE_WINDOW", "60s"); err != nil {
		return err
	}
	if cfg.HighlightlyCallDelay, err = getEnvAsDurationAllowZero("HIGHLIGHTLY_CALL_DELAY", "1s"); err != nil {
		return err
	}
	if cfg.HighlightlyMaxRetries, err = getEnvAsInt("HIGHLIGHTLY_MAX_RETRIES", 3); err != nil {
		return fmt.Errorf("parse HIGHLIGHTLY_MAX_RETRIES: %w", err)
	}
	if cfg.HighlightlyMaxRetries < 0 {
		return fmt.Errorf("HIGHLIGHTLY_MAX_RETRIES must be >= 0")
	}
	if cfg.HighlightlyRetryBaseDelay, err = getEnvAsDuration("HIGHLIGHTLY_RETRY_BASE_DELAY", "2s"); err != nil {
		return err
	}
	if cfg.HighlightlyRateLimitMultiplier, err = getEnvAsPositiveInt("HIGHLIGHTLY_RATE_LIMIT_MULTIPLIER", 5); err != nil {
		return err
	}
	if cfg.HighlightlyCircuitEnabled, err = getEnvAsBool("HIGHLIGHTLY_CIRCUIT_ENABLED", true); err != nil {
		return err
	}
	if cfg.HighlightlyCircuitFailureCount, err = getEnvAsPositiveInt("HIGHLIGHTLY_CIRCUIT_FAILURE_COUNT", 5); err != nil {
		return err
	}
	if cfg.HighlightlyCircuitOpenTimeout, err = getEnvAsDuration("HIGHLIGHTLY_CIRCUIT_OPEN_TIMEOUT", "30s"); err != nil {
		return err
	}
	if cfg.HighlightlyCircuitHalfOpenMax, err = getEnvAsPositiveInt("HIGHLIGHTLY_CIRCUIT_HALF_OPEN_MAX_REQ", 1); err != nil {
		return err
	}
	return nil
}

func loadSync(cfg *Config) error {
	var err error
	cfg.SyncStrategies = splitCSV(getEnv("SYNC_STRATEGIES", "leagues,league-season,match-details,highlights"))
	if len(cfg.SyncStrategies) == 0 {
		return fmt.Errorf("SYNC_STRATEGIES cannot be empty")
	}
	if cfg.SyncBatchSize, err = getEnvAsPositiveInt("SYNC_BATCH_SIZE", 40); err != nil {
		return err
	}
	if cfg.SyncBatchDelay, err = getEnvAsDurationAllowZero("SYNC_BATCH_DELAY", "1s"); err != nil {
		return err
	}
	if cfg.SyncLeagueIDs, err = parseIDList(getEnv("SYNC_LEAGUE_IDS", "")); err != nil {
		return fmt.Errorf("parse SYNC_LEAGUE_IDS: %w", err)
	}
	cfg.SyncSeasons = splitCSV(getEnv("SYNC_SEASONS", strconv.Itoa(time.Now().UTC().Year())))
	if cfg.SyncPriorityLeagueIDs, err = parseIDList(getEnv("SYNC_PRIORITY_LEAGUE_IDS", "")); err != nil {
		return fmt.Errorf("parse SYNC_PRIORITY_LEAGUE_IDS: %w", err)
	}
	if cfg.SyncLeagueTiers, err = parseTierMap(getEnv("SYNC_LEAGUE_TIERS", "")); err != nil {
		return fmt.Errorf("parse SYNC_LEAGUE_TIERS: %w", err)
	}
	if cfg.SyncHeadToHeadPairs, err = parsePairs(getEnv("SYNC_H2H_PAIRS", "")); err != nil {
		return fmt.Errorf("parse SYNC_H2H_PAIRS: %w", err)
	}
	if cfg.SyncMaxMatchesPerLeague, err = getEnvAsInt("SYNC_MAX_MATCHES_PER_LEAGUE", 0); err != nil {
		return fmt.Errorf("parse SYNC_MAX_MATCHES_PER_LEAGUE: %w", err)
	}
	if cfg.SyncMaxMatchesPerLeague < 0 {
		return fmt.Errorf("SYNC_MAX_MATCHES_PER_LEAGUE must be >= 0")
	}
	if cfg.SyncMaxPages, err = getEnvAsPositiveInt("SYNC_MAX_PAGES", 200); err != nil {
		return err
	}
	if cfg.SyncWindowDays, err = getEnvAsPositiveInt("SYNC_WINDOW_DAYS", 7); err != nil {
		return err
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	if cfg.SyncWindowFrom, err = getEnvAsDate("SYNC_WINDOW_FROM", today.AddDate(0, 0, -7)); err != nil {
		return err
	}
	if cfg.SyncWindowTo, err = getEnvAsDate("SYNC_WINDOW_TO", today); err != nil {
		return err
	}
	if cfg.SyncWindowTo.Before(cfg.SyncWindowFrom) {
		return fmt.Errorf("SYNC_WINDOW_TO must not be before SYNC_WINDOW_FROM")
	}

	cfg.SyncHighlightOrphan = strings.ToLower(strings.TrimSpace(getEnv("SYNC_HIGHLIGHT_ORPHAN_POLICY", OrphanPolicyNull)))
	switch cfg.SyncHighlightOrphan {
	case OrphanPolicyNull, OrphanPolicyDrop:
	default:
		return fmt.Errorf("invalid SYNC_HIGHLIGHT_ORPHAN_POLICY %q: valid values are %s, %s", cfg.SyncHighlightOrphan, OrphanPolicyNull, OrphanPolicyDrop)
	}
	if cfg.SyncTeamCacheTTL, err = getEnvAsDuration("SYNC_TEAM_CACHE_TTL", "10m"); err != nil {
		return err
	}
	if cfg.SyncDryRun, err = getEnvAsBool("SYNC_DRY_RUN", false); err != nil {
		return err
	}
	return nil
}

func loadObservability(cfg *Config) error {
	var err error
	if cfg.UptraceEnabled, err = getEnvAsBool("UPTRACE_ENABLED", false); err != nil {
		return err
	}
	cfg.UptraceDSN = strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if cfg.UptraceDSN == "" {
		cfg.UptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	if cfg.PyroscopeEnabled, err = getEnvAsBool("PYROSCOPE_ENABLED", false); err != nil {
		return err
	}
	cfg.PyroscopeServerAddress = strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	cfg.PyroscopeAuthToken = strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", ""))
	cfg.PyroscopeBasicAuthUser = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", ""))
	cfg.PyroscopeBasicAuthPassword = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", ""))
	if cfg.PyroscopeUploadRate, err = getEnvAsDuration("PYROSCOPE_UPLOAD_RATE", "15s"); err != nil {
		return err
	}
	return nil
}

// LoadDotEnv reads KEY=value files into the process environment. Variables
// already set win over file values and missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if strings.TrimSpace(path) == "" {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load env file %s: %w", path, err)
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsPositiveInt(key string, fallback int) (int, error) {
	out, err := getEnvAsInt(key, fallback)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return out, nil
}

func getEnvAsBool(key string, fallback bool) (bool, error) {
	out, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(fallback)))
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return out, nil
}

func getEnvAsDuration(key, fallback string) (time.Duration, error) {
	out, err := getEnvAsDurationAllowZero(key, fallback)
	if err != nil {
		return 0, err
	}
	if out <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return out, nil
}

func getEnvAsDurationAllowZero(key, fallback string) (time.Duration, error) {
	out, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out < 0 {
		return 0, fmt.Errorf("%s must be >= 0", key)
	}
	return out, nil
}

func getEnvAsDate(key string, fallback time.Time) (time.Time, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	out, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %s: %w", key, err)
	}
	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseIDList(raw string) ([]int64, error) {
	items := splitCSV(raw)
	out := make([]int64, 0, len(items))
	for _, item := range items {
		value, err := strconv.ParseInt(item, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", item, err)
		}
		if value <= 0 {
			return nil, fmt.Errorf("id must be > 0, got %q", item)
		}
		out = append(out, value)
	}
	return out, nil
}

// parseTierMap reads "leagueID:tier" pairs, e.g. "39:1,40:2".
func parseTierMap(raw string) (map[int64]int, error) {
	out := make(map[int64]int)
	for _, item := range splitCSV(raw) {
		segments := strings.SplitN(item, ":", 2)
		if len(segments) != 2 {
			return nil, fmt.Errorf("invalid map item %q, expected league_id:tier", item)
		}

		leagueID, err := strconv.ParseInt(strings.TrimSpace(segments[0]), 10, 64)
		if err != nil || leagueID <= 0 {
			return nil, fmt.Errorf("invalid league id in item %q", item)
		}
		tier, err := strconv.Atoi(strings.TrimSpace(segments[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid tier in item %q: %w", item, err)
		}
		if tier <= 0 {
			return nil, fmt.Errorf("tier must be > 0 in item %q", item)
		}

		out[leagueID] = tier
	}
	return out, nil
}

// parsePairs reads "teamA-teamB" pairs, e.g. "33-34,40-50".
func parsePairs(raw string) ([][2]int64, error) {
	items := splitCSV(raw)
	out := make([][2]int64, 0, len(items))
	for _, item := range items {
		segments := strings.SplitN(item, "-", 2)
		if len(segments) != 2 {
			return nil, fmt.Errorf("invalid pair %q, expected team_id-team_id", item)
		}
		ids, err := parseIDList(segments[0] + "," + segments[1])
		if err != nil || len(ids) != 2 {
			return nil, fmt.Errorf("invalid pair %q", item)
		}
		if ids[0] == ids[1] {
			return nil, fmt.Errorf("pair %q references the same team twice", item)
		}
		out = append(out, [2]int64{ids[0], ids[1]})
	}
	return out, nil
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	for _, item := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			return strings.Trim(strings.TrimSpace(parts[1]), "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
