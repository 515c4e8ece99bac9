package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ibsc/brickscore/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Config stores runtime configuration for the scoring service.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	HTTPAddr       string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration

	// DataDir holds the per-event SQLite databases.
	DataDir     string
	PackVersion string

	// Reflector is the remote scoreboard the dispatcher pushes to.
	ReflectorSyncURL   string
	ReflectorEventCode string
	ReflectorAPIKey    string
	ReflectorTimeout   time.Duration

	// EventHub is the hosted scoresheet scoring service.
	EventHubEnabled             bool
	EventHubCommandsURL         string
	EventHubTimeout             time.Duration
	EventHubCircuitEnabled      bool
	EventHubCircuitFailureCount int
	EventHubCircuitOpenTimeout  time.Duration
	EventHubCircuitProbes       int

	UptraceEnabled bool
	UptraceDSN     string

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string

	LogLevel logging.Level
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	readTimeout, err := getEnvAsDuration("HTTP_READ_TIMEOUT", 15*time.Second)
	if err != nil {
		return Config{}, err
	}
	writeTimeout, err := getEnvAsDuration("HTTP_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return Config{}, err
	}

	dataDir := strings.TrimSpace(getEnv("DATA_DIR", "."))

	reflectorTimeout, err := getEnvAsDuration("REFLECTOR_TIMEOUT", 5*time.Second)
	if err != nil {
		return Config{}, err
	}

	eventHubEnabled, err := getEnvAsBool("EVENTHUB_ENABLED", true)
	if err != nil {
		return Config{}, err
	}
	eventHubTimeout, err := getEnvAsDuration("EVENTHUB_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	eventHubCircuitEnabled, err := getEnvAsBool("EVENTHUB_CIRCUIT_ENABLED", true)
	if err != nil {
		return Config{}, err
	}
	eventHubCircuitFailureCount, err := getEnvAsInt("EVENTHUB_CIRCUIT_FAILURE_COUNT", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse EVENTHUB_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	eventHubCircuitOpenTimeout, err := getEnvAsDuration("EVENTHUB_CIRCUIT_OPEN_TIMEOUT", 30*time.Second)
	if err != nil {
		return Config{}, err
	}
	eventHubCircuitProbes, err := getEnvAsInt("EVENTHUB_CIRCUIT_PROBES", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse EVENTHUB_CIRCUIT_PROBES: %w", err)
	}

	uptraceEnabled, err := getEnvAsBool("UPTRACE_ENABLED", false)
	if err != nil {
		return Config{}, err
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pyroscopeEnabled, err := getEnvAsBool("PYROSCOPE_ENABLED", false)
	if err != nil {
		return Config{}, err
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}

	serviceName := strings.TrimSpace(getEnv("SERVICE_NAME", "brickscore"))

	return Config{
		AppEnv:         appEnv,
		ServiceName:    serviceName,
		ServiceVersion: strings.TrimSpace(getEnv("SERVICE_VERSION", "dev")),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		ReadTimeout:    readTimeout,
		WriteTimeout:   writeTimeout,

		DataDir:     dataDir,
		PackVersion: strings.TrimSpace(getEnv("PACK_VERSION", "")),

		ReflectorSyncURL:   strings.TrimSpace(getEnv("REFLECTOR_SYNC_URL", "")),
		ReflectorEventCode: strings.TrimSpace(getEnv("REFLECTOR_EVENT_CODE", "")),
		ReflectorAPIKey:    strings.TrimSpace(getEnv("REFLECTOR_API_KEY", "")),
		ReflectorTimeout:   reflectorTimeout,

		EventHubEnabled:             eventHubEnabled,
		EventHubCommandsURL:         strings.TrimSpace(getEnv("EVENTHUB_COMMANDS_URL", "")),
		EventHubTimeout:             eventHubTimeout,
		EventHubCircuitEnabled:      eventHubCircuitEnabled,
		EventHubCircuitFailureCount: eventHubCircuitFailureCount,
		EventHubCircuitOpenTimeout:  eventHubCircuitOpenTimeout,
		EventHubCircuitProbes:       eventHubCircuitProbes,

		UptraceEnabled: uptraceEnabled,
		UptraceDSN:     uptraceDSN,

		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAppName:           strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", serviceName)),
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),

		LogLevel: logging.ParseLevel(getEnv("LOG_LEVEL", "info")),
	}, nil
}

// SyncConfigured reports whether the reflector credentials are
// complete. The dispatcher buffers until they are.
func (c Config) SyncConfigured() bool {
	return c.ReflectorSyncURL != "" && c.ReflectorEventCode != "" && c.ReflectorAPIKey != ""
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
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

func getEnvAsBool(key string, fallback bool) (bool, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}

	return out, nil
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}

	return out, nil
}
