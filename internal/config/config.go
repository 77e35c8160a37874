package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	MQTTBroker      string
	MQTTPort        int
	MQTTClientID    string
	MQTTUplinkTopic string
	MQTTOutputTopic string
	MQTTQoS         byte

	// DeviceProfile selects address field and label spelling (deveui, devaddr).
	DeviceProfile string
	// DeviceSuffixLen overrides the profile's device id length when > 0.
	DeviceSuffixLen   int
	UnknownTypePolicy string
	OutputMode        string

	DeadLetterEnabled     bool
	SQLiteDriver          string
	SQLiteDSN             string
	SQLitePath            string
	SQLiteMaxOpenConns    int
	SQLiteMaxIdleConns    int
	SQLiteConnMaxLifetime time.Duration
	SQLiteLogSQL          bool
}

func LoadFromEnv() (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := parseLogLevel(envOr("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}

	mqttPortStr := envOr("MQTT_PORT", "1883")
	mqttPort, err := strconv.Atoi(mqttPortStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %q: %w", mqttPortStr, err)
	}
	if mqttPort <= 0 || mqttPort > 65535 {
		return Config{}, fmt.Errorf("MQTT_PORT must be in 1..65535, got %d", mqttPort)
	}

	qosStr := envOr("MQTT_QOS", "1")
	qos, err := strconv.ParseUint(qosStr, 10, 8)
	if err != nil {
		return Config{}, fmt.Errorf("invalid MQTT_QOS %q: %w", qosStr, err)
	}
	if qos > 2 {
		return Config{}, fmt.Errorf("invalid MQTT_QOS %q (allowed: 0, 1, 2)", qosStr)
	}

	profile := strings.ToLower(envOr("DEVICE_PROFILE", "devaddr"))
	switch profile {
	case "deveui", "devaddr":
	default:
		return Config{}, fmt.Errorf("invalid DEVICE_PROFILE %q (allowed: deveui, devaddr)", profile)
	}

	suffixLenStr := envOr("DEVICE_SUFFIX_LEN", "0")
	suffixLen, err := strconv.Atoi(suffixLenStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DEVICE_SUFFIX_LEN %q: %w", suffixLenStr, err)
	}
	if suffixLen < 0 {
		return Config{}, fmt.Errorf("DEVICE_SUFFIX_LEN must not be negative, got %d", suffixLen)
	}

	unknownPolicy := strings.ToLower(envOr("UNKNOWN_TYPE_POLICY", "reject"))
	switch unknownPolicy {
	case "reject", "sentinel":
	default:
		return Config{}, fmt.Errorf("invalid UNKNOWN_TYPE_POLICY %q (allowed: reject, sentinel)", unknownPolicy)
	}

	outputMode := strings.ToLower(envOr("OUTPUT_MODE", "split"))
	switch outputMode {
	case "split", "batch":
	default:
		return Config{}, fmt.Errorf("invalid OUTPUT_MODE %q (allowed: split, batch)", outputMode)
	}

	deadLetterStr := envOr("DEADLETTER_ENABLED", "true")
	deadLetter, err := strconv.ParseBool(deadLetterStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DEADLETTER_ENABLED %q: %w", deadLetterStr, err)
	}

	maxOpenConnsStr := envOr("DB_MAX_OPEN_CONNS", "1")
	maxOpenConns, err := strconv.Atoi(maxOpenConnsStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_MAX_OPEN_CONNS %q: %w", maxOpenConnsStr, err)
	}

	maxIdleConnsStr := envOr("DB_MAX_IDLE_CONNS", "1")
	maxIdleConns, err := strconv.Atoi(maxIdleConnsStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_MAX_IDLE_CONNS %q: %w", maxIdleConnsStr, err)
	}

	connMaxLifetimeStr := envOr("DB_CONN_MAX_LIFETIME", "0s")
	connMaxLifetime, err := time.ParseDuration(connMaxLifetimeStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME %q: %w", connMaxLifetimeStr, err)
	}

	logSQLStr := envOr("DB_LOG_SQL", "false")
	logSQL, err := strconv.ParseBool(logSQLStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_LOG_SQL %q: %w", logSQLStr, err)
	}

	return Config{
		AppEnv:   appEnv,
		LogLevel: level,
		HTTPAddr: envOr("HTTP_ADDR", ":8080"),

		MQTTBroker:      envOr("MQTT_BROKER", "localhost"),
		MQTTPort:        mqttPort,
		MQTTClientID:    envOr("MQTT_CLIENT_ID", "lorasense-formatter"),
		MQTTUplinkTopic: envOr("MQTT_UPLINK_TOPIC", "lora/+/uplink"),
		MQTTOutputTopic: envOr("MQTT_OUTPUT_TOPIC", "lora/formatted"),
		MQTTQoS:         byte(qos),

		DeviceProfile:     profile,
		DeviceSuffixLen:   suffixLen,
		UnknownTypePolicy: unknownPolicy,
		OutputMode:        outputMode,

		DeadLetterEnabled:     deadLetter,
		SQLiteDriver:          envOr("DB_DRIVER", "sqlite3"),
		SQLiteDSN:             strings.TrimSpace(os.Getenv("DB_DSN")),
		SQLitePath:            envOr("SQLITE_PATH", "../dev/sqlite/lorasense.db"),
		SQLiteMaxOpenConns:    maxOpenConns,
		SQLiteMaxIdleConns:    maxIdleConns,
		SQLiteConnMaxLifetime: connMaxLifetime,
		SQLiteLogSQL:          logSQL,
	}, nil
}

// envOr returns the trimmed value of key, or def when it is empty.
func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
