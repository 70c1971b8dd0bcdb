package main

import (
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	NumberOfRooms   = 6
	DefaultChatPort = "53463"
	DefaultApiPort  = "8081"

	defaultOutboundQueueSize = 256
	defaultSendTimeout       = 2 * time.Second
	defaultWriteTimeout      = 10 * time.Second
	apiDisabled              = "off"
)

type Config struct {
	IP      string
	Port    string
	ApiPort string

	HistoryBackend string
	HistoryDir     string
	SqlitePath     string

	OutboundQueueSize int
	SendTimeout       time.Duration
	WriteTimeout      time.Duration

	CORSAllow []string
}

func LoadConfig(logger *log.Logger) *Config {
	config := &Config{
		IP:                getEnv(logger, "CHAT_SERVER_IP", ""),
		Port:              getEnv(logger, "CHAT_SERVER_PORT", DefaultChatPort),
		HistoryBackend:    getEnv(logger, "HISTORY_BACKEND", HistoryBackendFile),
		HistoryDir:        getEnv(logger, "HISTORY_DIR", "."),
		SqlitePath:        getEnv(logger, "HISTORY_SQLITE_PATH", "chat_history.db"),
		OutboundQueueSize: getEnvInt(logger, "OUTBOUND_QUEUE_SIZE", defaultOutboundQueueSize),
		SendTimeout:       getEnvDuration(logger, "SEND_TIMEOUT", defaultSendTimeout),
		WriteTimeout:      getEnvDuration(logger, "WRITE_TIMEOUT", defaultWriteTimeout),
		CORSAllow:         splitCSV(getEnv(logger, "CORS_ALLOW", "*")),
	}
	// an explicitly empty API_SERVER_PORT turns the API off, same as "off"
	if port, ok := os.LookupEnv("API_SERVER_PORT"); ok {
		config.ApiPort = strings.TrimSpace(port)
		if config.ApiPort == "" {
			config.ApiPort = apiDisabled
		}
	} else {
		logger.Printf("API_SERVER_PORT not specified. using default %s", DefaultApiPort)
		config.ApiPort = DefaultApiPort
	}
	return config
}

func (c *Config) ChatAddress() string {
	return net.JoinHostPort(c.IP, c.Port)
}

func (c *Config) ApiEnabled() bool {
	return c.ApiPort != "" && c.ApiPort != apiDisabled
}

func (c *Config) ApiAddress() string {
	return net.JoinHostPort(c.IP, c.ApiPort)
}

func getEnv(logger *log.Logger, key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if def != "" {
		logger.Printf("%s not specified. using default %s", key, def)
	}
	return def
}

func getEnvInt(logger *log.Logger, key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		logger.Printf("invalid %s %q. using default %d", key, v, def)
		return def
	}
	return i
}

func getEnvDuration(logger *log.Logger, key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		logger.Printf("invalid %s %q. using default %s", key, v, def)
		return def
	}
	return d
}

// splitCSV trims and filters a comma-separated list
func splitCSV(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
