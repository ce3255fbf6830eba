package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Logging struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"logging"`
	Server struct {
		Addr                string `yaml:"addr"`
		ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
		WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
		IdleTimeoutSeconds  int    `yaml:"idle_timeout_seconds"`
	} `yaml:"server"`
	Kafka struct {
		Enabled     bool     `yaml:"enabled"`
		Brokers     []string `yaml:"brokers"`
		TradesTopic string   `yaml:"trades_topic"`
		DepthTopic  string   `yaml:"depth_topic"`
	} `yaml:"kafka"`
	Journal struct {
		Dir                  string `yaml:"dir"`
		SegmentSizeBytes     int64  `yaml:"segment_size_bytes"`
		SegmentRotateSeconds int    `yaml:"segment_rotate_seconds"`
	} `yaml:"journal"`
	Outbox struct {
		Dir string `yaml:"dir"`
	} `yaml:"outbox"`
	Feed struct {
		DepthIntervalMillis     int `yaml:"depth_interval_millis"`
		BroadcastIntervalMillis int `yaml:"broadcast_interval_millis"`
	} `yaml:"feed"`
}

func defaultConfig() Config {
	var c Config
	c.Logging.Level = "info"
	c.Logging.Pretty = false
	c.Server.Addr = ":8080"
	c.Server.ReadTimeoutSeconds = 5
	c.Server.WriteTimeoutSeconds = 10
	c.Server.IdleTimeoutSeconds = 60
	c.Kafka.Enabled = false
	c.Kafka.Brokers = []string{"localhost:9092"}
	c.Kafka.TradesTopic = "kestrel.trades"
	c.Kafka.DepthTopic = "kestrel.depth"
	c.Journal.Dir = "./data/journal"
	c.Journal.SegmentSizeBytes = 2 * 1024 * 1024
	c.Journal.SegmentRotateSeconds = 60
	c.Outbox.Dir = "./data/outbox"
	c.Feed.DepthIntervalMillis = 1000
	c.Feed.BroadcastIntervalMillis = 250
	return c
}

func Load() Config {
	_ = godotenv.Load()

	c := defaultConfig()
	if path := os.Getenv("KESTREL_CONFIG"); path != "" {
		if b, err := os.ReadFile(path); err == nil {
			_ = yaml.Unmarshal(b, &c)
		}
	}
	if v := os.Getenv("KESTREL_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("KESTREL_LOG_PRETTY"); v == "1" || v == "true" {
		c.Logging.Pretty = true
	}
	if v := os.Getenv("KESTREL_HTTP_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("KESTREL_KAFKA_ENABLED"); v == "1" || v == "true" {
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("KESTREL_KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitCSV(v)
	}
	if v := os.Getenv("KESTREL_TRADES_TOPIC"); v != "" {
		c.Kafka.TradesTopic = v
	}
	if v := os.Getenv("KESTREL_DEPTH_TOPIC"); v != "" {
		c.Kafka.DepthTopic = v
	}
	if v := os.Getenv("KESTREL_JOURNAL_DIR"); v != "" {
		c.Journal.Dir = v
	}
	if v := os.Getenv("KESTREL_OUTBOX_DIR"); v != "" {
		c.Outbox.Dir = v
	}
	if v := os.Getenv("KESTREL_JOURNAL_SEGMENT_BYTES"); v != "" {
		var n int64
		_, _ = fmt.Sscan(v, &n)
		if n > 0 {
			c.Journal.SegmentSizeBytes = n
		}
	}
	if v := os.Getenv("KESTREL_DEPTH_INTERVAL_MS"); v != "" {
		var n int
		_, _ = fmt.Sscan(v, &n)
		if n > 0 {
			c.Feed.DepthIntervalMillis = n
		}
	}
	return c
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
