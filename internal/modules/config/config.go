package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	chatIDTelegramENV = "TELEGRAM_CHAT_ID"
	databaseDSN       = "DATABASE_DSN"
)

// Config ...
type Config struct {
	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
	DB      string `yaml:"db_dsn"`
	Service struct {
		Host      string `yaml:"host"`
		AdminPort int    `yaml:"admin_port"`
	} `yaml:"service"`
	Jaeger struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"jaeger"`

	// Вселенная сканера: фиксированный список символов провайдера.
	// Порядок важен — батч алертов собирается в порядке обхода.
	Universe []string `yaml:"universe"`

	// MACD: канонические 12/26/9
	FastPeriod   int `yaml:"fast_period"`
	SlowPeriod   int `yaml:"slow_period"`
	SignalPeriod int `yaml:"signal_period"`

	// Сканирование / алерты
	ScanInterval     time.Duration // период автоскана
	AlertCooldown    time.Duration // минимум между успешными отправками
	FetchConcurrency int           // параллельных запросов к провайдеру
	ProviderRPM      int           // лимит запросов в минуту
	ProviderBaseURL  string        // переопределяется в тестах
}

func NewConfig() (*Config, error) {

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	file, err := os.Open("configs/" + configFileName)
	if err != nil {
		log.Fatalf("Failed to open config file: %v", err)
	}

	defer func() {
		_ = file.Close()
	}()

	decoder := yaml.NewDecoder(file)
	config := Config{
		FastPeriod:   intFromEnv("MACD_FAST", 12),
		SlowPeriod:   intFromEnv("MACD_SLOW", 26),
		SignalPeriod: intFromEnv("MACD_SIGNAL", 9),

		ScanInterval:     durationFromEnv("SCAN_INTERVAL", "15m"),
		AlertCooldown:    durationFromEnv("ALERT_COOLDOWN", "45m"),
		FetchConcurrency: intFromEnv("FETCH_CONCURRENCY", 8),
		ProviderRPM:      intFromEnv("PROVIDER_RPM", 120),
		ProviderBaseURL:  getenvDefault("PROVIDER_BASE_URL", "https://query1.finance.yahoo.com"),
	}
	err = decoder.Decode(&config)
	if err != nil {
		log.Fatalf("Failed to decode config file: %v", err)
	}

	token := os.Getenv(tokenTelegramENV)
	if token != "" {
		config.Telegram.Token = token
	}
	if v := os.Getenv(chatIDTelegramENV); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.Telegram.ChatID = id
		}
	}

	dsn := os.Getenv(databaseDSN)
	if dsn != "" {
		config.DB = dsn
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate — кривые периоды или пустая вселенная это фатальная ошибка
// конфигурации, а не пропуск инструмента.
func (c *Config) Validate() error {
	if c.FastPeriod <= 0 || c.SlowPeriod <= 0 || c.SignalPeriod <= 0 {
		return fmt.Errorf("macd periods must be positive: fast=%d slow=%d signal=%d",
			c.FastPeriod, c.SlowPeriod, c.SignalPeriod)
	}
	if c.FastPeriod >= c.SlowPeriod {
		return fmt.Errorf("fast period %d must be less than slow period %d", c.FastPeriod, c.SlowPeriod)
	}
	if len(c.Universe) == 0 {
		return fmt.Errorf("universe is empty")
	}
	if c.FetchConcurrency <= 0 {
		c.FetchConcurrency = 8
	}
	return nil
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationFromEnv(key, def string) time.Duration {
	val := getenvDefault(key, def)
	d, err := time.ParseDuration(val)
	if err != nil {
		d, _ = time.ParseDuration(def)
	}
	return d
}
