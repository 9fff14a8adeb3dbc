package config

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfighcl"
)

type Config struct {
	DBDriver        string        `hcl:"db_driver" env:"DB_DRIVER" default:"postgres"`
	DBName          string        `hcl:"db_name" env:"DB_NAME"`
	DBUser          string        `hcl:"db_user" env:"DB_USER"`
	DBPassword      string        `hcl:"db_password" env:"DB_PASSWORD"`
	DBHost          string        `hcl:"db_host" env:"DB_HOST" default:"localhost"`
	DBPort          string        `hcl:"db_port" env:"DB_PORT" default:"5432"`
	DBSSLMode       string        `hcl:"db_sslmode" env:"DB_SSLMODE" default:"disable"`
	DBPath          string        `hcl:"db_path" env:"DB_PATH" default:"news.db"`
	HTTPAddr        string        `hcl:"http_addr" env:"HTTP_ADDR" default:"127.0.0.1:8088"`
	LogLevel        string        `hcl:"log_level" env:"LOG_LEVEL" default:"info"`
	LogFile         string        `hcl:"log_file" env:"LOG_FILE"`
	NLPBackend      string        `hcl:"nlp_backend" env:"NLP_BACKEND" default:"prose"`
	AIBaseURL       string        `hcl:"ai_base_url" env:"AI_BASE_URL"`
	AIKey           string        `hcl:"ai_key" env:"AI_KEY"`
	AIModel         string        `hcl:"ai_model" env:"AI_MODEL" default:"llama3"`
	AITimeout       time.Duration `hcl:"ai_timeout" env:"AI_TIMEOUT" default:"2m"`
	AIRPS           float64       `hcl:"ai_rps" env:"AI_RPS" default:"2"`
	TopicCount      int           `hcl:"topic_count" env:"TOPIC_COUNT" default:"8"`
	TopicSampleSize int           `hcl:"topic_sample_size" env:"TOPIC_SAMPLE_SIZE" default:"1000"`
	PopularMaxRows  int           `hcl:"popular_max_rows" env:"POPULAR_MAX_ROWS" default:"100"`
	TrackingDir     string        `hcl:"tracking_dir" env:"TRACKING_DIR" default:"./mlruns"`
}

// DSN returns the data source name for the configured driver.
func (c Config) DSN() string {
	if c.DBDriver == "sqlite" {
		return "file:" + c.DBPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
	}

	port := c.DBPort
	if port == "" {
		port = "5432"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, port),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": {c.DBSSLMode}}.Encode(),
	}
	return u.String()
}

func (c Config) Validate() error {
	switch c.DBDriver {
	case "postgres":
		if c.DBName == "" {
			return fmt.Errorf("db_name is required when db_driver is %q", c.DBDriver)
		}
	case "sqlite":
		if c.DBPath == "" {
			return fmt.Errorf("db_path is required when db_driver is %q", c.DBDriver)
		}
	default:
		return fmt.Errorf("unknown db_driver %q", c.DBDriver)
	}

	switch c.NLPBackend {
	case "prose", "lexical":
	case "openai":
		if c.AIKey == "" {
			return fmt.Errorf("ai_key is required when nlp_backend is %q", c.NLPBackend)
		}
	case "ollama":
		if c.AIBaseURL == "" {
			return fmt.Errorf("ai_base_url is required when nlp_backend is %q", c.NLPBackend)
		}
	default:
		return fmt.Errorf("unknown nlp_backend %q", c.NLPBackend)
	}

	return nil
}

var (
	cfg  Config
	once sync.Once
)

var files = []string{"./config.hcl", "./config.local.hcl", "$HOME/.config/newsinsight/config.hcl"}

func Get() Config {
	once.Do(func() {
		var err error
		if cfg, err = Load(files...); err != nil {
			slog.Error("failed to load config", "err", err)
		}
	})

	return cfg
}

// Load reads defaults, then the given HCL files, then the environment.
func Load(files ...string) (Config, error) {
	var c Config
	loader := aconfig.LoaderFor(&c, aconfig.Config{
		SkipFlags: true,
		SkipFiles: len(files) == 0,
		Files:     files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".hcl": aconfighcl.New(),
		},
	})

	err := loader.Load()
	return c, err
}
