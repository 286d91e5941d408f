package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/language"

	"bizquiz/internal/advice"
	"bizquiz/internal/quiz"
)

// Config holds the full application configuration.
type Config struct {
	API         APIConfig         `yaml:"api" mapstructure:"api"`
	Quiz        QuizConfig        `yaml:"quiz" mapstructure:"quiz"`
	Advice      AdviceConfig      `yaml:"advice" mapstructure:"advice"`
	Credentials CredentialsConfig `yaml:"credentials" mapstructure:"credentials"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Anthropic   AnthropicConfig   `yaml:"anthropic" mapstructure:"anthropic"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// APIConfig points the client at the quiz backend.
type APIConfig struct {
	BaseURL            string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout            time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Retries            int           `yaml:"retries" mapstructure:"retries"`
	SkipBrowserWarning bool          `yaml:"skip_browser_warning" mapstructure:"skip_browser_warning"`
}

type QuizConfig struct {
	Scoring   string `yaml:"scoring" mapstructure:"scoring"`
	Language  string `yaml:"language" mapstructure:"language"`
	BandsFile string `yaml:"bands_file" mapstructure:"bands_file"`
}

// AdviceConfig configures the advice gate shown after a finished test.
type AdviceConfig struct {
	Mode              string `yaml:"mode" mapstructure:"mode"`
	PrimaryName       string `yaml:"primary_name" mapstructure:"primary_name"`
	PrimaryLink       string `yaml:"primary_link" mapstructure:"primary_link"`
	SecondaryName     string `yaml:"secondary_name" mapstructure:"secondary_name"`
	SecondaryLink     string `yaml:"secondary_link" mapstructure:"secondary_link"`
	Unanswered        string `yaml:"unanswered" mapstructure:"unanswered"`
	CheckSubscription bool   `yaml:"check_subscription" mapstructure:"check_subscription"`
	TemplateFile      string `yaml:"template_file" mapstructure:"template_file"`
}

type CredentialsConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the reference backend.
type ServerConfig struct {
	Port            int      `yaml:"port" mapstructure:"port"`
	Database        string   `yaml:"database" mapstructure:"database"`
	AdminToken      string   `yaml:"admin_token" mapstructure:"admin_token"`
	AllowedOrigins  []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	AIRatePerMinute int      `yaml:"ai_rate_per_minute" mapstructure:"ai_rate_per_minute"`
	SeedFile        string   `yaml:"seed_file" mapstructure:"seed_file"`
}

type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads .env, config.yaml and QUIZ_* environment variables, in
// increasing order of precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, eris.Wrap(err, "config: read .env")
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("QUIZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("api.base_url", "http://127.0.0.1:8080")
	v.SetDefault("api.timeout", "10s")
	v.SetDefault("api.retries", 3)
	v.SetDefault("api.skip_browser_warning", true)
	v.SetDefault("quiz.scoring", string(quiz.VariantWeighted))
	v.SetDefault("quiz.language", "uz")
	v.SetDefault("quiz.bands_file", "")
	v.SetDefault("advice.mode", string(advice.ModeStatic))
	v.SetDefault("advice.primary_name", "Telegram")
	v.SetDefault("advice.primary_link", "https://t.me/testvibina")
	v.SetDefault("advice.secondary_name", "Instagram")
	v.SetDefault("advice.secondary_link", "https://instagram.com/testvibina")
	v.SetDefault("advice.unanswered", advice.DefaultUnanswered)
	v.SetDefault("advice.check_subscription", false)
	v.SetDefault("advice.template_file", "")
	v.SetDefault("credentials.path", defaultCredentialsPath())
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.database", "bizquiz.db")
	v.SetDefault("server.admin_token", "")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.ai_rate_per_minute", 30)
	v.SetDefault("server.seed_file", "")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks enumerated settings before anything is built from them.
func (c *Config) Validate() error {
	if _, err := quiz.ParseVariant(c.Quiz.Scoring); err != nil {
		return eris.Wrap(err, "config: quiz.scoring")
	}
	if _, err := advice.ParseMode(c.Advice.Mode); err != nil {
		return eris.Wrap(err, "config: advice.mode")
	}
	if c.Quiz.Language != "" {
		if _, err := language.Parse(c.Quiz.Language); err != nil {
			return eris.Wrapf(err, "config: quiz.language %q", c.Quiz.Language)
		}
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return eris.Errorf("config: log.format must be json or console, got %q", c.Log.Format)
	}
	if c.API.Timeout <= 0 {
		return eris.New("config: api.timeout must be positive")
	}
	if c.API.Retries < 1 {
		return eris.New("config: api.retries must be at least 1")
	}
	return nil
}

// Variant returns the validated scoring variant.
func (c *Config) Variant() quiz.Variant {
	variant, err := quiz.ParseVariant(c.Quiz.Scoring)
	if err != nil {
		return quiz.VariantWeighted
	}
	return variant
}

// Language returns the configured question and feedback language.
func (c *Config) Language() language.Tag {
	tag, err := language.Parse(c.Quiz.Language)
	if err != nil {
		return language.Uzbek
	}
	return tag
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

func defaultCredentialsPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".bizquiz", "credentials.yaml")
	}
	return filepath.Join(home, ".bizquiz", "credentials.yaml")
}
