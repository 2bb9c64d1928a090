package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Zachkp/portfolio/internal/headlines"
	"github.com/Zachkp/portfolio/internal/typewriter"
)

const (
	defaultPort             = 8080
	defaultDBPath           = "portfolio.db"
	defaultTemplatesGlob    = "templates/*"
	defaultTypingSpeed      = 120 * time.Millisecond
	defaultDeletingSpeed    = 60 * time.Millisecond
	defaultPauseDuration    = 2 * time.Second
	defaultVisitorRetention = 365 * 24 * time.Hour
	defaultSMTPHost         = "smtp.gmail.com"
	defaultSMTPPort         = 587
)

type appConfig struct {
	Port          int    `mapstructure:"port"`
	DBPath        string `mapstructure:"db-path"`
	TemplatesGlob string `mapstructure:"templates-glob"`
	StaticDir     string `mapstructure:"static-dir"`
	ImagesDir     string `mapstructure:"images-dir"`

	AdminUsername    string        `mapstructure:"admin-username"`
	AdminPassword    string        `mapstructure:"admin-password"`
	VisitorRetention time.Duration `mapstructure:"visitor-retention"`

	LogLevel  string `mapstructure:"log-level"`
	LogPretty bool   `mapstructure:"log-pretty"`

	SMTPHost  string `mapstructure:"smtp-host"`
	SMTPPort  int    `mapstructure:"smtp-port"`
	SMTPUser  string `mapstructure:"smtp-user"`
	SMTPPass  string `mapstructure:"smtp-pass"`
	ContactTo string `mapstructure:"contact-to"`

	TypingSpeed   time.Duration       `mapstructure:"typing-speed"`
	DeletingSpeed time.Duration       `mapstructure:"deleting-speed"`
	PauseDuration time.Duration       `mapstructure:"pause-duration"`
	Headlines     map[string][]string `mapstructure:"headlines"`

	ConfigPath string `mapstructure:"-"`
}

// legacyEnv maps config keys to the plain environment names older .env
// files use.
var legacyEnv = map[string]string{
	"port":           "PORT",
	"admin-username": "ADMIN_USERNAME",
	"admin-password": "ADMIN_PASSWORD",
	"smtp-host":      "SMTP_HOST",
	"smtp-port":      "SMTP_PORT",
	"smtp-user":      "SMTP_USER",
	"smtp-pass":      "SMTP_PASS",
	"contact-to":     "TO_EMAIL",
}

func loadConfig(configPath string) (appConfig, error) {
	var cfg appConfig

	v := viper.New()
	v.SetEnvPrefix("PORTFOLIO")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	for key, legacy := range legacyEnv {
		prefixed := "PORTFOLIO_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return cfg, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	v.SetDefault("port", defaultPort)
	v.SetDefault("db-path", defaultDBPath)
	v.SetDefault("templates-glob", defaultTemplatesGlob)
	v.SetDefault("static-dir", "./static")
	v.SetDefault("images-dir", "./images")
	v.SetDefault("admin-username", "")
	v.SetDefault("admin-password", "")
	v.SetDefault("visitor-retention", defaultVisitorRetention)
	v.SetDefault("log-level", "info")
	v.SetDefault("log-pretty", false)
	v.SetDefault("smtp-host", defaultSMTPHost)
	v.SetDefault("smtp-port", defaultSMTPPort)
	v.SetDefault("smtp-user", "")
	v.SetDefault("smtp-pass", "")
	v.SetDefault("contact-to", "")
	v.SetDefault("typing-speed", defaultTypingSpeed)
	v.SetDefault("deleting-speed", defaultDeletingSpeed)
	v.SetDefault("pause-duration", defaultPauseDuration)
	v.SetDefault("headlines", headlines.Defaults())

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("reading %s: %w", configPath, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	cfg.ConfigPath = v.ConfigFileUsed()

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (cfg appConfig) validate() error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.SMTPPort <= 0 || cfg.SMTPPort > 65535 {
		return fmt.Errorf("invalid smtp-port: %d", cfg.SMTPPort)
	}
	if cfg.VisitorRetention <= 0 {
		return fmt.Errorf("invalid visitor-retention: %s", cfg.VisitorRetention)
	}
	if len(cfg.Headlines) == 0 {
		return errors.New("no headlines configured")
	}
	for name := range cfg.Headlines {
		if err := cfg.headline(name).Validate(); err != nil {
			return fmt.Errorf("headline %q: %w", name, err)
		}
	}
	return nil
}

// headline builds the engine config for a named headline set. Headlines
// loop unless the caller turns it off.
func (cfg appConfig) headline(name string) typewriter.Config {
	return typewriter.Config{
		Texts:         cfg.Headlines[name],
		TypingSpeed:   cfg.TypingSpeed,
		DeletingSpeed: cfg.DeletingSpeed,
		PauseDuration: cfg.PauseDuration,
		Loop:          true,
	}
}

func (cfg appConfig) addr() string {
	return ":" + strconv.Itoa(cfg.Port)
}
