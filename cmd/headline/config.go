package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Zachkp/portfolio/internal/headlines"
	"github.com/Zachkp/portfolio/internal/typewriter"
)

// previewConfig holds only the headline settings the site config carries.
type previewConfig struct {
	TypingSpeed   time.Duration       `mapstructure:"typing-speed"`
	DeletingSpeed time.Duration       `mapstructure:"deleting-speed"`
	PauseDuration time.Duration       `mapstructure:"pause-duration"`
	Headlines     map[string][]string `mapstructure:"headlines"`
}

func loadPreviewConfig(configPath string) (previewConfig, error) {
	var cfg previewConfig

	v := viper.New()
	v.SetEnvPrefix("PORTFOLIO")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("typing-speed", 120*time.Millisecond)
	v.SetDefault("deleting-speed", 60*time.Millisecond)
	v.SetDefault("pause-duration", 2*time.Second)
	v.SetDefault("headlines", headlines.Defaults())

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("reading %s: %w", configPath, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// engineConfig picks a headline set. Once-through previews stop on the
// last text instead of looping.
func (cfg previewConfig) engineConfig(name string, once bool) (typewriter.Config, error) {
	texts, ok := cfg.Headlines[name]
	if !ok {
		return typewriter.Config{}, fmt.Errorf("unknown headline set %q", name)
	}
	hc := typewriter.Config{
		Texts:         texts,
		TypingSpeed:   cfg.TypingSpeed,
		DeletingSpeed: cfg.DeletingSpeed,
		PauseDuration: cfg.PauseDuration,
		Loop:          !once,
	}
	return hc, hc.Validate()
}
