// Command headline previews a configured headline in the terminal.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/Zachkp/portfolio/internal/typewriter"
)

func main() {
	var configPath string
	var setName string
	var once bool
	var logPath string

	flag.StringVar(&configPath, "config", "", "optional YAML config file shared with the site")
	flag.StringVar(&setName, "set", "home", "headline set to preview")
	flag.BoolVar(&once, "once", false, "play the set once and exit on the last text")
	flag.StringVar(&logPath, "log", "", "write engine logs to this file")
	flag.Parse()

	cfg, err := loadPreviewConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, setName, once, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg previewConfig, name string, once bool, logPath string) error {
	hc, err := cfg.engineConfig(name, once)
	if err != nil {
		return err
	}

	log := zerolog.Nop()
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		log = zerolog.New(f).With().Timestamp().Str("headline", name).Logger()
	}

	p := tea.NewProgram(newPreviewModel(name, typewriter.State{Phase: typewriter.Typing}, once), tea.WithAltScreen())
	engine, err := typewriter.New(hc,
		typewriter.WithLogger(log),
		typewriter.WithSubscriber(func(st typewriter.State) {
			// Send gives up once Run has returned
			p.Send(frameMsg(st))
		}),
	)
	if err != nil {
		return err
	}
	defer engine.Dispose()

	if _, err := p.Run(); err != nil {
		if strings.Contains(err.Error(), "TTY") || strings.Contains(err.Error(), "/dev/tty") {
			return fmt.Errorf("headline preview requires a real terminal")
		}
		return fmt.Errorf("error running preview: %w", err)
	}
	return nil
}
