package app

import (
	"errors"
	"fmt"

	"github.com/vk/bbpatcher/internal/preload"
)

// Command names one operation of the tool.
type Command string

const (
	CmdDetect  Command = "detect"
	CmdCheck   Command = "check"
	CmdPatch   Command = "patch4gb"
	CmdPreload Command = "preload"
	CmdAll     Command = "all"
)

// Commands lists every command in the order they are documented.
var Commands = []Command{CmdDetect, CmdCheck, CmdPatch, CmdPreload, CmdAll}

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Command Command
	// GamePath is the game directory or the executable itself.
	GamePath string
	AllowDRM bool
	// Strict refuses to patch an executable that matches no known build.
	Strict bool

	ModsPath    string // default <game>/mods
	OutputPath  string // default <game>/data/~mod_msu_launcher.zip
	Compression preload.Compression

	// SignaturesPath is an optional extra signature database.
	SignaturesPath string

	LogFormat string
	LogLevel  string
	NoColor   bool
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.GamePath == "" {
		return nil, errors.New("GamePath is a required configuration field and cannot be empty")
	}
	if !cfg.Command.valid() {
		return nil, fmt.Errorf("unknown command %q", cfg.Command)
	}
	switch cfg.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log level %q", cfg.LogLevel)
	}
	switch cfg.LogFormat {
	case "", "text", "json":
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.LogFormat)
	}
	return &cfg, nil
}

func (c Command) valid() bool {
	for _, known := range Commands {
		if c == known {
			return true
		}
	}
	return false
}

// Patches reports whether the command touches the executable.
func (c Command) Patches() bool { return c == CmdPatch || c == CmdAll }

// Packages reports whether the command builds the preload archive.
func (c Command) Packages() bool { return c == CmdPreload || c == CmdAll }
