// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
	"github.com/poiesic/qamatch"
	"github.com/poiesic/qamatch/config"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		charmlog.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "qamatch",
		Usage: "Hybrid lexical and semantic question matching",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to qamatch.yaml (default: search ./ and the user config dir)",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory (overrides db.path)",
			},
			&cli.StringFlag{
				Name:  "ai-backend",
				Usage: "Embedding backend, openai or local (overrides ai.backend)",
			},
			&cli.StringFlag{
				Name:  "embedding-host",
				Usage: "Embedding service host URL (overrides ai.host)",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name (overrides ai.model)",
			},
			&cli.IntFlag{
				Name:  "dimension",
				Usage: "Expected embedding dimension, 0 adopts the stored one (overrides ai.dimension)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			serveCommand(),
			askCommand(),
			importCommand(),
			reembedCommand(),
			reviewCommand(),
			memoryCommand(),
		},
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level charmlog.Level
	switch levelStr {
	case "debug":
		level = charmlog.DebugLevel
	case "info":
		level = charmlog.InfoLevel
	case "warn":
		level = charmlog.WarnLevel
	case "error":
		level = charmlog.ErrorLevel
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	handler := charmlog.NewWithOptions(errWriter(c), charmlog.Options{
		Level:           level,
		ReportTimestamp: true,
	})
	slog.SetDefault(slog.New(handler))
	return nil
}

// loadConfig reads the config file and applies global flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("db") {
		cfg.DB.Path = c.String("db")
	}
	if c.IsSet("ai-backend") {
		cfg.AI.Backend = c.String("ai-backend")
	}
	if c.IsSet("embedding-host") {
		cfg.AI.Host = c.String("embedding-host")
	}
	if c.IsSet("embedding-model") {
		cfg.AI.Model = c.String("embedding-model")
	}
	if c.IsSet("dimension") {
		cfg.AI.Dimension = c.Int("dimension")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openDatabase(c *cli.Context) (*qamatch.Database, *config.Config, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	db, err := qamatch.NewDatabase(cfg.DB.Path,
		qamatch.WithAIConfig(cfg.AIConfig()),
		qamatch.WithStemming(cfg.DB.Stemming),
		qamatch.WithLogger(slog.Default()))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, cfg, nil
}

func outWriter(c *cli.Context) io.Writer {
	if c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}

func errWriter(c *cli.Context) io.Writer {
	if c.App.ErrWriter != nil {
		return c.App.ErrWriter
	}
	return os.Stderr
}
