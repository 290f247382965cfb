package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/snooze/pkg/auth"
	"github.com/platinummonkey/snooze/pkg/cli"
	"github.com/platinummonkey/snooze/pkg/config"
	"github.com/platinummonkey/snooze/pkg/storage/sqlstore"
)

func main() {
	configPath := flag.String("config", os.Getenv(config.ConfigFileEnv), "Path to a YAML config file")
	flag.Parse()

	open := func() (*cli.Admin, error) {
		cfg, err := config.Load(*configPath)
		if err != nil {
			return nil, err
		}

		logger := logrus.New()
		logger.SetOutput(os.Stderr)
		if level, err := logrus.ParseLevel(cfg.Observability.LogLevel); err == nil {
			logger.SetLevel(level)
		}

		codec, err := auth.NewTokenCodec(cfg.TokenConfig())
		if err != nil {
			return nil, err
		}
		hasher, err := auth.NewPasswordHasher(cfg.PasswordConfig())
		if err != nil {
			return nil, err
		}
		store, err := sqlstore.Open(cfg.StoreConfig(), sqlstore.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return &cli.Admin{Store: store, Hasher: hasher, Codec: codec, Out: os.Stdout}, nil
	}

	if err := cli.NewRootCommand(open).ExecuteArgs(flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
