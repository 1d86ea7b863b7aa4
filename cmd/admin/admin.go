package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/irsalhamdi/course-market/config"
	"github.com/irsalhamdi/course-market/database"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

var build = "develop"

type adminConfig struct {
	conf.Version
	Args conf.Args
	DB   config.DB
}

func main() {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if err := Run(log); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func Run(log *logrus.Logger) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	cfg := adminConfig{
		Version: conf.Version{
			Build: build,
			Desc:  "course market administration: migrate | seed",
		},
	}

	const prefix = "COURSEMKT"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	db, err := database.Open(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to open db connection: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := database.StatusCheck(ctx, db); err != nil {
		return err
	}

	switch cmd := cfg.Args.Num(0); cmd {
	case "migrate":
		if err := database.Migrate(db); err != nil {
			return err
		}
		log.Info("migrations complete")

	case "seed":
		if err := database.Migrate(db); err != nil {
			return err
		}
		n, err := seed(ctx, db)
		if err != nil {
			return err
		}
		log.WithField("rows", n).Info("seed complete")

	default:
		return fmt.Errorf("unknown command %q, expected migrate or seed", cmd)
	}
	return nil
}
