// migrate runs DB migrations from embedded SQL; use with go run ./cmd/migrate.
package main

import (
	"flag"

	"sdr-juridico/backend/internal/config"
	"sdr-juridico/backend/internal/db/migrate"
	"sdr-juridico/backend/internal/logging"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.New("info", "text").Fatalf("config: %v", err)
	}
	log := logging.Component(logging.New(cfg.LogLevel, cfg.LogFormat), "migrate")
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	dir, err := migrate.ParseDirection(*direction)
	if err != nil {
		log.Fatal(err)
	}
	if err := migrate.Run(cfg.DatabaseURL, dir); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	v, dirty, err := migrate.Version(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Warn("read schema version")
		return
	}
	log.WithField("version", v).WithField("dirty", dirty).Info("migrations applied")
}
