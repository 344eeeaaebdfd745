package main

import (
	"github.com/sirupsen/logrus"

	"github.com/minerace/server/internal/config"
	"github.com/minerace/server/internal/database"
)

func main() {
	log := logrus.New()

	url, err := config.DbURL()
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(url); err != nil {
		log.Fatal(err)
	}
	log.Info("migrations applied")
}
