package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/snowzach/rotatefilehook"

	"github.com/minerace/server/internal/app"
	"github.com/minerace/server/internal/config"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		ForceColors:   true,
		FullTimestamp: true,
	})
	if config.Development() {
		log.SetLevel(logrus.DebugLevel)
	}
	if path, ok := os.LookupEnv("LOG_FILE"); ok {
		hook, err := rotatefilehook.NewRotateFileHook(rotatefilehook.RotateFileConfig{
			Filename:   path,
			MaxSize:    50, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Level:      logrus.InfoLevel,
			Formatter:  &logrus.JSONFormatter{},
		})
		if err != nil {
			log.Fatal("unable to set up log file: ", err)
		}
		log.AddHook(hook)
	}

	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	a, err := app.New(ctx, log)
	if err != nil {
		log.Fatal("unable to start: ", err)
	}
	if err := a.Start(ctx); err != nil {
		log.Fatal(err)
	}
}
