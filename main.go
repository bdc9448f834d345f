package main

import (
	"log"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/pratham-garg-456/Network-Monitor/cmd"
	"github.com/pratham-garg-456/Network-Monitor/util"
)

var Version string
var Buildtime string
var Commit string

func main() {
	err := setupSentry()
	if err != nil {
		log.Fatalf("sentry init failed: %s", err)
	}

	appVersion := "local"
	if Version != "" {
		appVersion = Version
	}

	appBuildtime, _ := time.Parse(time.RFC3339, Buildtime)

	exitCode := cmd.Execute(cmd.ExecuteParams{
		Version:  appVersion,
		Compiled: appBuildtime,
	})

	// os.Exit skips deferred calls
	flushSentry()

	os.Exit(exitCode)
}

func setupSentry() error {
	dsn := os.Getenv("SENTRY_DSN")
	if dsn == "" {
		return nil
	}

	environment := os.Getenv("SENTRY_ENVIRONMENT")
	if environment == "" {
		environment = "local"
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Debug:            util.Truthy(os.Getenv("SENTRY_DEBUG")),
		TracesSampleRate: 1.0,
		EnableTracing:    true,
		Environment:      environment,
		Release:          Commit,
	})
	if err != nil {
		return err
	}

	return nil
}

func flushSentry() {
	// flush buffered events before the program terminates
	sentry.Flush(2 * time.Second)
}
