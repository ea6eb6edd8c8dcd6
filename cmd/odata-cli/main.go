package main

import (
	"context"
	"os"

	"github.com/diwise/service-chassis/pkg/infrastructure/buildinfo"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
)

const (
	appName string = "odata-cli"
)

func main() {
	appVersion := buildinfo.SourceVersion()

	ctx, log, cleanup := o11y.Init(context.Background(), appName, appVersion, "json")

	rootCmd := newRootCommand(appVersion)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error("command failed", "err", err.Error())
		cleanup()
		os.Exit(1)
	}

	cleanup()
}
