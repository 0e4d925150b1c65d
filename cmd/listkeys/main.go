package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joncooperworks/keyforge/executor"
	"github.com/joncooperworks/keyforge/internal/cli"
)

func main() {
	configFile := flag.String("config", "", "Path to config file")
	flag.Parse()

	app, err := cli.Bootstrap(cli.Options{ConfigFile: *configFile, Keystore: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	res, err := app.Executor.Execute(context.Background(), &executor.ExecuteRequest{Operation: "list_keys"})
	if err != nil {
		app.Logger.Error().Err(err).Msg("failed to list keys")
		os.Exit(1)
	}

	keys := res.Result.([]string)
	if len(keys) == 0 {
		fmt.Println("No keys found in keystore")
		return
	}

	fmt.Printf("Keys in keystore (%d):\n", len(keys))
	for _, keyID := range keys {
		fmt.Printf("  - %s\n", keyID)
	}
}
