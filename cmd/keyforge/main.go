package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/joncooperworks/keyforge/crypto"
	"github.com/joncooperworks/keyforge/executor"
	"github.com/joncooperworks/keyforge/internal/cli"
)

func main() {
	var (
		configFile = flag.String("config", "", "Path to config file (default: keyforge.yaml if present)")
		operation  = flag.String("op", "", "Operation to run (required unless -list)")
		args       = flag.String("args", "", "Operation arguments as JSON, or @path to read them from a file")
		raw        = flag.Bool("raw", false, "Write byte and string results as-is instead of JSON")
		list       = flag.Bool("list", false, "List available operations and exit")
	)
	flag.Parse()

	if *list {
		for _, name := range executor.ListRegisteredOperations() {
			fmt.Println(name)
		}
		return
	}

	if *operation == "" {
		fmt.Fprintf(os.Stderr, "Error: -op is required\n")
		os.Exit(1)
	}

	argBytes, err := readArgs(*args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading arguments: %v\n", err)
		os.Exit(1)
	}

	app, err := cli.Bootstrap(cli.Options{
		ConfigFile: *configFile,
		Keystore:   needsKeystore(*operation),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := app.Executor.Execute(ctx, &executor.ExecuteRequest{
		Operation: *operation,
		Args:      argBytes,
	})
	if err != nil {
		app.Logger.Error().Err(err).Str("operation", *operation).Msg("operation failed")
		os.Exit(1)
	}

	if err := writeResult(res, *raw); err != nil {
		app.Logger.Error().Err(err).Msg("failed to write result")
		os.Exit(1)
	}
}

func readArgs(arg string) (json.RawMessage, error) {
	if path, ok := strings.CutPrefix(arg, "@"); ok {
		return os.ReadFile(path)
	}
	if arg == "" {
		return nil, nil
	}
	if !json.Valid([]byte(arg)) {
		return nil, fmt.Errorf("arguments are not valid JSON")
	}
	return json.RawMessage(arg), nil
}

func needsKeystore(op string) bool {
	switch op {
	case "store_key", "load_key", "list_keys", "delete_key":
		return true
	}
	return false
}

func writeResult(res *executor.ExecuteResult, raw bool) error {
	if raw {
		switch v := res.Result.(type) {
		case crypto.Secret:
			defer v.Wipe()
			_, err := os.Stdout.Write(v)
			return err
		case []byte:
			_, err := os.Stdout.Write(v)
			return err
		case string:
			_, err := fmt.Fprintln(os.Stdout, v)
			return err
		}
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
