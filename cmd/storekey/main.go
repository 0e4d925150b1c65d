package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/joncooperworks/keyforge/crypto"
	"github.com/joncooperworks/keyforge/executor"
	"github.com/joncooperworks/keyforge/internal/cli"
)

func main() {
	var (
		configFile     = flag.String("config", "", "Path to config file")
		privateKeyPath = flag.String("key", "", "Path to private key file to import")
		publicKeyPath  = flag.String("public", "", "Path to public key file to import")
		format         = flag.String("format", "Pkcs8Pem", "Format of the key files")
		algorithm      = flag.String("algorithm", "", "Free-form key description, e.g. rsa-2048")
		keystoreKeyID  = flag.String("keystore-key", "", "Key ID in the keystore (default: random UUID)")
	)
	flag.Parse()

	if *privateKeyPath == "" && *publicKeyPath == "" {
		fmt.Fprintf(os.Stderr, "Error: -key or -public is required\n")
		os.Exit(1)
	}

	f, err := crypto.ParseFormat(*format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	args := map[string]any{"id": *keystoreKeyID, "format": f, "algorithm": *algorithm}
	if *privateKeyPath != "" {
		privateKey, err := loadKey(*privateKeyPath, f)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading private key: %v\n", err)
			os.Exit(1)
		}
		defer privateKey.Wipe()
		args["privateKey"] = privateKey
	}
	if *publicKeyPath != "" {
		publicKey, err := os.ReadFile(*publicKeyPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading public key: %v\n", err)
			os.Exit(1)
		}
		args["publicKey"] = publicKey
	}

	app, err := cli.Bootstrap(cli.Options{ConfigFile: *configFile, Keystore: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	raw, err := json.Marshal(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding request: %v\n", err)
		os.Exit(1)
	}
	res, err := app.Executor.Execute(context.Background(), &executor.ExecuteRequest{Operation: "store_key", Args: raw})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error storing key in keystore: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Key imported successfully:\n")
	if *privateKeyPath != "" {
		fmt.Printf("  Private key: %s\n", *privateKeyPath)
	}
	if *publicKeyPath != "" {
		fmt.Printf("  Public key: %s\n", *publicKeyPath)
	}
	fmt.Printf("  Keystore ID: %s\n", res.Result)
	fmt.Printf("  Note: You can now delete the key files for security\n")
}

// loadKey reads a private key file and checks that it decodes in format f.
func loadKey(path string, f crypto.AsymmetricKeyFormat) (crypto.Secret, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key file: %w", err)
	}
	key, err := crypto.DecodePrivateKey(data, f)
	if err != nil {
		crypto.Secret(data).Wipe()
		return nil, err
	}
	crypto.WipePrivateKey(key)
	return data, nil
}
