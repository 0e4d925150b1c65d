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
		keyType        = flag.String("type", "ecc", "Key family: rsa, ecc or edwards")
		keySize        = flag.Int("size", 2048, "RSA modulus size in bits")
		curve          = flag.String("curve", "nistp256", "Curve for ecc (nistp256, nistp384, nistp521) or edwards (ed25519, x25519)")
		format         = flag.String("format", "Pkcs8Pem", "Key format: Pkcs1Pem, Pkcs1Der, Pkcs8Pem or Pkcs8Der")
		privateKeyPath = flag.String("private", "private.pem", "Path to save private key")
		publicKeyPath  = flag.String("public", "public.pem", "Path to save public key")
	)
	flag.Parse()

	f, err := crypto.ParseFormat(*format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var genOp, deriveOp string
	genArgs := map[string]any{"format": f}
	switch *keyType {
	case "rsa":
		genOp, deriveOp = "generate_rsa", "derive_rsa"
		genArgs["keySize"] = *keySize
	case "ecc":
		genOp, deriveOp = "generate_ecc", "derive_ecc"
		genArgs["curve"] = *curve
	case "edwards":
		genOp, deriveOp = "generate_edwards", "derive_edwards"
		genArgs["curve"] = *curve
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown key type %q\n", *keyType)
		os.Exit(1)
	}

	app, err := cli.Bootstrap(cli.Options{ConfigFile: *configFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	ctx := context.Background()

	res, err := run(ctx, app.Executor, genOp, genArgs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating key: %v\n", err)
		os.Exit(1)
	}
	privateKey := res.(crypto.Secret)
	defer privateKey.Wipe()

	res, err = run(ctx, app.Executor, deriveOp, map[string]any{"key": privateKey, "format": f})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error deriving public key: %v\n", err)
		os.Exit(1)
	}
	publicKey := res.([]byte)

	if err := os.WriteFile(*privateKeyPath, privateKey, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing private key: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*publicKeyPath, publicKey, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing public key: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Keys generated successfully:\n")
	fmt.Printf("  Format: %s\n", f)
	fmt.Printf("  Private key: %s\n", *privateKeyPath)
	fmt.Printf("  Public key: %s\n", *publicKeyPath)
}

func run(ctx context.Context, e *executor.Executor, op string, args map[string]any) (any, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	res, err := e.Execute(ctx, &executor.ExecuteRequest{Operation: op, Args: raw})
	if err != nil {
		return nil, err
	}
	return res.Result, nil
}
