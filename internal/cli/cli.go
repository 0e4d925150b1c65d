// Package cli wires configuration, logging, the keystore and the executor for the keyforge commands.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/joncooperworks/keyforge/crypto/keystore"
	"github.com/joncooperworks/keyforge/executor"
	"github.com/joncooperworks/keyforge/internal/config"
	"github.com/joncooperworks/keyforge/internal/logging"
)

// App is a configured command environment.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Executor *executor.Executor
}

// Options controls Bootstrap.
type Options struct {
	// ConfigFile is passed to config.Load.
	ConfigFile string
	// Keystore opens the configured keystore and enables the key storage operations.
	Keystore bool
	// Stderr receives logs and the password prompt. Defaults to os.Stderr.
	Stderr io.Writer
	// Stdin is read for the keystore password. Defaults to os.Stdin.
	Stdin *os.File
}

// Bootstrap loads the configuration and builds the logger and executor.
func Bootstrap(opts Options) (*App, error) {
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}

	cfg, err := config.Load(config.Options{ConfigFile: opts.ConfigFile})
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(opts.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	execOpts := []executor.Option{
		executor.WithWorkers(cfg.Executor.Workers),
		executor.WithTimeout(cfg.Executor.Timeout),
		executor.WithLogger(logger),
	}

	if opts.Keystore {
		ksCfg := cfg.KeystoreConfig()
		if ksCfg.FileDir != "" && ksCfg.Password == "" {
			ksCfg.Password, err = promptPassword(opts.Stdin, opts.Stderr)
			if err != nil {
				return nil, err
			}
		}
		ks, err := keystore.NewKeystore(ksCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create keystore: %w", err)
		}
		logger.Debug().Str("backend", ksCfg.Backend).Str("service", ksCfg.ServiceName).Msg("keystore opened")
		execOpts = append(execOpts, executor.WithKeystore(ks))
	}

	return &App{
		Config:   cfg,
		Logger:   logger,
		Executor: executor.New(execOpts...),
	}, nil
}

// promptPassword reads the file keystore password without echo.
func promptPassword(in *os.File, out io.Writer) (string, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("keystore password not configured and stdin is not a terminal")
	}
	fmt.Fprint(out, "Keystore password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read keystore password: %w", err)
	}
	return string(pw), nil
}
