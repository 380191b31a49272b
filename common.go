// ABOUTME: Shared initialization code for all commands
// ABOUTME: Provides config loading, logging setup, API session creation and display helpers

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"diversify/config"
	"diversify/spotify"
)

const debugLogFile = "diversify-debug.log"

// GlobalOptions holds the persistent flags shared by every command
type GlobalOptions struct {
	ConfigPath string
	Debug      bool
}

// usageError marks errors caused by bad flags, arguments or configuration
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// exitCode maps a command error to the process exit status
func exitCode(err error) int {
	var ue usageError

	switch {
	case err == nil:
		return 0
	case errors.As(err, &ue), errors.Is(err, spotify.ErrNoCredentials), errors.Is(err, spotify.ErrNotLoggedIn):
		return 2
	default:
		return 1
	}
}

// loadConfig reads the config file named by the flags, or the default location
func loadConfig(opts GlobalOptions) (config.Config, error) {
	path := opts.ConfigPath
	if path == "" {
		path = config.GetConfigPath()
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return config.Config{}, usageError{err}
	}

	if err := cfg.GA.Validate(); err != nil {
		return config.Config{}, usageError{fmt.Errorf("invalid [ga] settings in %s: %w", path, err)}
	}

	return cfg, nil
}

// SetupLogger returns the process logger: debug level to the debug log file
// when enabled, warnings and above to stderr otherwise. The returned closer
// releases the log file.
func SetupLogger(debug bool) (*slog.Logger, io.Closer, error) {
	if !debug {
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})
		return slog.New(handler), io.NopCloser(nil), nil
	}

	f, err := os.Create(debugLogFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create debug log file: %w", err)
	}

	if isTTY(os.Stdout) {
		fmt.Printf("Debug logging enabled: %s\n", debugLogFile)
	}

	handler := slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})

	return slog.New(handler), f, nil
}

// newSession builds an authenticated API client from the cached token
func newSession(ctx context.Context, cfg config.Config, logger *slog.Logger) (*spotify.Client, error) {
	conf, err := spotify.OAuthConfig(cfg.Spotify)
	if err != nil {
		return nil, err
	}

	httpClient, err := spotify.NewTokenStore(cfg.Paths.TokenCache).HTTPClient(ctx, conf)
	if err != nil {
		return nil, err
	}

	return spotify.NewClient(httpClient, cfg.Spotify, logger), nil
}

// isTTY checks if the given file is a terminal
func isTTY(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// truncate shortens s to maxWidth display cells, adding "..." if needed
func truncate(s string, maxWidth int) string {
	return runewidth.Truncate(s, maxWidth, "...")
}
