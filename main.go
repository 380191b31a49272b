// ABOUTME: Entry point for the diversify application
// ABOUTME: Builds the cobra command tree, handles profiling and maps errors to exit codes

// Package main provides the entry point for diversify, a genetic algorithm-based
// playlist builder for one or two listeners.
package main

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"runtime/pprof"
	"strings"

	"github.com/spf13/cobra"
)

// Exit codes for different failure modes
const (
	ExitSuccess = 0 // Command completed
	ExitFailure = 1 // Search, data or API failure
	ExitUsage   = 2 // Bad arguments, configuration or missing login
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cmd := newRootCommand()
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitCode(err)
	}

	return ExitSuccess
}

func newRootCommand() *cobra.Command {
	var (
		global     GlobalOptions
		cpuprofile string
		memprofile string
		stopCPU    func()
	)

	cmd := &cobra.Command{
		Use:   "diversify",
		Short: "Build a playlist that fits your taste, or yours and a friend's",
		Long: `diversify searches for a playlist whose audio features follow the
songs you already listen to. With --friend it balances two listeners.

Log in once with [diversify login], then run [diversify playlist NAME].`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cpuprofile != "" {
				stop, err := setupCPUProfile(cpuprofile)
				if err != nil {
					return err
				}

				stopCPU = stop
			}

			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if stopCPU != nil {
				stopCPU()
			}

			if memprofile != "" {
				writeMemoryProfile(memprofile)
			}
		},
	}

	cmd.PersistentFlags().StringVar(&global.ConfigPath, "config", "", "config file (default ./diversify.toml or ~/.config/diversify/config.toml)")
	cmd.PersistentFlags().BoolVar(&global.Debug, "debug", false, "enable debug logging to "+debugLogFile)
	cmd.PersistentFlags().StringVar(&cpuprofile, "cpuprofile", "", "write cpu profile to file")
	cmd.PersistentFlags().StringVar(&memprofile, "memprofile", "", "write memory profile to file")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	cmd.AddCommand(newLoginCommand(&global))
	cmd.AddCommand(newLogoutCommand(&global))
	cmd.AddCommand(newPlaylistCommand(&global))
	cmd.AddCommand(newDownloadCommand(&global))

	return cmd
}

func newLoginCommand(global *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authorize diversify with your streaming account",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunLogin(cmd.Context(), *global, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func newLogoutCommand(global *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the cached login",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunLogout(*global, cmd.OutOrStdout())
		},
	}
}

func newPlaylistCommand(global *GlobalOptions) *cobra.Command {
	var opts PlaylistOptions

	cmd := &cobra.Command{
		Use:   "playlist [flags] NAME...",
		Short: "Search for a playlist and create it in your account",
		Long: `Search for a playlist matching your songs, or yours and a friend's
with --friend, and save it as a private playlist called NAME.

Songs are read from <csv_dir>/<user>features.csv when that file exists,
otherwise from the user's public playlists.`,
		Example: `  diversify playlist Sunday morning
  diversify playlist --friend alice --dry-run Road trip`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Name = strings.Join(args, " ")
			opts.SeedSet = cmd.Flags().Changed("seed")

			return RunPlaylist(cmd.Context(), *global, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Friend, "friend", "", "user ID of a second listener")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "print the playlist without creating it")
	cmd.Flags().BoolVar(&opts.Visual, "visual", false, "show a live progress view while searching")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "random seed for a reproducible search (overrides [ga] seed)")
	cmd.Flags().StringVar(&opts.OutputPath, "output", "", "also write the winning song IDs to this file")

	return cmd
}

func newDownloadCommand(global *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "download FILE",
		Short: "Save your liked songs and their audio features as CSV",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunDownload(cmd.Context(), *global, args[0], cmd.OutOrStdout())
		},
	}
}

// usageArgs marks argument validation failures as usage errors
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return usageError{err}
		}

		return nil
	}
}

// setupCPUProfile starts CPU profiling, returns cleanup function
func setupCPUProfile(filename string) (func(), error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("could not create CPU profile: %w", err)
	}

	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("could not start CPU profile: %w", err)
	}

	return func() {
		pprof.StopCPUProfile()

		if err := f.Close(); err != nil {
			log.Printf("Warning: failed to close CPU profile: %v", err)
		}
	}, nil
}

// writeMemoryProfile writes memory profile to file
func writeMemoryProfile(filename string) {
	f, err := os.Create(filename)
	if err != nil {
		log.Printf("could not create memory profile: %v", err)

		return
	}

	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("Warning: failed to close memory profile: %v", err)
		}
	}()

	runtime.GC()

	if err := pprof.WriteHeapProfile(f); err != nil {
		log.Printf("could not write memory profile: %v", err)
	}
}
