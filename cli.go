// ABOUTME: Command implementations for login, logout, playlist search and download
// ABOUTME: Handles progress display, result output, and signal handling for command-line usage

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"diversify/config"
	"diversify/genetic"
	"diversify/playlist"
	"diversify/spotify"
	"diversify/tui"
)

const spinnerUpdateInterval = 500 * time.Millisecond

// PlaylistOptions contains the playlist command's flags and arguments
type PlaylistOptions struct {
	Name       string
	Friend     string
	DryRun     bool
	Visual     bool
	Seed       uint64
	SeedSet    bool // Seed was given on the command line
	OutputPath string
}

// RunLogin runs the authorization-code flow and caches the token
func RunLogin(ctx context.Context, global GlobalOptions, in io.Reader, out io.Writer) error {
	cfg, err := loadConfig(global)
	if err != nil {
		return err
	}

	logger, closer, err := SetupLogger(global.Debug)
	if err != nil {
		return err
	}
	defer closer.Close()

	conf, err := spotify.OAuthConfig(cfg.Spotify)
	if err != nil {
		return err
	}

	state := uuid.NewString()

	fmt.Fprintln(out, "Open this URL in your browser and authorize diversify:")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  "+conf.AuthCodeURL(state))
	fmt.Fprintln(out)
	fmt.Fprint(out, "Paste the URL you were redirected to: ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read redirect URL: %w", err)
	}

	code, err := spotify.ParseCode(line)
	if err != nil {
		return usageError{err}
	}

	store := spotify.NewTokenStore(cfg.Paths.TokenCache)
	if _, err := store.Login(ctx, conf, code); err != nil {
		return err
	}

	logger.Debug("token cached", "path", store.Path())

	client, err := newSession(ctx, cfg, logger)
	if err != nil {
		return err
	}

	userID, err := client.CurrentUser(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Logged in as %s\n", userID)

	return nil
}

// RunLogout removes the cached token
func RunLogout(global GlobalOptions, out io.Writer) error {
	cfg, err := loadConfig(global)
	if err != nil {
		return err
	}

	removed, err := spotify.NewTokenStore(cfg.Paths.TokenCache).Remove()
	if err != nil {
		return err
	}

	if removed {
		fmt.Fprintln(out, "Logged out")
	} else {
		fmt.Fprintln(out, "Already logged out")
	}

	return nil
}

// RunDownload writes the current user's saved songs and their features to path
func RunDownload(ctx context.Context, global GlobalOptions, path string, out io.Writer) error {
	cfg, err := loadConfig(global)
	if err != nil {
		return err
	}

	logger, closer, err := SetupLogger(global.Debug)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, cancel := withSignals(ctx)
	defer cancel()

	client, err := newSession(ctx, cfg, logger)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Downloading saved songs...")

	songs, err := client.SavedSongs(ctx)
	if err != nil {
		return err
	}

	printSongs(out, songs)

	if err := playlist.WriteFeaturesCSV(path, songs); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Fprintf(out, "Wrote %d songs to %s\n", len(songs), path)

	return nil
}

// RunPlaylist searches for a playlist and creates it unless DryRun is set
func RunPlaylist(ctx context.Context, global GlobalOptions, opts PlaylistOptions) error {
	cfg, err := loadConfig(global)
	if err != nil {
		return err
	}

	logger, closer, err := SetupLogger(global.Debug)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, cancel := withSignals(ctx)
	defer cancel()

	client, err := newSession(ctx, cfg, logger)
	if err != nil {
		return err
	}

	userID, err := client.CurrentUser(ctx)
	if err != nil {
		return err
	}

	source := playlist.FileSource{Dir: cfg.Paths.CSVDir, Fallback: client, Logger: logger}
	rng := newRNG(cfg.GA, opts)

	sc, err := prepareSearch(ctx, source, client, rng, userID, opts.Friend, cfg.GA, logger)
	if err != nil {
		return err
	}

	fmt.Printf("\nSearching %d generations for %s (run %s)\n", cfg.GA.Generations, describeListeners(userID, opts.Friend), sc.RunID())
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	var result genetic.Result
	if opts.Visual {
		result, err = visualSearch(ctx, cancel, sc, rng, cfg.GA, opts.Name)
	} else {
		result, err = cliSearch(ctx, sc, rng, cfg.GA)
	}

	if err != nil {
		return err
	}

	printResult(os.Stdout, sc, result)

	if opts.OutputPath != "" {
		if err := playlist.WriteSongIDs(opts.OutputPath, result.Best.Genes); err != nil {
			return fmt.Errorf("failed to write song IDs: %w", err)
		}

		fmt.Printf("\nSong IDs written to: %s\n", opts.OutputPath)
	}

	if opts.DryRun {
		fmt.Println("\n--dry-run mode: playlist not created")

		return nil
	}

	playlistID, err := client.CreatePlaylist(ctx, userID, opts.Name, result.Best.Genes)
	if err != nil {
		return err
	}

	fmt.Printf("\nCreated playlist %q (%s)\n", opts.Name, playlistID)

	return nil
}

// prepareSearch gathers both listeners' songs, builds the pools and validates them
func prepareSearch(ctx context.Context, source genetic.SongSource, rec genetic.Recommender, rng *rand.Rand,
	userID, friendID string, ga config.GAConfig, logger *slog.Logger,
) (*genetic.SearchContext, error) {
	fmt.Printf("Reading songs for %s\n", userID)

	user1, err := source.UserSongs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get songs for %s: %w", userID, err)
	}

	var user2 []playlist.Song

	if friendID != "" {
		fmt.Printf("Reading songs for %s\n", friendID)

		user2, err = source.UserSongs(ctx, friendID)
		if err != nil {
			return nil, fmt.Errorf("failed to get songs for %s: %w", friendID, err)
		}
	}

	fmt.Println("Fetching recommendations")

	pools, err := genetic.BuildPools(ctx, rng, rec, user1, user2, friendID != "")
	if err != nil {
		return nil, err
	}

	return genetic.NewSearchContext(pools, searchParams(ga), logger)
}

// cliSearch runs the engine while printing improvements and a status line
func cliSearch(ctx context.Context, sc *genetic.SearchContext, rng *rand.Rand, ga config.GAConfig) (genetic.Result, error) {
	// Buffer smooths the update rate when stdout is slow
	updateChan := make(chan genetic.Update, 10)
	engine := genetic.NewEngine(sc, rng, genetic.WithUpdates(updateChan), genetic.WithWorkers(ga.Workers))

	type outcome struct {
		result genetic.Result
		err    error
	}

	done := make(chan outcome, 1)

	go func() {
		result, err := engine.Search(ctx)
		done <- outcome{result, err}
	}()

	printer := newProgressPrinter(os.Stdout, isTTY(os.Stdout))

	// Non-TTY: never-firing channel, no spinner in cron jobs or pipes
	var tick <-chan time.Time

	if printer.isTerminal {
		ticker := time.NewTicker(spinnerUpdateInterval)
		defer ticker.Stop()

		tick = ticker.C
	}

	for {
		select {
		case update, ok := <-updateChan:
			if !ok {
				updateChan = nil // Closed, wait for the result
				continue
			}

			printer.observe(update)

		case <-tick:
			printer.tick()

		case out := <-done:
			// Print anything still buffered before the summary
			if updateChan != nil {
				for update := range updateChan {
					printer.observe(update)
				}
			}

			if out.err != nil {
				printer.clearStatus()
				return genetic.Result{}, out.err
			}

			printer.finish(out.result.Generations, out.result.Elapsed)

			return out.result, nil
		}
	}
}

// visualSearch runs the engine behind the bubbletea progress view
func visualSearch(ctx context.Context, cancel context.CancelFunc, sc *genetic.SearchContext, rng *rand.Rand,
	ga config.GAConfig, name string,
) (genetic.Result, error) {
	updateChan := make(chan genetic.Update, 10)
	engine := genetic.NewEngine(sc, rng, genetic.WithUpdates(updateChan), genetic.WithWorkers(ga.Workers))

	var (
		result genetic.Result
		err    error
	)

	done := make(chan struct{})

	go func() {
		defer close(done)
		result, err = engine.Search(ctx)
	}()

	if viewErr := tui.Run(updateChan, tui.Options{
		Title:   fmt.Sprintf("Building %q", name),
		Resolve: sc.Song,
		Cancel:  cancel,
	}); viewErr != nil {
		log.Printf("Warning: %v", viewErr)
		cancel()
	}

	<-done

	return result, err
}

// printResult prints the winning playlist as a table
func printResult(out io.Writer, sc *genetic.SearchContext, result genetic.Result) {
	fmt.Fprintln(out, "\nPlaylist:")

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "#\tArtist\tTitle\tAlbum\tSource"); err != nil {
		log.Printf("Warning: failed to write header: %v", err)
	}

	if _, err := fmt.Fprintln(w, "---\t------\t-----\t-----\t------"); err != nil {
		log.Printf("Warning: failed to write separator: %v", err)
	}

	for i, id := range result.Best.Genes {
		song, _ := sc.Song(id)

		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			i+1,
			truncate(song.Artist, 20),
			truncate(displayName(song), 30),
			truncate(song.Album, 20),
			songOrigin(sc, id),
		); err != nil {
			log.Printf("Warning: failed to write song %d: %v", i+1, err)
		}
	}

	if err := w.Flush(); err != nil {
		log.Printf("Warning: failed to flush output: %v", err)
	}

	user1, user2 := genetic.UserCorrelations(sc, result.Best.Genes)
	if sc.TwoUsers() {
		fmt.Fprintf(out, "\nFitness: %.4f (you %.4f, friend %.4f), initial best %.4f\n",
			result.Best.Score, user1, user2, result.InitialBest)
	} else {
		fmt.Fprintf(out, "\nFitness: %.4f, initial best %.4f\n", result.Best.Score, result.InitialBest)
	}
}

// printSongs lists downloaded songs before they are written out
func printSongs(out io.Writer, songs []playlist.Song) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "#\tArtist\tTitle\tAlbum"); err != nil {
		log.Printf("Warning: failed to write header: %v", err)
	}

	if _, err := fmt.Fprintln(w, "---\t------\t-----\t-----"); err != nil {
		log.Printf("Warning: failed to write separator: %v", err)
	}

	for i, song := range songs {
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
			i+1,
			truncate(song.Artist, 20),
			truncate(displayName(song), 30),
			truncate(song.Album, 20),
		); err != nil {
			log.Printf("Warning: failed to write song %d: %v", i+1, err)
		}
	}

	if err := w.Flush(); err != nil {
		log.Printf("Warning: failed to flush output: %v", err)
	}
}

// songOrigin names the pool a song was drawn from
func songOrigin(sc *genetic.SearchContext, id string) string {
	switch {
	case sc.User1().Contains(id):
		return "you"
	case sc.User2().Contains(id):
		return "friend"
	default:
		return "recommended"
	}
}

func displayName(s playlist.Song) string {
	if s.Name == "" {
		return s.ID
	}

	return s.Name
}

func describeListeners(userID, friendID string) string {
	if friendID == "" {
		return userID
	}

	return userID + " and " + friendID
}

// searchParams converts the [ga] config section into engine parameters
func searchParams(ga config.GAConfig) genetic.Params {
	return genetic.Params{
		IndividualSize: ga.IndividualSize,
		PopulationSize: ga.PopulationSize,
		CrossoverRate:  ga.CrossoverRate,
		MutationRate:   ga.MutationRate,
		Generations:    ga.Generations,
		TournamentSize: ga.TournamentSize,
	}
}

// newRNG seeds the search from --seed, then the [ga] seed, then randomly
func newRNG(ga config.GAConfig, opts PlaylistOptions) *rand.Rand {
	seed := ga.Seed

	switch {
	case opts.SeedSet:
		seed = opts.Seed
	case seed == 0:
		seed = rand.Uint64()
	}

	return rand.New(rand.NewPCG(seed, seed))
}

// withSignals cancels ctx on interrupt or SIGTERM
func withSignals(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}

		signal.Stop(stop)
	}()

	return ctx, cancel
}
