package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"

	"github.com/conorfennell/knoldeck/internal/apkg"
	"github.com/conorfennell/knoldeck/internal/config"
	"github.com/conorfennell/knoldeck/internal/library"
	"github.com/conorfennell/knoldeck/internal/logging"
	"github.com/conorfennell/knoldeck/internal/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "knoldeck: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	// 1. Flags
	flags := pflag.NewFlagSet("knoldeck", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintln(stderr, "Usage: knoldeck [flags] <deck.apkg | deck directory>")
		flags.PrintDefaults()
	}
	configPath := flags.String("config", "", "path to a YAML config file")
	user := flags.String("user", os.Getenv("KNOLDECK_USER"), "reviewer name, selects the progress record")
	list := flags.Bool("list", true, "print the deck's cards")
	review := flags.Bool("review", false, "review due cards, reading again/good answers from stdin")
	config.RegisterFlags(flags)
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return errors.New("expected exactly one deck file")
	}
	deckPath := flags.Arg(0)
	if *user == "" {
		return errors.New("--user is required")
	}

	// 2. Configuration and logging
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load(*configPath, flags)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log, stderr)
	if err != nil {
		return err
	}

	// 3. Stored progress
	store, err := openStore(cfg.Progress)
	if err != nil {
		return err
	}
	defer store.Close()

	progress, err := store.LoadProgress(ctx, *user)
	if err != nil {
		return fmt.Errorf("load progress for %s: %w", *user, err)
	}

	importOpts := cfg.ImportOptions()
	importOpts.Logger = logger
	s, err := session.New(*user, progress,
		session.WithParams(cfg.SchedulerParams()),
		session.WithLogger(logger),
		session.WithImporter(apkg.NewImporter(importOpts)),
	)
	if err != nil {
		return err
	}

	// 4. Import a single deck or a directory of decks
	deckNames, err := importDecks(s, deckPath, logger, stderr)
	if err != nil {
		return err
	}

	if *list {
		for _, name := range deckNames {
			deck, _ := s.Deck(name)
			if len(deckNames) > 1 {
				fmt.Fprintf(stdout, "%s\n", name)
			}
			fmt.Fprintln(stdout, renderCards(deck.Cards(), time.Now(), !isTerminal(stdout)))
		}
	}

	// 5. Review, then save explicitly
	if *review {
		sc := bufio.NewScanner(stdin)
		limits := dailyLimits{New: cfg.Review.DailyNew, Review: cfg.Review.DailyReview}
		reviewed := 0
		for _, name := range deckNames {
			n, err := reviewLoop(ctx, s, name, sc, stdout, limits)
			reviewed += n
			if errors.Is(err, errQuit) || errors.Is(err, errDailyLimit) || errors.Is(err, context.Canceled) {
				break
			}
			if err != nil {
				return err
			}
		}
		stats := s.Stats()
		fmt.Fprintf(stdout, "Reviewed %d cards this run.\n", reviewed)
		fmt.Fprintf(stdout, "Reviewed %d/%d today, new %d/%d.\n", stats.Reviewed, limits.Review, stats.New, limits.New)
	}

	if err := store.SaveProgress(context.WithoutCancel(ctx), *user, s.Progress()); err != nil {
		return fmt.Errorf("save progress for %s: %w", *user, err)
	}
	logger.Info("Progress saved", "user", *user, "backend", cfg.Progress.Backend, "entries", len(s.Progress()))
	return nil
}

func importDecks(s *session.Session, path string, logger *slog.Logger, warnOut io.Writer) ([]string, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		report, err := library.Sync(s, path, logger)
		if err != nil {
			return nil, err
		}
		for _, e := range report.Errors {
			fmt.Fprintf(warnOut, "warning: %v\n", e)
		}
		if len(report.Decks) == 0 {
			return nil, fmt.Errorf("no deck could be imported from %s", path)
		}
		return report.Decks, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open deck: %w", err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	res, err := s.Import(f, name)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", path, err)
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(warnOut, "warning: %s\n", w)
	}
	return []string{name}, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
