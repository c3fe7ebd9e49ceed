package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/dgallion1/formulatag/internal/annostore"
	"github.com/dgallion1/formulatag/internal/annotation"
	"github.com/dgallion1/formulatag/internal/config"
	"github.com/dgallion1/formulatag/internal/store"
	"github.com/dgallion1/formulatag/internal/vocab"
)

var (
	cfgFile   string
	serverURL string
	logFile   string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "formulatag",
	Short: "Tag the formulas of math-heavy HTML documents from the terminal",
	Long: `formulatag walks the MathML formulas and equation blocks of a document
in reading order and lets you tag each one with a key press. Tags are saved
to a formulatag server, or to a local annotation store with --local.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "formulatag.yml", "config file path")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "annotation server URL (overrides server_url)")
	rootCmd.PersistentFlags().Bool("local", false, "use the configured local store instead of a server")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if serverURL != "" {
		cfg.ServerURL = serverURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger logs to --log-file, or to stderr for commands that do not take
// over the terminal. The returned closer must be called on exit.
func newLogger(interactive bool) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	switch {
	case logFile != "":
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		return slog.New(slog.NewTextHandler(f, opts)), func() { f.Close() }, nil
	case interactive:
		return slog.New(slog.NewTextHandler(io.Discard, opts)), func() {}, nil
	default:
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), func() {}, nil
	}
}

// requireTerminal fails early when the tagger has no terminal to draw on.
func requireTerminal() error {
	fd := os.Stdout.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return nil
	}
	return errors.New("the interactive tagger needs a terminal; use 'suggest' or 'pretag' for batch work")
}

// backend is where a session reads its seed and saves its map.
type backend interface {
	GetAnnotations(ctx context.Context, docID string) (annotation.Map, error)
	SaveAnnotations(ctx context.Context, docID string, m annotation.Map) error
	Vocabulary(ctx context.Context) (*vocab.Vocabulary, error)
	Close()
}

// remoteBackend talks to a formulatag server and retries transient save
// failures.
type remoteBackend struct {
	*annostore.Client
	saver *annostore.RetryingSaver
}

func (b *remoteBackend) SaveAnnotations(ctx context.Context, docID string, m annotation.Map) error {
	return b.saver.SaveAnnotations(ctx, docID, m)
}

// localBackend uses a store directly.
type localBackend struct {
	store store.Store
	cfg   *config.Config
}

func (b *localBackend) GetAnnotations(ctx context.Context, docID string) (annotation.Map, error) {
	m, ok, err := b.store.Get(ctx, docID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return annotation.Map{}, nil
	}
	return m, nil
}

func (b *localBackend) SaveAnnotations(ctx context.Context, docID string, m annotation.Map) error {
	return b.store.Put(ctx, docID, m)
}

func (b *localBackend) Vocabulary(context.Context) (*vocab.Vocabulary, error) {
	return b.cfg.Vocabulary()
}

func (b *localBackend) Close() { b.store.Close() }

func openBackend(cmd *cobra.Command, cfg *config.Config, log *slog.Logger) (backend, error) {
	local, _ := cmd.Flags().GetBool("local")
	if local {
		st, err := store.Open(store.Config{Backend: cfg.StoreBackend, Path: cfg.StorePath, Log: log})
		if err != nil {
			return nil, fmt.Errorf("opening local store: %w", err)
		}
		return &localBackend{store: st, cfg: cfg}, nil
	}

	client := annostore.NewClient(cfg.ServerURL, cfg.APIKey)
	return &remoteBackend{
		Client: client,
		saver:  &annostore.RetryingSaver{Client: client, Attempts: cfg.SaveRetries + 1, Log: log},
	}, nil
}

// loadSeed fetches the stored map for docID. A malformed stored map is
// logged and replaced by an empty seed so the document stays workable.
func loadSeed(ctx context.Context, b backend, docID string, log *slog.Logger) (annotation.Map, error) {
	m, err := b.GetAnnotations(ctx, docID)
	if errors.Is(err, annotation.ErrMalformed) {
		log.Warn("stored annotations unreadable, starting empty", "doc_id", docID, "error", err)
		return annotation.Map{}, nil
	}
	return m, err
}

// loadVocabulary prefers a local vocabulary file, then the backend's.
func loadVocabulary(ctx context.Context, cfg *config.Config, b backend) (*vocab.Vocabulary, error) {
	if cfg.VocabularyFile != "" {
		return cfg.Vocabulary()
	}
	return b.Vocabulary(ctx)
}
