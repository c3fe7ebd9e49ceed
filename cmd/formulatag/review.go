package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/dgallion1/formulatag/internal/annotation"
	"github.com/dgallion1/formulatag/internal/paragraphs"
	"github.com/dgallion1/formulatag/internal/parser"
	"github.com/dgallion1/formulatag/internal/tui"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Tag randomly chosen paragraphs one after another",
	Long: `Fetches a random paragraph, lets you tag its formulas, and moves on to
another paragraph with tab. Paragraph tags are stored under the paragraph's
file name.`,
	Args: cobra.NoArgs,
	RunE: runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	if err := requireTerminal(); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger(true)
	if err != nil {
		return err
	}
	defer closeLog()

	b, err := openBackend(cmd, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	v, err := loadVocabulary(ctx, cfg, b)
	if err != nil {
		return fmt.Errorf("loading vocabulary: %w", err)
	}

	var fetch tui.Fetcher
	switch b := b.(type) {
	case *remoteBackend:
		fetch = remoteFetcher(b)
	case *localBackend:
		lib, err := paragraphs.NewLibrary(cfg.ParagraphDir)
		if err != nil {
			return err
		}
		fetch = localFetcher(lib, b, log)
	}

	m, err := tui.New(tui.Config{
		Vocabulary: v,
		Saver:      b,
		Fetch:      fetch,
		Context:    ctx,
		Log:        log,
	}, nil)
	if err != nil {
		return err
	}
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("running tagger: %w", err)
	}
	return nil
}

func remoteFetcher(b *remoteBackend) tui.Fetcher {
	return func(ctx context.Context) (*tui.Document, error) {
		p, err := b.RandomParagraph(ctx)
		if err != nil {
			return nil, err
		}
		return paragraphDocument(p.Filename, p.HTML, p.Annotations)
	}
}

func localFetcher(lib *paragraphs.Library, b *localBackend, log *slog.Logger) tui.Fetcher {
	return func(ctx context.Context) (*tui.Document, error) {
		p, err := lib.Random()
		if err != nil {
			return nil, err
		}
		seed, err := loadSeed(ctx, b, p.Ref, log)
		if err != nil {
			return nil, err
		}
		return paragraphDocument(p.Ref, p.HTML, seed)
	}
}

func paragraphDocument(ref, html string, seed annotation.Map) (*tui.Document, error) {
	tree, err := (&parser.HTMLParser{}).Parse(strings.NewReader(html), ref)
	if err != nil {
		return nil, fmt.Errorf("parsing paragraph %s: %w", ref, err)
	}
	return &tui.Document{ID: ref, Title: ref, Tree: tree, Existing: seed}, nil
}
