package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/dgallion1/formulatag/internal/classify"
	"github.com/dgallion1/formulatag/internal/doctree"
	"github.com/dgallion1/formulatag/internal/parser"
	"github.com/dgallion1/formulatag/internal/tui"
)

var annotateCmd = &cobra.Command{
	Use:   "annotate <file>",
	Short: "Tag the formulas of one document",
	Long: `Opens an HTML or Markdown document, seeds its tags from the stored
annotations, and starts the interactive tagger. Keys: the vocabulary's tag
keys, n/N next and previous formula, s save, esc deselect, q quit.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnnotate,
}

func init() {
	annotateCmd.Flags().String("doc-id", "", "document id to store under (default: file name without extension)")
	annotateCmd.Flags().String("root-class", "", "only annotate inside the first element with this class, e.g. ltx_page_main")
	annotateCmd.Flags().Bool("suggest", false, "pre-tag unannotated formulas from their MathML shape")
	annotateCmd.Flags().Bool("prune", false, "drop stored tags for formulas no longer in the document")
	rootCmd.AddCommand(annotateCmd)
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	if err := requireTerminal(); err != nil {
		return err
	}
	path := args[0]

	docID, _ := cmd.Flags().GetString("doc-id")
	rootClass, _ := cmd.Flags().GetString("root-class")
	suggest, _ := cmd.Flags().GetBool("suggest")
	prune, _ := cmd.Flags().GetBool("prune")
	if docID == "" {
		docID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
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

	tree, err := parseFile(path, rootClass)
	if err != nil {
		return err
	}

	b, err := openBackend(cmd, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	v, err := loadVocabulary(ctx, cfg, b)
	if err != nil {
		return fmt.Errorf("loading vocabulary: %w", err)
	}
	seed, err := loadSeed(ctx, b, docID, log)
	if err != nil {
		return fmt.Errorf("loading annotations for %s: %w", docID, err)
	}
	if suggest {
		cands, err := tree.Candidates()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		seed = classify.Seed(seed, classify.Suggest(cands, v))
	}

	m, err := tui.New(tui.Config{
		Vocabulary: v,
		Saver:      b,
		PruneStale: prune,
		Context:    ctx,
		Log:        log.With("doc_id", docID),
	}, &tui.Document{ID: docID, Title: tree.Title, Tree: tree, Existing: seed})
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("running tagger: %w", err)
	}
	if m.Session().Dirty() {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: quit with unsaved changes\n", docID)
	}
	return nil
}

func parseFile(path, rootClass string) (*doctree.DocTree, error) {
	p, err := parser.ForFile(path, parser.Options{RootClass: rootClass})
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening document: %w", err)
	}
	defer f.Close()

	tree, err := p.Parse(f, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return tree, nil
}
