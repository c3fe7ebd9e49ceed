package main

import (
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/dgallion1/formulatag/internal/paragraphs"
	"github.com/dgallion1/formulatag/internal/pipeline"
	"github.com/dgallion1/formulatag/internal/store"
)

var pretagCmd = &cobra.Command{
	Use:   "pretag",
	Short: "Store heuristic tags for every paragraph in the local library",
	Long: `pretag classifies the formulas of every paragraph fragment and writes the
suggested tags to the configured local store. Tags already stored are kept
unless --overwrite is given.`,
	Args: cobra.NoArgs,
	RunE: runPretag,
}

func init() {
	pretagCmd.Flags().Bool("overwrite", false, "replace stored tags with suggestions")
	pretagCmd.Flags().String("dir", "", "paragraph directory (default: paragraph_dir from config)")
	rootCmd.AddCommand(pretagCmd)
}

func runPretag(cmd *cobra.Command, args []string) error {
	overwrite, _ := cmd.Flags().GetBool("overwrite")
	dir, _ := cmd.Flags().GetString("dir")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if dir == "" {
		dir = cfg.ParagraphDir
	}
	log, closeLog, err := newLogger(false)
	if err != nil {
		return err
	}
	defer closeLog()

	v, err := cfg.Vocabulary()
	if err != nil {
		return err
	}
	lib, err := paragraphs.NewLibrary(dir)
	if err != nil {
		return err
	}
	st, err := store.Open(store.Config{Backend: cfg.StoreBackend, Path: cfg.StorePath, Log: log})
	if err != nil {
		return fmt.Errorf("opening local store: %w", err)
	}
	defer st.Close()

	job := pipeline.NewJob(overwrite)
	worker := pipeline.NewWorker(lib, st, v, log, cfg.PretagConcurrency)
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Process(cmd.Context(), job)
	}()
	trackProgress(job, done)

	snap := job.Snapshot()
	p := snap.Progress
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d paragraphs, %d updated, %d unchanged, %d nodes tagged\n",
		snap.Status, p.TotalParagraphs, p.Updated, p.Unchanged, p.NodesTagged)
	for _, e := range p.Errors {
		fmt.Fprintln(cmd.ErrOrStderr(), "  error:", e)
	}
	if snap.Status == pipeline.StatusFailed {
		return fmt.Errorf("pre-tagging failed")
	}
	return nil
}

// trackProgress draws a progress bar on an interactive stderr until done
// is closed.
func trackProgress(job *pipeline.Job, done <-chan struct{}) {
	if !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		<-done
		return
	}
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Pre-tagging"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			_ = bar.Finish()
			return
		case <-ticker.C:
			p := job.Snapshot().Progress
			if p.TotalParagraphs > 0 && bar.GetMax() != p.TotalParagraphs {
				bar.ChangeMax(p.TotalParagraphs)
			}
			_ = bar.Set(p.Processed + len(p.Errors))
		}
	}
}
