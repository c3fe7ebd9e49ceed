package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/formulatag/internal/annotation"
	"github.com/dgallion1/formulatag/internal/classify"
	"github.com/dgallion1/formulatag/internal/paragraphs"
	"github.com/dgallion1/formulatag/internal/parser"
	"github.com/dgallion1/formulatag/internal/store"
	"github.com/dgallion1/formulatag/internal/vocab"
)

// Worker processes pre-tagging jobs.
type Worker struct {
	lib   *paragraphs.Library
	store store.Store
	vocab *vocab.Vocabulary
	log   *slog.Logger

	maxConcurrent int
}

func NewWorker(lib *paragraphs.Library, st store.Store, v *vocab.Vocabulary, log *slog.Logger, maxConcurrent int) *Worker {
	return &Worker{
		lib:           lib,
		store:         st,
		vocab:         v,
		log:           log,
		maxConcurrent: max(maxConcurrent, 1),
	}
}

// Process classifies every paragraph and stores the suggestions. Without
// Overwrite, tags already stored are kept and only missing nodes are filled.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID)

	// Phase 1: List
	job.SetStatus(StatusListing, "listing")
	refs, err := w.lib.List()
	if err != nil {
		log.Error("list paragraphs failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "listing")
		return
	}
	job.SetTotal(len(refs))
	log.Info("pre-tagging paragraphs", "paragraphs", len(refs), "overwrite", job.Overwrite)

	// Phase 2: Tag with bounded concurrency.
	job.SetStatus(StatusTagging, "tagging")
	var g errgroup.Group
	g.SetLimit(w.maxConcurrent)
	for _, ref := range refs {
		if ctx.Err() != nil {
			job.AddError(fmt.Sprintf("%s: %s", ref, ctx.Err()))
			continue
		}
		g.Go(func() error {
			n, err := w.tagParagraph(ctx, ref, job.Overwrite)
			if err != nil {
				log.Error("pre-tag failed", "ref", ref, "error", err)
				job.AddError(fmt.Sprintf("%s: %s", ref, err))
				return nil
			}
			job.RecordParagraph(n)
			return nil
		})
	}
	g.Wait()

	p := job.Snapshot().Progress
	log.Info("pre-tagging complete", "updated", p.Updated, "unchanged", p.Unchanged, "errors", len(p.Errors))

	switch {
	case len(p.Errors) == 0:
		job.SetStatus(StatusCompleted, "done")
	case p.Processed > 0:
		job.SetStatus(StatusPartial, "done")
	default:
		job.SetStatus(StatusFailed, "tagging")
	}
}

// tagParagraph returns the number of nodes whose stored tag changed.
func (w *Worker) tagParagraph(ctx context.Context, ref string, overwrite bool) (int, error) {
	p, err := w.lib.Get(ref)
	if err != nil {
		return 0, err
	}
	tree, err := (&parser.HTMLParser{}).Parse(strings.NewReader(p.HTML), ref)
	if err != nil {
		return 0, err
	}
	cands, err := tree.Candidates()
	if err != nil {
		return 0, err
	}
	suggested := classify.Suggest(cands, w.vocab)
	if len(suggested) == 0 {
		return 0, nil
	}

	existing, _, err := w.store.Get(ctx, ref)
	if err != nil {
		return 0, fmt.Errorf("read stored tags: %w", err)
	}

	var merged annotation.Map
	if overwrite {
		merged = existing.Clone()
		for id, tag := range suggested {
			merged[id] = tag
		}
	} else {
		merged = classify.Seed(existing, suggested)
	}

	changed := 0
	for id, tag := range merged {
		if old, ok := existing[id]; !ok || old != tag {
			changed++
		}
	}
	if changed == 0 {
		return 0, nil
	}
	if err := w.store.Put(ctx, ref, merged); err != nil {
		return 0, err
	}
	return changed, nil
}
