// Package batch produces quote cards in bulk and maintains the caption
// records stored next to them.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"go.uber.org/zap"

	"github.com/RiteshF7/instaauto/pipeline"
	"github.com/RiteshF7/instaauto/prompts"
)

// File names inside the output directory.
const (
	RecordsFile = "instagram_captions.json"
	TextLogFile = "instagram_captions.txt"
)

// Config controls batch runs.
type Config struct {
	OutputDir      string        `yaml:"output_dir"`
	Count          int           `yaml:"count"`
	Delay          time.Duration `yaml:"delay"`
	CaptionDelay   time.Duration `yaml:"caption_delay"`
	LockFile       string        `yaml:"lock_file"`
	LockStaleAfter time.Duration `yaml:"lock_stale_after"`
}

// Composer builds one quote card.
type Composer interface {
	Compose(ctx context.Context, topic, description string) (*pipeline.Artifact, error)
}

// Summary counts the outcome of a run.
type Summary struct {
	Successful int
	Failed     int
	Skipped    int
	Elapsed    time.Duration
}

// Runner executes batch jobs one item at a time.
type Runner struct {
	cfg      Config
	composer Composer
	quotes   pipeline.QuoteSource
	lock     Locker
	logger   *zap.Logger

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// NewRunner returns a Runner. lock may be nil to run without locking.
func NewRunner(cfg Config, composer Composer, quotes pipeline.QuoteSource, lock Locker, logger *zap.Logger) *Runner {
	if cfg.OutputDir == "" {
		cfg.OutputDir = "images"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:      cfg,
		composer: composer,
		quotes:   quotes,
		lock:     lock,
		logger:   logger,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

func (r *Runner) recordsPath() string { return filepath.Join(r.cfg.OutputDir, RecordsFile) }
func (r *Runner) textLog() TextLog    { return TextLog{Path: filepath.Join(r.cfg.OutputDir, TextLogFile)} }

// Generate produces count quote cards for random entities. Numbering continues
// after the highest number already recorded. A failed item is counted and
// the run goes on.
func (r *Runner) Generate(ctx context.Context, count int) (Summary, error) {
	if count <= 0 {
		count = r.cfg.Count
	}
	var sum Summary
	release, err := r.acquire()
	if err != nil {
		return sum, err
	}
	defer release()

	if err := os.MkdirAll(r.cfg.OutputDir, 0o755); err != nil {
		return sum, fmt.Errorf("creating %s: %w", r.cfg.OutputDir, err)
	}
	store, err := r.loadStore()
	if err != nil {
		return sum, err
	}
	log := r.textLog()
	if !log.Exists() {
		if err := log.WriteHeader(count, r.now()); err != nil {
			return sum, err
		}
	}

	start := r.now()
	first := store.MaxNumber() + 1
	r.logger.Info("Starting batch generation",
		zap.Int("count", count),
		zap.Int("first_number", first),
		zap.String("output_dir", r.cfg.OutputDir),
	)

	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return r.finish(sum, start), err
		}
		n := first + i
		r.progress(i, count, start)

		rec, err := r.generateOne(ctx, n)
		if err != nil {
			sum.Failed++
			r.logger.Error("Image generation failed", zap.Int("image_number", n), zap.Error(err))
		} else {
			store.Upsert(rec)
			if err := store.Save(); err != nil {
				return r.finish(sum, start), err
			}
			if err := log.Append(rec); err != nil {
				return r.finish(sum, start), err
			}
			sum.Successful++
			r.logger.Info("Saved image", zap.Int("image_number", n), zap.String("file", rec.ImagePath))
		}

		if i < count-1 {
			if err := r.sleep(ctx, r.cfg.Delay); err != nil {
				return r.finish(sum, start), err
			}
		}
	}
	return r.finish(sum, start), nil
}

func (r *Runner) generateOne(ctx context.Context, n int) (Record, error) {
	art, err := r.composer.Compose(ctx, "random", "")
	if err != nil {
		return Record{}, err
	}
	filename := ImageFilename(n, art.Entity, art.Quote)
	path := filepath.Join(r.cfg.OutputDir, filename)
	if err := gg.SavePNG(path, art.Image); err != nil {
		return Record{}, fmt.Errorf("saving %s: %w", path, err)
	}
	return r.record(n, filename, art.Entity, art.Quote, art.Caption, art.CreatedAt), nil
}

// Backfill generates captions for images in the output directory that have
// none yet. The entity is taken from the file name and a fresh quote is
// generated for it.
func (r *Runner) Backfill(ctx context.Context) (Summary, error) {
	var sum Summary
	entries, err := os.ReadDir(r.cfg.OutputDir)
	if err != nil {
		return sum, fmt.Errorf("reading %s: %w", r.cfg.OutputDir, err)
	}

	type pending struct {
		n        int
		filename string
		entity   string
	}
	var images []pending
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if n, entity, _, ok := ParseImageFilename(e.Name()); ok {
			images = append(images, pending{n: n, filename: e.Name(), entity: entity})
		}
	}
	sort.Slice(images, func(i, j int) bool { return images[i].filename < images[j].filename })

	store, err := r.loadStore()
	if err != nil {
		return sum, err
	}
	log := r.textLog()
	done, err := log.Numbers()
	if err != nil {
		return sum, err
	}
	for _, rec := range store.Records() {
		if strings.TrimSpace(rec.InstagramCaption) != "" {
			done[rec.ImageNumber] = true
		}
	}

	var todo []pending
	for _, p := range images {
		if done[p.n] {
			sum.Skipped++
			continue
		}
		todo = append(todo, p)
	}
	if len(todo) == 0 {
		r.logger.Info("All images already have captions", zap.Int("images", len(images)))
		return sum, nil
	}
	if !log.Exists() {
		if err := log.WriteHeader(len(images), r.now()); err != nil {
			return sum, err
		}
	}

	start := r.now()
	for i, p := range todo {
		if err := ctx.Err(); err != nil {
			return r.finish(sum, start), err
		}
		r.progress(i, len(todo), start)

		if !prompts.IsEntity(p.entity) {
			sum.Failed++
			r.logger.Warn("Unknown entity in file name", zap.String("file", p.filename), zap.String("entity", p.entity))
		} else {
			q := r.quotes.Quote(ctx, p.entity, "")
			caption := r.quotes.Caption(ctx, q.Text)
			rec := r.record(p.n, p.filename, p.entity, q.Text, caption, r.now())
			store.Upsert(rec)
			if err := store.Save(); err != nil {
				return r.finish(sum, start), err
			}
			if err := log.Append(rec); err != nil {
				return r.finish(sum, start), err
			}
			sum.Successful++
		}

		if i < len(todo)-1 {
			if err := r.sleep(ctx, r.cfg.CaptionDelay); err != nil {
				return r.finish(sum, start), err
			}
		}
	}
	return r.finish(sum, start), nil
}

// Migrate copies the given image numbers from the text log into the JSON
// records, replacing existing entries. No numbers means every block. It
// returns how many records were written.
func (r *Runner) Migrate(numbers []int) (int, error) {
	log := r.textLog()
	data, err := os.ReadFile(log.Path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", log.Path, err)
	}

	want := map[int]bool{}
	for _, n := range numbers {
		want[n] = true
	}

	store, err := r.loadStore()
	if err != nil {
		return 0, err
	}
	migrated := 0
	now := r.now().Format(TimeLayout)
	for _, rec := range ParseTextLog(string(data), r.cfg.OutputDir) {
		if len(want) > 0 && !want[rec.ImageNumber] {
			continue
		}
		rec = r.record(rec.ImageNumber, rec.Filename, rec.Entity, rec.Quote, rec.InstagramCaption, time.Time{})
		rec.GeneratedAt = now
		if store.Upsert(rec) {
			r.logger.Info("Updated record", zap.Int("image_number", rec.ImageNumber))
		} else {
			r.logger.Info("Added record", zap.Int("image_number", rec.ImageNumber))
		}
		migrated++
	}
	if migrated == 0 {
		return 0, nil
	}
	store.Sort()
	if err := store.Save(); err != nil {
		return 0, err
	}
	return migrated, nil
}

func (r *Runner) record(n int, filename, entity, quote, caption string, at time.Time) Record {
	rel := filepath.Join(r.cfg.OutputDir, filename)
	abs, err := filepath.Abs(rel)
	if err != nil {
		abs = rel
	}
	return Record{
		ImageNumber:       n,
		Filename:          filename,
		ImagePath:         abs,
		ImagePathRelative: filepath.ToSlash(rel),
		Entity:            entity,
		Quote:             quote,
		InstagramCaption:  caption,
		GeneratedAt:       at.Format(TimeLayout),
	}
}

// loadStore opens the records file. An unparseable file is moved aside to
// <name>.corrupt-<timestamp> and an empty store takes its place.
func (r *Runner) loadStore() (*Store, error) {
	path := r.recordsPath()
	store, err := LoadStore(path)
	if !errors.Is(err, ErrCorruptStore) {
		return store, err
	}
	aside := path + ".corrupt-" + r.now().Format("20060102-150405")
	if rerr := os.Rename(path, aside); rerr != nil {
		return nil, fmt.Errorf("moving invalid records file aside: %w", rerr)
	}
	r.logger.Warn("Records file is invalid, moved aside and starting fresh",
		zap.String("moved_to", aside),
		zap.Error(err),
	)
	return store, nil
}

func (r *Runner) acquire() (func(), error) {
	if r.lock == nil {
		return func() {}, nil
	}
	if err := r.lock.Acquire(); err != nil {
		return nil, err
	}
	return func() {
		if err := r.lock.Release(); err != nil {
			r.logger.Warn("Could not release lock", zap.Error(err))
		}
	}, nil
}

func (r *Runner) progress(done, total int, start time.Time) {
	fields := []zap.Field{zap.Int("item", done+1), zap.Int("total", total)}
	if done > 0 {
		perItem := r.now().Sub(start) / time.Duration(done)
		fields = append(fields, zap.Duration("eta", perItem*time.Duration(total-done)))
	}
	r.logger.Info("Progress", fields...)
}

func (r *Runner) finish(sum Summary, start time.Time) Summary {
	sum.Elapsed = r.now().Sub(start)
	r.logger.Info("Batch finished",
		zap.Int("successful", sum.Successful),
		zap.Int("failed", sum.Failed),
		zap.Int("skipped", sum.Skipped),
		zap.Duration("elapsed", sum.Elapsed),
	)
	return sum
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
