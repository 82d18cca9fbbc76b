// Package migration brings a collection of mixed-shape content documents to
// the canonical schema in a fixed sequence of idempotent stages, preceded by
// a full backup and followed by a validation report.
package migration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ainews/newsroom/backend/content-services/internal/content"
	"github.com/ainews/newsroom/backend/content-services/internal/store"
	"github.com/ainews/newsroom/backend/content-services/pkg/logger"
	"github.com/ainews/newsroom/backend/content-services/pkg/metrics"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

const defaultLeaseTTL = 30 * time.Minute

// Pipeline runs migrations against collections of one database.
type Pipeline struct {
	db        store.Database
	locker    Locker
	leaseTTL  time.Duration
	languages []string
	now       func() time.Time
}

type Option func(*Pipeline)

// WithLocker sets the lease provider. The default is an in-process LocalLocker.
func WithLocker(l Locker) Option { return func(p *Pipeline) { p.locker = l } }

func WithLeaseTTL(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.leaseTTL = d
		}
	}
}

// WithLanguages sets the locale codes documents are normalised to. The first
// one receives legacy single-language text.
func WithLanguages(langs []string) Option {
	return func(p *Pipeline) {
		if len(langs) > 0 {
			p.languages = append([]string(nil), langs...)
		}
	}
}

func WithClock(now func() time.Time) Option { return func(p *Pipeline) { p.now = now } }

func New(db store.Database, opts ...Option) *Pipeline {
	p := &Pipeline{
		db:        db,
		locker:    NewLocalLocker(),
		leaseTTL:  defaultLeaseTTL,
		languages: append([]string(nil), content.DefaultLanguages...),
		now:       time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run migrates collection under a per-collection lease.
//
// A store error halts the run at the failing stage: later stages are skipped,
// the report is still written with whatever was counted, and the backup is
// left for manual recovery. The returned report is non-nil whenever the lease
// was acquired.
func (p *Pipeline) Run(ctx context.Context, collection string) (*Report, error) {
	lease, err := p.locker.Acquire(ctx, "migration:"+collection, p.leaseTTL)
	if err != nil {
		if errors.Is(err, ErrLocked) {
			metrics.MigrationRuns.WithLabelValues("locked").Inc()
		}
		return nil, err
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			logger.Warnf("migration %s: %v", collection, err)
		}
	}()

	started := p.now().UTC()
	report := &Report{
		RunID:            uuid.NewString(),
		Collection:       collection,
		StartedAt:        started,
		BackupCollection: BackupName(collection, started),
		ReportCollection: ReportName(collection, started),
		Stages:           []StageResult{},
	}
	log := logger.With("run", report.RunID, "collection", collection)
	log.Infow("migration started", "backup", report.BackupCollection)

	c := p.db.Collection(collection)
	mutations := p.mutations()
	var runErr error
	for _, stage := range Stages {
		if stage == StageReport {
			break
		}
		begin := time.Now()
		var res store.UpdateResult
		var err error
		switch stage {
		case StageBackup:
			res, err = p.backup(ctx, c, report.BackupCollection)
			if res.ModifiedCount == 0 {
				report.BackupCollection = ""
			}
		case StageValidate:
			err = validate(ctx, c, report, p.languages)
			res.MatchedCount = report.InvalidDocuments
		default:
			res, err = mutations[stage](ctx, c)
		}
		result := StageResult{Stage: stage, Matched: res.MatchedCount, Modified: res.ModifiedCount, Duration: time.Since(begin)}
		metrics.MigrationStageSeconds.WithLabelValues(string(stage)).Observe(result.Duration.Seconds())
		if err != nil {
			result.Error = err.Error()
			report.Stages = append(report.Stages, result)
			report.FailedStage = stage
			report.Error = err.Error()
			runErr = fmt.Errorf("migration of %s halted at %s: %w", collection, stage, err)
			log.Errorw("stage failed", "stage", stage, "error", err)
			break
		}
		metrics.MigrationModified.WithLabelValues(string(stage)).Add(float64(res.ModifiedCount))
		report.Stages = append(report.Stages, result)
		log.Infow("stage done", "stage", stage, "matched", res.MatchedCount, "modified", res.ModifiedCount)
	}

	// The report is written even when ctx was cancelled mid-run.
	reportCtx := context.WithoutCancel(ctx)
	if !report.stageRan(StageValidate) {
		if total, err := c.CountDocuments(reportCtx, bson.M{}); err == nil {
			report.TotalDocuments = total
		}
	}
	if err := fieldStatistics(reportCtx, c, report); err != nil {
		log.Warnw("field statistics incomplete", "error", err)
	}
	report.FinishedAt = p.now().UTC()
	if err := p.writeReport(reportCtx, report); err != nil {
		log.Errorw("report not written", "error", err)
		runErr = errors.Join(runErr, fmt.Errorf("write report %s: %w", report.ReportCollection, err))
	}

	outcome := "clean"
	switch {
	case runErr != nil:
		outcome = "failed"
	case !report.Clean():
		outcome = "dirty"
	}
	metrics.MigrationRuns.WithLabelValues(outcome).Inc()
	log.Infow("migration finished", "outcome", outcome, "total", report.TotalDocuments, "issues", report.InvalidDocuments)
	return report, runErr
}

// RunStage runs a single mutating stage without backup or lease, for
// operators re-applying one step.
func (p *Pipeline) RunStage(ctx context.Context, collection string, stage Stage) (StageResult, error) {
	fn, ok := p.mutations()[stage]
	if !ok {
		return StageResult{}, fmt.Errorf("%w: %s is not a mutating stage", content.ErrValidation, stage)
	}
	begin := time.Now()
	res, err := fn(ctx, p.db.Collection(collection))
	out := StageResult{Stage: stage, Matched: res.MatchedCount, Modified: res.ModifiedCount, Duration: time.Since(begin)}
	if err != nil {
		out.Error = err.Error()
		return out, err
	}
	metrics.MigrationModified.WithLabelValues(string(stage)).Add(float64(res.ModifiedCount))
	return out, nil
}

// backup copies every document into the snapshot collection. It must finish
// before any mutating stage starts. When nothing was copied (an empty
// collection or a failed read) Run clears the report's BackupCollection.
func (p *Pipeline) backup(ctx context.Context, c store.Collection, name string) (store.UpdateResult, error) {
	docs, err := c.Find(ctx, bson.M{})
	if err != nil {
		return store.UpdateResult{}, err
	}
	res := store.UpdateResult{MatchedCount: int64(len(docs))}
	if len(docs) == 0 {
		return res, nil
	}
	batch := make([]any, len(docs))
	for i, d := range docs {
		batch[i] = d
	}
	n, err := p.db.Collection(name).InsertMany(ctx, batch)
	res.ModifiedCount = int64(n)
	return res, err
}

func (p *Pipeline) writeReport(ctx context.Context, r *Report) error {
	_, err := p.db.Collection(r.ReportCollection).InsertMany(ctx, []any{r})
	return err
}
