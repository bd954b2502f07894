package api

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"mca-name-check/backend/internal/store"
	"mca-name-check/backend/internal/util"
)

const (
	broadcastThrottle = 500 * time.Millisecond
	batchChunkSize    = 500
)

// checkJob tracks the state of a running batch check.
type checkJob struct {
	id        string
	cancel    context.CancelFunc
	startedAt time.Time
	total     int
	batchID   uint
	batchName string
}

type nameResult struct {
	record store.CheckResult
	err    error
}

// startBatchCheck launches a new asynchronous check job. The caller must
// hold s.jobMu prior to invoking this function.
func (s *Server) startBatchCheck(batch *store.CheckBatch, req RunBatchRequest, total int) (*checkJob, error) {
	if s.activeJob != nil {
		return nil, errors.New("batch check already running")
	}

	ctx, cancel := context.WithCancel(context.Background())
	job := &checkJob{
		id:        uuid.NewString(),
		cancel:    cancel,
		startedAt: time.Now().UTC(),
		total:     total,
		batchID:   batch.ID,
		batchName: batch.Name,
	}

	s.activeJob = job
	go s.runBatchCheck(ctx, job, req)
	return job, nil
}

// cancelBatchCheck aborts the active job if present. The caller must hold
// s.jobMu.
func (s *Server) cancelBatchCheck() {
	if s.activeJob == nil {
		return
	}
	s.activeJob.cancel()
}

func (s *Server) runBatchCheck(ctx context.Context, job *checkJob, req RunBatchRequest) {
	defer func() {
		if err := s.db.UpdateBatchProcessingInfo(job.batchID); err != nil {
			logrus.WithError(err).WithField("batch_id", job.batchID).Warn("refresh batch processing info")
		}
		s.jobMu.Lock()
		s.activeJob = nil
		s.jobMu.Unlock()
	}()

	skipExisting := req.Resume && !req.Force
	existing := make(map[string]struct{})
	processed := 0

	if skipExisting {
		checked, err := s.db.CheckedNamesForBatch(job.batchID)
		if err != nil {
			s.notifier.Broadcast(CheckEvent{
				Type:    "error",
				JobID:   job.id,
				BatchID: job.batchID,
				Message: fmt.Sprintf("load existing results: %v", err),
			})
			logrus.WithError(err).Error("load existing results")
			return
		}
		for _, name := range checked {
			key := strings.TrimSpace(name)
			if key != "" {
				existing[key] = struct{}{}
			}
		}
		processed = len(existing)
	}

	logrus.WithFields(logrus.Fields{
		"job":        job.id,
		"batch_id":   job.batchID,
		"batch_name": job.batchName,
		"total":      job.total,
		"processed":  processed,
		"resume":     req.Resume,
		"force":      req.Force,
	}).Info("batch check started")

	s.notifier.Broadcast(CheckEvent{
		Type:      "started",
		JobID:     job.id,
		BatchID:   job.batchID,
		Total:     job.total,
		Processed: processed,
		Message:   "batch check started",
	})

	workers := s.workerCount()
	taskCh := make(chan store.BatchName, workers*4)
	resultCh := make(chan nameResult, workers*4)
	errCh := make(chan error, 1)

	var workerWG sync.WaitGroup
	for i := 0; i < workers; i++ {
		workerWG.Add(1)
		go func() {
			defer workerWG.Done()
			for task := range taskCh {
				select {
				case <-ctx.Done():
					return
				default:
				}
				record, err := s.checkName(ctx, task)
				select {
				case resultCh <- nameResult{record: record, err: err}:
				case <-ctx.Done():
					return
				}
				if err != nil {
					return
				}
			}
		}()
	}

	go func() {
		workerWG.Wait()
		close(resultCh)
	}()

	go func() {
		defer close(taskCh)
		defer close(errCh)
		offset := 0
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			rows, err := s.db.ListBatchNames(job.batchID, offset, batchChunkSize)
			if err != nil {
				errCh <- fmt.Errorf("list batch names: %w", err)
				return
			}
			if len(rows) == 0 {
				return
			}
			for _, row := range rows {
				if strings.TrimSpace(row.Name) == "" {
					continue
				}
				if skipExisting {
					if _, ok := existing[row.NameNormalized]; ok {
						continue
					}
				}
				select {
				case taskCh <- row:
				case <-ctx.Done():
					return
				}
			}
			offset += len(rows)
			if len(rows) < batchChunkSize {
				return
			}
		}
	}()

	var (
		lastEmit     time.Time
		hasPending   bool
		pendingEvent CheckEvent
	)
	flush := func(force bool) {
		if !hasPending {
			return
		}
		if !force && !lastEmit.IsZero() && time.Since(lastEmit) < broadcastThrottle {
			return
		}
		s.notifier.Broadcast(pendingEvent)
		lastEmit = time.Now()
		hasPending = false
	}

	activeResultCh := resultCh
	activeErrCh := errCh

	for activeResultCh != nil || activeErrCh != nil {
		select {
		case <-ctx.Done():
			flush(true)
			s.notifier.Broadcast(CheckEvent{
				Type:      "cancelled",
				JobID:     job.id,
				BatchID:   job.batchID,
				Total:     job.total,
				Processed: processed,
				Message:   "batch check cancelled",
			})
			logrus.WithField("job", job.id).WithField("batch_id", job.batchID).Warn("batch check cancelled")
			return
		case err, ok := <-activeErrCh:
			if !ok {
				activeErrCh = nil
				continue
			}
			if err != nil {
				flush(true)
				s.notifier.Broadcast(CheckEvent{
					Type:    "error",
					JobID:   job.id,
					BatchID: job.batchID,
					Message: err.Error(),
				})
				logrus.WithError(err).Error("list batch names")
				job.cancel()
				return
			}
		case res, ok := <-activeResultCh:
			if !ok {
				activeResultCh = nil
				continue
			}
			if res.err != nil {
				flush(true)
				s.notifier.Broadcast(CheckEvent{
					Type:    "error",
					JobID:   job.id,
					BatchID: job.batchID,
					Message: fmt.Sprintf("check name: %v", res.err),
				})
				logrus.WithError(res.err).Error("check name")
				job.cancel()
				return
			}

			record := res.record
			if err := s.db.SaveCheckResult(&record); err != nil {
				flush(true)
				s.notifier.Broadcast(CheckEvent{
					Type:    "error",
					JobID:   job.id,
					BatchID: job.batchID,
					Message: fmt.Sprintf("save result: %v", err),
				})
				logrus.WithError(err).Error("save result")
				job.cancel()
				return
			}

			if skipExisting {
				existing[record.NameNormalized] = struct{}{}
			}

			dto := FromModel(record)
			processed++
			pendingEvent = CheckEvent{
				Type:      "result",
				JobID:     job.id,
				BatchID:   job.batchID,
				Total:     job.total,
				Processed: processed,
				Result:    &dto,
			}
			hasPending = true
			flush(false)
		}
	}

	flush(true)

	duration := time.Since(job.startedAt).Round(time.Millisecond)
	s.notifier.Broadcast(CheckEvent{
		Type:      "complete",
		JobID:     job.id,
		BatchID:   job.batchID,
		Total:     job.total,
		Processed: processed,
		Message:   fmt.Sprintf("batch check finished in %s", duration),
	})
	logrus.WithFields(logrus.Fields{
		"job":       job.id,
		"batch_id":  job.batchID,
		"processed": processed,
		"duration":  duration,
	}).Info("batch check completed")
}

// checkName runs the engine for one candidate row and maps the outcome to a
// persistable record.
func (s *Server) checkName(ctx context.Context, row store.BatchName) (store.CheckResult, error) {
	if err := ctx.Err(); err != nil {
		return store.CheckResult{}, err
	}

	timer := util.StartTimer()
	result, err := s.engine.Check(ctx, row.Name)
	if err != nil {
		return store.CheckResult{}, err
	}

	record := store.CheckResult{
		BatchID:            row.BatchID,
		Name:               result.Name,
		NameNormalized:     row.NameNormalized,
		Available:          result.IsAvailable,
		CandidatesExamined: result.Availability.CandidatesExamined,
		Valid:              result.Validation.IsValid,
		Score:              result.Validation.Score,
		Recommendation:     result.Recommendation,
		Diagnostic:         result.Availability.Diagnostic,
	}
	record.SetExactMatches(matchRecords(result.Availability.ExactMatches))
	record.SetSimilarMatches(matchRecords(result.Availability.SimilarMatches))
	record.SetErrors(result.Validation.Errors)
	record.SetWarnings(result.Validation.Warnings)
	record.ProcessingTimeMs = timer.ElapsedMs()
	return record, nil
}

func (s *Server) workerCount() int {
	if s.workers > 0 {
		return s.workers
	}
	workers := runtime.NumCPU()
	if workers < 2 {
		workers = 2
	}
	if workers > 12 {
		workers = 12
	}
	return workers
}
