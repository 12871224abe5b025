package app

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/example/llmtxt/internal/core/apperr"
	"github.com/example/llmtxt/internal/core/artifact"
	"github.com/example/llmtxt/internal/logging"
	"github.com/example/llmtxt/internal/ports/primary"
	"github.com/example/llmtxt/internal/ports/secondary"
)

// DefaultBatchSize is the number of items requested per pipeline batch.
const DefaultBatchSize = 5

// GenerationServiceImpl implements the GenerationService interface.
type GenerationServiceImpl struct {
	pipeline  secondary.GenerationPipeline
	artifacts primary.ArtifactService
	limiter   *rate.Limiter
	batchSize int
	logger    *zap.Logger
}

// NewGenerationService creates a GenerationService. Batch calls are paced by
// limiter; a nil limiter does not pace.
func NewGenerationService(pipeline secondary.GenerationPipeline, artifacts primary.ArtifactService, limiter *rate.Limiter, batchSize int, logger *zap.Logger) *GenerationServiceImpl {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &GenerationServiceImpl{
		pipeline:  pipeline,
		artifacts: artifacts,
		limiter:   limiter,
		batchSize: batchSize,
		logger:    logging.Component(logger, "generation"),
	}
}

// Generate prepares a job, feeds it batch by batch until every item is
// processed, then finalizes it. With req.Save the text is saved to the
// document root. Archive bytes are returned to the caller only.
func (s *GenerationServiceImpl) Generate(ctx context.Context, req primary.GenerateRequest) (*primary.GenerateResponse, error) {
	if err := requireManage(ctx); err != nil {
		return nil, err
	}
	url := strings.TrimSpace(req.WebsiteURL)
	if url == "" {
		return nil, fmt.Errorf("%w: website URL is required", apperr.ErrValidation)
	}
	kind, err := artifact.ParseOutputKind(req.Kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrValidation, err)
	}

	job, err := s.pipeline.Prepare(ctx, url, kind.LegacyName())
	if err != nil {
		return nil, fmt.Errorf("failed to prepare generation: %w", err)
	}
	log := s.logger.With(zap.String("job", job.JobID), zap.String("url", url))
	log.Info("generation prepared", zap.Int("total", job.Total))

	processed := 0
	for processed < job.Total {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("generation cancelled: %w", err)
		}
		next, err := s.pipeline.ProcessBatch(ctx, job.JobID, processed, s.batchSize)
		if err != nil {
			return nil, fmt.Errorf("failed to process batch at %d: %w", processed, err)
		}
		if next <= processed {
			return nil, fmt.Errorf("pipeline made no progress at %d of %d", processed, job.Total)
		}
		processed = next
		if req.Progress != nil {
			req.Progress(processed, job.Total)
		}
		log.Debug("batch processed", zap.Int("processed", processed))
	}

	out, err := s.pipeline.Finalize(ctx, job.JobID)
	if err != nil {
		return nil, fmt.Errorf("failed to finalize generation: %w", err)
	}
	log.Info("generation finalized", zap.Bool("zip", out.ZipMode))

	resp := &primary.GenerateResponse{
		JobID:       job.JobID,
		SummaryText: out.SummaryText,
		FullText:    out.FullText,
		ZipMode:     out.ZipMode,
		ZipData:     out.ZipData,
	}
	if kind == artifact.KindSummary {
		resp.FullText = ""
	}
	if kind == artifact.KindFull {
		resp.SummaryText = ""
	}

	if !req.Save {
		return resp, nil
	}

	saveReq := primary.SaveRequest{
		Kind:             string(kind),
		ConfirmOverwrite: req.ConfirmOverwrite,
		SourceURL:        url,
	}
	switch kind {
	case artifact.KindSummary:
		saveReq.Content = resp.SummaryText
	case artifact.KindFull:
		saveReq.Content = resp.FullText
	case artifact.KindBoth:
		saveReq.Summarized = resp.SummaryText
		saveReq.Full = resp.FullText
	}

	saved, err := s.artifacts.SaveToRoot(ctx, saveReq)
	if err != nil {
		return resp, fmt.Errorf("generated but failed to save: %w", err)
	}
	resp.Save = saved
	return resp, nil
}

// Ensure GenerationServiceImpl implements the interface
var _ primary.GenerationService = (*GenerationServiceImpl)(nil)
