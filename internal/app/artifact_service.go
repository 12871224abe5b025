package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/llmtxt/internal/core/apperr"
	"github.com/example/llmtxt/internal/core/artifact"
	"github.com/example/llmtxt/internal/ctxutil"
	"github.com/example/llmtxt/internal/logging"
	"github.com/example/llmtxt/internal/metrics"
	"github.com/example/llmtxt/internal/ports/primary"
	"github.com/example/llmtxt/internal/ports/secondary"
)

// ArtifactServiceImpl implements the ArtifactService interface.
type ArtifactServiceImpl struct {
	locker        secondary.RequestLocker
	root          secondary.DocumentRoot
	backups       secondary.BackupManager
	store         *HistoryStore
	reconciler    *HistoryReconciler
	publicBaseURL string
	metrics       *metrics.Collector
	logger        *zap.Logger
}

// ArtifactServiceDeps groups the collaborators of an ArtifactServiceImpl.
type ArtifactServiceDeps struct {
	Locker        secondary.RequestLocker
	Root          secondary.DocumentRoot
	Backups       secondary.BackupManager
	Store         *HistoryStore
	Reconciler    *HistoryReconciler
	PublicBaseURL string
	Metrics       *metrics.Collector
	Logger        *zap.Logger
}

// NewArtifactService creates a new ArtifactService with injected dependencies.
func NewArtifactService(deps ArtifactServiceDeps) *ArtifactServiceImpl {
	return &ArtifactServiceImpl{
		locker:        deps.Locker,
		root:          deps.Root,
		backups:       deps.Backups,
		store:         deps.Store,
		reconciler:    deps.Reconciler,
		publicBaseURL: strings.TrimRight(deps.PublicBaseURL, "/"),
		metrics:       collectorOrDefault(deps.Metrics),
		logger:        logging.Component(deps.Logger, "artifacts"),
	}
}

// saveOperation is the state of one SaveToRoot call. Its registry is never
// shared with another call.
type saveOperation struct {
	id       string
	ownerID  string
	registry *artifact.BackupRegistry
	existed  map[string]bool
}

// CheckFilesExist reports which canonical files of the kind already exist.
func (s *ArtifactServiceImpl) CheckFilesExist(ctx context.Context, kind string) (*primary.FilesExistResponse, error) {
	if err := requireManage(ctx); err != nil {
		return nil, err
	}
	k, err := artifact.ParseOutputKind(kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrValidation, err)
	}

	snap, err := s.root.Snapshot(ctx, k.TargetNames())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrFilesystem, err)
	}

	resp := &primary.FilesExistResponse{Names: []string{}}
	for _, name := range k.TargetNames() {
		if snap[name] {
			resp.Names = append(resp.Names, name)
		}
	}
	resp.Exists = len(resp.Names) > 0
	return resp, nil
}

// SaveToRoot writes the request's content to the canonical files under the
// save lock. Files that existed before the call are backed up first when the
// overwrite was confirmed. History is recorded after the writes; a history
// failure is reported as a warning, not an error.
func (s *ArtifactServiceImpl) SaveToRoot(ctx context.Context, req primary.SaveRequest) (*primary.SaveResponse, error) {
	if err := requireManage(ctx); err != nil {
		return nil, err
	}

	kind, err := artifact.ParseOutputKind(req.Kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrValidation, err)
	}
	saveCtx := artifact.SaveContext{
		Kind:       kind,
		Content:    req.Content,
		Summarized: req.Summarized,
		Full:       req.Full,
	}
	if err := artifact.CanSave(saveCtx).Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrValidation, err)
	}

	release, err := s.locker.Acquire(ctx)
	if err != nil {
		s.metrics.SavesTotal.WithLabelValues(string(kind), metrics.OutcomeFailed).Inc()
		return nil, err
	}
	defer release()

	existed, err := s.root.Snapshot(ctx, artifact.AllNames())
	if err != nil {
		s.metrics.SavesTotal.WithLabelValues(string(kind), metrics.OutcomeFailed).Inc()
		return nil, fmt.Errorf("%w: %w", apperr.ErrFilesystem, err)
	}

	op := &saveOperation{
		id:       uuid.NewString(),
		ownerID:  ctxutil.OwnerFromContext(ctx),
		registry: artifact.NewBackupRegistry(),
		existed:  existed,
	}
	log := s.logger.With(zap.String("op", op.id), zap.String("owner", op.ownerID), zap.String("kind", string(kind)))
	log.Info("save started", zap.Bool("confirm_overwrite", req.ConfirmOverwrite), zap.Any("existed", existed))

	resp := &primary.SaveResponse{
		FilesSaved:     []primary.SavedFile{},
		BackupsCreated: []string{},
	}
	contents := artifact.ContentFor(saveCtx)

	for _, a := range kind.Artifacts() {
		content, ok := contents[a]
		if !ok {
			continue
		}
		name := a.Filename()

		if artifact.ShouldBackup(op.existed[name], req.ConfirmOverwrite) {
			if backup, ok := s.backupAndReconcile(ctx, op, log, name); ok {
				resp.BackupsCreated = append(resp.BackupsCreated, filepath.Base(backup))
			}
		}

		written, err := s.root.Write(ctx, name, content)
		if err != nil {
			if kind != artifact.KindBoth {
				s.metrics.SavesTotal.WithLabelValues(string(kind), metrics.OutcomeFailed).Inc()
				log.Error("write failed", zap.String("name", name), zap.Error(err))
				return nil, fmt.Errorf("%w: failed to save %s: %w", apperr.ErrFilesystem, name, err)
			}
			log.Warn("write failed", zap.String("name", name), zap.Error(err))
			resp.Errors = append(resp.Errors, "Failed to save "+name)
			continue
		}

		resp.FilesSaved = append(resp.FilesSaved, primary.SavedFile{
			Name: name,
			URL:  s.fileURL(name),
			Path: written,
		})
	}

	if len(resp.FilesSaved) == 0 {
		s.metrics.SavesTotal.WithLabelValues(string(kind), metrics.OutcomeFailed).Inc()
		return nil, fmt.Errorf("%w: no files were saved: %s", apperr.ErrFilesystem, strings.Join(resp.Errors, "; "))
	}

	paths := make([]string, len(resp.FilesSaved))
	for i, f := range resp.FilesSaved {
		paths[i] = f.Path
	}
	summarized, full := artifact.HistoryContent(saveCtx)
	id, tier, err := s.store.Record(ctx, RecordRequest{
		OwnerID:    op.ownerID,
		SourceURL:  req.SourceURL,
		Kind:       kind,
		Summarized: summarized,
		Full:       full,
		FilePath:   artifact.NewPathList(paths...),
	})
	if err != nil {
		log.Warn("history not recorded", zap.Error(err))
		resp.Warnings = append(resp.Warnings, "History could not be recorded: "+err.Error())
	} else {
		resp.HistoryID = id
		if tier != "" {
			log.Debug("save matched existing history entry", zap.Int64("id", id), zap.String("tier", string(tier)))
		}
	}

	resp.Message = saveMessage(kind, resp)
	outcome := metrics.OutcomeSaved
	if len(resp.Errors) > 0 {
		outcome = metrics.OutcomePartial
	}
	s.metrics.SavesTotal.WithLabelValues(string(kind), outcome).Inc()
	log.Info("save finished", zap.Int("files", len(resp.FilesSaved)), zap.Int("backups", len(resp.BackupsCreated)), zap.Int64("history_id", resp.HistoryID))
	return resp, nil
}

// backupAndReconcile backs up the canonical file and repoints the prior
// history entry at the backup. Failures here never abort the save.
func (s *ArtifactServiceImpl) backupAndReconcile(ctx context.Context, op *saveOperation, log *zap.Logger, name string) (string, bool) {
	path := s.root.Path(name)
	backup, ok := s.backups.BackupOnce(ctx, op.registry, path)
	if !ok {
		log.Warn("proceeding without backup", zap.String("name", name))
		return "", false
	}

	if _, _, err := s.reconciler.Reconcile(ctx, op.ownerID, path, backup); err != nil {
		log.Warn("history reconcile failed", zap.String("backup", backup), zap.Error(err))
	}
	return backup, true
}

func (s *ArtifactServiceImpl) fileURL(name string) string {
	if s.publicBaseURL == "" {
		return "/" + name
	}
	return s.publicBaseURL + "/" + name
}

func saveMessage(kind artifact.OutputKind, resp *primary.SaveResponse) string {
	var msg string
	switch {
	case kind == artifact.KindBoth && len(resp.FilesSaved) > 1:
		msg = "Both files saved successfully to website root"
	case kind == artifact.KindBoth:
		msg = "Saved " + resp.FilesSaved[0].Name + " to website root"
	default:
		msg = "File saved successfully to website root"
	}

	switch len(resp.BackupsCreated) {
	case 0:
	case 1:
		msg += ". Backup created: " + resp.BackupsCreated[0]
	default:
		msg += ". Backups created: " + strings.Join(resp.BackupsCreated, ", ")
	}
	return msg
}

// requireManage rejects callers without the manage capability.
func requireManage(ctx context.Context) error {
	if !ctxutil.CanManageFromContext(ctx) {
		return apperr.ErrPermissionDenied
	}
	return nil
}

// Ensure ArtifactServiceImpl implements the interface
var _ primary.ArtifactService = (*ArtifactServiceImpl)(nil)
