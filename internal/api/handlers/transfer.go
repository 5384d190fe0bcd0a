package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/pumplab/stepflow/internal/events"
	"github.com/pumplab/stepflow/internal/repository"
	"github.com/pumplab/stepflow/internal/storage"
	"github.com/pumplab/stepflow/internal/store"
	"github.com/pumplab/stepflow/pkg/models"
)

// TransferHandler handles export, import and snapshot backup HTTP requests.
// The snapshot storage is optional; endpoints that need it reply 409 when it
// was not configured.
type TransferHandler struct {
	repo      repository.ProfileRepository
	snapshots storage.SnapshotStorage
	broker    *events.Broker
}

// NewTransferHandler creates a new transfer handler
func NewTransferHandler(repo repository.ProfileRepository, snapshots storage.SnapshotStorage, broker *events.Broker) *TransferHandler {
	return &TransferHandler{repo: repo, snapshots: snapshots, broker: broker}
}

func contentTypeFor(format string) string {
	if format == store.FormatYAML {
		return "application/yaml"
	}
	return "application/json"
}

// ExportProfiles renders the whole collection as a downloadable record
func (h *TransferHandler) ExportProfiles(ctx context.Context, req *models.ExportProfilesRequest) (*models.ExportProfilesResponse, error) {
	format := req.Format
	if format == "" {
		format = store.FormatJSON
	}

	data, err := h.repo.Export(ctx, format)
	if err != nil {
		return nil, httpError(err)
	}

	return &models.ExportProfilesResponse{
		ContentType: contentTypeFor(format),
		Body:        data,
	}, nil
}

// ImportProfiles replaces the collection with an uploaded record
func (h *TransferHandler) ImportProfiles(ctx context.Context, req *models.ImportProfilesRequest) (*models.ImportProfilesResponse, error) {
	format := req.Format
	if format == "" {
		format = store.FormatJSON
	}

	log.Info().Str("format", format).Int("bytes", len(req.RawBody)).Msg("Importing profile record")

	mcus, motors, err := h.repo.Import(ctx, req.RawBody, format)
	if err != nil {
		return nil, httpError(err)
	}

	log.Info().Int("mcus", mcus).Int("motors", motors).Msg("Profile record imported")
	h.broker.Publish(events.Event{Type: events.TypeImported, Entity: events.EntityCollection})
	return &models.ImportProfilesResponse{
		Body: models.ImportResultBody{MCUs: mcus, Motors: motors},
	}, nil
}

// CreateBackup archives the current collection as a bucket snapshot
func (h *TransferHandler) CreateBackup(ctx context.Context, req *struct{}) (*models.CreateBackupResponse, error) {
	if h.snapshots == nil {
		return nil, huma.Error409Conflict("Snapshot backups are not configured", nil)
	}

	data, err := h.repo.Export(ctx, store.FormatJSON)
	if err != nil {
		return nil, httpError(err)
	}

	key := fmt.Sprintf("profiles-%s.json", time.Now().UTC().Format("20060102T150405Z"))
	log.Info().Str("key", key).Int("bytes", len(data)).Msg("Uploading profile snapshot")

	if err := h.snapshots.UploadSnapshot(ctx, key, data); err != nil {
		return nil, huma.Error500InternalServerError("Failed to upload snapshot", err)
	}

	url, err := h.snapshots.GenerateDownloadURL(ctx, key)
	if err != nil {
		// The snapshot is stored; a missing link is not worth failing over.
		log.Warn().Err(err).Str("key", key).Msg("Failed to presign snapshot URL")
		url = ""
	}

	return &models.CreateBackupResponse{
		Body: models.CreateBackupBody{Key: key, URL: url},
	}, nil
}

// ListBackups returns stored snapshots, newest first
func (h *TransferHandler) ListBackups(ctx context.Context, req *struct{}) (*models.ListBackupsResponse, error) {
	if h.snapshots == nil {
		return nil, huma.Error409Conflict("Snapshot backups are not configured", nil)
	}

	infos, err := h.snapshots.ListSnapshots(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list snapshots", err)
	}

	backups := make([]models.BackupInfo, 0, len(infos))
	for _, info := range infos {
		backups = append(backups, models.BackupInfo{
			Key:          info.Name,
			SizeBytes:    info.SizeBytes,
			LastModified: info.LastModified,
		})
	}

	return &models.ListBackupsResponse{
		Body: models.ListBackupsBody{Backups: backups, Count: len(backups)},
	}, nil
}

// RestoreBackup replaces the collection with an archived snapshot
func (h *TransferHandler) RestoreBackup(ctx context.Context, req *models.RestoreBackupRequest) (*models.RestoreBackupResponse, error) {
	if h.snapshots == nil {
		return nil, huma.Error409Conflict("Snapshot backups are not configured", nil)
	}

	log.Info().Str("key", req.Body.Key).Msg("Restoring profile snapshot")

	data, err := h.snapshots.DownloadSnapshot(ctx, req.Body.Key)
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, huma.Error404NotFound("Snapshot not found", err)
		}
		return nil, huma.Error500InternalServerError("Failed to download snapshot", err)
	}

	mcus, motors, err := h.repo.Import(ctx, data, store.FormatJSON)
	if err != nil {
		return nil, httpError(err)
	}

	log.Info().Str("key", req.Body.Key).Int("mcus", mcus).Int("motors", motors).Msg("Profile snapshot restored")
	h.broker.Publish(events.Event{Type: events.TypeRestored, Entity: events.EntityCollection})
	return &models.RestoreBackupResponse{
		Body: models.ImportResultBody{MCUs: mcus, Motors: motors},
	}, nil
}
