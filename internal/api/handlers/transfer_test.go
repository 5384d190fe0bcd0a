package handlers

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pumplab/stepflow/internal/events"
	"github.com/pumplab/stepflow/internal/storage"
	"github.com/pumplab/stepflow/internal/store"
	"github.com/pumplab/stepflow/pkg/models"
)

// snapshotKey matches the timestamped object keys CreateBackup generates.
func snapshotKey(key string) bool {
	return strings.HasPrefix(key, "profiles-") && strings.HasSuffix(key, ".json")
}

func TestExportProfiles(t *testing.T) {
	tests := []struct {
		name            string
		format          string
		wantFormat      string
		wantContentType string
	}{
		{name: "defaults to json", format: "", wantFormat: "json", wantContentType: "application/json"},
		{name: "yaml", format: "yaml", wantFormat: "yaml", wantContentType: "application/yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockProfileRepository{}
			mockRepo.On("Export", mock.Anything, tt.wantFormat).Return([]byte("encoded record"), nil)

			handler := NewTransferHandler(mockRepo, nil, events.NewBroker())
			resp, err := handler.ExportProfiles(context.Background(), &models.ExportProfilesRequest{Format: tt.format})

			require.NoError(t, err)
			assert.Equal(t, tt.wantContentType, resp.ContentType)
			assert.Equal(t, []byte("encoded record"), resp.Body)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestImportProfiles(t *testing.T) {
	tests := []struct {
		name      string
		mockSetup func(*MockProfileRepository)
		wantCode  int
		wantError bool
	}{
		{
			name: "replaces the collection",
			mockSetup: func(mockRepo *MockProfileRepository) {
				mockRepo.On("Import", mock.Anything, []byte("uploaded record"), "json").Return(2, 3, nil)
			},
			wantError: false,
		},
		{
			name: "corrupt record",
			mockSetup: func(mockRepo *MockProfileRepository) {
				mockRepo.On("Import", mock.Anything, []byte("uploaded record"), "json").
					Return(0, 0, &store.CorruptRecordError{Reason: "decode json: unexpected end of JSON input"})
			},
			wantCode:  400,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockProfileRepository{}
			tt.mockSetup(mockRepo)
			broker := events.NewBroker()
			ch := broker.Subscribe()

			handler := NewTransferHandler(mockRepo, nil, broker)
			resp, err := handler.ImportProfiles(context.Background(), &models.ImportProfilesRequest{
				RawBody: []byte("uploaded record"),
			})

			if tt.wantError {
				assertStatus(t, err, tt.wantCode)
				assertNoEvent(t, ch)
			} else {
				require.NoError(t, err)
				assert.Equal(t, 2, resp.Body.MCUs)
				assert.Equal(t, 3, resp.Body.Motors)

				evt := nextEvent(t, ch)
				assert.Equal(t, events.TypeImported, evt.Type)
				assert.Equal(t, events.EntityCollection, evt.Entity)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestCreateBackup(t *testing.T) {
	tests := []struct {
		name      string
		mockSetup func(*MockProfileRepository, *MockSnapshotStorage)
		wantCode  int
		wantError bool
		wantURL   bool
	}{
		{
			name: "uploads and presigns",
			mockSetup: func(mockRepo *MockProfileRepository, mockSnap *MockSnapshotStorage) {
				mockRepo.On("Export", mock.Anything, "json").Return([]byte("encoded record"), nil)
				mockSnap.On("UploadSnapshot", mock.Anything, mock.MatchedBy(snapshotKey), []byte("encoded record")).Return(nil)
				mockSnap.On("GenerateDownloadURL", mock.Anything, mock.MatchedBy(snapshotKey)).
					Return("https://bucket.example/snapshot", nil)
			},
			wantError: false,
			wantURL:   true,
		},
		{
			name: "presign failure keeps the snapshot",
			mockSetup: func(mockRepo *MockProfileRepository, mockSnap *MockSnapshotStorage) {
				mockRepo.On("Export", mock.Anything, "json").Return([]byte("encoded record"), nil)
				mockSnap.On("UploadSnapshot", mock.Anything, mock.MatchedBy(snapshotKey), []byte("encoded record")).Return(nil)
				mockSnap.On("GenerateDownloadURL", mock.Anything, mock.MatchedBy(snapshotKey)).
					Return("", assert.AnError)
			},
			wantError: false,
			wantURL:   false,
		},
		{
			name: "upload failure",
			mockSetup: func(mockRepo *MockProfileRepository, mockSnap *MockSnapshotStorage) {
				mockRepo.On("Export", mock.Anything, "json").Return([]byte("encoded record"), nil)
				mockSnap.On("UploadSnapshot", mock.Anything, mock.MatchedBy(snapshotKey), []byte("encoded record")).
					Return(assert.AnError)
			},
			wantCode:  500,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockProfileRepository{}
			mockSnap := &MockSnapshotStorage{}
			tt.mockSetup(mockRepo, mockSnap)

			handler := NewTransferHandler(mockRepo, mockSnap, events.NewBroker())
			resp, err := handler.CreateBackup(context.Background(), &struct{}{})

			if tt.wantError {
				assertStatus(t, err, tt.wantCode)
			} else {
				require.NoError(t, err)
				assert.True(t, snapshotKey(resp.Body.Key))
				if tt.wantURL {
					assert.NotEmpty(t, resp.Body.URL)
				} else {
					assert.Empty(t, resp.Body.URL)
				}
			}

			mockRepo.AssertExpectations(t)
			mockSnap.AssertExpectations(t)
		})
	}
}

func TestCreateBackup_NotConfigured(t *testing.T) {
	mockRepo := &MockProfileRepository{}
	handler := NewTransferHandler(mockRepo, nil, events.NewBroker())

	_, err := handler.CreateBackup(context.Background(), &struct{}{})

	assertStatus(t, err, 409)
	mockRepo.AssertExpectations(t)
}

func TestListBackups(t *testing.T) {
	newest := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	older := newest.Add(-24 * time.Hour)

	mockSnap := &MockSnapshotStorage{}
	mockSnap.On("ListSnapshots", mock.Anything).Return([]storage.SnapshotInfo{
		{Name: "profiles-20250602T120000Z.json", SizeBytes: 512, LastModified: newest},
		{Name: "profiles-20250601T120000Z.json", SizeBytes: 498, LastModified: older},
	}, nil)

	handler := NewTransferHandler(&MockProfileRepository{}, mockSnap, events.NewBroker())
	resp, err := handler.ListBackups(context.Background(), &struct{}{})

	require.NoError(t, err)
	assert.Equal(t, 2, resp.Body.Count)
	assert.Equal(t, "profiles-20250602T120000Z.json", resp.Body.Backups[0].Key)
	assert.Equal(t, int64(512), resp.Body.Backups[0].SizeBytes)
	assert.Equal(t, newest, resp.Body.Backups[0].LastModified)
	mockSnap.AssertExpectations(t)
}

func TestListBackups_NotConfigured(t *testing.T) {
	handler := NewTransferHandler(&MockProfileRepository{}, nil, events.NewBroker())

	_, err := handler.ListBackups(context.Background(), &struct{}{})

	assertStatus(t, err, 409)
}

func TestRestoreBackup(t *testing.T) {
	tests := []struct {
		name      string
		mockSetup func(*MockProfileRepository, *MockSnapshotStorage)
		wantCode  int
		wantError bool
	}{
		{
			name: "replaces the collection from a snapshot",
			mockSetup: func(mockRepo *MockProfileRepository, mockSnap *MockSnapshotStorage) {
				mockSnap.On("DownloadSnapshot", mock.Anything, "profiles-20250601T120000Z.json").
					Return([]byte("archived record"), nil)
				mockRepo.On("Import", mock.Anything, []byte("archived record"), "json").Return(1, 2, nil)
			},
			wantError: false,
		},
		{
			name: "missing snapshot",
			mockSetup: func(mockRepo *MockProfileRepository, mockSnap *MockSnapshotStorage) {
				mockSnap.On("DownloadSnapshot", mock.Anything, "profiles-20250601T120000Z.json").
					Return(nil, fmt.Errorf("failed to download snapshot: %w", &types.NoSuchKey{}))
			},
			wantCode:  404,
			wantError: true,
		},
		{
			name: "snapshot no longer decodes",
			mockSetup: func(mockRepo *MockProfileRepository, mockSnap *MockSnapshotStorage) {
				mockSnap.On("DownloadSnapshot", mock.Anything, "profiles-20250601T120000Z.json").
					Return([]byte("archived record"), nil)
				mockRepo.On("Import", mock.Anything, []byte("archived record"), "json").
					Return(0, 0, &store.CorruptRecordError{Reason: "decode json: invalid character 'a'"})
			},
			wantCode:  400,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockProfileRepository{}
			mockSnap := &MockSnapshotStorage{}
			tt.mockSetup(mockRepo, mockSnap)
			broker := events.NewBroker()
			ch := broker.Subscribe()

			handler := NewTransferHandler(mockRepo, mockSnap, broker)
			resp, err := handler.RestoreBackup(context.Background(), &models.RestoreBackupRequest{
				Body: models.RestoreBackupBody{Key: "profiles-20250601T120000Z.json"},
			})

			if tt.wantError {
				assertStatus(t, err, tt.wantCode)
				assertNoEvent(t, ch)
			} else {
				require.NoError(t, err)
				assert.Equal(t, 1, resp.Body.MCUs)
				assert.Equal(t, 2, resp.Body.Motors)

				evt := nextEvent(t, ch)
				assert.Equal(t, events.TypeRestored, evt.Type)
				assert.Equal(t, events.EntityCollection, evt.Entity)
			}

			mockRepo.AssertExpectations(t)
			mockSnap.AssertExpectations(t)
		})
	}
}
