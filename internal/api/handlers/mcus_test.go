package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pumplab/stepflow/internal/events"
	"github.com/pumplab/stepflow/internal/store"
	"github.com/pumplab/stepflow/pkg/models"
)

// assertStatus checks that a handler error carries the expected HTTP status.
func assertStatus(t *testing.T, err error, want int) {
	t.Helper()
	var se huma.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, want, se.GetStatus())
}

// nextEvent pops the event a handler just published. Publish is synchronous,
// so the event is already buffered by the time the handler returns.
func nextEvent(t *testing.T, ch chan events.Event) events.Event {
	t.Helper()
	select {
	case evt := <-ch:
		return evt
	default:
		t.Fatal("no event published")
		return events.Event{}
	}
}

func assertNoEvent(t *testing.T, ch chan events.Event) {
	t.Helper()
	select {
	case evt := <-ch:
		t.Fatalf("unexpected event published: %+v", evt)
	default:
	}
}

func sampleMCU() *models.MCUProfile {
	port := "/dev/ttyACM0"
	now := time.Now().UTC()
	return &models.MCUProfile{
		ID:        "mcu-1",
		Name:      "bench-board",
		Port:      &port,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCreateMCU(t *testing.T) {
	tests := []struct {
		name      string
		input     models.CreateMCURequest
		mockSetup func(*MockProfileRepository)
		wantCode  int
		wantError bool
	}{
		{
			name: "with port",
			input: models.CreateMCURequest{
				Body: models.CreateMCUBody{Name: "bench-board", Port: "/dev/ttyACM0"},
			},
			mockSetup: func(mockRepo *MockProfileRepository) {
				port := "/dev/ttyACM0"
				mockRepo.On("CreateMCU", mock.Anything, "bench-board", &port).Return(sampleMCU(), nil)
			},
			wantError: false,
		},
		{
			name: "without port passes nil",
			input: models.CreateMCURequest{
				Body: models.CreateMCUBody{Name: "spare-board"},
			},
			mockSetup: func(mockRepo *MockProfileRepository) {
				mockRepo.On("CreateMCU", mock.Anything, "spare-board", (*string)(nil)).
					Return(&models.MCUProfile{ID: "mcu-2", Name: "spare-board"}, nil)
			},
			wantError: false,
		},
		{
			name: "duplicate name",
			input: models.CreateMCURequest{
				Body: models.CreateMCUBody{Name: "bench-board"},
			},
			mockSetup: func(mockRepo *MockProfileRepository) {
				mockRepo.On("CreateMCU", mock.Anything, "bench-board", (*string)(nil)).
					Return(nil, &store.DuplicateNameError{Kind: "mcu", Name: "bench-board"})
			},
			wantCode:  409,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockProfileRepository{}
			tt.mockSetup(mockRepo)
			broker := events.NewBroker()
			ch := broker.Subscribe()

			handler := NewMCUHandler(mockRepo, broker)
			resp, err := handler.CreateMCU(context.Background(), &tt.input)

			if tt.wantError {
				assertStatus(t, err, tt.wantCode)
				assertNoEvent(t, ch)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, resp)
				assert.Equal(t, tt.input.Body.Name, resp.Body.Name)

				evt := nextEvent(t, ch)
				assert.Equal(t, events.TypeCreated, evt.Type)
				assert.Equal(t, events.EntityMCU, evt.Entity)
				assert.Equal(t, resp.Body.ID, evt.ID)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestGetMCU_NotFound(t *testing.T) {
	mockRepo := &MockProfileRepository{}
	mockRepo.On("GetMCU", mock.Anything, "missing").
		Return(nil, &store.NotFoundError{Kind: "mcu", ID: "missing"})

	handler := NewMCUHandler(mockRepo, events.NewBroker())
	_, err := handler.GetMCU(context.Background(), &models.GetMCURequest{ID: "missing"})

	assertStatus(t, err, 404)
	mockRepo.AssertExpectations(t)
}

func TestListMCUs(t *testing.T) {
	mockRepo := &MockProfileRepository{}
	mockRepo.On("ListMCUs", mock.Anything).
		Return([]*models.MCUProfile{sampleMCU()}, nil)

	handler := NewMCUHandler(mockRepo, events.NewBroker())
	resp, err := handler.ListMCUs(context.Background(), &struct{}{})

	require.NoError(t, err)
	assert.Equal(t, 1, resp.Body.Count)
	assert.Equal(t, "bench-board", resp.Body.MCUs[0].Name)
	mockRepo.AssertExpectations(t)
}

func TestUpdateMCU(t *testing.T) {
	newName := "renamed-board"
	updated := sampleMCU()
	updated.Name = newName

	mockRepo := &MockProfileRepository{}
	mockRepo.On("UpdateMCU", mock.Anything, "mcu-1", &newName, (*string)(nil)).Return(updated, nil)

	broker := events.NewBroker()
	ch := broker.Subscribe()
	handler := NewMCUHandler(mockRepo, broker)

	resp, err := handler.UpdateMCU(context.Background(), &models.UpdateMCURequest{
		ID:   "mcu-1",
		Body: models.UpdateMCUBody{Name: &newName},
	})

	require.NoError(t, err)
	assert.Equal(t, newName, resp.Body.Name)

	evt := nextEvent(t, ch)
	assert.Equal(t, events.TypeUpdated, evt.Type)
	assert.Equal(t, events.EntityMCU, evt.Entity)
	mockRepo.AssertExpectations(t)
}

func TestDeleteMCU(t *testing.T) {
	tests := []struct {
		name      string
		cascade   bool
		mockSetup func(*MockProfileRepository)
		wantCode  int
		wantError bool
	}{
		{
			name: "referenced without cascade",
			mockSetup: func(mockRepo *MockProfileRepository) {
				mockRepo.On("DeleteMCU", mock.Anything, "mcu-1", false).
					Return(&store.ReferentialIntegrityError{MCUID: "mcu-1", MotorIDs: []string{"motor-1"}})
			},
			wantCode:  409,
			wantError: true,
		},
		{
			name:    "cascade succeeds",
			cascade: true,
			mockSetup: func(mockRepo *MockProfileRepository) {
				mockRepo.On("DeleteMCU", mock.Anything, "mcu-1", true).Return(nil)
			},
			wantError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockProfileRepository{}
			tt.mockSetup(mockRepo)
			broker := events.NewBroker()
			ch := broker.Subscribe()

			handler := NewMCUHandler(mockRepo, broker)
			resp, err := handler.DeleteMCU(context.Background(), &models.DeleteMCURequest{ID: "mcu-1", Cascade: tt.cascade})

			if tt.wantError {
				assertStatus(t, err, tt.wantCode)
				assertNoEvent(t, ch)
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, resp.Body.Message)

				evt := nextEvent(t, ch)
				assert.Equal(t, events.TypeDeleted, evt.Type)
				assert.Equal(t, "mcu-1", evt.ID)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}
