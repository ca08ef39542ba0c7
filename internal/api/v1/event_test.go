package v1

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestEvent_Validation(t *testing.T) {
	id := uuid.New()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC).UnixMilli()

	valid := func() Event {
		return Event{
			AggregateID:   id,
			AggregateType: "project",
			Version:       1,
			Type:          "PROJECT_CREATED_EVENT",
			Payload:       json.RawMessage(`{"title":"P"}`),
			CreatedAt:     now,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Event)
		wantErr string
	}{
		{name: "valid event", mutate: func(*Event) {}},
		{name: "missing aggregate id", mutate: func(e *Event) { e.AggregateID = uuid.Nil }, wantErr: "aggregate_id is required"},
		{name: "missing aggregate type", mutate: func(e *Event) { e.AggregateType = "" }, wantErr: "aggregate_type is required"},
		{name: "version zero", mutate: func(e *Event) { e.Version = 0 }, wantErr: "version must be >= 1"},
		{name: "missing type", mutate: func(e *Event) { e.Type = "" }, wantErr: "type is required"},
		{name: "empty payload", mutate: func(e *Event) { e.Payload = nil }, wantErr: "payload must be valid JSON"},
		{name: "malformed payload", mutate: func(e *Event) { e.Payload = json.RawMessage(`{"title":`) }, wantErr: "payload must be valid JSON"},
		{name: "missing created_at", mutate: func(e *Event) { e.CreatedAt = 0 }, wantErr: "created_at is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt := valid()
			tt.mutate(&evt)

			err := evt.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestEvent_JSONShape(t *testing.T) {
	evt := Event{
		AggregateID:   uuid.MustParse("5f0c5f7e-9a43-4a55-8a36-0b7f3b3f1c11"),
		AggregateType: "project",
		Version:       3,
		Type:          "TASK_TITTLE_CHANGED_EVENT",
		Payload:       json.RawMessage(`{"taskId":"t1","title":"new"}`),
		CreatedAt:     1767225600000,
		IngestSeq:     99,
	}

	data, err := json.Marshal(evt)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Equal(t, "5f0c5f7e-9a43-4a55-8a36-0b7f3b3f1c11", raw["aggregate_id"])
	require.Equal(t, float64(3), raw["version"])
	require.Equal(t, float64(1767225600000), raw["created_at"])
	require.NotContains(t, raw, "IngestSeq")
	require.Equal(t, "new", raw["payload"].(map[string]interface{})["title"])
}

func TestEvent_Time(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, int(6*time.Millisecond), time.UTC)
	evt := Event{CreatedAt: Millis(ts)}
	require.True(t, ts.Equal(evt.Time()))
}
