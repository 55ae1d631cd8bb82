package interaction

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnloop/learnloop-core/internal/domain/shared"
)

func TestNewType(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Type
		wantErr bool
	}{
		{"view", "VIEW", TypeView, false},
		{"complete", "COMPLETE", TypeComplete, false},
		{"pause", "PAUSE", TypePause, false},
		{"seek", "SEEK", TypeSeek, false},
		{"answer", "ANSWER", TypeAnswer, false},
		{"skip", "SKIP", TypeSkip, false},
		{"unknown value", "HOVER", "", true},
		{"lowercase is rejected", "view", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewType(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, shared.ErrInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew(t *testing.T) {
	learnerID := uuid.NewString()
	contentID := uuid.NewString()

	t.Run("valid interaction", func(t *testing.T) {
		id := uuid.NewString()
		before := time.Now().UTC()

		i, err := New(id, learnerID, contentID, TypeView, nil)

		require.NoError(t, err)
		assert.Equal(t, id, i.ID)
		assert.Equal(t, learnerID, i.LearnerID)
		assert.Equal(t, contentID, i.ContentNodeID)
		assert.Equal(t, TypeView, i.Type)
		assert.False(t, i.AcceptedAt.Before(before))
		assert.False(t, i.AcceptedAt.After(time.Now().UTC()))
	})

	t.Run("metadata is kept verbatim", func(t *testing.T) {
		meta := json.RawMessage(`{"position_seconds":42}`)

		i, err := New(uuid.NewString(), learnerID, contentID, TypeSeek, meta)

		require.NoError(t, err)
		assert.JSONEq(t, `{"position_seconds":42}`, string(i.Metadata))
	})

	t.Run("missing ID", func(t *testing.T) {
		_, err := New("", learnerID, contentID, TypeView, nil)
		assert.True(t, errors.Is(err, shared.ErrInvalidID))
	})

	t.Run("missing learner", func(t *testing.T) {
		_, err := New(uuid.NewString(), "", contentID, TypeView, nil)
		assert.True(t, errors.Is(err, shared.ErrInvalidID))
	})

	t.Run("missing content node", func(t *testing.T) {
		_, err := New(uuid.NewString(), learnerID, "", TypeView, nil)
		assert.True(t, errors.Is(err, shared.ErrInvalidID))
	})

	t.Run("invalid type", func(t *testing.T) {
		_, err := New(uuid.NewString(), learnerID, contentID, Type("NOPE"), nil)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})
}

func TestMarshalRoundTrip(t *testing.T) {
	original, err := New(uuid.NewString(), uuid.NewString(), uuid.NewString(), TypeAnswer, json.RawMessage(`{"choice":"b"}`))
	require.NoError(t, err)

	data, err := original.Marshal()
	require.NoError(t, err)

	decoded, err := Unmarshal(data)
	require.NoError(t, err)

	assert.Equal(t, original.ID, decoded.ID)
	assert.Equal(t, original.LearnerID, decoded.LearnerID)
	assert.Equal(t, original.ContentNodeID, decoded.ContentNodeID)
	assert.Equal(t, original.Type, decoded.Type)
	assert.JSONEq(t, string(original.Metadata), string(decoded.Metadata))
	// AcceptedAt survives transport so consumers see the original order.
	assert.WithinDuration(t, original.AcceptedAt, decoded.AcceptedAt, time.Millisecond)
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	t.Run("not JSON", func(t *testing.T) {
		_, err := Unmarshal([]byte("not json"))
		assert.True(t, errors.Is(err, shared.ErrInvalidFormat))
	})

	t.Run("missing required fields", func(t *testing.T) {
		_, err := Unmarshal([]byte(`{"type":"VIEW"}`))
		assert.True(t, errors.Is(err, shared.ErrInvalidEntity))
	})

	t.Run("unknown type on the wire", func(t *testing.T) {
		_, err := Unmarshal([]byte(`{"id":"x","type":"HOVER"}`))
		assert.True(t, errors.Is(err, shared.ErrInvalidEntity))
	})
}
