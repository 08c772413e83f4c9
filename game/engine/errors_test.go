package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := ErrCellOccupied.WithMessage("cell (3,4) is occupied")

	assert.True(t, errors.Is(err, ErrCellOccupied))
	assert.False(t, errors.Is(err, ErrOutOfBounds))
	assert.Equal(t, "cell (3,4) is occupied", err.Error())
	assert.Equal(t, "cell already occupied", ErrCellOccupied.Error(), "sentinel must not be mutated")
}

func TestErrorWrapped(t *testing.T) {
	wrapped := fmt.Errorf("join room: %w", ErrRoomFull)

	assert.True(t, errors.Is(wrapped, ErrRoomFull))
	assert.Equal(t, KindState, KindOf(wrapped))
	assert.Equal(t, "room_full", CodeOf(wrapped))
}

func TestKindHelpers(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Kind
	}{
		{"validation", ErrNotYourTurn, KindValidation},
		{"not found", ErrRoomNotFound, KindNotFound},
		{"state", ErrWrongPhase, KindState},
		{"internal", Internal(errors.New("boom")), KindInternal},
		{"plain error", errors.New("boom"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, KindOf(tt.err))
			assert.Equal(t, tt.kind == KindValidation, IsValidation(tt.err))
			assert.Equal(t, tt.kind == KindNotFound, IsNotFound(tt.err))
			assert.Equal(t, tt.kind == KindState, IsState(tt.err))
		})
	}
}

func TestInternalKeepsCause(t *testing.T) {
	cause := errors.New("index out of range")
	err := Internal(cause)

	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "index out of range")
}

func TestActionDecode(t *testing.T) {
	var target struct {
		Row int `json:"row"`
	}

	a := Action{Name: "place", Data: []byte(`{"row":7}`)}
	assert.NoError(t, a.Decode(&target))
	assert.Equal(t, 7, target.Row)

	empty := Action{Name: "place"}
	assert.NoError(t, empty.Decode(&target))

	bad := Action{Name: "place", Data: []byte(`{"row":"x"}`)}
	assert.True(t, errors.Is(bad.Decode(&target), ErrInvalidPayload))
}
