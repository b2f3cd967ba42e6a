package fault

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "message only",
			err:  &Error{Kind: Config, Message: "username is required"},
			want: "username is required",
		},
		{
			name: "with op",
			err:  &Error{Kind: NotFound, Op: "locate dashboard", Message: "element not found"},
			want: "locate dashboard: element not found",
		},
		{
			name: "with reason and cause",
			err: &Error{
				Kind:    Interaction,
				Op:      "click submit",
				Message: "element not usable",
				Reason:  ReasonIntercepted,
				Cause:   errors.New("covered by overlay"),
			},
			want: "click submit: element not usable (intercepted): covered by overlay",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestWrap_NilStaysNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, Remote, "mark", "request failed"))
	assert.NoError(t, Wrapf(nil, Remote, "mark", "status %d", 500))
}

func TestKindOf_ThroughWrapping(t *testing.T) {
	base := Wrap(context.DeadlineExceeded, NotFound, "locate username", "element not found")
	wrapped := fmt.Errorf("login: %w", base)

	assert.Equal(t, NotFound, KindOf(wrapped))
	assert.True(t, Is(wrapped, NotFound))
	assert.False(t, Is(wrapped, Config))
	assert.ErrorIs(t, wrapped, context.DeadlineExceeded)
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Equal(t, Reason(""), ReasonOf(errors.New("plain")))
}

func TestInteractionError_Reason(t *testing.T) {
	err := InteractionError("click sign out", ReasonNotInteractable, nil)
	assert.Equal(t, Interaction, KindOf(err))
	assert.Equal(t, ReasonNotInteractable, ReasonOf(err))
}
