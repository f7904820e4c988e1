package apperrors

import (
	"errors"
	"testing"
)

func TestError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "without cause",
			err:  New(CodeInvalidArgument, "ttl must be positive"),
			want: "INVALID_ARGUMENT: ttl must be positive",
		},
		{
			name: "with cause",
			err:  Wrap(CodeConnection, "dial failed", errors.New("boom")),
			want: "NODE_CONNECTION: dial failed: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestError_Is(t *testing.T) {
	t.Parallel()

	sentinel := New(CodeCannotObtain, "quorum not reached")
	wrapped := Wrap(CodeCannotObtain, "quorum not reached after 3 passes", errors.New("transport flaky"))

	if !errors.Is(wrapped, sentinel) {
		t.Error("expected errors.Is to match by code")
	}

	other := New(CodeReleaseIncomplete, "some node unreachable")
	if errors.Is(wrapped, other) {
		t.Error("expected errors.Is to not match different codes")
	}
}

func TestIsCode_GetCode(t *testing.T) {
	t.Parallel()

	err := New(CodeNotEnoughMasters, "only 1 of 3 nodes reachable")

	if !IsCode(err, CodeNotEnoughMasters) {
		t.Error("IsCode() = false, want true")
	}
	if IsCode(err, CodeCannotObtain) {
		t.Error("IsCode() = true, want false")
	}
	if got := GetCode(err); got != CodeNotEnoughMasters {
		t.Errorf("GetCode() = %v, want %v", got, CodeNotEnoughMasters)
	}
	if got := GetCode(errors.New("plain error")); got != CodeInternal {
		t.Errorf("GetCode() = %v, want %v", got, CodeInternal)
	}
}
