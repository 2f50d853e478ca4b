package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestErrorFormat(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "phase and kind only",
			err:  &Error{Phase: PhaseRun, Kind: KindHalted},
			want: "[run] halted",
		},
		{
			name: "with detail",
			err:  Unsupported(PhaseRun, "interpreter fallback at 0x1000"),
			want: "[run] unsupported: interpreter fallback at 0x1000",
		},
		{
			name: "with cause",
			err:  Wrap(PhaseCreate, KindInvalidInput, stderrors.New("boom"), "build engine"),
			want: "[create] invalid_input: build engine (caused by: boom)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorIs(t *testing.T) {
	err := MissingCallback(PhaseCreate, "Read8")

	if !stderrors.Is(err, &Error{Phase: PhaseCreate, Kind: KindMissingCallback}) {
		t.Error("expected match on same phase and kind")
	}
	if stderrors.Is(err, &Error{Phase: PhaseRun, Kind: KindMissingCallback}) {
		t.Error("unexpected match on different phase")
	}
	if stderrors.Is(err, stderrors.New("other")) {
		t.Error("unexpected match on foreign error type")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := stderrors.New("root cause")
	err := Wrap(PhaseTeardown, KindNotInitialized, cause, "close")

	if !stderrors.Is(err, cause) {
		t.Error("expected Unwrap chain to reach the cause")
	}
}

func TestConstructorDetails(t *testing.T) {
	if got := Unmapped(PhaseMemory, 0x1234).Error(); !strings.Contains(got, "0x1234") {
		t.Errorf("Unmapped detail missing address: %q", got)
	}
	if got := PageTable(PhaseCreate, 0x10, 12).Error(); !strings.Contains(got, "length 12") {
		t.Errorf("PageTable detail missing length: %q", got)
	}
}
