package errors

import (
	stderrors "errors"
	"io/fs"
	"strings"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
		{
			name:     "simple error",
			err:      stderrors.New("something went wrong"),
			expected: "Error: something went wrong",
		},
		{
			name:     "taxonomy error",
			err:      NotFound("update habit", "habit", "abc"),
			expected: `Error: update habit: habit "abc" not found`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Format(tt.err)
			if result != tt.expected {
				t.Errorf("Format(%v) = %q, want %q", tt.err, result, tt.expected)
			}
		})
	}
}

func TestFormatf(t *testing.T) {
	got := Formatf("failed to load %s", "backups")
	if got != "Error: failed to load backups" {
		t.Errorf("Formatf() = %q", got)
	}
}

func TestKindsMatchWithIs(t *testing.T) {
	cause := fs.ErrPermission
	tests := []struct {
		name  string
		err   error
		kinds []error
		not   []error
	}{
		{
			name:  "storage wraps cause",
			err:   Storage("get habits", cause),
			kinds: []error{ErrStorage, fs.ErrPermission},
			not:   []error{ErrValidation, ErrStorageRead},
		},
		{
			name:  "storage read is a storage error",
			err:   Wrap(ErrStorageRead, "get habits", "", stderrors.New("bad json")),
			kinds: []error{ErrStorageRead, ErrStorage},
		},
		{
			name:  "invalid format is a validation error",
			err:   InvalidFormat("import backup", "missing %s", "data"),
			kinds: []error{ErrInvalidFormat, ErrValidation},
			not:   []error{ErrStorage},
		},
		{
			name:  "file not found",
			err:   FileNotFound("share backup", "a.json"),
			kinds: []error{ErrFileNotFound},
			not:   []error{ErrNotFound},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range tt.kinds {
				if !Is(tt.err, k) {
					t.Errorf("expected %v to match %v", tt.err, k)
				}
			}
			for _, k := range tt.not {
				if Is(tt.err, k) {
					t.Errorf("expected %v not to match %v", tt.err, k)
				}
			}
		})
	}
}

func TestWrapNilCause(t *testing.T) {
	if err := Wrap(ErrStorage, "op", "msg", nil); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
}

func TestErrorMessage(t *testing.T) {
	err := Storage("save document", stderrors.New("disk full"))
	msg := err.Error()
	for _, part := range []string{"save document", "storage operation failed", "disk full"} {
		if !strings.Contains(msg, part) {
			t.Errorf("message %q missing %q", msg, part)
		}
	}
}
