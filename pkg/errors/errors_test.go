package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestNewAndIs(t *testing.T) {
	err := New(ErrCodeInvalidInterval, "cannot resolve %q", "x2")

	if !Is(err, ErrCodeInvalidInterval) {
		t.Error("Is should match the error's own code")
	}
	if Is(err, ErrCodeParse) {
		t.Error("Is should not match a different code")
	}
	if got := err.Error(); got != `INVALID_INTERVAL: cannot resolve "x2"` {
		t.Errorf("Error() = %q", got)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("unexpected EOF")
	err := Wrap(ErrCodeParse, cause, "decode %s", "page_03.musicxml")

	if !Is(err, ErrCodeParse) {
		t.Error("wrapped error should carry the code")
	}
	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should unwrap to its cause")
	}
	if got := err.Error(); got != "PARSE_ERROR: decode page_03.musicxml: unexpected EOF" {
		t.Errorf("Error() = %q", got)
	}
}

func TestIsThroughWrapping(t *testing.T) {
	inner := New(ErrCodeFileNotFound, "open score.pdf")
	outer := fmt.Errorf("stage rasterize: %w", inner)

	if !Is(outer, ErrCodeFileNotFound) {
		t.Error("Is should see through fmt.Errorf wrapping")
	}
	if GetCode(outer) != ErrCodeFileNotFound {
		t.Errorf("GetCode = %q, want FILE_NOT_FOUND", GetCode(outer))
	}
}

func TestGetCodePlainError(t *testing.T) {
	if code := GetCode(stderrors.New("plain")); code != "" {
		t.Errorf("GetCode(plain) = %q, want empty", code)
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeInvalidMeasure, "measure number must be >= 1, got 0")
	if got := UserMessage(err); got != "measure number must be >= 1, got 0" {
		t.Errorf("UserMessage = %q", got)
	}
	if got := UserMessage(stderrors.New("boom")); got != "boom" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
}

func TestValidateMeasureNumber(t *testing.T) {
	if err := ValidateMeasureNumber(1); err != nil {
		t.Errorf("ValidateMeasureNumber(1) = %v", err)
	}
	for _, n := range []int{0, -5} {
		if err := ValidateMeasureNumber(n); !Is(err, ErrCodeInvalidMeasure) {
			t.Errorf("ValidateMeasureNumber(%d) = %v, want INVALID_MEASURE", n, err)
		}
	}
}

func TestValidateFragmentPath(t *testing.T) {
	tests := []struct {
		name string
		path string
		ok   bool
	}{
		{"normal path", "out/pages/page_01/score.musicxml", true},
		{"empty", "", false},
		{"null byte", "page\x00.musicxml", false},
		{"control character", "page\n.musicxml", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFragmentPath(tt.path)
			if tt.ok && err != nil {
				t.Errorf("ValidateFragmentPath(%q) = %v", tt.path, err)
			}
			if !tt.ok && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidateFragmentPath(%q) = %v, want INVALID_PATH", tt.path, err)
			}
		})
	}
}

func TestValidateOutputFormat(t *testing.T) {
	for _, f := range []string{"pdf", "midi", "musicxml", "PDF"} {
		if err := ValidateOutputFormat(f); err != nil {
			t.Errorf("ValidateOutputFormat(%q) = %v", f, err)
		}
	}
	if err := ValidateOutputFormat("svg"); !Is(err, ErrCodeInvalidFormat) {
		t.Errorf("ValidateOutputFormat(svg) = %v, want INVALID_FORMAT", err)
	}
}
