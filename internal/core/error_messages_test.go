package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/sheetsections/internal/extract"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{
			name:     "nil error returns empty",
			err:      nil,
			wantCode: "",
		},
		{
			name:     "parse error",
			err:      &extract.ParseError{Reason: "binary content (image/png)"},
			wantCode: "PARSE001",
		},
		{
			name:     "wrapped parse error",
			err:      fmt.Errorf("extract upload: %w", &extract.ParseError{Reason: "read input"}),
			wantCode: "PARSE001",
		},
		{
			name:     "too large wins over parse error wrapping it",
			err:      &extract.ParseError{Reason: "read input", Err: ErrFileTooLarge},
			wantCode: "FILE001",
		},
		{
			name:     "no file",
			err:      ErrNoFile,
			wantCode: "FILE004",
		},
		{
			name:     "busy",
			err:      fmt.Errorf("acquire slot: %w", ErrTooManyUploads),
			wantCode: "UPL002",
		},
		{
			name:     "not found",
			err:      ErrExtractionNotFound,
			wantCode: "UPL003",
		},
		{
			name:     "cancelled",
			err:      context.Canceled,
			wantCode: "UPL004",
		},
		{
			name:     "extraction timeout",
			err:      ErrExtractionTimeout,
			wantCode: "UPL005",
		},
		{
			name:     "deadline exceeded",
			err:      fmt.Errorf("save: %w", context.DeadlineExceeded),
			wantCode: "UPL005",
		},
		{
			name:     "rate limited",
			err:      ErrRateLimited,
			wantCode: "RATE001",
		},
		{
			name:     "missing api key",
			err:      ErrMissingAPIKey,
			wantCode: "AUTH001",
		},
		{
			name:     "invalid api key",
			err:      ErrInvalidAPIKey,
			wantCode: "AUTH002",
		},
		{
			name:     "multipart body limit by pattern",
			err:      errors.New("http: request body too large"),
			wantCode: "FILE001",
		},
		{
			name:     "missing form file by pattern",
			err:      errors.New("http: no such file"),
			wantCode: "FILE004",
		},
		{
			name:     "case insensitive matching",
			err:      errors.New("RATE LIMIT hit"),
			wantCode: "RATE001",
		},
		{
			name:     "unknown error returns default",
			err:      errors.New("some random internal error"),
			wantCode: "ERR000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if tt.err != nil && (got.Message == "" || got.Action == "") {
				t.Errorf("MapError() = %+v, want message and action", got)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrNoFile)

	expected := "No file was selected (Code: FILE004). Please select an HTML export to upload"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}

	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"known error is user facing", ErrFileTooLarge, true},
		{"unknown error is not user facing", errors.New("random internal error xyz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}
