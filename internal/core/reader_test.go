package core

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestCountingReader(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		limit   int64
		wantErr bool
	}{
		{"no limit", strings.Repeat("x", 1000), 0, false},
		{"under limit", "hello", 10, false},
		{"exactly at limit", "hello", 5, false},
		{"over limit", "hello world", 5, true},
		{"empty", "", 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := NewCountingReader(strings.NewReader(tt.input), tt.limit)
			data, err := io.ReadAll(reader)

			if tt.wantErr {
				if !errors.Is(err, ErrFileTooLarge) {
					t.Fatalf("error = %v, want ErrFileTooLarge", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(data) != tt.input {
				t.Errorf("got %q, want %q", data, tt.input)
			}
			if reader.BytesRead != int64(len(tt.input)) {
				t.Errorf("BytesRead = %d, want %d", reader.BytesRead, len(tt.input))
			}
		})
	}
}

func TestCountingReader_SmallBuffer(t *testing.T) {
	reader := NewCountingReader(strings.NewReader(strings.Repeat("x", 100)), 50)

	buf := make([]byte, 7)
	var err error
	for err == nil {
		_, err = reader.Read(buf)
	}
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("error = %v, want ErrFileTooLarge", err)
	}
	if reader.BytesRead != 51 {
		t.Errorf("BytesRead = %d, want 51", reader.BytesRead)
	}
}
