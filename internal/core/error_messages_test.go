package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/JonMunkholm/tablecheck/internal/schema"
	"github.com/JonMunkholm/tablecheck/internal/source"
	"github.com/JonMunkholm/tablecheck/internal/store"
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
			name:     "wrapped unsupported type",
			err:      fmt.Errorf("load pkg.json: resource 0 (people): field id: %w: object", schema.ErrUnsupportedType),
			wantCode: "CFG001",
		},
		{
			name:     "joined descriptor errors keep the first specific match",
			err:      errors.Join(fmt.Errorf("%w: duplicate field", schema.ErrInvalidDescriptor), schema.ErrUnknownFormat),
			wantCode: "CFG002",
		},
		{
			name:     "missing descriptor file",
			err:      fmt.Errorf("read descriptor: %w", os.ErrNotExist),
			wantCode: "CFG005",
		},
		{
			name:     "unknown source kind",
			err:      fmt.Errorf("resource r: %w: oracle", source.ErrUnknownSource),
			wantCode: "SRC001",
		},
		{
			name:     "report not found",
			err:      store.ErrNotFound,
			wantCode: "RPT001",
		},
		{
			name:     "limiter full",
			err:      ErrTooManyValidations,
			wantCode: "RATE002",
		},
		{
			name:     "deadline",
			err:      fmt.Errorf("resource r: %w", context.DeadlineExceeded),
			wantCode: "SYS002",
		},
		{
			name:     "pattern match is case insensitive",
			err:      errors.New("dial tcp 127.0.0.1:5432: CONNECTION REFUSED"),
			wantCode: "SRC002",
		},
		{
			name:     "unknown error returns default",
			err:      errors.New("some random internal error"),
			wantCode: "ERR000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MapError(tt.err); got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(store.ErrNotFound)
	want := "Report not found (Code: RPT001). The report may have expired. Run the validation again"
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}
}

func TestIsUserFacingAndConfig(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		userFacing bool
		config     bool
	}{
		{"nil", nil, false, false},
		{"descriptor", schema.ErrInvalidDescriptor, true, true},
		{"busy", ErrTooManyValidations, true, false},
		{"unknown", errors.New("random internal error xyz"), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.userFacing {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.userFacing)
			}
			if got := IsConfigError(tt.err); got != tt.config {
				t.Errorf("IsConfigError() = %v, want %v", got, tt.config)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	if got := NewUserError(nil); got != nil {
		t.Errorf("NewUserError(nil) = %v, want nil", got)
	}

	techErr := fmt.Errorf("acquire: %w", ErrTooManyValidations)
	userErr := NewUserError(techErr)
	if userErr.Error() != "System is busy running other validations" {
		t.Errorf("Error() = %q, want user message", userErr.Error())
	}
	if !errors.Is(userErr, ErrTooManyValidations) {
		t.Error("Unwrap() should expose the original error")
	}
}
