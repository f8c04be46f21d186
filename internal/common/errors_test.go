package common

import (
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserError(t *testing.T) {
	base := errors.New("open data/Kaiser_grants.csv: no such file")
	err := NewUserError("Could not load grant data", base)

	assert.Equal(t, "Could not load grant data: open data/Kaiser_grants.csv: no such file", err.Error())
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "Could not load grant data", UserMessage(fmt.Errorf("wrapped: %w", err)))
	assert.Equal(t, "plain", UserMessage(errors.New("plain")))

	bare := &UserError{UserMessage: "only a message"}
	assert.Equal(t, "only a message", bare.Error())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{input: "debug", want: slog.LevelDebug},
		{input: "info", want: slog.LevelInfo},
		{input: "", want: slog.LevelInfo},
		{input: "warn", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "verbose", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetupLoggerRejectsUnknownFormat(t *testing.T) {
	err := SetupLogger(slog.LevelInfo, "xml")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
