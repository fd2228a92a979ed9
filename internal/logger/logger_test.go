package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    LogLevel
		wantErr bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{" warn ", WarnLevel, false},
		{"error", ErrorLevel, false},
		{"disabled", DisabledLevel, false},
		{"", InfoLevel, false},
		{"verbose", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&Config{Level: WarnLevel, Output: &buf})

	l.Info("hidden")
	l.Warn("shown", "key", "value")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "shown")
	require.Contains(t, out, "key=value")
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&Config{Level: InfoLevel, Output: &buf, JSON: true})

	l.Info("spec loaded", "operations", 12)

	line := strings.TrimSpace(buf.String())
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	require.Equal(t, "spec loaded", entry["msg"])
	require.EqualValues(t, 12, entry["operations"])
}

func TestContextRoundTrip(t *testing.T) {
	l := New(TestConfig())
	ctx := WithContext(t.Context(), l)
	require.Same(t, l, FromContext(ctx))
	require.NotNil(t, FromContext(t.Context()))
}
