package logging_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wattlelabs/advisord/internal/logging"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		config    logging.Config
		wantError bool
	}{
		{"json info", logging.Config{Level: "info", Format: "json"}, false},
		{"console debug", logging.Config{Level: "debug", Format: "console"}, false},
		{"warn level", logging.Config{Level: "warn", Format: "json"}, false},
		{"invalid level", logging.Config{Level: "verbose", Format: "json"}, true},
		{"invalid format", logging.Config{Level: "info", Format: "xml"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := logging.New(tt.config)
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}
