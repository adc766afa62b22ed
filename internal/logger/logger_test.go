package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

	t.Run("json lines at the configured level", func(t *testing.T) {
		var buf bytes.Buffer
		log := New(&buf, "warn", "json")

		log.Info().Msg("dropped")
		log.Warn().Str("session_id", "s-1").Msg("kept")

		var line map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "warn", line["level"])
		assert.Equal(t, "kept", line["message"])
		assert.Equal(t, "s-1", line["session_id"])
		assert.Contains(t, line, "time")
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		var buf bytes.Buffer
		log := New(&buf, "loud", "json")
		log.Debug().Msg("dropped")
		assert.Zero(t, buf.Len())
		log.Info().Msg("kept")
		assert.Contains(t, buf.String(), "kept")
	})

	t.Run("pretty is not json", func(t *testing.T) {
		var buf bytes.Buffer
		log := New(&buf, "info", "pretty")
		log.Info().Msg("hello")
		assert.Contains(t, buf.String(), "hello")
		assert.False(t, json.Valid(buf.Bytes()))
	})
}
