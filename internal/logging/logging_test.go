package logging

import (
    "bytes"
    "encoding/json"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestNewWithWriter_LevelAndComponent(t *testing.T) {
    var buf bytes.Buffer
    l := Component(NewWithWriter(&buf, "warn"), "openmic")

    l.Info().Msg("dropped")
    assert.Zero(t, buf.Len())

    l.Warn().Msg("kept")
    var line map[string]interface{}
    require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
    assert.Equal(t, "openmic", line["component"])
    assert.Equal(t, "kept", line["message"])
    assert.Equal(t, "warn", line["level"])
}

func TestNewWithWriter_UnknownLevelDefaultsToInfo(t *testing.T) {
    var buf bytes.Buffer
    l := NewWithWriter(&buf, "loud")
    l.Debug().Msg("x")
    assert.Zero(t, buf.Len())
    l.Info().Msg("y")
    assert.NotZero(t, buf.Len())
}
