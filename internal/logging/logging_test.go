package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestLevelFor(t *testing.T) {
	assert.Equal(t, zerolog.WarnLevel, LevelFor(0))
	assert.Equal(t, zerolog.InfoLevel, LevelFor(1))
	assert.Equal(t, zerolog.DebugLevel, LevelFor(2))
	assert.Equal(t, zerolog.TraceLevel, LevelFor(3))
	assert.Equal(t, zerolog.TraceLevel, LevelFor(9))
}

func TestGetLogger_TagsComponent(t *testing.T) {
	var buf bytes.Buffer
	old := log.Logger
	oldLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = old
		zerolog.SetGlobalLevel(oldLevel)
	})
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = zerolog.New(&buf)

	l := GetLogger("index")
	done := LogOperationStart(l, "fetch")
	done()

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, `"component":"index"`))
	assert.Contains(t, out, `"operation":"fetch"`)
	assert.Contains(t, out, "operation completed")
}

func TestLogFilePath(t *testing.T) {
	assert.True(t, strings.HasSuffix(LogFilePath(), "byht/byht.log"))
}
