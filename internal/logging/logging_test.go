package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestWithTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	lg := With("queue")
	lg.Info().Msg("drained")
	assert.Contains(t, buf.String(), `"component":"queue"`)
}

func TestDebugEnabledTracksInit(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	})

	Init(true)
	assert.True(t, DebugEnabled())
	Init(false)
	assert.False(t, DebugEnabled())
}
