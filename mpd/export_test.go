package mpd

import (
	"testing"

	"github.com/arnolievens/mpimg/types"
)

// StartChunkServer exposes the loopback fake server to external tests.
func StartChunkServer(t *testing.T, uri string, object []byte, chunkSize int) types.Target {
	t.Helper()
	return startFakeServer(t, greeting, chunkHandler(uri, object, chunkSize)).target()
}
