package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfo(t *testing.T) {
	info := Get()
	assert.Equal(t, Version, info.String())
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
	assert.Contains(t, info.Full(), "commit "+Commit)
}

func TestUserAgent(t *testing.T) {
	assert.Equal(t, "plinth/dev ("+runtime.GOOS+"/"+runtime.GOARCH+")", UserAgent())
}
