package engine

import (
	"testing"

	"go.uber.org/goleak"
)

// Every run must stop its coordinator and workers before returning.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
