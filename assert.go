package blake3

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	debugAssertOnce    sync.Once
	debugAssertEnabled bool
)

func debugAssertsEnabled() bool {
	debugAssertOnce.Do(func() {
		debugAssertEnabled = os.Getenv("BLAKE3_DEBUG_ASSERT") != ""
	})
	return debugAssertEnabled
}

// debugAssert checks an internal invariant, but only when BLAKE3_DEBUG_ASSERT
// is set in the environment. These are not part of the API contract and
// callers must never observe them: every exported operation is total. They
// mirror the upstream BLAKE3 implementation's pervasive debug_assert_eq!
// calls, surfaced through logrus rather than compiled out entirely.
func debugAssert(cond bool, format string, args ...interface{}) {
	if cond || !debugAssertsEnabled() {
		return
	}
	logrus.Panicf("blake3: internal invariant violated: "+format, args...)
}
