package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("ATTENDANCE_TEST_MODE", "1")
		if os.Getenv("WELCOME_EMAIL") == "" {
			_ = os.Setenv("WELCOME_EMAIL", "false")
		}
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
