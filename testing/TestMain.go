package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

// testEnv holds the variables every package test expects. Values already
// present in the environment win.
var testEnv = map[string]string{
	"HARAPAN_TEST_MODE": "1",
	"IDP_LOGIN_URL":     "http://127.0.0.1:0/login",
	"CSRF_SECRET":       "test-csrf-secret",
	"TOKEN_SECRET":      "test-token-secret-with-32-bytes!!",
}

var once sync.Once

func ensureTestEnv() {
	once.Do(func() {
		for key, value := range testEnv {
			if _, ok := os.LookupEnv(key); !ok {
				_ = os.Setenv(key, value)
			}
		}
	})
}

func init() {
	ensureTestEnv()
}

// TestMain lets a package delegate its test entry point here.
func TestMain(m *stdtesting.M) {
	ensureTestEnv()
	os.Exit(m.Run())
}
