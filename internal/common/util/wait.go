package util

import (
	"time"

	"github.com/pkg/errors"
)

// WaitOrTimeout runs action in a separate goroutine and waits for it to
// return, giving up after timeout. Mostly useful in tests to bound waits on
// channels.
func WaitOrTimeout(action func(), timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		action()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return errors.Errorf("timed out after %s", timeout)
	}
}
