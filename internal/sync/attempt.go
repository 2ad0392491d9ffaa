package sync

import "fmt"

// Attempt runs a remote call, converting a panic of any value into a plain
// error. The mirror boundary suppresses recovered panics exactly like
// returned errors; only the remote layer is guarded this way.
func Attempt(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			err = fmt.Errorf("remote failure: %v", r)
		}
	}()
	return fn()
}
