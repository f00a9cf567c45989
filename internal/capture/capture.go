// Package capture redirects process-wide standard output into memory for the
// duration of a single call.
package capture

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// ErrCaptureActive is returned when a capture is requested while another one
// is still running. Captures cannot be nested.
var ErrCaptureActive = errors.New("output capture already active")

//nolint:gochecknoglobals // os.Stdout is process-wide, so is its guard
var active sync.Mutex

// Stdout runs fn with os.Stdout pointing at an in-memory sink and returns
// everything fn printed. The previous os.Stdout is restored on every exit
// path, including when fn returns an error or panics.
//
// The pipe is drained concurrently so reports larger than the pipe buffer
// cannot block fn.
func Stdout(fn func() error) (output string, err error) {
	if !active.TryLock() {
		CaptureFailuresTotal.WithLabelValues("nested").Inc()
		return "", ErrCaptureActive
	}
	defer active.Unlock()

	r, w, err := os.Pipe()
	if err != nil {
		CaptureFailuresTotal.WithLabelValues("pipe").Inc()
		return "", fmt.Errorf("create pipe: %w", err)
	}

	var buf bytes.Buffer
	drained := make(chan error, 1)
	go func() {
		_, copyErr := io.Copy(&buf, r)
		drained <- copyErr
	}()

	start := time.Now()
	original := os.Stdout
	os.Stdout = w

	defer func() {
		os.Stdout = original
		_ = w.Close()
		copyErr := <-drained
		_ = r.Close()

		output = buf.String()
		CaptureDurationSeconds.Observe(time.Since(start).Seconds())
		CapturedBytes.Observe(float64(len(output)))

		if copyErr != nil && err == nil {
			CaptureFailuresTotal.WithLabelValues("drain").Inc()
			err = fmt.Errorf("drain captured output: %w", copyErr)
		}
	}()

	err = fn()
	return "", err
}
