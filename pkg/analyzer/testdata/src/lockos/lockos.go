package lockos

import (
	"runtime"
	"time"
)

// RunLoop pins itself to the main thread, so pacing with Sleep stalls
// every queued frame.
func RunLoop(frames <-chan func()) {
	runtime.LockOSThread()
	for frame := range frames {
		frame()
		time.Sleep(16 * time.Millisecond) // want `starvation: RunLoop runs on the main thread \(calls LockOSThread, which binds the goroutine to the main thread\) and may block calling time\.Sleep`
	}
}
