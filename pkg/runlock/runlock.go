// Package runlock guards against overlapping pipeline runs with a lock file.
// A lock older than its TTL is treated as left behind by a dead process and
// taken over; a held lock is refreshed by an mtime heartbeat.
package runlock

import (
	"fmt"
	"os"
	"time"
)

// ErrHeld is returned when another live process holds the lock.
var ErrHeld = fmt.Errorf("run lock held by another process")

// Lock is a held lock file.
type Lock struct {
	path string
	stop chan struct{}
}

// Acquire takes the lock file, removing it first if it is older than ttl.
func Acquire(path string, ttl time.Duration) (*Lock, error) {
	for {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			fmt.Fprintf(f, `{"pid":%d,"time":%d}`+"\n", os.Getpid(), time.Now().Unix())
			f.Close()
			l := &Lock{path: path, stop: make(chan struct{})}
			go l.heartbeat()
			return l, nil
		}

		fi, statErr := os.Stat(path)
		if statErr != nil {
			// Raced with a release; try again.
			continue
		}
		if time.Since(fi.ModTime()) >= ttl {
			os.Remove(path)
			continue
		}
		return nil, ErrHeld
	}
}

// Release stops the heartbeat and removes the lock file.
func (l *Lock) Release() {
	close(l.stop)
	os.Remove(l.path)
}

// heartbeat bumps the lock's mtime so a live holder never looks stale.
func (l *Lock) heartbeat() {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-t.C:
			now := time.Now()
			os.Chtimes(l.path, now, now)
		}
	}
}
