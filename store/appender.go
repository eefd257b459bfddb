package store

import (
	"os"
	"sync"
	"time"

	"github.com/go-fskv/fskv/internal/pool"
)

// appenderFullThresholdPercent is the fraction of buffer capacity that
// triggers an eager flush, per spec.md §4.3.
const appenderFullThresholdPercent = 80

// appender is a write-through buffer over the engine's file handle. It
// minimizes syscalls on the append-hot path while still supporting
// positioned writes for replace-mode updates, mirroring the reference
// pool.ByteBuffer growth policy repurposed to the append/flush contract
// spec.md §4.3 describes.
type appender struct {
	mu sync.Mutex

	file *os.File
	buf  *pool.ByteBuffer

	enabled     bool
	maxCapacity int
	fileLength  int64 // length of file on disk, excluding buf

	tickerPeriod time.Duration
	stopCh       chan struct{}
	wg           sync.WaitGroup
}

// newAppender wraps file, whose current on-disk length is fileLength.
func newAppender(file *os.File, fileLength int64, enabled bool, bufferKB int, timerPeriodMs int) *appender {
	maxCapacity := bufferKB * 1024

	a := &appender{
		file:         file,
		buf:          pool.NewByteBuffer(maxCapacity),
		enabled:      enabled,
		maxCapacity:  maxCapacity,
		fileLength:   fileLength,
		tickerPeriod: time.Duration(timerPeriodMs) * time.Millisecond,
	}

	return a
}

// startAutoFlush arms the periodic background flush described in
// spec.md §4.3: a timer thread that calls flush every
// write_buffer_time_threshold_ms, independent of the engine-level flush
// driver (flush_driver.go), which also persists the index and header.
func (a *appender) startAutoFlush() {
	if !a.enabled || a.tickerPeriod <= 0 {
		return
	}

	a.stopCh = make(chan struct{})
	a.wg.Add(1)

	go func() {
		defer a.wg.Done()

		ticker := time.NewTicker(a.tickerPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				_ = a.flush()
			case <-a.stopCh:
				return
			}
		}
	}()
}

func (a *appender) stopAutoFlush() {
	if a.stopCh != nil {
		close(a.stopCh)
		a.wg.Wait()
		a.stopCh = nil
	}
}

// append stages data for a later flush (or writes through immediately if
// buffering is disabled or data would overflow the buffer) and returns
// the file-absolute position it will occupy once flushed.
func (a *appender) append(data []byte) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	position := a.fileLength + int64(a.buf.Len())

	if !a.enabled || len(data) > a.maxCapacity {
		if err := a.flushLocked(); err != nil {
			return 0, err
		}

		if _, err := a.file.WriteAt(data, a.fileLength); err != nil {
			return 0, err
		}

		a.fileLength += int64(len(data))

		return position, nil
	}

	if a.buf.Len()+len(data) > a.maxCapacity {
		if err := a.flushLocked(); err != nil {
			return 0, err
		}

		position = a.fileLength
	}

	a.buf.MustWrite(data)

	if a.buf.Len()*100 >= a.maxCapacity*appenderFullThresholdPercent {
		if err := a.flushLocked(); err != nil {
			return 0, err
		}
	}

	return position, nil
}

// writeAt flushes any buffered bytes, then writes data at the given
// file-absolute position. Used only for replace-mode in-place updates.
func (a *appender) writeAt(position int64, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.flushLocked(); err != nil {
		return err
	}

	if _, err := a.file.WriteAt(data, position); err != nil {
		return err
	}

	if position+int64(len(data)) > a.fileLength {
		a.fileLength = position + int64(len(data))
	}

	return nil
}

// preallocate hints the filesystem that n more bytes are coming, to
// reduce fragmentation on the append-hot path.
func (a *appender) preallocate(n int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.file.Truncate(a.fileLength + int64(a.buf.Len()) + n)
}

// flush writes any buffered bytes to the file at the appender's logical
// end (fileLength, which a preallocate does not move) and flushes
// the underlying stream to the OS (fsync is the caller's responsibility,
// invoked once per Engine.flush rather than per appender flush).
func (a *appender) flush() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.flushLocked()
}

func (a *appender) flushLocked() error {
	if a.buf.Len() == 0 {
		return nil
	}

	if _, err := a.file.WriteAt(a.buf.Bytes(), a.fileLength); err != nil {
		return err
	}

	a.fileLength += int64(a.buf.Len())
	a.buf.Reset()

	return nil
}

// clear discards buffered content without writing it, used by Clear and
// by the compactor when it rebuilds the appender around a new handle.
func (a *appender) clear() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.buf.Reset()
}

// currentEndPosition returns the file-absolute offset just past the last
// byte written or staged so far.
func (a *appender) currentEndPosition() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.fileLength + int64(a.buf.Len())
}

// ensureFlushedThrough flushes the staging buffer if any bytes up to
// endPosition are still only resident in it, per spec.md §4.6.2 step 3:
// a positioned read past the unbuffered file length must flush first.
func (a *appender) ensureFlushedThrough(endPosition int64) error {
	a.mu.Lock()
	needsFlush := endPosition > a.fileLength
	a.mu.Unlock()

	if !needsFlush {
		return nil
	}

	return a.flush()
}

// rebind points the appender at a new file handle and on-disk length,
// used after the compactor swaps in a freshly rewritten file.
func (a *appender) rebind(file *os.File, fileLength int64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.file = file
	a.fileLength = fileLength
	a.buf.Reset()
}
