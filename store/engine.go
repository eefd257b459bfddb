// Package store implements fskv's storage engine: the single-file layout,
// the in-memory primary index, the buffered write path, index
// persistence, and compaction. See section/doc.go for the file layout and
// Engine for the public operations.
package store

import (
	"bytes"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-fskv/fskv/cipher"
	"github.com/go-fskv/fskv/compress"
	"github.com/go-fskv/fskv/errs"
	"github.com/go-fskv/fskv/format"
	"github.com/go-fskv/fskv/hash"
	"github.com/go-fskv/fskv/section"
)

// Engine is an open fskv file: the write lock serializes Set/Delete/
// SetBatch/DeleteBatch/Flush/Clear/Compact (spec.md §5). Get and Contains
// read the concurrent index without holding the write lock for the lookup
// and read, and Get also takes the read-protection lock while a compaction
// is running; both do take the write lock briefly to check whether the
// engine is closed, so they wait while a mutator (including a compaction)
// holds it.
type Engine struct {
	mu   sync.Mutex
	path string
	cfg  *Config

	file     *os.File
	appender *appender

	idx        *index
	tombstones *tombstoneSet

	header           *section.Header
	headerRegionSize int64

	codec  compress.Codec
	aead   cipher.AEAD
	hasher hash.Hasher

	dirty      bool
	compacting atomic.Bool
	readProtect sync.RWMutex

	driver *flushDriver
	closed bool

	lastCompactionEpochMs int64
}

func nowMs() int64 {
	return time.Now().UnixMilli()
}

// Open opens the fskv file at path, creating it with a fresh header if it
// does not exist. See Config and the WithXxx functions for the available
// options.
func Open(path string, opts ...Option) (*Engine, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}

	codec, aead, hasher, err := cfg.codecs()
	if err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("fskv: failed to open %q: %w", path, err)
	}

	e := &Engine{
		path:       path,
		cfg:        cfg,
		file:       file,
		tombstones: newTombstoneSet(),
		codec:      codec,
		aead:       aead,
		hasher:     hasher,
	}

	e.headerRegionSize = int64(section.HeaderSize)
	if cfg.EncryptionID.Enabled() {
		e.headerRegionSize += int64(format.AEADPad)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()

		return nil, fmt.Errorf("fskv: failed to stat %q: %w", path, err)
	}

	if info.Size() == 0 {
		if err := e.createHeaderLocked(); err != nil {
			file.Close()

			return nil, err
		}
	} else {
		if err := e.readHeaderLocked(); err != nil {
			file.Close()

			return nil, err
		}
	}

	info, err = file.Stat()
	if err != nil {
		file.Close()

		return nil, fmt.Errorf("fskv: failed to stat %q: %w", path, err)
	}

	e.appender = newAppender(file, info.Size(), cfg.WriteBufferEnabled, cfg.WriteBufferKB, cfg.WriteBufferTimeThresholdMs)

	if err := e.loadIndex(); err != nil {
		file.Close()

		return nil, err
	}

	e.appender.startAutoFlush()

	e.driver = newFlushDriver(e, cfg.FlushIntervalS)
	e.driver.start()

	return e, nil
}

func (e *Engine) createHeaderLocked() error {
	e.header = section.Create(e.cfg.CompressionID, e.cfg.EncryptionID, e.cfg.HashID, nowMs())
	e.header.IndexStart = uint64(e.headerRegionSize)

	return e.writeHeaderAt(0)
}

func (e *Engine) readHeaderLocked() error {
	buf := make([]byte, e.headerRegionSize)
	if _, err := e.file.ReadAt(buf, 0); err != nil {
		return fmt.Errorf("fskv: failed to read header: %w", err)
	}

	plaintext := buf
	if e.cfg.EncryptionID.Enabled() {
		opened, err := e.aead.Open(buf)
		if err != nil {
			return err
		}

		plaintext = opened
	}

	hdr, err := section.Parse(plaintext)
	if err != nil {
		return err
	}

	if err := hdr.ValidateCompatibility(e.cfg.CompressionID, e.cfg.EncryptionID, e.cfg.HashID); err != nil {
		return err
	}

	e.header = hdr

	return nil
}

func (e *Engine) writeHeaderAt(offset int64) error {
	e.header.LastUpdateEpochMs = nowMs()
	plaintext := e.header.Bytes()

	toWrite := plaintext
	if e.cfg.EncryptionID.Enabled() {
		sealed, err := e.aead.Seal(plaintext)
		if err != nil {
			return fmt.Errorf("fskv: failed to seal header: %w", err)
		}

		toWrite = sealed
	}

	if _, err := e.file.WriteAt(toWrite, offset); err != nil {
		return fmt.Errorf("fskv: failed to write header: %w", err)
	}

	return nil
}

// Close flushes any pending writes and releases the file handle. After
// Close, Set, Get, Delete, SetBatch, DeleteBatch, Clear, Flush and Compact
// return errs.ErrClosed, Contains reports false, and a second Close
// returns nil.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()

		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.driver.stop()
	e.appender.stopAutoFlush()

	e.mu.Lock()
	err := e.flushLocked()
	e.mu.Unlock()

	if err != nil {
		e.file.Close()

		return err
	}

	return e.file.Close()
}

// pipelineWrite compresses then (if enabled) encrypts value, and computes
// the 8-byte value_hash over the result, per spec.md §4.1.
func (e *Engine) pipelineWrite(value []byte) ([]byte, uint64, error) {
	compressed, err := e.codec.Compress(value)
	if err != nil {
		return nil, 0, fmt.Errorf("fskv: compress failed: %w", err)
	}

	processed := compressed
	if e.cfg.EncryptionID.Enabled() {
		sealed, err := e.aead.Seal(compressed)
		if err != nil {
			return nil, 0, fmt.Errorf("fskv: encrypt failed: %w", err)
		}

		processed = sealed
	}

	valueHash := hash.ReduceValueHash(processed, e.cfg.HashID, e.hasher)

	return processed, valueHash, nil
}

// pipelineRead reverses pipelineWrite: decrypt then decompress.
func (e *Engine) pipelineRead(processed []byte) ([]byte, error) {
	decrypted := processed

	if e.cfg.EncryptionID.Enabled() {
		opened, err := e.aead.Open(processed)
		if err != nil {
			return nil, err
		}

		decrypted = opened
	}

	return e.codec.Decompress(decrypted)
}

// Set writes value for key, reusing the existing value's on-disk space in
// Replace mode when it fits, or always appending in Append mode, per
// spec.md §4.6.1.
func (e *Engine) Set(key, value []byte) error {
	if e.isClosed() {
		return errs.ErrClosed
	}

	if len(key) > e.cfg.MaxKeyLength {
		return fmt.Errorf("fskv: key length %d exceeds max_key_length %d: %w", len(key), e.cfg.MaxKeyLength, errs.ErrKeyTooLong)
	}

	processed, valueHash, err := e.pipelineWrite(value)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	existing, hadExisting := e.idx.get(key)
	if hadExisting && existing.ValueHash == valueHash {
		return nil
	}

	var position int64
	keyPosition := int64(section.UnassignedPosition)
	if hadExisting {
		keyPosition = existing.KeyPosition
	}

	if e.cfg.FileUpdateMode == format.FileUpdateReplace && hadExisting && existing.ValueLength >= uint32(len(processed)) {
		position = existing.ValuePosition
		if err := e.appender.writeAt(position, processed); err != nil {
			return fmt.Errorf("fskv: failed to write value: %w", err)
		}
	} else {
		position, err = e.appender.append(processed)
		if err != nil {
			return fmt.Errorf("fskv: failed to append value: %w", err)
		}
	}

	newEntry := &entry{
		Key:           append([]byte(nil), key...),
		ValuePosition: position,
		ValueLength:   uint32(len(processed)),
		ValueHash:     valueHash,
		TimestampMs:   nowMs(),
		IsUpdated:     true,
		KeyPosition:   keyPosition,
	}

	e.idx.put(key, newEntry)

	if e.cfg.UpdateValidationEnabled {
		if err := e.validateWriteLocked(newEntry, value); err != nil {
			if hadExisting {
				e.idx.put(key, existing)
			} else {
				e.idx.remove(key)
			}

			return err
		}
	}

	e.dirty = true

	return nil
}

// validateWriteLocked flushes the appender, reads back what was just
// written, and compares it to value. Called with e.mu held.
func (e *Engine) validateWriteLocked(ent *entry, value []byte) error {
	if err := e.appender.flush(); err != nil {
		return err
	}

	buf := make([]byte, ent.ValueLength)
	if _, err := e.file.ReadAt(buf, ent.ValuePosition); err != nil {
		return fmt.Errorf("fskv: validation read failed: %w", err)
	}

	readBack, err := e.pipelineRead(buf)
	if err != nil {
		return fmt.Errorf("fskv: validation decode failed: %w", err)
	}

	if !bytes.Equal(readBack, value) {
		return errs.ErrValidationFailure
	}

	return nil
}

// Get returns the value stored for key. The second return reports
// whether key is live; bytes that fail to decrypt/decompress or fail
// their integrity check are treated as absent rather than returned as an
// error, per spec.md §7.
func (e *Engine) Get(key []byte) ([]byte, bool, error) {
	if e.isClosed() {
		return nil, false, errs.ErrClosed
	}

	if e.compacting.Load() {
		// Hold the lock across the whole lookup-and-read below, not just
		// the index lookup: swapInCompactedFile closes and replaces
		// e.file under this same lock, and a ReadAt issued after an
		// unlocked re-lookup could still land on the old, now-closed
		// handle.
		e.readProtect.RLock()
		defer e.readProtect.RUnlock()
	}

	ent, ok := e.idx.get(key)
	if !ok {
		return nil, false, nil
	}

	endPosition := ent.ValuePosition + int64(ent.ValueLength)
	if err := e.appender.ensureFlushedThrough(endPosition); err != nil {
		return nil, false, fmt.Errorf("fskv: failed to flush before read: %w", err)
	}

	processed := make([]byte, ent.ValueLength)
	if _, err := e.file.ReadAt(processed, ent.ValuePosition); err != nil {
		return nil, false, fmt.Errorf("fskv: failed to read value: %w", err)
	}

	if hash.ReduceValueHash(processed, e.cfg.HashID, e.hasher) != ent.ValueHash {
		e.cfg.Logger.Printf("fskv: value_hash mismatch for a key, treating as not found")

		return nil, false, nil
	}

	value, err := e.pipelineRead(processed)
	if err != nil {
		return nil, false, nil
	}

	return value, true, nil
}

// Contains reports whether key has a live entry, without reading its
// value.
func (e *Engine) Contains(key []byte) bool {
	if e.isClosed() {
		return false
	}

	_, ok := e.idx.get(key)

	return ok
}

// Delete removes key, returning whether it previously existed. The
// on-disk record is tombstoned at the next Flush; it is reclaimed only by
// Compact.
func (e *Engine) Delete(key []byte) (bool, error) {
	if e.isClosed() {
		return false, errs.ErrClosed
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ent, ok := e.idx.remove(key)
	if !ok {
		return false, nil
	}

	ent.IsDeleted = true
	ent.IsUpdated = true
	e.tombstones.add(string(ent.Key), ent)
	e.dirty = true

	return true, nil
}

// SetBatch writes every key/value pair in items. When skipDuplicates is
// true, a pair whose value already matches the stored one (by
// value_hash) is skipped rather than rewritten. It returns the number of
// pairs actually written.
func (e *Engine) SetBatch(items map[string][]byte, skipDuplicates bool) (int, error) {
	if e.isClosed() {
		return 0, errs.ErrClosed
	}

	for k := range items {
		if len(k) > e.cfg.MaxKeyLength {
			return 0, fmt.Errorf("fskv: key length %d exceeds max_key_length %d: %w", len(k), e.cfg.MaxKeyLength, errs.ErrKeyTooLong)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var toAppend []*batchItem

	written := 0

	for k, v := range items {
		processed, valueHash, err := e.pipelineWrite(v)
		if err != nil {
			return written, err
		}

		keyBytes := []byte(k)
		existing, hadExisting := e.idx.get(keyBytes)

		if hadExisting && skipDuplicates && existing.ValueHash == valueHash {
			continue
		}

		p := &batchItem{key: keyBytes, value: v, processed: processed, valueHash: valueHash, existing: existing}

		if e.cfg.FileUpdateMode == format.FileUpdateReplace && hadExisting && existing.ValueLength >= uint32(len(processed)) {
			p.reuse = true

			if err := e.appender.writeAt(existing.ValuePosition, processed); err != nil {
				return written, fmt.Errorf("fskv: failed to write value: %w", err)
			}

			e.commitBatchEntry(p, existing.ValuePosition)
			written++

			continue
		}

		toAppend = append(toAppend, p)
	}

	if len(toAppend) > 0 {
		total := int64(0)
		for _, p := range toAppend {
			total += int64(len(p.processed))
		}

		if err := e.appender.preallocate(total); err != nil {
			return written, fmt.Errorf("fskv: failed to preallocate: %w", err)
		}

		buf := make([]byte, 0, total)
		for _, p := range toAppend {
			buf = append(buf, p.processed...)
		}

		startPosition, err := e.appender.append(buf)
		if err != nil {
			return written, fmt.Errorf("fskv: failed to append batch: %w", err)
		}

		cursor := startPosition
		for _, p := range toAppend {
			e.commitBatchEntry(p, cursor)
			cursor += int64(len(p.processed))
			written++
		}
	}

	if written > 0 {
		e.dirty = true
	}

	if e.cfg.UpdateValidationEnabled && written > 0 {
		if err := e.sampleValidateBatch(items); err != nil {
			return written, err
		}
	}

	return written, nil
}

// batchItem is a single pre-serialized, pre-hashed pair staged by
// SetBatch before it decides reuse-in-place vs. append placement.
type batchItem struct {
	key       []byte
	value     []byte
	processed []byte
	valueHash uint64
	reuse     bool
	existing  *entry
}

func (e *Engine) commitBatchEntry(p *batchItem, position int64) {
	keyPosition := int64(section.UnassignedPosition)
	if p.existing != nil {
		keyPosition = p.existing.KeyPosition
	}

	e.idx.put(p.key, &entry{
		Key:           append([]byte(nil), p.key...),
		ValuePosition: position,
		ValueLength:   uint32(len(p.processed)),
		ValueHash:     p.valueHash,
		TimestampMs:   nowMs(),
		IsUpdated:     true,
		KeyPosition:   keyPosition,
	})
}

// sampleValidateBatch checks up to 10 of the just-written items by
// reading them back, per spec.md §4.6.5.
func (e *Engine) sampleValidateBatch(items map[string][]byte) error {
	const sampleSize = 10

	n := 0

	for k, v := range items {
		if n >= sampleSize {
			break
		}

		n++

		ent, ok := e.idx.get([]byte(k))
		if !ok {
			continue
		}

		if err := e.validateWriteLocked(ent, v); err != nil {
			return err
		}
	}

	return nil
}

// DeleteBatch removes every key in keys, returning how many existed.
func (e *Engine) DeleteBatch(keys [][]byte) (int, error) {
	if e.isClosed() {
		return 0, errs.ErrClosed
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	count := 0

	for _, k := range keys {
		ent, ok := e.idx.remove(k)
		if !ok {
			continue
		}

		ent.IsDeleted = true
		ent.IsUpdated = true
		e.tombstones.add(string(ent.Key), ent)
		count++
	}

	if count > 0 {
		e.dirty = true
	}

	return count, nil
}

// Clear removes every key and truncates the file back to just the header,
// per spec.md §4.6.6.
func (e *Engine) Clear() error {
	if e.isClosed() {
		return errs.ErrClosed
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.idx.clear()
	e.tombstones.clear()
	e.appender.clear()

	if err := e.file.Truncate(e.headerRegionSize); err != nil {
		return fmt.Errorf("fskv: failed to truncate: %w", err)
	}

	e.appender.rebind(e.file, e.headerRegionSize)

	e.header.IndexStart = uint64(e.headerRegionSize)
	e.header.IndexUsed = 0
	e.header.IndexSpace = 0
	e.header.IndexCount = 0

	if err := e.writeHeaderAt(0); err != nil {
		return err
	}

	e.dirty = false

	return nil
}

// Flush persists the appender's staging buffer, the index, and the
// header, in that order, per spec.md §4.6.7. It is a total barrier: when
// it returns, every earlier successful write is durable.
func (e *Engine) Flush() error {
	if e.isClosed() {
		return errs.ErrClosed
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.flushLocked()
}

func (e *Engine) flushLocked() error {
	if err := e.appender.flush(); err != nil {
		return fmt.Errorf("fskv: failed to flush appender: %w", err)
	}

	if !e.dirty {
		return nil
	}

	if err := e.persistIndexLocked(); err != nil {
		return fmt.Errorf("fskv: failed to persist index: %w", err)
	}

	// persistIndexLocked writes the index region through the appender,
	// which only stages small regions in its buffer; push that buffer to
	// disk before the header (which records index_start/index_used) is
	// synced, or a crash right after Flush returns can leave the header
	// pointing past EOF.
	if err := e.appender.flush(); err != nil {
		return fmt.Errorf("fskv: failed to flush index write: %w", err)
	}

	e.header.IndexCount = uint32(e.idx.count())

	if err := e.writeHeaderAt(0); err != nil {
		return err
	}

	if err := e.file.Sync(); err != nil {
		return fmt.Errorf("fskv: fsync failed: %w", err)
	}

	e.dirty = false
	e.tombstones.clear()

	if e.cfg.AutoCompactEnabled && e.shouldCompactLocked() {
		if err := e.performCompactLocked(false); err != nil {
			return err
		}
	}

	return nil
}

// Compact rewrites the file to reclaim space freed by deleted and
// superseded values. When full is true, no growth pad is left in the new
// index region.
func (e *Engine) Compact(full bool) error {
	if e.isClosed() {
		return errs.ErrClosed
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.performCompactLocked(full)
}

// Keys returns a snapshot of every live key.
func (e *Engine) Keys() [][]byte {
	return e.idx.keys()
}

// Count returns the number of live keys.
func (e *Engine) Count() int {
	return e.idx.count()
}

// Stats returns a point-in-time operational snapshot.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	var liveBytes int64

	e.idx.forEach(func(_ string, ent *entry) {
		liveBytes += int64(ent.ValueLength)
	})

	fileSize := e.appender.currentEndPosition()

	return Stats{
		KeyCount:              e.idx.count(),
		TombstoneCount:        e.tombstones.len(),
		LiveValueBytes:        liveBytes,
		FileSizeBytes:         fileSize,
		LastCompactionEpochMs: e.lastCompactionEpochMs,
	}
}

func (e *Engine) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.closed
}
