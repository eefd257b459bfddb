package store

import (
	"fmt"

	"github.com/go-fskv/fskv/errs"
	ihash "github.com/go-fskv/fskv/internal/hash"
	"github.com/go-fskv/fskv/section"
)

// encodeEntry serializes e into its on-disk form, sealing it with aead
// when encryption is enabled. The returned bytes are exactly what gets
// written to (or patched into) the index region.
func (e *Engine) encodeEntry(ent *entry) ([]byte, error) {
	plaintext := ent.Bytes()

	if !e.cfg.EncryptionID.Enabled() {
		return plaintext, nil
	}

	sealed, err := e.aead.Seal(plaintext)
	if err != nil {
		return nil, fmt.Errorf("fskv: failed to seal index entry: %w", err)
	}

	sealedEntry := &section.SealedIndexEntry{
		IsDeleted:     ent.IsDeleted,
		EnvelopeHash:  ihash.Checksum(sealed),
		SealedPayload: sealed,
	}

	return sealedEntry.Bytes(), nil
}

// decodeEntry reverses encodeEntry, returning the decoded entry and the
// number of bytes of data it consumed.
func (e *Engine) decodeEntry(data []byte) (*entry, int, error) {
	if !e.cfg.EncryptionID.Enabled() {
		var ie section.IndexEntry
		if err := ie.Parse(data); err != nil {
			return nil, 0, err
		}

		return &ie, ie.Size(), nil
	}

	var sealedEntry section.SealedIndexEntry
	if err := sealedEntry.Parse(data); err != nil {
		return nil, 0, err
	}

	if ihash.Checksum(sealedEntry.SealedPayload) != sealedEntry.EnvelopeHash {
		return nil, 0, fmt.Errorf("fskv: sealed index entry envelope hash mismatch: %w", errs.ErrCorruptEntry)
	}

	plaintext, err := e.aead.Open(sealedEntry.SealedPayload)
	if err != nil {
		return nil, 0, err
	}

	var ie section.IndexEntry
	if err := ie.Parse(plaintext); err != nil {
		return nil, 0, err
	}

	// A tombstone patch flips only the envelope's is_deleted byte and
	// leaves the sealed payload as it was, so the envelope flag wins.
	if sealedEntry.IsDeleted {
		ie.IsDeleted = true
	}

	return &ie, sealedEntry.Size(), nil
}

// patchIsDeleted rewrites just the is_deleted byte of an on-disk entry at
// position, without touching the rest of the record. Both the plaintext
// and sealed-envelope layouts put is_deleted at the same relative offset
// (byte 4), so one helper covers both.
func (e *Engine) patchIsDeleted(position int64, isDeleted bool) error {
	value := byte(0)
	if isDeleted {
		value = 1
	}

	return e.appender.writeAt(position+4, []byte{value})
}

// loadIndex reads the index region described by e.header from e.file and
// reconstructs the live primary index, per spec.md §4.5's scan algorithm:
// resynchronize on the "IDXE" magic, parse candidate entries, and let the
// last valid occurrence of a key win (so a later tombstone correctly
// evicts an earlier live record for the same key).
func (e *Engine) loadIndex() error {
	idx := newIndex(e.cfg.lockStripes)
	e.idx = idx

	if e.header.IndexUsed == 0 {
		return nil
	}

	buf := make([]byte, e.header.IndexUsed)
	if _, err := e.file.ReadAt(buf, int64(e.header.IndexStart)); err != nil {
		return fmt.Errorf("fskv: failed to read index region: %w", err)
	}

	pos := 0
	for pos+4 <= len(buf) {
		if [4]byte(buf[pos:pos+4]) != section.MagicIndexEntry {
			pos++
			continue
		}

		ent, size, err := e.decodeEntry(buf[pos:])
		if err != nil {
			e.cfg.Logger.Printf("fskv: skipping corrupt index entry at offset %d: %v", pos, err)
			pos++

			continue
		}

		ent.KeyPosition = int64(e.header.IndexStart) + int64(pos)
		ent.IsUpdated = false

		if !ent.IsDeleted && ent.ValuePosition > 0 {
			idx.put(ent.Key, ent)
		} else {
			idx.remove(ent.Key)
		}

		pos += size
	}

	return nil
}

// persistIndexLocked writes the index region to disk following the
// strategy-selection rule in spec.md §4.5. Callers must hold e.mu.
func (e *Engine) persistIndexLocked() error {
	if e.shouldFullRebuildLocked() {
		return e.fullRebuildIndexLocked()
	}

	return e.incrementalPersistIndexLocked()
}

// shouldFullRebuildLocked decides between strategy 1 (full rebuild) and
// the incremental strategies 2-4, per spec.md §4.5.
func (e *Engine) shouldFullRebuildLocked() bool {
	liveCount := e.idx.count()
	if liveCount < 10 {
		return true
	}

	if e.cfg.IndexRebuildThreshold == 0 {
		return true
	}

	total := liveCount + e.tombstones.len()
	if total == 0 {
		return false
	}

	wastePercent := e.tombstones.len() * 100 / total

	return wastePercent > e.cfg.IndexRebuildThreshold
}

// fullRebuildIndexLocked implements strategy 1: serialize every live
// entry sequentially into a fresh region at end-of-file, with an optional
// growth pad, and repoint the header at it.
func (e *Engine) fullRebuildIndexLocked() error {
	var payload []byte

	offsets := make(map[string]int64)

	var outerErr error
	e.idx.forEach(func(key string, ent *entry) {
		if outerErr != nil {
			return
		}

		encoded, err := e.encodeEntry(ent)
		if err != nil {
			outerErr = err

			return
		}

		offsets[key] = int64(len(payload))
		payload = append(payload, encoded...)
	})
	if outerErr != nil {
		return outerErr
	}

	liveCount := e.idx.count()

	pad := 0
	if liveCount >= 10 && e.cfg.IndexRebuildThreshold > 0 {
		pad = len(payload) * e.cfg.IndexRebuildThreshold / 100
	}

	region := payload
	if pad > 0 {
		region = append(region, make([]byte, pad)...)
	}

	newIndexStart, err := e.appender.append(region)
	if err != nil {
		return fmt.Errorf("fskv: failed to write rebuilt index region: %w", err)
	}

	e.idx.forEach(func(key string, ent *entry) {
		ent.KeyPosition = newIndexStart + offsets[key]
		ent.IsUpdated = false
	})

	e.header.IndexStart = uint64(newIndexStart)
	e.header.IndexUsed = uint32(len(payload))
	e.header.IndexSpace = uint32(len(region))
	e.header.IndexCount = uint32(liveCount)

	e.tombstones.clear()

	return nil
}

// incrementalPersistIndexLocked implements strategies 2-4: tail-append
// never-persisted entries into the growth pad, in-place patch dirty
// already-persisted entries, then tombstone-patch removed entries.
func (e *Engine) incrementalPersistIndexLocked() error {
	var newEntries, patchEntries []*entry

	e.idx.forEach(func(_ string, ent *entry) {
		if !ent.IsUpdated {
			return
		}

		if ent.KeyPosition == section.UnassignedPosition {
			newEntries = append(newEntries, ent)
		} else {
			patchEntries = append(patchEntries, ent)
		}
	})

	if len(newEntries) > 0 {
		if err := e.tailAppendLocked(newEntries); err != nil {
			return err
		}
	}

	for _, ent := range patchEntries {
		encoded, err := e.encodeEntry(ent)
		if err != nil {
			return err
		}

		if err := e.appender.writeAt(ent.KeyPosition, encoded); err != nil {
			return fmt.Errorf("fskv: failed to patch index entry: %w", err)
		}

		ent.IsUpdated = false
	}

	for _, tomb := range e.tombstones.entries {
		if tomb.KeyPosition == section.UnassignedPosition {
			continue // never persisted; nothing on disk to patch
		}

		if err := e.patchIsDeleted(tomb.KeyPosition, true); err != nil {
			return fmt.Errorf("fskv: failed to patch tombstone: %w", err)
		}
	}

	e.header.IndexCount = uint32(e.idx.count())
	e.tombstones.clear()

	return nil
}

// tailAppendLocked writes newEntries into the index region's growth pad,
// advancing index_used. If they would not all fit, it falls back to a
// full rebuild instead of trying to interleave the two strategies.
func (e *Engine) tailAppendLocked(newEntries []*entry) error {
	var encodedAll [][]byte

	total := 0
	for _, ent := range newEntries {
		encoded, err := e.encodeEntry(ent)
		if err != nil {
			return err
		}

		encodedAll = append(encodedAll, encoded)
		total += len(encoded)
	}

	available := int64(e.header.IndexSpace) - int64(e.header.IndexUsed)
	if int64(total) > available {
		return e.fullRebuildIndexLocked()
	}

	writeAt := int64(e.header.IndexStart) + int64(e.header.IndexUsed)

	buf := make([]byte, 0, total)
	for _, encoded := range encodedAll {
		buf = append(buf, encoded...)
	}

	if err := e.appender.writeAt(writeAt, buf); err != nil {
		return fmt.Errorf("fskv: failed to tail-append index entries: %w", err)
	}

	cursor := writeAt
	for i, ent := range newEntries {
		ent.KeyPosition = cursor
		ent.IsUpdated = false
		cursor += int64(len(encodedAll[i]))
	}

	e.header.IndexUsed += uint32(total)

	return nil
}
