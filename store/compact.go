package store

import (
	"bufio"
	"fmt"
	"os"
	"sort"

	"github.com/go-fskv/fskv/cipher"
	"github.com/go-fskv/fskv/errs"
	"github.com/go-fskv/fskv/format"
	"github.com/go-fskv/fskv/hash"
	"github.com/go-fskv/fskv/section"
)

// shouldCompactLocked implements spec.md §4.7's triggering policy: compact
// when the fraction of the file that is neither a live value nor part of
// the index region exceeds auto_compact_threshold percent.
func (e *Engine) shouldCompactLocked() bool {
	fileLength := e.appender.currentEndPosition()

	var liveSum int64

	e.idx.forEach(func(_ string, ent *entry) {
		liveSum += int64(ent.ValueLength)
	})

	aeadPad := int64(0)
	if e.cfg.EncryptionID.Enabled() {
		aeadPad = format.AEADPad
	}

	freeBytes := fileLength - liveSum - int64(section.HeaderSize) - aeadPad - int64(e.header.IndexSpace)
	threshold := fileLength * int64(e.cfg.AutoCompactThreshold) / 100

	return freeBytes > threshold
}

// performCompactLocked atomically rewrites the file so it holds only live
// values and a fresh contiguous index, per spec.md §4.7. Callers must
// hold e.mu.
func (e *Engine) performCompactLocked(allCompact bool) error {
	e.compacting.Store(true)
	defer e.compacting.Store(false)

	if err := e.appender.flush(); err != nil {
		return fmt.Errorf("fskv: failed to flush before compact: %w", err)
	}

	tmpPath := e.path + ".compact.tmp"
	backupPath := e.path + ".backup"

	tmpFile, err := os.OpenFile(tmpPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("fskv: failed to create compaction temp file: %w", err)
	}
	defer tmpFile.Close()

	// Placeholder header; overwritten with the real one once offsets are known.
	if _, err := tmpFile.WriteAt(make([]byte, e.headerRegionSize), 0); err != nil {
		return fmt.Errorf("fskv: failed to write placeholder header: %w", err)
	}

	live := make([]*entry, 0, e.idx.count())
	e.idx.forEach(func(_ string, ent *entry) {
		live = append(live, ent)
	})

	sort.Slice(live, func(i, j int) bool { return live[i].ValuePosition < live[j].ValuePosition })

	writer := bufio.NewWriter(tmpFile)
	cursor := e.headerRegionSize

	if _, err := tmpFile.Seek(cursor, 0); err != nil {
		return fmt.Errorf("fskv: failed to seek compaction temp file: %w", err)
	}

	survivors := make([]*entry, 0, len(live))
	var lost []string

	for _, ent := range live {
		buf := make([]byte, ent.ValueLength)
		if _, err := e.file.ReadAt(buf, ent.ValuePosition); err != nil {
			e.cfg.Logger.Printf("fskv: compaction: failed to read value, skipping key: %v", err)
			lost = append(lost, string(ent.Key))

			continue
		}

		if hash.ReduceValueHash(buf, e.cfg.HashID, e.hasher) != ent.ValueHash {
			e.cfg.Logger.Printf("fskv: compaction: value_hash mismatch, skipping key")
			lost = append(lost, string(ent.Key))

			continue
		}

		if _, err := writer.Write(buf); err != nil {
			return fmt.Errorf("fskv: failed to write compacted value: %w", err)
		}

		ent.ValuePosition = cursor
		cursor += int64(len(buf))

		survivors = append(survivors, ent)
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("fskv: failed to flush compacted values: %w", err)
	}

	for _, key := range lost {
		e.idx.remove([]byte(key))
	}

	indexStart := cursor

	var payload []byte

	for _, ent := range survivors {
		ent.KeyPosition = indexStart + int64(len(payload))

		encoded, err := e.encodeEntry(ent)
		if err != nil {
			return err
		}

		payload = append(payload, encoded...)
	}

	pad := 0
	if !allCompact && len(survivors) >= 10 && e.cfg.IndexRebuildThreshold > 0 {
		pad = len(payload) * e.cfg.IndexRebuildThreshold / 100
	}

	region := payload
	if pad > 0 {
		region = append(region, make([]byte, pad)...)
	}

	if _, err := tmpFile.WriteAt(region, indexStart); err != nil {
		return fmt.Errorf("fskv: failed to write compacted index: %w", err)
	}

	newHeader := section.Create(e.cfg.CompressionID, e.cfg.EncryptionID, e.cfg.HashID, e.header.CreatedEpochMs)
	newHeader.IndexStart = uint64(indexStart)
	newHeader.IndexUsed = uint32(len(payload))
	newHeader.IndexSpace = uint32(len(region))
	newHeader.IndexCount = uint32(len(survivors))

	if err := writeHeaderTo(tmpFile, newHeader, e.aead, e.cfg.EncryptionID.Enabled()); err != nil {
		return err
	}

	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("fskv: failed to fsync compaction temp file: %w", err)
	}

	if err := e.verifyCompactedHeader(tmpFile, newHeader); err != nil {
		return err
	}

	if err := e.swapInCompactedFile(tmpPath, backupPath); err != nil {
		return err
	}

	e.header = newHeader
	e.dirty = false
	e.tombstones.clear()
	e.lastCompactionEpochMs = nowMs()

	os.Remove(backupPath) //nolint:errcheck // best-effort cleanup; a leftover backup does not corrupt the live file

	return nil
}

// verifyCompactedHeader re-reads the header just written to tmpFile and
// checks it round-trips, per spec.md §4.7 step 7.
func (e *Engine) verifyCompactedHeader(tmpFile *os.File, want *section.Header) error {
	buf := make([]byte, e.headerRegionSize)
	if _, err := tmpFile.ReadAt(buf, 0); err != nil {
		return fmt.Errorf("fskv: failed to re-read compacted header: %w", err)
	}

	plaintext := buf
	if e.cfg.EncryptionID.Enabled() {
		opened, err := e.aead.Open(buf)
		if err != nil {
			return fmt.Errorf("fskv: compacted header failed to decrypt: %w", errs.ErrCompactVerifyFailure)
		}

		plaintext = opened
	}

	got, err := section.Parse(plaintext)
	if err != nil {
		return fmt.Errorf("fskv: compacted header failed to parse: %w", errs.ErrCompactVerifyFailure)
	}

	if got.IndexStart != want.IndexStart || got.IndexUsed != want.IndexUsed ||
		got.IndexSpace != want.IndexSpace || got.IndexCount != want.IndexCount {
		return fmt.Errorf("fskv: compacted header mismatch: %w", errs.ErrCompactVerifyFailure)
	}

	return nil
}

// swapInCompactedFile performs the atomic rename pair and rebinds e.file
// and e.appender to the new file, holding the read-protection lock so a
// concurrent Get sees either the old or the new file, never a half-swapped
// state.
func (e *Engine) swapInCompactedFile(tmpPath, backupPath string) error {
	e.readProtect.Lock()
	defer e.readProtect.Unlock()

	if err := e.file.Close(); err != nil {
		return fmt.Errorf("fskv: failed to close file before compaction swap: %w", err)
	}

	if err := os.Rename(e.path, backupPath); err != nil {
		return fmt.Errorf("fskv: failed to back up original file: %w", err)
	}

	if err := os.Rename(tmpPath, e.path); err != nil {
		// Best-effort restore; report the original failure either way.
		os.Rename(backupPath, e.path) //nolint:errcheck

		return fmt.Errorf("fskv: failed to install compacted file: %w", err)
	}

	newFile, err := os.OpenFile(e.path, os.O_RDWR, 0o644)
	if err != nil {
		os.Rename(backupPath, e.path) //nolint:errcheck

		return fmt.Errorf("fskv: failed to reopen compacted file: %w", err)
	}

	info, err := newFile.Stat()
	if err != nil {
		return fmt.Errorf("fskv: failed to stat compacted file: %w", err)
	}

	e.file = newFile
	e.appender.rebind(newFile, info.Size())

	return nil
}

// writeHeaderTo writes hdr's canonical encoding (sealed with aead when
// encryptionEnabled) to file at offset 0.
func writeHeaderTo(file *os.File, hdr *section.Header, aead cipher.AEAD, encryptionEnabled bool) error {
	hdr.LastUpdateEpochMs = nowMs()
	plaintext := hdr.Bytes()

	toWrite := plaintext
	if encryptionEnabled {
		sealed, err := aead.Seal(plaintext)
		if err != nil {
			return fmt.Errorf("fskv: failed to seal compacted header: %w", err)
		}

		toWrite = sealed
	}

	if _, err := file.WriteAt(toWrite, 0); err != nil {
		return fmt.Errorf("fskv: failed to write compacted header: %w", err)
	}

	return nil
}
