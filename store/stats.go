package store

// Stats is a point-in-time operational snapshot of an Engine. It is the
// supplemented "stats -> struct" operation spec.md §6 names without
// defining (see SPEC_FULL.md §13): every comparable storage engine in the
// reference pack exposes something like this.
type Stats struct {
	KeyCount              int
	TombstoneCount        int
	LiveValueBytes        int64
	FileSizeBytes         int64
	LastCompactionEpochMs int64
}
