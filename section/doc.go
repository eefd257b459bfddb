// Package section exists alongside doc comments in header.go and
// index_entry.go; see those for the on-disk layouts themselves. This file
// only records the region layout these records live inside.
//
// # File layout
//
//	[0, HeaderSize)                     file Header (+ AEAD pad if encrypted)
//	[HeaderSize, index_start)            value region: concatenated processed value blobs
//	[index_start, index_start+index_space) index region: IndexEntry/SealedIndexEntry sequence + growth pad
package section
