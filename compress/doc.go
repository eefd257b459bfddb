// Package compress documents the eight compression codecs fskv supports.
//
// # Overview
//
// A value's write path is compress -> encrypt; its read path is the
// reverse. Compression is optional (CompressionNone) and, once a file is
// created, fixed for the life of that file: the chosen algorithm is
// stored in the file header and validated against the opening config.
//
// # Supported algorithms
//
//   - None: no compression, zero CPU cost.
//   - Gzip (klauspost/compress/gzip): ubiquitous framed format.
//   - Deflate (klauspost/compress/flate): Gzip's payload without framing.
//   - Brotli (andybalholm/brotli): best ratio for text-like values.
//   - LZ4 (pierrec/lz4): fastest decompression.
//   - Zstd (klauspost/compress/zstd): strong ratio at moderate speed.
//   - Snappy (golang/snappy): fastest in both directions.
//   - LZMA (ulikunitz/xz/lzma): best ratio overall, slowest.
//
// Choosing one is a tradeoff between write-path CPU, read-path CPU, and
// on-disk footprint; none of them changes the store's semantics.
package compress
