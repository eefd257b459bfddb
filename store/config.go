package store

import (
	"fmt"

	"github.com/go-fskv/fskv/cipher"
	"github.com/go-fskv/fskv/compress"
	"github.com/go-fskv/fskv/errs"
	"github.com/go-fskv/fskv/format"
	"github.com/go-fskv/fskv/hash"
	"github.com/go-fskv/fskv/internal/options"
)

// Defaults, per spec.md §6.
const (
	DefaultMaxKeyLength            = 4096
	DefaultFileStreamBufferKB      = 64
	MinFileStreamBufferKB          = 4
	DefaultWriteBufferEnabled      = true
	DefaultWriteBufferKB           = 1024
	MinWriteBufferKB               = 4
	DefaultWriteBufferTimeMs       = 5000
	MinWriteBufferTimeMs           = 100
	DefaultFlushIntervalS          = 5
	DefaultAutoCompactEnabled      = false
	DefaultAutoCompactThreshold    = 50
	DefaultIndexRebuildThreshold   = 20
	DefaultUpdateValidationEnabled = false
	defaultLockStripes             = 32
)

// Config holds every tunable fskv recognizes. Construct one with
// NewConfig and a set of Option values; Open validates and applies
// defaults for anything left unset.
type Config struct {
	CompressionID format.CompressionType
	EncryptionID  format.EncryptionType
	HashID        format.HashType
	EncryptionKey []byte

	MaxKeyLength int

	FileStreamBufferKB int

	WriteBufferEnabled        bool
	WriteBufferKB             int
	WriteBufferTimeThresholdMs int

	FlushIntervalS int

	FileUpdateMode format.FileUpdateMode

	AutoCompactEnabled   bool
	AutoCompactThreshold int // percent, 0-255

	IndexRebuildThreshold int // percent, 0-100

	UpdateValidationEnabled bool

	Logger Logger

	lockStripes int
}

// Option configures a Config. See the WithXxx functions in this file.
type Option = options.Option[*Config]

// NewConfig builds a Config from opts, applying defaults for anything an
// option did not set. It does not open or create a file; see Open.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := &Config{
		CompressionID:              format.CompressionNone,
		EncryptionID:               format.EncryptionNone,
		HashID:                     format.HashXXH3,
		MaxKeyLength:               DefaultMaxKeyLength,
		FileStreamBufferKB:         DefaultFileStreamBufferKB,
		WriteBufferEnabled:         DefaultWriteBufferEnabled,
		WriteBufferKB:              DefaultWriteBufferKB,
		WriteBufferTimeThresholdMs: DefaultWriteBufferTimeMs,
		FlushIntervalS:             DefaultFlushIntervalS,
		FileUpdateMode:             format.FileUpdateAppend,
		AutoCompactEnabled:         DefaultAutoCompactEnabled,
		AutoCompactThreshold:       DefaultAutoCompactThreshold,
		IndexRebuildThreshold:      DefaultIndexRebuildThreshold,
		UpdateValidationEnabled:    DefaultUpdateValidationEnabled,
		Logger:                     NoOpLogger{},
		lockStripes:                defaultLockStripes,
	}

	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	cfg.clamp()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// clamp enforces the floors spec.md §6 documents for the buffering knobs,
// independent of whether the caller supplied an option for them.
func (c *Config) clamp() {
	if c.FileStreamBufferKB < MinFileStreamBufferKB {
		c.FileStreamBufferKB = MinFileStreamBufferKB
	}

	if c.WriteBufferKB < MinWriteBufferKB {
		c.WriteBufferKB = MinWriteBufferKB
	}

	if c.WriteBufferTimeThresholdMs < MinWriteBufferTimeMs {
		c.WriteBufferTimeThresholdMs = MinWriteBufferTimeMs
	}
}

func (c *Config) validate() error {
	if c.MaxKeyLength <= 0 {
		return fmt.Errorf("%w: max_key_length must be positive", errs.ErrInvalidConfig)
	}

	if c.AutoCompactThreshold < 0 || c.AutoCompactThreshold > 255 {
		return fmt.Errorf("%w: auto_compact_threshold must be 0-255", errs.ErrInvalidConfig)
	}

	if c.IndexRebuildThreshold < 0 || c.IndexRebuildThreshold > 100 {
		return fmt.Errorf("%w: index_rebuild_threshold must be 0-100", errs.ErrInvalidConfig)
	}

	if c.EncryptionID.Enabled() && len(c.EncryptionKey) < cipher.MinPassphraseLength {
		return fmt.Errorf("%w: encryption_key must be at least %d bytes", errs.ErrInvalidConfig, cipher.MinPassphraseLength)
	}

	return nil
}

// codecs resolves c's codec ids into live Codec/AEAD/Hasher instances.
func (c *Config) codecs() (compress.Codec, cipher.AEAD, hash.Hasher, error) {
	codec, err := compress.CreateCodec(c.CompressionID, "value")
	if err != nil {
		return nil, nil, nil, err
	}

	key := c.EncryptionKey
	if c.EncryptionID.Enabled() {
		key, err = cipher.DeriveKey(c.EncryptionKey)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	aead, err := cipher.CreateAEAD(c.EncryptionID, key)
	if err != nil {
		return nil, nil, nil, err
	}

	hasher, err := hash.CreateHasher(c.HashID)
	if err != nil {
		return nil, nil, nil, err
	}

	return codec, aead, hasher, nil
}

// WithCompression selects the value-blob compressor. Immutable after the
// file is created; opening an existing file with a different value here
// fails with errs.ErrConfigMismatch.
func WithCompression(id format.CompressionType) Option {
	return options.NoError(func(c *Config) { c.CompressionID = id })
}

// WithEncryption selects the AEAD cipher and the passphrase it is
// stretched from via cipher.DeriveKey. Immutable after creation.
func WithEncryption(id format.EncryptionType, key []byte) Option {
	return options.NoError(func(c *Config) {
		c.EncryptionID = id
		c.EncryptionKey = key
	})
}

// WithHash selects the integrity hash algorithm. Immutable after creation.
func WithHash(id format.HashType) Option {
	return options.NoError(func(c *Config) { c.HashID = id })
}

// WithMaxKeyLength caps accepted key length. Default 4096.
func WithMaxKeyLength(n int) Option {
	return options.New(func(c *Config) error {
		if n <= 0 {
			return fmt.Errorf("%w: max_key_length must be positive", errs.ErrInvalidConfig)
		}
		c.MaxKeyLength = n
		return nil
	})
}

// WithFileStreamBufferKB sets Config.FileStreamBufferKB. Floored at
// MinFileStreamBufferKB. The engine does not read this value: file reads
// and writes go straight to the os.File without an extra buffer layer.
func WithFileStreamBufferKB(kb int) Option {
	return options.NoError(func(c *Config) { c.FileStreamBufferKB = kb })
}

// WithWriteBuffer enables or disables the buffered appender's in-memory
// staging buffer.
func WithWriteBuffer(enabled bool) Option {
	return options.NoError(func(c *Config) { c.WriteBufferEnabled = enabled })
}

// WithWriteBufferKB sets the appender's staging buffer size. Floored at
// MinWriteBufferKB.
func WithWriteBufferKB(kb int) Option {
	return options.NoError(func(c *Config) { c.WriteBufferKB = kb })
}

// WithWriteBufferTimeThresholdMs sets the appender's auto-flush timer
// period. Floored at MinWriteBufferTimeMs.
func WithWriteBufferTimeThresholdMs(ms int) Option {
	return options.NoError(func(c *Config) { c.WriteBufferTimeThresholdMs = ms })
}

// WithFlushInterval sets how often the background flush driver invokes
// Flush. 0 disables the driver entirely.
func WithFlushInterval(seconds int) Option {
	return options.NoError(func(c *Config) { c.FlushIntervalS = seconds })
}

// WithFileUpdateMode selects Append or Replace semantics for Set.
func WithFileUpdateMode(mode format.FileUpdateMode) Option {
	return options.NoError(func(c *Config) { c.FileUpdateMode = mode })
}

// WithAutoCompact enables automatic compaction and sets the free-space
// percentage threshold (0-255) that triggers it.
func WithAutoCompact(enabled bool, thresholdPercent int) Option {
	return options.New(func(c *Config) error {
		if thresholdPercent < 0 || thresholdPercent > 255 {
			return fmt.Errorf("%w: auto_compact_threshold must be 0-255", errs.ErrInvalidConfig)
		}
		c.AutoCompactEnabled = enabled
		c.AutoCompactThreshold = thresholdPercent
		return nil
	})
}

// WithIndexRebuildThreshold sets the deletion-waste / growth-pad
// percentage (0-100) used by the index persistence strategy selection.
func WithIndexRebuildThreshold(percent int) Option {
	return options.New(func(c *Config) error {
		if percent < 0 || percent > 100 {
			return fmt.Errorf("%w: index_rebuild_threshold must be 0-100", errs.ErrInvalidConfig)
		}
		c.IndexRebuildThreshold = percent
		return nil
	})
}

// WithUpdateValidation enables post-write read-back verification in Set.
func WithUpdateValidation(enabled bool) Option {
	return options.NoError(func(c *Config) { c.UpdateValidationEnabled = enabled })
}

// WithLogger injects the sink used for the "log and skip" paths during
// scan and compaction. Defaults to a no-op.
func WithLogger(logger Logger) Option {
	return options.NoError(func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	})
}
