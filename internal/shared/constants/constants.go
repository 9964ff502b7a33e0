package constants

import (
	"io/fs"
	"time"
)

const (
	// DefaultDirPerm is the default permission used when creating directories.
	DefaultDirPerm fs.FileMode = 0o755
	// DefaultFilePerm is the default permission used when creating files.
	DefaultFilePerm fs.FileMode = 0o644
)

// Port scanning defaults.
const (
	DefaultStartPort        uint16 = 1
	DefaultEndPort          uint16 = 1024
	DefaultPortConcurrency         = 100
	DefaultPortTimeout             = 1000 * time.Millisecond
	DefaultProgressInterval        = 100
)

// HTTP probing defaults.
const (
	DefaultHTTPTimeout = 5000 * time.Millisecond
	// MaxResponseBodyBytes caps how much of a response body a probe keeps for matching.
	MaxResponseBodyBytes = 1 << 20
	// DefaultUserAgent identifies probe traffic in target logs.
	DefaultUserAgent = "seca-recon/1.0 (authorized security testing)"
	// CollectionDelay separates endpoint runs in a collection file.
	CollectionDelay = 1000 * time.Millisecond
)
