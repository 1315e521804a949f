package dirhash

import "strings"

// File constants
const (
	StoreFileName         = "Hashes.xml"
	ConfigurationFileName = "Hashes.config"
	LockSuffix            = ".lock"
	tempFilePattern       = ".Hashes-*.tmp"
)

// Hash type constants
const (
	HashTypeSHA1   uint16 = 1 // SHA-1 (20 bytes)
	HashTypeSHA256 uint16 = 2 // SHA-256 (32 bytes)
)

// Hash size constants
const (
	HashSizeSHA1   = 20 // SHA-1 hash size in bytes
	HashSizeSHA256 = 32 // SHA-256 hash size in bytes
)

// DefaultHashBuffer is the read buffer used while streaming a file through both digests
const DefaultHashBuffer = 64 * 1024

// Debug flag categories
const (
	DebugRefresh   = "refresh"
	DebugEnumerate = "enumerate"
	DebugPurge     = "purge"
	DebugStore     = "store"
)

// HashTypeName returns the identifier used for a hash type in the store document
func HashTypeName(hashType uint16) string {
	switch hashType {
	case HashTypeSHA1:
		return "sha1"
	case HashTypeSHA256:
		return "sha256"
	default:
		return "unknown"
	}
}

// HashTypeFromName returns the hash type constant from a name (case-insensitive)
func HashTypeFromName(name string) (uint16, bool) {
	switch strings.ToLower(name) {
	case "sha1":
		return HashTypeSHA1, true
	case "sha256":
		return HashTypeSHA256, true
	default:
		return 0, false
	}
}
