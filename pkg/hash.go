package dirhash

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// HashedFile holds the SHA-1 and SHA-256 digests of one file's contents.
// It is a plain comparable value: two HashedFiles are equal exactly when both
// digests are equal, so it can be used directly as a map key.
type HashedFile struct {
	SHA1   [HashSizeSHA1]byte
	SHA256 [HashSizeSHA256]byte
}

// ComputeHashedFile streams the file once through both digests
func ComputeHashedFile(filePath string) (HashedFile, error) {
	return ComputeHashedFileWithBuffer(filePath, DefaultHashBuffer)
}

// ComputeHashedFileWithBuffer is ComputeHashedFile with an explicit read buffer size
func ComputeHashedFileWithBuffer(filePath string, bufferSize int) (HashedFile, error) {
	if bufferSize <= 0 {
		bufferSize = DefaultHashBuffer
	}

	file, err := os.Open(filePath)
	if err != nil {
		return HashedFile{}, ioError("open", filePath, err)
	}
	defer file.Close()

	return hashReader(file, filePath, bufferSize)
}

func hashReader(r io.Reader, name string, bufferSize int) (HashedFile, error) {
	sha1Hasher := sha1.New()
	sha256Hasher := sha256.New()
	buffer := make([]byte, bufferSize)

	if _, err := io.CopyBuffer(io.MultiWriter(sha1Hasher, sha256Hasher), r, buffer); err != nil {
		return HashedFile{}, ioError("read", name, err)
	}

	var hf HashedFile
	copy(hf.SHA1[:], sha1Hasher.Sum(nil))
	copy(hf.SHA256[:], sha256Hasher.Sum(nil))
	return hf, nil
}

// Digest returns the digest bytes for the given hash type, or nil if unknown
func (hf HashedFile) Digest(hashType uint16) []byte {
	switch hashType {
	case HashTypeSHA1:
		return hf.SHA1[:]
	case HashTypeSHA256:
		return hf.SHA256[:]
	default:
		return nil
	}
}

// digestSlot returns the writable digest array for the given hash type
func (hf *HashedFile) digestSlot(hashType uint16) []byte {
	switch hashType {
	case HashTypeSHA1:
		return hf.SHA1[:]
	case HashTypeSHA256:
		return hf.SHA256[:]
	default:
		return nil
	}
}

// SHA1Hex returns the lowercase hex SHA-1 digest
func (hf HashedFile) SHA1Hex() string {
	return hex.EncodeToString(hf.SHA1[:])
}

// SHA256Hex returns the lowercase hex SHA-256 digest
func (hf HashedFile) SHA256Hex() string {
	return hex.EncodeToString(hf.SHA256[:])
}

// String returns both digests, mainly for reports
func (hf HashedFile) String() string {
	return hf.SHA1Hex() + ":" + hf.SHA256Hex()
}

// decodeDigest parses lowercase or uppercase hex into dst, which must be filled exactly
func decodeDigest(dst []byte, text string) error {
	if len(text)%2 != 0 {
		return fmt.Errorf("odd-length hex digest %q", text)
	}
	if len(text) != hex.EncodedLen(len(dst)) {
		return fmt.Errorf("hex digest %q has %d characters, expected %d", text, len(text), hex.EncodedLen(len(dst)))
	}
	if _, err := hex.Decode(dst, []byte(text)); err != nil {
		return fmt.Errorf("invalid hex digest %q: %w", text, err)
	}
	return nil
}

// ParseHashedFile builds a HashedFile from the two hex digests
func ParseHashedFile(sha1Hex, sha256Hex string) (HashedFile, error) {
	var hf HashedFile
	if err := decodeDigest(hf.SHA1[:], sha1Hex); err != nil {
		return HashedFile{}, fmt.Errorf("sha1: %w", err)
	}
	if err := decodeDigest(hf.SHA256[:], sha256Hex); err != nil {
		return HashedFile{}, fmt.Errorf("sha256: %w", err)
	}
	return hf, nil
}
