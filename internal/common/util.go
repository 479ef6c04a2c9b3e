package common

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"unicode/utf8"
)

// MakeRandHexString generates size random bytes and returns them hex-encoded,
// so the result is twice as long as size.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateRandByteArray returns size bytes from crypto/rand.
func GenerateRandByteArray(size int) []byte {
	b := make([]byte, size)
	// crypto/rand.Read never returns an error on supported platforms
	_, _ = rand.Read(b)
	return b
}

// WipeByteArray overwrites b with zeros. A nil slice is ignored.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ValidateName reports whether name can be used for a file or directory.
func ValidateName(name string) error {
	if name == "" || len(name) > MaxNameLength || !utf8.ValidString(name) {
		return ErrorInvalidName
	}
	if strings.ContainsAny(name, "/\x00") || name == "." || name == ".." {
		return ErrorInvalidName
	}
	return nil
}

// StringPtr returns nil for an empty string and a pointer to s otherwise.
// Optional parent ids travel as empty strings on the wire.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringValue dereferences p, returning "" for nil.
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
