// Package checksum holds the pure hashing and request-signing helpers shared by
// the speech providers.
//
// Nothing in this package performs I/O. Every function is deterministic for a
// given input, which keeps the upload handshakes reproducible in tests.
package checksum

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/crc32"
)

// CRC32Hex returns the IEEE CRC-32 of data as eight lower-case hex digits.
func CRC32Hex(data []byte) string {
	return fmt.Sprintf("%08x", crc32.ChecksumIEEE(data))
}

// HMACSHA256 signs msg with key.
func HMACSHA256(key []byte, msg string) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(msg))
	return h.Sum(nil)
}

// HMACSHA256Hex is HMACSHA256 encoded as lower-case hex.
func HMACSHA256Hex(key []byte, msg string) string {
	return hex.EncodeToString(HMACSHA256(key, msg))
}

// SHA256Hex returns the hex digest of data.
func SHA256Hex(data string) string {
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

// MD5Hex returns the hex digest of data.
func MD5Hex(data string) string {
	sum := md5.Sum([]byte(data))
	return hex.EncodeToString(sum[:])
}
