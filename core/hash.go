package core

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"hash"
	"strings"

	"github.com/packwiz/mrpack-utils/core/murmur2"
)

// DefaultHashFormat is the hash used for override contents unless configured otherwise
const DefaultHashFormat = "sha512"

// ErrUnknownHashFormat is returned for hash names GetHashImpl doesn't implement
var ErrUnknownHashFormat = errors.New("hash implementation not found")

// GetHashImpl gets an implementation of hash.Hash for the given hash type string
func GetHashImpl(hashType string) (hash.Hash, error) {
	switch strings.ToLower(hashType) {
	case "sha1":
		return sha1.New(), nil
	case "sha256":
		return sha256.New(), nil
	case "sha512":
		return sha512.New(), nil
	case "md5":
		return md5.New(), nil
	case "murmur2":
		return murmur2.New(), nil
	}
	return nil, ErrUnknownHashFormat
}

// HashBytes returns the hex digest of data using the given hash type
func HashBytes(hashType string, data []byte) (string, error) {
	h, err := GetHashImpl(hashType)
	if err != nil {
		return "", err
	}
	// hash.Hash writes never fail
	_, _ = h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}
