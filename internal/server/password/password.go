// Package password derives and verifies salted password digests using scrypt.
//
// Digests are stored as one self-describing string,
//
//	scrypt$N$r$p$<salt_b64>$<digest_b64>
//
// so cost parameters can be raised later without breaking records that were
// hashed under the old ones.
package password

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/scrypt"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
)

const (
	scryptN         = 16384
	scryptR         = 8
	scryptP         = 1
	scryptSaltBytes = 16
	scryptKeyLen    = 32

	// Floor for stored records. A digest below this (in particular an empty
	// one, which compares equal to the empty re-derivation for any input)
	// is treated as malformed rather than re-derived.
	minSaltBytes   = 8
	minDigestBytes = 16

	algorithmTag = "scrypt"
)

// Hash derives a digest for plaintext with a fresh random salt and the
// current cost parameters, and returns the self-describing digest string.
func Hash(plaintext string) (string, error) {
	salt := common.GenerateRandByteArray(scryptSaltBytes)

	digest, err := scrypt.Key([]byte(plaintext), salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", fmt.Errorf("scrypt derivation error: %w", err)
	}

	return strings.Join([]string{
		algorithmTag,
		strconv.Itoa(scryptN),
		strconv.Itoa(scryptR),
		strconv.Itoa(scryptP),
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(digest),
	}, "$"), nil
}

// Verify re-derives the digest for plaintext using the parameters and salt
// embedded in stored and compares in constant time. It returns false, never
// an error, on malformed input: parse failure and mismatch are
// indistinguishable to the caller.
func Verify(plaintext, stored string) bool {
	n, r, p, salt, digest, err := splitHash(stored)
	if err != nil {
		return false
	}

	candidate, err := scrypt.Key([]byte(plaintext), salt, n, r, p, len(digest))
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(candidate, digest) == 1
}

// splitHash parses a stored digest string into scrypt parameters, salt and digest.
func splitHash(stored string) (n, r, p int, salt, digest []byte, err error) {
	parts := strings.Split(stored, "$")
	if len(parts) != 6 || parts[0] != algorithmTag {
		return 0, 0, 0, nil, nil, fmt.Errorf("unsupported password hash format")
	}

	if n, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, 0, nil, nil, err
	}
	if r, err = strconv.Atoi(parts[2]); err != nil {
		return 0, 0, 0, nil, nil, err
	}
	if p, err = strconv.Atoi(parts[3]); err != nil {
		return 0, 0, 0, nil, nil, err
	}
	if salt, err = base64.StdEncoding.DecodeString(parts[4]); err != nil {
		return 0, 0, 0, nil, nil, err
	}
	if digest, err = base64.StdEncoding.DecodeString(parts[5]); err != nil {
		return 0, 0, 0, nil, nil, err
	}

	if len(salt) < minSaltBytes || len(digest) < minDigestBytes {
		return 0, 0, 0, nil, nil, fmt.Errorf("degenerate salt or digest")
	}

	return n, r, p, salt, digest, nil
}
