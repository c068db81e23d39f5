// Package identity derives the short ids that link listing cards to article pages.
package identity

import (
	"crypto/sha1" //nolint:gosec // non-cryptographic id generation
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/google/uuid"
	"github.com/samvad-hq/pulse-news/internal/domain"
)

// Prefix starts every article id.
const Prefix = "art_"

const (
	SchemeRolling = "rolling"
	SchemeSHA1    = "sha1"
)

// Hasher turns a basis string into an article id.
type Hasher func(basis string) string

// Identifier computes article ids with a fixed hashing scheme.
type Identifier struct {
	hash     Hasher
	fallback func() string
}

// New returns an Identifier for the named scheme.
func New(scheme string) (*Identifier, error) {
	switch strings.ToLower(strings.TrimSpace(scheme)) {
	case "", SchemeRolling:
		return &Identifier{hash: RollingID, fallback: randomBasis}, nil
	case SchemeSHA1:
		return &Identifier{hash: DigestID, fallback: randomBasis}, nil
	default:
		return nil, fmt.Errorf("unsupported id scheme %q", scheme)
	}
}

// Default is the rolling-hash identifier used by the listing and detail pages.
var Default = &Identifier{hash: RollingID, fallback: randomBasis}

// ComputeID returns the id of a using the default scheme.
func ComputeID(a domain.Article) string {
	return Default.ID(a)
}

// ID returns the id for a. Articles without any identity field get a random id.
func (i *Identifier) ID(a domain.Article) string {
	basis := Basis(a)
	if basis == "" {
		basis = i.fallback()
	}
	return i.hash(basis)
}

// Basis selects the hash input: the canonical URL when present, otherwise
// title and published timestamp concatenated. It is empty when all three are.
func Basis(a domain.Article) string {
	if a.URL != "" {
		return a.URL
	}
	return a.Title + a.PublishedAt
}

// RollingID hashes basis with h = h*31 + c over its UTF-16 code units, wrapping
// at 32 bits, and formats the absolute signed value.
func RollingID(basis string) string {
	var h uint32
	for _, unit := range utf16.Encode([]rune(basis)) {
		h = h*31 + uint32(unit)
	}
	v := int64(int32(h))
	if v < 0 {
		v = -v
	}
	return Prefix + strconv.FormatInt(v, 10)
}

// DigestID uses the first 64 bits of SHA-1 over basis, hex encoded.
func DigestID(basis string) string {
	sum := sha1.Sum([]byte(basis)) //nolint:gosec // non-cryptographic id generation
	return Prefix + hex.EncodeToString(sum[:8])
}

func randomBasis() string {
	return uuid.NewString()
}
