// Package cryptox hashes and verifies account secrets with Argon2id.
//
// Hashes are PHC-encoded so the parameters travel with the stored value:
//
//	$argon2id$v=19$m=<KiB>,t=<iterations>,p=<parallelism>$<salt_b64>$<key_b64>
//
// Verification re-derives the key with the encoded parameters and compares in
// constant time.
package cryptox

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/webkech/internal/common"
	"golang.org/x/crypto/argon2"
)

var (
	ErrInvalidHash         = errors.New("invalid argon2id hash")
	ErrIncompatibleVersion = errors.New("incompatible argon2 version")
)

// Upper bounds on cost settings, applied to configured and stored values alike.
const (
	MaxMemoryKiB   = 1 << 20
	MaxIterations  = 16
	MaxParallelism = 64
	MaxKeyLength   = 1024
)

// Params are the Argon2id cost settings.
type Params struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams returns the production cost settings.
func DefaultParams() Params {
	return Params{
		MemoryKiB:   64 * 1024,
		Iterations:  1,
		Parallelism: 4,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Validate reports whether p can be handed to argon2.IDKey.
func (p Params) Validate() error {
	switch {
	case p.Iterations == 0:
		return fmt.Errorf("%w: iterations must be positive", ErrInvalidHash)
	case p.Parallelism == 0:
		return fmt.Errorf("%w: parallelism must be positive", ErrInvalidHash)
	case p.MemoryKiB < 8*uint32(p.Parallelism):
		return fmt.Errorf("%w: memory must be at least 8KiB per lane", ErrInvalidHash)
	case p.SaltLength < 8 || p.KeyLength < 16:
		return fmt.Errorf("%w: salt or key too short", ErrInvalidHash)
	}
	return p.checkLimits()
}

func (p Params) checkLimits() error {
	switch {
	case p.MemoryKiB > MaxMemoryKiB:
		return fmt.Errorf("%w: memory above %d KiB", ErrInvalidHash, MaxMemoryKiB)
	case p.Iterations > MaxIterations:
		return fmt.Errorf("%w: more than %d iterations", ErrInvalidHash, MaxIterations)
	case p.Parallelism > MaxParallelism:
		return fmt.Errorf("%w: more than %d lanes", ErrInvalidHash, MaxParallelism)
	case p.KeyLength > MaxKeyLength:
		return fmt.Errorf("%w: key longer than %d bytes", ErrInvalidHash, MaxKeyLength)
	}
	return nil
}

// HashSecret derives a key from secret with a fresh random salt and returns
// the PHC-encoded result.
func HashSecret(secret []byte, p Params) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}

	salt := common.GenerateRandByteArray(int(p.SaltLength))
	key := argon2.IDKey(secret, salt, p.Iterations, p.MemoryKiB, p.Parallelism, p.KeyLength)
	defer common.WipeByteArray(key)

	b64 := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.MemoryKiB, p.Iterations, p.Parallelism,
		b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

// VerifySecret reports whether secret matches encoded. A malformed encoded
// value yields (false, ErrInvalidHash).
func VerifySecret(encoded string, secret []byte) (bool, error) {
	p, salt, expected, err := decode(encoded)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey(secret, salt, p.Iterations, p.MemoryKiB, p.Parallelism, uint32(len(expected)))
	defer common.WipeByteArray(candidate)

	return subtle.ConstantTimeCompare(candidate, expected) == 1, nil
}

func decode(encoded string) (Params, []byte, []byte, error) {
	var p Params

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return p, nil, nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return p, nil, nil, ErrInvalidHash
	}
	if version != argon2.Version {
		return p, nil, nil, ErrIncompatibleVersion
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.MemoryKiB, &p.Iterations, &p.Parallelism); err != nil {
		return p, nil, nil, ErrInvalidHash
	}

	b64 := base64.RawStdEncoding
	salt, err := b64.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, ErrInvalidHash
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, ErrInvalidHash
	}

	p.SaltLength = uint32(len(salt))
	p.KeyLength = uint32(len(key))
	if p.Iterations == 0 || p.Parallelism == 0 || p.MemoryKiB < 8*uint32(p.Parallelism) {
		return p, nil, nil, ErrInvalidHash
	}
	// stored values are untrusted; an unbounded cost would exhaust memory or hang
	if err := p.checkLimits(); err != nil {
		return p, nil, nil, err
	}

	return p, salt, key, nil
}
