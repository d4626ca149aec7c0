// Copyright (C) 2026 the note-otp authors. All Rights Reserved.

// Package otp generates and verifies single use authenticator codes using
// the HOTP or TOTP algorithms specified in RFC 4226 and RFC 6238
// respectively.
//
// See https://tools.ietf.org/html/rfc4226, https://tools.ietf.org/html/rfc6238
package otp

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"strconv"
	"strings"
	"time"
)

// Bounds on the number of digits in a generated code. Fewer than six digits
// do not retain enough of the truncated counter hash to be useful, and the
// truncation never produces more than ten decimal digits.
const (
	MinDigits = 6
	MaxDigits = 8
)

// Defaults used by a Config whose corresponding field is zero.
const (
	DefaultDigits = 6
	DefaultPeriod = 30 * time.Second
)

// Errors reported for invalid arguments. Arguments are checked before any
// value is derived from the key, so a rejected call does no cryptographic
// work at all.
var (
	// ErrInvalidDigitCount is reported when a requested digit count is
	// outside the range MinDigits to MaxDigits.
	ErrInvalidDigitCount = errors.New("invalid digit count")

	// ErrInvalidPeriod is reported when a TOTP time step is not positive.
	ErrInvalidPeriod = errors.New("invalid time step period")

	// ErrInvalidGracePeriod is reported when a grace period is negative.
	ErrInvalidGracePeriod = errors.New("invalid grace period")
)

// GenerateHOTP returns the HOTP code for the given key and counter value as
// a string of exactly digits decimal digits, where digits must be between
// MinDigits and MaxDigits inclusive.
func GenerateHOTP(key []byte, counter uint64, digits int) (string, error) {
	if err := checkDigits(digits); err != nil {
		return "", err
	}
	return Config{Key: key, Digits: digits}.HOTP(counter)
}

// GenerateTOTP returns the TOTP code for the given key at the current
// wallclock time, using time steps of the given period. The period must be
// positive.
func GenerateTOTP(key []byte, period time.Duration, digits int) (string, error) {
	if err := checkDigits(digits); err != nil {
		return "", err
	} else if period <= 0 {
		return "", fmt.Errorf("%w: %v", ErrInvalidPeriod, period)
	}
	return Config{Key: key, Period: period, Digits: digits}.TOTP()
}

// Config holds the settings that control generation and verification of
// authenticator codes. The only required field is Key, all other fields
// have sensible defaults.
type Config struct {
	Key []byte // shared secret between server and user (required)

	Hash    func() hash.Hash // hash constructor (default is sha1.New)
	Now     func() time.Time // time source for TOTP (default is time.Now)
	Period  time.Duration    // TOTP time step (default is DefaultPeriod)
	Digits  int              // number of code digits (default is DefaultDigits)
	Counter uint64           // HOTP counter, advanced by Next

	// If set, Format is called with the truncated counter hash and the
	// number of digits to render, and its result is used as the code.
	// If nil, the decimal formatting rule from RFC 4226 is used.
	//
	// A Format function must return a string of exactly the requested
	// length, otherwise code generation panics.
	Format func(hash uint64, nd int) string
}

// ParseKey parses a key encoded as base32, which is the typical format used
// by two-factor authentication setup tools. Whitespace is ignored, letter
// case is normalized, and missing padding is supplied.
func ParseKey(s string) ([]byte, error) {
	clean := strings.ToUpper(strings.Join(strings.Fields(s), ""))
	if n := len(clean) % 8; n != 0 {
		clean += strings.Repeat("=", 8-n)
	}
	return base32.StdEncoding.DecodeString(clean)
}

// ParseKey parses a key encoded as base32 and on success stores the decoded
// key into c.Key. See the package-level ParseKey for the accepted format.
func (c *Config) ParseKey(s string) error {
	key, err := ParseKey(s)
	if err != nil {
		return err
	}
	c.Key = key
	return nil
}

// HOTP returns the HOTP code for the specified counter value. Identical
// settings and counter always yield the same code.
func (c Config) HOTP(counter uint64) (string, error) {
	nd, err := c.digits()
	if err != nil {
		return "", err
	}
	return c.format(truncate(c.hmac(counter)), nd), nil
}

// TOTP returns the TOTP code for the time step containing the current
// wallclock time.
func (c Config) TOTP() (string, error) {
	step, err := c.timeStep(c.now())
	if err != nil {
		return "", err
	}
	return c.HOTP(step)
}

// Next advances the counter and returns the HOTP code for its new value.
// This is the counter discipline used by Google Authenticator, which
// reserves counter 0 as an integrity check.
func (c *Config) Next() (string, error) {
	c.Counter++
	return c.HOTP(c.Counter)
}

func (c Config) newHash() func() hash.Hash {
	if c.Hash != nil {
		return c.Hash
	}
	return sha1.New
}

func (c Config) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c Config) digits() (int, error) {
	nd := c.Digits
	if nd == 0 {
		nd = DefaultDigits
	}
	if err := checkDigits(nd); err != nil {
		return 0, err
	}
	return nd, nil
}

func checkDigits(nd int) error {
	if nd < MinDigits || nd > MaxDigits {
		return fmt.Errorf("%w: %d", ErrInvalidDigitCount, nd)
	}
	return nil
}

// stepSize returns the TOTP time step in milliseconds.
func (c Config) stepSize() (int64, error) {
	p := c.Period
	if p == 0 {
		p = DefaultPeriod
	}
	ms := p.Milliseconds()
	if ms <= 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPeriod, p)
	}
	return ms, nil
}

// timeStep maps a wallclock time to the index of the time step containing
// it. The quotient is computed in integer arithmetic, so large timestamps
// do not lose precision the way a floating-point division would.
func (c Config) timeStep(now time.Time) (uint64, error) {
	ms, err := c.stepSize()
	if err != nil {
		return 0, err
	}
	return uint64(floorDiv(now.UnixMilli(), ms)), nil
}

// floorDiv returns the quotient of a and b rounded toward negative
// infinity. b must be positive.
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}

func (c Config) hmac(counter uint64) []byte {
	var ctr [8]byte
	binary.BigEndian.PutUint64(ctr[:], counter)
	h := hmac.New(c.newHash(), c.Key)
	h.Write(ctr[:])
	return h.Sum(nil)
}

// truncate extracts an integer from digest using the dynamic truncation
// rule of RFC 4226: the low nibble of the final digest byte selects a
// four-byte window, which is read as big-endian with its top bit cleared.
// The result is always in the range 0..2³¹-1.
func truncate(digest []byte) uint64 {
	offset := digest[len(digest)-1] & 0x0f
	code := (uint64(digest[offset]&0x7f) << 24) |
		(uint64(digest[offset+1]) << 16) |
		(uint64(digest[offset+2]) << 8) |
		(uint64(digest[offset+3]) << 0)
	return code
}

func (c Config) format(hash uint64, nd int) string {
	if c.Format != nil {
		s := c.Format(hash, nd)
		if len(s) != nd {
			panic(fmt.Sprintf("format: result has length %d, want %d", len(s), nd))
		}
		return s
	}
	return formatDecimal(hash, nd)
}

const padding = "0000000000000000"

// formatDecimal renders the width low-order decimal digits of code,
// left-padded with zeros. This is equivalent to reducing code modulo
// 10^width before formatting.
func formatDecimal(code uint64, width int) string {
	s := strconv.FormatUint(code, 10)
	if len(s) < width {
		s = padding[:width-len(s)] + s // left-pad with zeros
	}
	return s[len(s)-width:]
}

// FormatAlphabet returns a formatting function that renders a code in the
// digits of the given alphabet, suitable for use as the Format field of a
// Config. FormatAlphabet panics if alphabet is empty.
func FormatAlphabet(alphabet string) func(uint64, int) string {
	if alphabet == "" {
		panic("empty formatting alphabet")
	}
	return func(hash uint64, nd int) string {
		w := uint64(len(alphabet))
		buf := make([]byte, nd)
		for i := nd - 1; i >= 0; i-- {
			buf[i] = alphabet[hash%w]
			hash /= w
		}
		return string(buf)
	}
}
