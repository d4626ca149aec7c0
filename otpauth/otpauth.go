// Copyright (C) 2026 the note-otp authors. All Rights Reserved.

// Package otpauth handles the URL format used to describe OTP parameters to
// authenticator apps, of the general form:
//
//	otpauth://TYPE/LABEL?PARAMETERS
//
// For details see
// https://github.com/google/google-authenticator/wiki/Key-Uri-Format
package otpauth

import (
	"encoding/base32"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Default values applied by ParseURL when the corresponding parameter is
// absent, and omitted by String when a field holds them.
const (
	defaultAlgorithm = "SHA1"
	defaultDigits    = 6
	defaultPeriod    = 30
)

// A URL contains the settings conveyed by an otpauth URL.
type URL struct {
	Type      string // normalized to lowercase, e.g. "totp"
	Issuer    string // optional issuer name
	Account   string // the account name, e.g. "user@example.com"
	RawSecret string // the shared secret, encoded as base32
	Algorithm string // normalized to uppercase, e.g. "SHA1" (the default)
	Digits    int    // number of code digits, default 6
	Period    int    // period in seconds, default 30
	Counter   uint64 // HOTP counter value
}

// ParseURL parses s as a URL in the otpauth scheme. The scheme marker
// ("otpauth://") may be omitted, with or without the leading slashes.
func ParseURL(s string) (*URL, error) {
	if i := strings.Index(s, "://"); i >= 0 {
		if s[:i] != "otpauth" {
			return nil, fmt.Errorf("invalid scheme %q", s[:i])
		}
		s = s[i+3:]
	} else {
		s = strings.TrimPrefix(s, "//")
	}

	var query string
	if i := strings.IndexByte(s, '?'); i >= 0 {
		s, query = s[:i], s[i+1:]
	}

	typ, label, ok := strings.Cut(s, "/")
	if !ok || typ == "" || label == "" {
		return nil, errors.New("invalid type/label")
	}

	out := &URL{
		Type:      strings.ToLower(typ),
		Algorithm: defaultAlgorithm,
		Digits:    defaultDigits,
		Period:    defaultPeriod,
	}
	if err := out.parseLabel(label); err != nil {
		return nil, err
	}
	if query != "" {
		for _, param := range strings.Split(query, "&") {
			key, value, _ := strings.Cut(param, "=")
			if err := out.setParam(key, value); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func (u *URL) parseLabel(label string) error {
	account := label
	if issuer, rest, ok := strings.Cut(label, ":"); ok {
		if rest == "" {
			return errors.New("empty account name")
		} else if issuer == "" {
			return errors.New("empty issuer")
		}
		dec, err := url.PathUnescape(issuer)
		if err != nil {
			return err
		}
		u.Issuer = dec
		account = rest
	}
	dec, err := url.PathUnescape(account)
	if err != nil {
		return err
	}
	u.Account = dec
	return nil
}

func (u *URL) setParam(key, value string) error {
	switch key {
	case "secret":
		u.RawSecret = value
		return nil

	case "issuer", "algorithm":
		dec, err := url.QueryUnescape(value)
		if err != nil {
			return fmt.Errorf("invalid value for %q: %v", key, err)
		}
		if key == "issuer" {
			u.Issuer = dec
		} else {
			u.Algorithm = strings.ToUpper(dec)
		}
		return nil

	case "digits", "period", "counter":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer value for %q: %q", key, value)
		}
		switch key {
		case "digits":
			u.Digits = int(n)
		case "period":
			u.Period = int(n)
		case "counter":
			u.Counter = n
		}
		return nil

	default:
		return fmt.Errorf("invalid parameter %q", key)
	}
}

// String encodes u in the standard otpauth URL format. Fields holding their
// default values are omitted, except that the counter is always included
// when the type is "hotp".
func (u *URL) String() string {
	var sb strings.Builder
	sb.WriteString("otpauth://")
	typ := strings.ToLower(u.Type)
	sb.WriteString(typ)
	sb.WriteByte('/')
	if u.Issuer != "" {
		sb.WriteString(escape(u.Issuer))
		sb.WriteByte(':')
	}
	sb.WriteString(escape(u.Account))

	// Parameters are encoded in lexicographic order by name.
	var params []string
	if a := strings.ToUpper(u.Algorithm); a != "" && a != defaultAlgorithm {
		params = append(params, "algorithm="+a)
	}
	if typ == "hotp" {
		params = append(params, "counter="+strconv.FormatUint(u.Counter, 10))
	}
	if u.Digits != 0 && u.Digits != defaultDigits {
		params = append(params, "digits="+strconv.Itoa(u.Digits))
	}
	if u.Issuer != "" {
		params = append(params, "issuer="+escape(u.Issuer))
	}
	if u.Period != 0 && u.Period != defaultPeriod {
		params = append(params, "period="+strconv.Itoa(u.Period))
	}
	if u.RawSecret != "" {
		params = append(params, "secret="+escape(u.RawSecret))
	}
	if len(params) != 0 {
		sb.WriteByte('?')
		sb.WriteString(strings.Join(params, "&"))
	}
	return sb.String()
}

// MarshalText encodes u into the otpauth URL format. It satisfies the
// encoding.TextMarshaler interface.
func (u *URL) MarshalText() ([]byte, error) { return []byte(u.String()), nil }

// UnmarshalText decodes data as an otpauth URL and replaces the contents of
// u with the decoded settings. It satisfies the encoding.TextUnmarshaler
// interface.
func (u *URL) UnmarshalText(data []byte) error {
	p, err := ParseURL(string(data))
	if err != nil {
		return err
	}
	*u = *p
	return nil
}

// Secret parses the RawSecret field and returns the binary key it encodes.
// Whitespace, letter case, and missing padding are tolerated.
func (u *URL) Secret() ([]byte, error) {
	clean := strings.ToUpper(strings.Join(strings.Fields(u.RawSecret), ""))
	if n := len(clean) % 8; n != 0 {
		clean += strings.Repeat("=", 8-n)
	}
	return base32.StdEncoding.DecodeString(clean)
}

// SetSecret encodes key as unpadded base32 and stores the result into the
// RawSecret field.
func (u *URL) SetSecret(key []byte) {
	u.RawSecret = base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(key)
}

// escape percent-encodes everything outside the unreserved set, using %20
// rather than "+" for spaces so that labels and query values encode the
// same way.
func escape(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if c := s[i]; isUnreserved(c) {
			sb.WriteByte(c)
		} else {
			fmt.Fprintf(&sb, "%%%02X", c)
		}
	}
	return sb.String()
}

func isUnreserved(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
		c == '-' || c == '.' || c == '_' || c == '~' || c == '@'
}
