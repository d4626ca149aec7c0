// Copyright (C) 2026 the note-otp authors. All Rights Reserved.

// Package migration parses the export format used by Google Authenticator
// to transfer account settings between devices, conveyed in URLs of the
// form:
//
//	otpauth-migration://offline?data=BASE64
//
// The data parameter is a base64-encoded protobuf message containing one
// entry per account. This package decodes the wire format directly; it does
// not depend on generated protobuf types.
package migration

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/mefengl/note-otp/otpauth"
)

// Field numbers of the payload message. Field 1 holds the account entries;
// the remaining fields carry batching metadata that parsing skips.
const fieldParameters = 1

// Field numbers of each account entry.
const (
	fieldSecret    = 1
	fieldName      = 2
	fieldIssuer    = 3
	fieldAlgorithm = 4
	fieldDigits    = 5
	fieldType      = 6
	fieldCounter   = 7
)

// ParseURL parses a migration URL and returns the OTP settings it carries,
// one URL per exported account.
func ParseURL(s string) ([]*otpauth.URL, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "otpauth-migration" {
		return nil, fmt.Errorf("invalid scheme %q", u.Scheme)
	}
	if u.Host != "offline" {
		return nil, fmt.Errorf("invalid host %q", u.Host)
	}
	data := u.Query().Get("data")
	if data == "" {
		return nil, errors.New("missing data parameter")
	}
	payload, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("invalid data parameter: %v", err)
	}
	return Unmarshal(payload)
}

// Unmarshal decodes a binary migration payload and returns the OTP settings
// it carries, one URL per exported account.
func Unmarshal(payload []byte) ([]*otpauth.URL, error) {
	var urls []*otpauth.URL
	for len(payload) > 0 {
		num, typ, n := protowire.ConsumeTag(payload)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		payload = payload[n:]

		if num == fieldParameters && typ == protowire.BytesType {
			msg, n := protowire.ConsumeBytes(payload)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			payload = payload[n:]
			u, err := parseEntry(msg)
			if err != nil {
				return nil, err
			}
			urls = append(urls, u)
			continue
		}

		// Version and batch metadata.
		n = protowire.ConsumeFieldValue(num, typ, payload)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		payload = payload[n:]
	}
	return urls, nil
}

func parseEntry(msg []byte) (*otpauth.URL, error) {
	out := &otpauth.URL{
		Type:      "totp",
		Algorithm: "SHA1",
		Digits:    6,
		Period:    30,
	}
	for len(msg) > 0 {
		num, typ, n := protowire.ConsumeTag(msg)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		msg = msg[n:]

		switch typ {
		case protowire.BytesType:
			val, n := protowire.ConsumeBytes(msg)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			msg = msg[n:]
			switch num {
			case fieldSecret:
				out.SetSecret(val)
			case fieldName:
				out.Account = string(val)
			case fieldIssuer:
				out.Issuer = string(val)
			}

		case protowire.VarintType:
			val, n := protowire.ConsumeVarint(msg)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			msg = msg[n:]
			if err := setEnum(out, num, val); err != nil {
				return nil, err
			}

		default:
			n := protowire.ConsumeFieldValue(num, typ, msg)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			msg = msg[n:]
		}
	}

	// Some exports pack "issuer:account" into the name field instead of
	// filling the issuer field.
	if out.Issuer == "" {
		if issuer, account, ok := strings.Cut(out.Account, ":"); ok {
			out.Issuer, out.Account = issuer, account
		}
	}
	return out, nil
}

// setEnum applies a varint field to out. Zero values mean "unspecified" and
// leave the defaults in place.
func setEnum(out *otpauth.URL, num protowire.Number, val uint64) error {
	switch num {
	case fieldAlgorithm:
		switch val {
		case 0, 1: // unspecified, SHA1
		case 2:
			out.Algorithm = "SHA256"
		case 3:
			out.Algorithm = "SHA512"
		case 4:
			out.Algorithm = "MD5"
		default:
			return fmt.Errorf("unknown algorithm %d", val)
		}
	case fieldDigits:
		switch val {
		case 0, 1: // unspecified, six
		case 2:
			out.Digits = 8
		default:
			return fmt.Errorf("unknown digit count %d", val)
		}
	case fieldType:
		switch val {
		case 0, 2: // unspecified, TOTP
		case 1:
			out.Type = "hotp"
		default:
			return fmt.Errorf("unknown OTP type %d", val)
		}
	case fieldCounter:
		out.Counter = val
	}
	return nil
}
