// Copyright (C) 2026 the note-otp authors. All Rights Reserved.

package otp_test

import (
	"testing"
	"time"

	otp "github.com/mefengl/note-otp"
	pqotp "github.com/pquerna/otp"
	pqhotp "github.com/pquerna/otp/hotp"
	pqtotp "github.com/pquerna/otp/totp"
)

// Codes must be interchangeable with those of other RFC 4226 and RFC 6238
// implementations. These tests cross-check generation and verification
// against github.com/pquerna/otp over a range of counters and times.

const (
	rawKey    = "12345678901234567890"
	base32Key = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ" // rawKey in base32
)

func TestHOTPCompat(t *testing.T) {
	key, err := otp.ParseKey(base32Key)
	if err != nil {
		t.Fatalf("ParseKey failed: %v", err)
	}
	if string(key) != rawKey {
		t.Fatalf("ParseKey: got %q, want %q", string(key), rawKey)
	}

	for counter := uint64(0); counter < 50; counter++ {
		want, err := pqhotp.GenerateCodeCustom(base32Key, counter, pqhotp.ValidateOpts{
			Digits:    pqotp.DigitsSix,
			Algorithm: pqotp.AlgorithmSHA1,
		})
		if err != nil {
			t.Fatalf("Reference HOTP(%d) failed: %v", counter, err)
		}
		got, err := otp.GenerateHOTP(key, counter, 6)
		if err != nil {
			t.Fatalf("GenerateHOTP(%d) failed: %v", counter, err)
		}
		if got != want {
			t.Errorf("HOTP(%d): got %q, reference %q", counter, got, want)
		}

		ok, err := otp.VerifyHOTP(key, counter, 6, want)
		if err != nil {
			t.Fatalf("VerifyHOTP(%d) failed: %v", counter, err)
		}
		if !ok {
			t.Errorf("VerifyHOTP(%d, %q): got false, want true", counter, want)
		}
	}
}

func TestTOTPCompat(t *testing.T) {
	key, err := otp.ParseKey(base32Key)
	if err != nil {
		t.Fatalf("ParseKey failed: %v", err)
	}

	times := []int64{59, 1111111109, 1111111111, 1234567890, 2000000000, 20000000000}
	for _, unix := range times {
		at := time.Unix(unix, 0)
		want, err := pqtotp.GenerateCodeCustom(base32Key, at, pqtotp.ValidateOpts{
			Period:    30,
			Digits:    pqotp.DigitsEight,
			Algorithm: pqotp.AlgorithmSHA1,
		})
		if err != nil {
			t.Fatalf("Reference TOTP at %d failed: %v", unix, err)
		}

		cfg := otp.Config{
			Key:    key,
			Digits: 8,
			Now:    func() time.Time { return at },
		}
		got, err := cfg.TOTP()
		if err != nil {
			t.Fatalf("TOTP at %d failed: %v", unix, err)
		}
		if got != want {
			t.Errorf("TOTP at %d: got %q, reference %q", unix, got, want)
		}

		ok, err := cfg.VerifyTOTP(want)
		if err != nil {
			t.Fatalf("VerifyTOTP at %d failed: %v", unix, err)
		}
		if !ok {
			t.Errorf("VerifyTOTP at %d (%q): got false, want true", unix, want)
		}
	}
}
