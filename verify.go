// Copyright (C) 2026 the note-otp authors. All Rights Reserved.

package otp

import (
	"crypto/subtle"
	"fmt"
	"time"
)

// VerifyHOTP reports whether candidate is the HOTP code for the given key
// and counter value, with digits as in GenerateHOTP.
func VerifyHOTP(key []byte, counter uint64, digits int, candidate string) (bool, error) {
	if err := checkDigits(digits); err != nil {
		return false, err
	}
	return Config{Key: key, Digits: digits}.VerifyHOTP(counter, candidate)
}

// VerifyTOTP reports whether candidate is the TOTP code for the given key
// at the current wallclock time, using time steps of the given period.
// Codes from adjacent time steps do not verify; use
// VerifyTOTPWithGracePeriod to allow for clock skew.
func VerifyTOTP(key []byte, period time.Duration, digits int, candidate string) (bool, error) {
	if err := checkDigits(digits); err != nil {
		return false, err
	} else if period <= 0 {
		return false, fmt.Errorf("%w: %v", ErrInvalidPeriod, period)
	}
	return Config{Key: key, Period: period, Digits: digits}.VerifyTOTP(candidate)
}

// VerifyTOTPWithGracePeriod reports whether candidate is the TOTP code for
// the given key at any time step within grace of the current wallclock
// time. The grace period must not be negative. A grace period of zero is
// equivalent to VerifyTOTP.
func VerifyTOTPWithGracePeriod(key []byte, period time.Duration, digits int, candidate string, grace time.Duration) (bool, error) {
	if err := checkDigits(digits); err != nil {
		return false, err
	} else if period <= 0 {
		return false, fmt.Errorf("%w: %v", ErrInvalidPeriod, period)
	}
	return Config{Key: key, Period: period, Digits: digits}.VerifyTOTPWithGracePeriod(candidate, grace)
}

// VerifyHOTP reports whether candidate is the code for the specified
// counter value.
//
// A candidate whose length differs from the configured digit count is
// rejected without further computation. The length of a well-formed code
// is a public property, so this check reveals nothing about the key.
// Candidates of the correct length are compared against the expected code
// in constant time.
func (c Config) VerifyHOTP(counter uint64, candidate string) (bool, error) {
	nd, err := c.digits()
	if err != nil {
		return false, err
	}
	if len(candidate) != nd {
		return false, nil
	}
	want := c.format(truncate(c.hmac(counter)), nd)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(want)) == 1, nil
}

// VerifyTOTP reports whether candidate is the code for the time step
// containing the current wallclock time.
func (c Config) VerifyTOTP(candidate string) (bool, error) {
	step, err := c.timeStep(c.now())
	if err != nil {
		return false, err
	}
	return c.VerifyHOTP(step, candidate)
}

// VerifyTOTPWithGracePeriod reports whether candidate is the code for any
// time step within grace of the current wallclock time.
//
// The current step is checked first, then the steps containing the
// instants grace before and grace after now, skipping any step already
// checked. A grace period spanning more than one time step therefore
// admits only the two boundary steps, not the steps between them, and
// verification costs at most three code computations no matter how large
// the grace period is.
func (c Config) VerifyTOTPWithGracePeriod(candidate string, grace time.Duration) (bool, error) {
	if grace < 0 {
		return false, fmt.Errorf("%w: %v", ErrInvalidGracePeriod, grace)
	}
	ms, err := c.stepSize()
	if err != nil {
		return false, err
	}
	now := c.now()
	cur := uint64(floorDiv(now.UnixMilli(), ms))
	if ok, err := c.VerifyHOTP(cur, candidate); ok || err != nil {
		return ok, err
	}
	if before := uint64(floorDiv(now.Add(-grace).UnixMilli(), ms)); before != cur {
		if ok, err := c.VerifyHOTP(before, candidate); ok || err != nil {
			return ok, err
		}
	}
	if after := uint64(floorDiv(now.Add(grace).UnixMilli(), ms)); after != cur {
		return c.VerifyHOTP(after, candidate)
	}
	return false, nil
}
