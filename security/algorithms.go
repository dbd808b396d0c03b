// SPDX-FileCopyrightText: 2025 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package security

import (
	"errors"
	"fmt"
	"strings"
)

var ErrNoCommonAlgorithm = errors.New("no mutually supported security algorithm")

type CipheringAlgorithm uint8

const (
	NEA0 CipheringAlgorithm = iota
	NEA1
	NEA2
	NEA3
)

type IntegrityAlgorithm uint8

const (
	NIA0 IntegrityAlgorithm = iota
	NIA1
	NIA2
	NIA3
)

func (a CipheringAlgorithm) String() string {
	return fmt.Sprintf("NEA%d", uint8(a))
}

func (a IntegrityAlgorithm) String() string {
	return fmt.Sprintf("NIA%d", uint8(a))
}

// ParseCipheringAlgorithm accepts "nea0".."nea3" in any case.
func ParseCipheringAlgorithm(s string) (CipheringAlgorithm, error) {
	id, err := parseAlgorithm(s, "nea")
	return CipheringAlgorithm(id), err
}

// ParseIntegrityAlgorithm accepts "nia0".."nia3" in any case.
func ParseIntegrityAlgorithm(s string) (IntegrityAlgorithm, error) {
	id, err := parseAlgorithm(s, "nia")
	return IntegrityAlgorithm(id), err
}

func parseAlgorithm(s, prefix string) (uint8, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if len(v) != len(prefix)+1 || !strings.HasPrefix(v, prefix) {
		return 0, fmt.Errorf("unknown algorithm %q", s)
	}
	id := v[len(prefix)] - '0'
	if id > 3 {
		return 0, fmt.Errorf("unknown algorithm %q", s)
	}
	return id, nil
}

// Capabilities carries the UE security capabilities in the NGAP bit layout:
// the most significant bit of each field is 128-NEA1/128-NIA1.
// NEA0 and NIA0 are implicitly supported.
type Capabilities struct {
	Ciphering uint16
	Integrity uint16
}

func (c Capabilities) SupportsCiphering(a CipheringAlgorithm) bool {
	if a == NEA0 {
		return true
	}
	return c.Ciphering&(0x8000>>(a-1)) != 0
}

func (c Capabilities) SupportsIntegrity(a IntegrityAlgorithm) bool {
	if a == NIA0 {
		return true
	}
	return c.Integrity&(0x8000>>(a-1)) != 0
}

// Preferences is the operator ordering of algorithms, strongest first.
type Preferences struct {
	Ciphering          []CipheringAlgorithm
	Integrity          []IntegrityAlgorithm
	AllowNullCiphering bool
	AllowNullIntegrity bool
}

// SelectAlgorithms walks the preference lists in order and picks the first
// algorithm the UE supports. The null algorithms are only ever chosen when
// the preferences allow them.
func SelectAlgorithms(pref Preferences, caps Capabilities) (CipheringAlgorithm, IntegrityAlgorithm, error) {
	enc, encOk := NEA0, false
	for _, a := range pref.Ciphering {
		if a == NEA0 && !pref.AllowNullCiphering {
			continue
		}
		if caps.SupportsCiphering(a) {
			enc, encOk = a, true
			break
		}
	}
	if !encOk && pref.AllowNullCiphering {
		enc, encOk = NEA0, true
	}
	if !encOk {
		return 0, 0, fmt.Errorf("%w: ciphering (ue capabilities %#04x)", ErrNoCommonAlgorithm, caps.Ciphering)
	}

	integ, integOk := NIA0, false
	for _, a := range pref.Integrity {
		if a == NIA0 && !pref.AllowNullIntegrity {
			continue
		}
		if caps.SupportsIntegrity(a) {
			integ, integOk = a, true
			break
		}
	}
	if !integOk && pref.AllowNullIntegrity {
		integ, integOk = NIA0, true
	}
	if !integOk {
		return 0, 0, fmt.Errorf("%w: integrity (ue capabilities %#04x)", ErrNoCommonAlgorithm, caps.Integrity)
	}
	return enc, integ, nil
}
