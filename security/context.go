// SPDX-FileCopyrightText: 2025 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

// Package security holds the per-UE access stratum key hierarchy.
package security

import (
	"errors"
	"fmt"

	"github.com/omec-project/gnbrrc/logger"
)

const KeyLen = 32

var (
	ErrNoRootKey     = errors.New("no KgNB provided")
	ErrNotNegotiated = errors.New("security algorithms not negotiated")
	ErrNotActive     = errors.New("integrity protection not active")
)

// KeySet is the key hierarchy owned by one UE: KgNB and the four AS keys
// derived from it.
type KeySet struct {
	Root   [KeyLen]byte
	RrcEnc [KeyLen]byte
	RrcInt [KeyLen]byte
	UpEnc  [KeyLen]byte
	UpInt  [KeyLen]byte
}

// AsConfig is what a PDCP entity needs to protect one bearer.
type AsConfig struct {
	KeyEnc    [KeyLen]byte
	KeyInt    [KeyLen]byte
	Ciphering CipheringAlgorithm
	Integrity IntegrityAlgorithm
}

// Activator is implemented by the PDCP layer.
type Activator interface {
	ConfigSecurity(rnti uint16, lcid uint32, cfg AsConfig)
	EnableIntegrity(rnti uint16, lcid uint32)
	EnableEncryption(rnti uint16, lcid uint32)
}

type activation struct {
	generation uint32
	ciphering  CipheringAlgorithm
	integrity  IntegrityAlgorithm
	ciphered   bool
}

func (a activation) sameKeys(b activation) bool {
	return a.generation == b.generation && a.ciphering == b.ciphering && a.integrity == b.integrity
}

type Context struct {
	keys       KeySet
	rootSet    bool
	negotiated bool
	derived    bool
	generation uint32

	Capabilities Capabilities
	Ciphering    CipheringAlgorithm
	Integrity    IntegrityAlgorithm

	signaling map[uint32]activation
	userPlane map[uint32]activation
}

func NewContext() *Context {
	return &Context{
		signaling: make(map[uint32]activation),
		userPlane: make(map[uint32]activation),
	}
}

// SetRootKey installs a new KgNB. Derived keys are stale until DeriveKeys.
func (c *Context) SetRootKey(key []byte) error {
	if len(key) != KeyLen {
		return fmt.Errorf("KgNB must be %d bytes, got %d", KeyLen, len(key))
	}
	copy(c.keys.Root[:], key)
	c.rootSet = true
	c.derived = false
	return nil
}

func (c *Context) HasRootKey() bool { return c.rootSet }

func (c *Context) SetCapabilities(caps Capabilities) {
	c.Capabilities = caps
}

// Negotiate selects the algorithms against the stored UE capabilities.
func (c *Context) Negotiate(pref Preferences) error {
	enc, integ, err := SelectAlgorithms(pref, c.Capabilities)
	if err != nil {
		c.negotiated = false
		return err
	}
	if c.negotiated && (enc != c.Ciphering || integ != c.Integrity) {
		c.derived = false
	}
	c.Ciphering, c.Integrity = enc, integ
	c.negotiated = true
	logger.SecLog.Debugf("selected %s/%s", enc, integ)
	return nil
}

// DeriveKeys computes the four AS keys from KgNB and the negotiated
// algorithms, TS 33.501 A.8.
func (c *Context) DeriveKeys() error {
	if !c.rootSet {
		return ErrNoRootKey
	}
	if !c.negotiated {
		return ErrNotNegotiated
	}
	root := c.keys.Root[:]
	for _, k := range []struct {
		dst           *[KeyLen]byte
		distinguisher byte
		alg           byte
	}{
		{&c.keys.RrcEnc, NrRrcEncAlg, byte(c.Ciphering)},
		{&c.keys.RrcInt, NrRrcIntAlg, byte(c.Integrity)},
		{&c.keys.UpEnc, NrUpEncAlg, byte(c.Ciphering)},
		{&c.keys.UpInt, NrUpIntAlg, byte(c.Integrity)},
	} {
		key, err := algorithmKey(root, k.distinguisher, k.alg)
		if err != nil {
			c.derived = false
			return err
		}
		copy(k.dst[:], key)
		clear(key)
	}
	c.derived = true
	c.generation++
	return nil
}

func (c *Context) Derived() bool { return c.derived }

// SignalingActive reports whether any signalling bearer has been secured.
func (c *Context) SignalingActive() bool { return len(c.signaling) > 0 }

func (c *Context) current() activation {
	return activation{generation: c.generation, ciphering: c.Ciphering, integrity: c.Integrity}
}

// ActivateSignaling installs the RRC keys on a signalling bearer and
// enables integrity protection only. Ciphering follows with
// StartSignalingCiphering once the UE has the keys, e.g. after the
// SecurityModeComplete. It returns false without touching PDCP when the
// bearer already uses the current keys and algorithms.
func (c *Context) ActivateSignaling(act Activator, rnti uint16, lcid uint32) (bool, error) {
	if !c.derived {
		return false, fmt.Errorf("activate SRB%d security: %w", lcid, ErrNotNegotiated)
	}
	if prev, ok := c.signaling[lcid]; ok && prev.sameKeys(c.current()) {
		return false, nil
	}
	act.ConfigSecurity(rnti, lcid, AsConfig{
		KeyEnc:    c.keys.RrcEnc,
		KeyInt:    c.keys.RrcInt,
		Ciphering: c.Ciphering,
		Integrity: c.Integrity,
	})
	act.EnableIntegrity(rnti, lcid)
	c.signaling[lcid] = c.current()
	logger.SecLog.Infof("RNTI 0x%x LCID %d integrity active (%s)", rnti, lcid, c.Integrity)
	return true, nil
}

// StartSignalingCiphering enables ciphering on a signalling bearer whose
// integrity protection is active with the current keys.
func (c *Context) StartSignalingCiphering(act Activator, rnti uint16, lcid uint32) (bool, error) {
	prev, ok := c.signaling[lcid]
	if !c.derived || !ok || !prev.sameKeys(c.current()) {
		return false, fmt.Errorf("cipher SRB%d: %w", lcid, ErrNotActive)
	}
	if prev.ciphered {
		return false, nil
	}
	act.EnableEncryption(rnti, lcid)
	prev.ciphered = true
	c.signaling[lcid] = prev
	logger.SecLog.Infof("RNTI 0x%x LCID %d ciphering active (%s)", rnti, lcid, c.Ciphering)
	return true, nil
}

// SignalingCiphered reports whether a signalling bearer is ciphered.
func (c *Context) SignalingCiphered(lcid uint32) bool {
	return c.signaling[lcid].ciphered
}

// ActivateUserPlane enables ciphering on a data bearer, with the same
// idempotence rule as ActivateSignaling.
func (c *Context) ActivateUserPlane(act Activator, rnti uint16, lcid uint32) (bool, error) {
	if !c.derived {
		return false, fmt.Errorf("activate DRB LCID %d security: %w", lcid, ErrNotNegotiated)
	}
	if prev, ok := c.userPlane[lcid]; ok && prev.sameKeys(c.current()) {
		return false, nil
	}
	act.ConfigSecurity(rnti, lcid, AsConfig{
		KeyEnc:    c.keys.UpEnc,
		KeyInt:    c.keys.UpInt,
		Ciphering: c.Ciphering,
		Integrity: c.Integrity,
	})
	act.EnableEncryption(rnti, lcid)
	c.userPlane[lcid] = c.current()
	logger.SecLog.Infof("RNTI 0x%x LCID %d user plane security active (%s)", rnti, lcid, c.Ciphering)
	return true, nil
}

// Forget drops the activation record of a bearer that was removed.
func (c *Context) Forget(lcid uint32) {
	delete(c.signaling, lcid)
	delete(c.userPlane, lcid)
}

// ResetActivations makes the next Activate calls reach PDCP again, as needed
// after a PDCP re-establishment.
func (c *Context) ResetActivations() {
	clear(c.signaling)
	clear(c.userPlane)
}

// Erase overwrites every key in place.
func (c *Context) Erase() {
	for _, k := range []*[KeyLen]byte{&c.keys.Root, &c.keys.RrcEnc, &c.keys.RrcInt, &c.keys.UpEnc, &c.keys.UpInt} {
		for i := range k {
			k[i] = 0
		}
	}
	c.rootSet = false
	c.derived = false
	c.ResetActivations()
}

// Keys exposes the key storage itself, not a copy.
func (c *Context) Keys() *KeySet { return &c.keys }
