// SPDX-FileCopyrightText: 2025 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package context

import (
	"sync"
	"time"

	"github.com/omec-project/gnbrrc/logger"
)

// SibSource produces the encoded system information blocks, one per
// scheduling position.
type SibSource func() ([][]byte, error)

// SibCache holds the broadcast payloads read by the MAC for every BCCH
// transmission.
type SibCache struct {
	mu         sync.RWMutex
	payloads   [][]byte
	source     SibSource
	generation uint64
	updated    time.Time
}

func NewSibCache(source SibSource) *SibCache {
	return &SibCache{source: source}
}

// StaticSibs serves the configured payloads.
func StaticSibs(payloads [][]byte) SibSource {
	return func() ([][]byte, error) {
		out := make([][]byte, len(payloads))
		for i, p := range payloads {
			out[i] = append([]byte(nil), p...)
		}
		return out, nil
	}
}

// Generate rebuilds every SIB. The previous payloads stay in place when the
// source fails.
func (c *SibCache) Generate(now time.Time) error {
	if c.source == nil {
		return nil
	}
	payloads, err := c.source()
	if err != nil {
		logger.RrcLog.Errorf("generate SIBs failed: %+v", err)
		return err
	}
	c.mu.Lock()
	c.payloads = payloads
	c.generation++
	c.updated = now
	c.mu.Unlock()
	logger.RrcLog.Debugf("generated %d SIBs (generation %d)", len(payloads), c.generation)
	return nil
}

// Read returns the payload at position idx.
func (c *SibCache) Read(idx uint32) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if int(idx) >= len(c.payloads) || len(c.payloads[idx]) == 0 {
		return nil, false
	}
	return c.payloads[idx], true
}

func (c *SibCache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

func (c *SibCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.payloads)
}
