// SPDX-FileCopyrightText: 2025 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package pucch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSrConfigIndex(t *testing.T) {
	cases := []struct {
		period, sf, want uint32
	}{
		{5, 0, 0},
		{5, 4, 4},
		{10, 0, 5},
		{10, 9, 14},
		{20, 3, 18},
		{40, 1, 36},
		{80, 79, 154},
	}
	for _, c := range cases {
		got, err := SrConfigIndex(c.period, c.sf)
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "period %d sf %d", c.period, c.sf)
	}

	_, err := SrConfigIndex(7, 0)
	require.ErrorIs(t, err, ErrInvalidPeriod)
	_, err = SrConfigIndex(10, 10)
	require.Error(t, err)
}

func TestCqiConfigIndex(t *testing.T) {
	got, err := CqiConfigIndex(40, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 37, got)

	got, err = CqiConfigIndex(32, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 323, got)

	_, err = CqiConfigIndex(3, 0)
	require.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestPoolExhaustionAndReuse(t *testing.T) {
	p, err := NewSrPool([]uint32{10}, 1, []uint32{1}, 4, 0)
	require.NoError(t, err)

	held := make([]Entry, 0, 4)
	for range 4 {
		e, err := p.Allocate(10)
		require.NoError(t, err)
		held = append(held, e)
	}
	assert.Equal(t, 4, p.Used())

	_, err = p.Allocate(10)
	require.ErrorIs(t, err, ErrExhausted)

	require.NoError(t, p.Release(held[2]))
	e, err := p.Allocate(10)
	require.NoError(t, err)
	assert.Equal(t, held[2].Slot, e.Slot)
	assert.Equal(t, held[2].SubIndex, e.SubIndex)
}

func TestPoolSpreadsAcrossSlots(t *testing.T) {
	p, err := NewSrPool([]uint32{10}, 1, []uint32{0, 1, 2, 3}, 1, 0)
	require.NoError(t, err)

	slots := map[uint32]bool{}
	var second Entry
	for i := range 4 {
		e, err := p.Allocate(10)
		require.NoError(t, err)
		assert.False(t, slots[e.Slot], "slot %d granted twice", e.Slot)
		slots[e.Slot] = true
		if i == 1 {
			second = e
		}
	}
	_, err = p.Allocate(10)
	require.ErrorIs(t, err, ErrExhausted)

	require.NoError(t, p.Release(second))
	e, err := p.Allocate(10)
	require.NoError(t, err)
	assert.Equal(t, second, e)
}

func TestPoolLeastLoaded(t *testing.T) {
	p, err := NewCqiPool([]uint32{40}, 2, []uint32{0, 1}, 3, 10)
	require.NoError(t, err)

	for range 4 {
		_, err := p.Allocate(40)
		require.NoError(t, err)
	}
	for prb := uint32(0); prb < 2; prb++ {
		for slot := uint32(0); slot < 2; slot++ {
			assert.Equal(t, 1, p.Occupancy(prb, slot))
		}
	}

	e, err := p.Allocate(40)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), e.Lane)
	assert.Equal(t, 10+e.Prb*3+1, e.SubIndex)
}

func TestPoolPeriodFiltersSubframes(t *testing.T) {
	p, err := NewSrPool([]uint32{5, 20}, 1, []uint32{3, 12}, 1, 0)
	require.NoError(t, err)

	e, err := p.Allocate(5)
	require.NoError(t, err)
	assert.EqualValues(t, 3, e.Subframe)
	assert.EqualValues(t, 3, e.ConfigIndex)

	// subframe 12 does not exist in a 5 ms period
	_, err = p.Allocate(5)
	require.ErrorIs(t, err, ErrExhausted)

	e, err = p.Allocate(20)
	require.NoError(t, err)
	assert.EqualValues(t, 12, e.Subframe)
	assert.EqualValues(t, 27, e.ConfigIndex)

	_, err = p.Allocate(40)
	require.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestPoolDoubleRelease(t *testing.T) {
	p, err := NewSrPool([]uint32{10}, 1, []uint32{0}, 2, 0)
	require.NoError(t, err)

	e, err := p.Allocate(10)
	require.NoError(t, err)
	require.NoError(t, p.Release(e))
	require.ErrorIs(t, p.Release(e), ErrNotAllocated)
	assert.Equal(t, 0, p.Used())
	assert.Equal(t, 0, p.Occupancy(0, 0))

	require.ErrorIs(t, p.Release(Entry{Prb: 9}), ErrNotAllocated)
}

func TestPoolNeverExceedsCapacity(t *testing.T) {
	p, err := NewSrPool([]uint32{10, 20}, 2, []uint32{0, 5, 11}, 2, 0)
	require.NoError(t, err)

	seen := map[[2]uint32]bool{}
	var held []Entry
	for i := 0; ; i++ {
		period := uint32(10)
		if i%2 == 1 {
			period = 20
		}
		e, err := p.Allocate(period)
		if err != nil {
			require.ErrorIs(t, err, ErrExhausted)
			break
		}
		key := [2]uint32{e.Slot, e.SubIndex}
		assert.False(t, seen[key], "duplicate resource %v", key)
		seen[key] = true
		held = append(held, e)
	}
	assert.LessOrEqual(t, p.Used(), p.Capacity())
	for _, e := range held {
		assert.LessOrEqual(t, p.Occupancy(e.Prb, e.Slot), 2)
		require.NoError(t, p.Release(e))
	}
	assert.Equal(t, 0, p.Used())
}

func TestNewPoolRejectsBadConfig(t *testing.T) {
	_, err := NewSrPool([]uint32{10}, 0, []uint32{0}, 1, 0)
	require.Error(t, err)
	_, err = NewSrPool([]uint32{10}, 1, nil, 1, 0)
	require.Error(t, err)
	_, err = NewSrPool([]uint32{10}, 1, []uint32{0}, 0, 0)
	require.Error(t, err)
	_, err = NewSrPool([]uint32{7}, 1, []uint32{0}, 1, 0)
	require.ErrorIs(t, err, ErrInvalidPeriod)
}
