// SPDX-FileCopyrightText: 2025 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package pucch

import "fmt"

// SrConfigIndex maps an SR periodicity and subframe offset onto I_SR,
// TS 36.213 Table 10.1.5-1.
func SrConfigIndex(period, subframe uint32) (uint32, error) {
	switch period {
	case 5, 10, 20, 40, 80:
	default:
		return 0, fmt.Errorf("%w: SR period %d", ErrInvalidPeriod, period)
	}
	if subframe >= period {
		return 0, fmt.Errorf("SR subframe offset %d out of range for period %d", subframe, period)
	}
	return period - 5 + subframe, nil
}

// cqiPmiBase is the first I_CQI/PMI of every FDD periodicity, TS 36.213 Table 7.2.2-1A.
var cqiPmiBase = map[uint32]uint32{
	2:   0,
	5:   2,
	10:  7,
	20:  17,
	40:  37,
	80:  77,
	160: 157,
	32:  318,
	64:  350,
	128: 414,
}

func CqiConfigIndex(period, subframe uint32) (uint32, error) {
	base, ok := cqiPmiBase[period]
	if !ok {
		return 0, fmt.Errorf("%w: CQI period %d", ErrInvalidPeriod, period)
	}
	if subframe >= period {
		return 0, fmt.Errorf("CQI subframe offset %d out of range for period %d", subframe, period)
	}
	return base + subframe, nil
}
