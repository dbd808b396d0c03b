// SPDX-FileCopyrightText: 2025 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package security

import (
	"fmt"

	"github.com/omec-project/util/ueauth"
)

// Algorithm type distinguishers, TS 33.501 Table A.8-1.
const (
	NrRrcEncAlg byte = 0x03
	NrRrcIntAlg byte = 0x04
	NrUpEncAlg  byte = 0x05
	NrUpIntAlg  byte = 0x06
)

// algorithmKey derives one AS key from KgNB, TS 33.501 A.8.
func algorithmKey(kgnb []byte, distinguisher, algId byte) ([]byte, error) {
	p0 := []byte{distinguisher}
	p1 := []byte{algId}
	key, err := ueauth.GetKDFValue(kgnb, ueauth.FC_FOR_ALGORITHM_KEY_DERIVATION,
		p0, ueauth.KDFLen(p0), p1, ueauth.KDFLen(p1))
	if err != nil {
		return nil, fmt.Errorf("algorithm key 0x%02x: %+v", distinguisher, err)
	}
	return key, nil
}
