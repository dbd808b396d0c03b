// SPDX-FileCopyrightText: 2025 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wmnsk/go-gtp/gtpv1/message"
)

func parse(t *testing.T, b []byte) *message.TPDU {
	t.Helper()
	msg, err := message.Parse(b)
	require.NoError(t, err)
	tpdu, ok := msg.(*message.TPDU)
	require.True(t, ok)
	return tpdu
}

func TestUplinkPacket(t *testing.T) {
	b, err := BuildUplinkPacket(0x01020304, 5, []byte{0x45, 0x00, 0x00, 0x14})
	require.NoError(t, err)

	pkt, err := ParseTPDU(parse(t, b))
	require.NoError(t, err)
	assert.Equal(t, uint32(0x01020304), pkt.TEID)
	assert.True(t, pkt.HasQoS)
	assert.Equal(t, uint8(5), pkt.QFI)
	assert.False(t, pkt.RQI)
	assert.Equal(t, []byte{0x45, 0x00, 0x00, 0x14}, pkt.Payload)
}

func TestDownlinkPacket(t *testing.T) {
	b, err := BuildDownlinkPacket(7, 9, []byte{0x60})
	require.NoError(t, err)

	pkt, err := ParseTPDU(parse(t, b))
	require.NoError(t, err)
	assert.Equal(t, uint32(7), pkt.TEID)
	assert.Equal(t, uint8(9), pkt.QFI)
}

func TestPacketWithoutQoS(t *testing.T) {
	tpdu := message.NewTPDU(0x10, []byte{0x45})

	pkt, err := ParseTPDU(tpdu)
	require.NoError(t, err)
	assert.False(t, pkt.HasQoS)
	assert.Equal(t, []byte{0x45}, pkt.Payload)

	_, err = ParseTPDU(nil)
	assert.Error(t, err)
}
