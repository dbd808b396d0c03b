// SPDX-FileCopyrightText: 2025 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package lower

import (
	"testing"

	"github.com/omec-project/gnbrrc/context"
	"github.com/omec-project/gnbrrc/rrc/message"
	"github.com/omec-project/gnbrrc/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type written struct {
	rnti uint16
	lcid uint32
}

func TestMacUpdUser(t *testing.T) {
	m := NewMac()
	require.NoError(t, m.UeCfg(0x46, context.UeMacCfg{Lcids: []uint32{1, 2}}))
	require.NoError(t, m.UpdUser(0x50, 0x46))

	_, ok := m.Config(0x46)
	assert.False(t, ok)
	cfg, ok := m.Config(0x50)
	require.True(t, ok)
	assert.Equal(t, []uint32{1, 2}, cfg.Lcids)

	assert.Error(t, m.UpdUser(0x60, 0x46))
	m.UeRem(0x50)
	assert.Equal(t, 0, m.NofUsers())
}

func TestRlcBearers(t *testing.T) {
	var out []written
	r := NewRlc(func(rnti uint16, lcid uint32, _ []byte) { out = append(out, written{rnti, lcid}) })

	r.AddUser(0x46)
	r.AddBearer(0x46, context.LcidSrb1, message.RlcAm)
	r.WriteSdu(0x46, context.LcidSrb0, []byte{1})
	r.WriteSdu(0x46, 4, []byte{2})
	assert.Equal(t, []written{{0x46, context.LcidSrb0}}, out)

	r.UpdUser(0x50, 0x46)
	mode, ok := r.Mode(0x50, context.LcidSrb1)
	require.True(t, ok)
	assert.Equal(t, message.RlcAm, mode)
	_, ok = r.Mode(0x46, context.LcidSrb1)
	assert.False(t, ok)

	r.DelBearer(0x50, context.LcidSrb1)
	_, ok = r.Mode(0x50, context.LcidSrb1)
	assert.False(t, ok)
	r.RemUser(0x50)
	_, ok = r.Mode(0x50, context.LcidSrb0)
	assert.False(t, ok)
}

func derivedContext(t *testing.T) *security.Context {
	t.Helper()
	sec := security.NewContext()
	require.NoError(t, sec.SetRootKey([]byte("0123456789abcdef0123456789abcdef")))
	sec.SetCapabilities(security.Capabilities{Ciphering: 0xc000, Integrity: 0xc000})
	require.NoError(t, sec.Negotiate(security.Preferences{
		Ciphering: []security.CipheringAlgorithm{security.NEA2},
		Integrity: []security.IntegrityAlgorithm{security.NIA2},
	}))
	require.NoError(t, sec.DeriveKeys())
	return sec
}

func TestPdcpSecurity(t *testing.T) {
	p := NewPdcp(nil)
	p.AddUser(0x46)
	p.AddBearer(0x46, context.LcidSrb1)

	sec := derivedContext(t)
	changed, err := sec.ActivateSignaling(p, 0x46, context.LcidSrb1)
	require.NoError(t, err)
	assert.True(t, changed)

	b, ok := p.Bearer(0x46, context.LcidSrb1)
	require.True(t, ok)
	assert.True(t, b.Integrity)
	assert.False(t, b.Encryption)

	_, err = sec.StartSignalingCiphering(p, 0x46, context.LcidSrb1)
	require.NoError(t, err)
	b, _ = p.Bearer(0x46, context.LcidSrb1)
	assert.True(t, b.Encryption)
	assert.Equal(t, security.NEA2, b.Config.Ciphering)

	p.Reestablish(0x46)
	b, _ = p.Bearer(0x46, context.LcidSrb1)
	assert.False(t, b.Integrity)

	// no entity, nothing recorded
	p.EnableIntegrity(0x46, 4)
	_, ok = p.Bearer(0x46, 4)
	assert.False(t, ok)
}

func TestPdcpKeysOverwrittenOnRemoval(t *testing.T) {
	p := NewPdcp(nil)
	sec := derivedContext(t)
	entity := func(rnti uint16, lcid uint32) *PdcpBearer {
		t.Helper()
		b, ok := p.get(rnti, lcid)
		require.True(t, ok)
		return b
	}
	for _, lcid := range []uint32{context.LcidSrb1, context.LcidSrb2, 4} {
		p.AddBearer(0x46, lcid)
		_, err := sec.ActivateSignaling(p, 0x46, lcid)
		require.NoError(t, err)
	}
	srb1, srb2, drb := entity(0x46, context.LcidSrb1), entity(0x46, context.LcidSrb2), entity(0x46, 4)
	require.Equal(t, sec.Keys().RrcInt, srb1.Config.KeyInt)

	p.DelBearer(0x46, 4)
	assert.Equal(t, PdcpBearer{}, *drb)

	// a stale entity on the target RNTI is overwritten, the moved one kept
	p.AddBearer(0x50, context.LcidSrb1)
	p.ConfigSecurity(0x50, context.LcidSrb1, security.AsConfig{KeyInt: sec.Keys().UpInt})
	stale := entity(0x50, context.LcidSrb1)
	require.NotEqual(t, PdcpBearer{}, *stale)
	p.UpdUser(0x50, 0x46)
	assert.Equal(t, PdcpBearer{}, *stale)
	assert.Same(t, srb1, entity(0x50, context.LcidSrb1))
	assert.Equal(t, sec.Keys().RrcInt, srb1.Config.KeyInt)
	_, ok := p.Bearer(0x46, context.LcidSrb1)
	assert.False(t, ok)

	p.RemUser(0x50)
	assert.Equal(t, PdcpBearer{}, *srb1)
	assert.Equal(t, PdcpBearer{}, *srb2)
	_, ok = p.Bearer(0x50, context.LcidSrb2)
	assert.False(t, ok)
}
