// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/tsremove
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package psi_test

import (
	"testing"

	"github.com/q191201771/naza/pkg/assert"

	"github.com/q191201771/tsremove/pkg/mpegts"
	"github.com/q191201771/tsremove/pkg/psi"
)

func body(n int, seed byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = seed + byte(i)
	}
	return b
}

// 一张表的section打包成packet序列
func tablePackets(pid uint16, secs []psi.Section) [][]byte {
	pz := psi.NewCyclingPacketizer(pid)
	n := 0
	for _, s := range secs {
		pz.AddSection(s)
		n += packetsNeeded(len(s.Raw))
	}
	var ret [][]byte
	for i := 0; i < n; i++ {
		b := make([]byte, mpegts.PacketSize)
		pz.NextPacket(b)
		ret = append(ret, b)
	}
	return ret
}

// 一个section需要多少个packet。首个packet有pointer_field占1字节
func packetsNeeded(secLen int) int {
	n := 1
	for rem := secLen - 183; rem > 0; rem -= 184 {
		n++
	}
	return n
}

func TestPackParseSection(t *testing.T) {
	sec := psi.PackSection(mpegts.TidSdtAct, 0x1234, 7, 1, 3, true, body(20, 0x30))
	assert.Equal(t, mpegts.TidSdtAct, sec.TableId)
	assert.Equal(t, uint16(0x1234), sec.TableIdExt)
	assert.Equal(t, uint8(7), sec.Version)
	assert.Equal(t, uint8(1), sec.SectionNumber)
	assert.Equal(t, uint8(3), sec.LastSectionNumber)

	sec2, err := psi.ParseSection(sec.Raw)
	assert.Equal(t, nil, err)
	assert.Equal(t, sec, sec2)
	assert.Equal(t, body(20, 0x30), sec2.Body())
}

func TestParseSectionCrc(t *testing.T) {
	sec := psi.PackSection(mpegts.TidPat, 1, 0, 0, 0, false, body(8, 0))
	raw := append([]byte{}, sec.Raw...)
	raw[10] ^= 0xff
	_, err := psi.ParseSection(raw)
	assert.Equal(t, psi.ErrCrc32, err)

	_, err = psi.ParseSection(raw[:5])
	assert.Equal(t, psi.ErrShortSection, err)
}

func TestCyclingPacketizerEmpty(t *testing.T) {
	pz := psi.NewCyclingPacketizer(mpegts.PidPat)
	b := make([]byte, mpegts.PacketSize)
	pz.NextPacket(b)
	h := mpegts.ParseTsPacketHeader(b)
	assert.Equal(t, mpegts.PidNull, h.Pid)
}

func TestCyclingPacketizerSmallSection(t *testing.T) {
	sec := psi.PackSection(mpegts.TidPat, 1, 0, 0, 0, false, body(12, 0x40))
	pz := psi.NewCyclingPacketizer(mpegts.PidPat)
	pz.AddSection(sec)

	b := make([]byte, mpegts.PacketSize)
	for round := 0; round < 3; round++ {
		pz.NextPacket(b)
		h := mpegts.ParseTsPacketHeader(b)
		assert.Equal(t, mpegts.PidPat, h.Pid)
		assert.Equal(t, uint8(1), h.PayloadUnitStart)
		assert.Equal(t, uint8(round+1), h.Cc)
		assert.Equal(t, uint8(0), b[4]) // pointer_field
		assert.Equal(t, sec.Raw, b[5:5+len(sec.Raw)])
		assert.Equal(t, uint8(0xff), b[5+len(sec.Raw)]) // 填充
	}
}

func TestCyclingPacketizerLargeSection(t *testing.T) {
	// body超过一个packet的容量，section跨两个packet
	sec := psi.PackSection(mpegts.TidSdtAct, 1, 0, 0, 0, true, body(250, 0x11))
	assert.Equal(t, 2, packetsNeeded(len(sec.Raw)))

	pz := psi.NewCyclingPacketizer(mpegts.PidSdt)
	pz.AddSection(sec)

	b1 := make([]byte, mpegts.PacketSize)
	b2 := make([]byte, mpegts.PacketSize)
	pz.NextPacket(b1)
	pz.NextPacket(b2)
	h1 := mpegts.ParseTsPacketHeader(b1)
	h2 := mpegts.ParseTsPacketHeader(b2)
	assert.Equal(t, uint8(1), h1.PayloadUnitStart)
	assert.Equal(t, uint8(0), h2.PayloadUnitStart)
	assert.Equal(t, (h1.Cc+1)&0x0f, h2.Cc)

	joined := append(append([]byte{}, b1[5:]...), b2[4:]...)
	assert.Equal(t, sec.Raw, joined[:len(sec.Raw)])
}

func TestCyclingPacketizerRemove(t *testing.T) {
	secA := psi.PackSection(mpegts.TidSdtAct, 0x0001, 0, 0, 0, true, body(10, 0x01))
	secB := psi.PackSection(mpegts.TidBat, 0x0002, 0, 0, 0, true, body(10, 0x02))
	pz := psi.NewCyclingPacketizer(mpegts.PidSdt)
	pz.AddSection(secA)
	pz.AddSection(secB)

	pz.RemoveSections(mpegts.TidSdtAct, 0x0001)

	// 只剩secB在循环
	b := make([]byte, mpegts.PacketSize)
	for i := 0; i < 2; i++ {
		pz.NextPacket(b)
		assert.Equal(t, secB.Raw, b[5:5+len(secB.Raw)])
	}

	pz.RemoveTable(mpegts.TidBat)
	pz.NextPacket(b)
	assert.Equal(t, mpegts.PidNull, mpegts.ParseTsPacketHeader(b).Pid)
}

func TestSectionDemux(t *testing.T) {
	var tables []psi.BinaryTable
	d := psi.NewSectionDemux(func(tb psi.BinaryTable) {
		tables = append(tables, tb)
	})
	d.AddPid(mpegts.PidSdt)
	assert.Equal(t, true, d.IsPidAdded(mpegts.PidSdt))
	assert.Equal(t, false, d.IsPidAdded(mpegts.PidPat))

	sec := psi.PackSection(mpegts.TidSdtAct, 0x1234, 2, 0, 0, true, body(30, 0x21))
	for _, pkt := range tablePackets(mpegts.PidSdt, []psi.Section{sec}) {
		d.FeedPacket(pkt)
	}
	assert.Equal(t, 1, len(tables))
	assert.Equal(t, mpegts.PidSdt, tables[0].SourcePid)
	assert.Equal(t, mpegts.TidSdtAct, tables[0].TableId())
	assert.Equal(t, uint16(0x1234), tables[0].TableIdExt())
	assert.Equal(t, sec.Raw, tables[0].Sections[0].Raw)
}

func TestSectionDemuxUnwatchedPid(t *testing.T) {
	var n int
	d := psi.NewSectionDemux(func(tb psi.BinaryTable) {
		n++
	})
	d.AddPid(mpegts.PidPat)

	sec := psi.PackSection(mpegts.TidSdtAct, 1, 0, 0, 0, true, body(10, 0))
	for _, pkt := range tablePackets(mpegts.PidSdt, []psi.Section{sec}) {
		d.FeedPacket(pkt)
	}
	assert.Equal(t, 0, n)
}

func TestSectionDemuxMultiSection(t *testing.T) {
	// 两个section的表，跨多个packet，中间混入另一张表
	secA0 := psi.PackSection(mpegts.TidSdtAct, 0x0001, 0, 0, 1, true, body(200, 0x10))
	secA1 := psi.PackSection(mpegts.TidSdtAct, 0x0001, 0, 1, 1, true, body(40, 0x20))
	secB := psi.PackSection(mpegts.TidBat, 0x0002, 0, 0, 0, true, body(16, 0x30))

	var tables []psi.BinaryTable
	d := psi.NewSectionDemux(func(tb psi.BinaryTable) {
		tables = append(tables, tb)
	})
	d.AddPid(mpegts.PidSdt)

	for _, pkt := range tablePackets(mpegts.PidSdt, []psi.Section{secA0, secB, secA1}) {
		d.FeedPacket(pkt)
	}

	assert.Equal(t, 2, len(tables))
	assert.Equal(t, mpegts.TidBat, tables[0].TableId())
	assert.Equal(t, mpegts.TidSdtAct, tables[1].TableId())
	assert.Equal(t, 2, len(tables[1].Sections))
	assert.Equal(t, uint8(0), tables[1].Sections[0].SectionNumber)
	assert.Equal(t, uint8(1), tables[1].Sections[1].SectionNumber)
}

func TestSectionDemuxRedeliver(t *testing.T) {
	// 周期重复的表每个周期都要投递
	var n int
	d := psi.NewSectionDemux(func(tb psi.BinaryTable) {
		n++
	})
	d.AddPid(mpegts.PidPat)

	sec := psi.PackSection(mpegts.TidPat, 1, 0, 0, 0, false, body(8, 0))
	pkts := tablePackets(mpegts.PidPat, []psi.Section{sec, sec, sec})
	for _, pkt := range pkts {
		d.FeedPacket(pkt)
	}
	assert.Equal(t, 3, n)
}

func TestSectionDemuxDuplicateCc(t *testing.T) {
	// continuity_counter相同的重复packet被忽略
	var n int
	d := psi.NewSectionDemux(func(tb psi.BinaryTable) {
		n++
	})
	d.AddPid(mpegts.PidPat)

	sec := psi.PackSection(mpegts.TidPat, 1, 0, 0, 0, false, body(8, 0))
	pkts := tablePackets(mpegts.PidPat, []psi.Section{sec})
	d.FeedPacket(pkts[0])
	d.FeedPacket(pkts[0])
	assert.Equal(t, 1, n)
}

func TestSectionDemuxResetInHandler(t *testing.T) {
	// 回调中ResetPid，同一packet里后续的section作废
	secA := psi.PackSection(mpegts.TidBat, 0x0001, 0, 0, 0, true, body(10, 0x01))
	secB := psi.PackSection(mpegts.TidSdtAct, 0x0002, 0, 0, 0, true, body(10, 0x02))

	var tables []psi.BinaryTable
	var d *psi.SectionDemux
	d = psi.NewSectionDemux(func(tb psi.BinaryTable) {
		tables = append(tables, tb)
		d.ResetPid(tb.SourcePid)
	})
	d.AddPid(mpegts.PidSdt)

	// 两个section挤在一个packet里
	b := make([]byte, mpegts.PacketSize)
	h := mpegts.TsPacketHeader{
		Sync:             0x47,
		PayloadUnitStart: 1,
		Pid:              mpegts.PidSdt,
		Adaptation:       mpegts.AdaptationFieldControlNo,
		Cc:               1,
	}
	h.Pack(b)
	b[4] = 0
	n := copy(b[5:], append(append([]byte{}, secA.Raw...), secB.Raw...))
	for i := 5 + n; i < mpegts.PacketSize; i++ {
		b[i] = 0xff
	}

	d.FeedPacket(b)
	assert.Equal(t, 1, len(tables))
	assert.Equal(t, mpegts.TidBat, tables[0].TableId())

	// 重置后同样的packet重新投递
	d.FeedPacket(b)
	assert.Equal(t, 2, len(tables))
}

func TestSectionDemuxDiscontinuity(t *testing.T) {
	// cc跳变时丢弃进行中的section，完整重来后正常投递
	var n int
	d := psi.NewSectionDemux(func(tb psi.BinaryTable) {
		n++
	})
	d.AddPid(mpegts.PidSdt)

	sec := psi.PackSection(mpegts.TidSdtAct, 1, 0, 0, 0, true, body(250, 0x33))
	pkts := tablePackets(mpegts.PidSdt, []psi.Section{sec})
	assert.Equal(t, 2, len(pkts))

	d.FeedPacket(pkts[0])
	pkts[1][3] = pkts[1][3]&0xf0 | 0x04 // 期望cc=2，伪造成4
	d.FeedPacket(pkts[1])
	assert.Equal(t, 0, n)

	pkts = tablePackets(mpegts.PidSdt, []psi.Section{sec})
	pkts[0][3] = pkts[0][3]&0xf0 | 0x05
	pkts[1][3] = pkts[1][3]&0xf0 | 0x06
	d.FeedPacket(pkts[0])
	d.FeedPacket(pkts[1])
	assert.Equal(t, 1, n)
}

func TestParseSectionOversize(t *testing.T) {
	// section_length超过缓存上限
	b := make([]byte, 4098)
	b[0] = mpegts.TidSdtAct
	b[1] = 0xbf
	b[2] = 0xff
	_, err := psi.ParseSection(b)
	assert.Equal(t, psi.ErrSectionSize, err)
}
