// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/tsremove
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegts_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/q191201771/naza/pkg/assert"

	"github.com/q191201771/tsremove/pkg/mpegts"
)

// 经典的单节目PAT packet，program 1 -> PMT PID 0x1000，CRC_32为0x2ab104b2
var fixedPatPacket = []byte{
	0x47, 0x40, 0x00, 0x10,
	0x00, 0x00, 0xb0, 0x0d, 0x00, 0x01, 0xc1, 0x00, 0x00,
	0x00, 0x01, 0xf0, 0x00,
	0x2a, 0xb1, 0x04, 0xb2,
}

func TestParseTsPacketHeader(t *testing.T) {
	h := mpegts.ParseTsPacketHeader(fixedPatPacket)
	assert.Equal(t, uint8(0x47), h.Sync)
	assert.Equal(t, uint8(1), h.PayloadUnitStart)
	assert.Equal(t, mpegts.PidPat, h.Pid)
	assert.Equal(t, mpegts.AdaptationFieldControlNo, h.Adaptation)
	assert.Equal(t, uint8(0), h.Cc)
}

func TestTsPacketHeaderPack(t *testing.T) {
	h := mpegts.TsPacketHeader{
		Sync:             0x47,
		PayloadUnitStart: 1,
		Pid:              0x1abc,
		Adaptation:       mpegts.AdaptationFieldControlBoth,
		Cc:               9,
	}
	b := make([]byte, 4)
	h.Pack(b)
	h2 := mpegts.ParseTsPacketHeader(b)
	assert.Equal(t, h, h2)
}

func TestCalcCrc32(t *testing.T) {
	section := fixedPatPacket[5:]
	assert.Equal(t, uint32(0x2ab104b2), mpegts.CalcCrc32(section[:len(section)-4]))
	assert.Equal(t, true, mpegts.CheckCrc32(section))

	// 篡改一个字节后校验不过
	mutated := append([]byte{}, section...)
	mutated[9] ^= 0x01
	assert.Equal(t, false, mpegts.CheckCrc32(mutated))

	assert.Equal(t, false, mpegts.CheckCrc32(nil))
}

func TestPayloadOffset(t *testing.T) {
	assert.Equal(t, 4, mpegts.PayloadOffset(fixedPatPacket))

	// 带8字节adaptation field
	b := make([]byte, mpegts.PacketSize)
	copy(b, fixedPatPacket[:4])
	b[3] = 0x30 | 0x01
	b[4] = 7
	assert.Equal(t, 4+1+7, mpegts.PayloadOffset(b))
}

func TestWriteNullPacket(t *testing.T) {
	b := make([]byte, mpegts.PacketSize)
	mpegts.WriteNullPacket(b)
	h := mpegts.ParseTsPacketHeader(b)
	assert.Equal(t, uint8(0x47), h.Sync)
	assert.Equal(t, mpegts.PidNull, h.Pid)
	assert.Equal(t, mpegts.AdaptationFieldControlNo, h.Adaptation)
	assert.Equal(t, uint8(0xff), b[187])
}

func TestPacketReader(t *testing.T) {
	pkt := make([]byte, mpegts.PacketSize)
	copy(pkt, fixedPatPacket)
	for i := len(fixedPatPacket); i < mpegts.PacketSize; i++ {
		pkt[i] = 0xff
	}

	// 开头混入垃圾字节，应该跳过并重新同步
	var in bytes.Buffer
	in.Write([]byte{0x00, 0x12, 0x34})
	in.Write(pkt)
	in.Write(pkt)

	pr := mpegts.NewPacketReader(&in)
	b := make([]byte, mpegts.PacketSize)
	err := pr.ReadPacket(b)
	assert.Equal(t, nil, err)
	assert.Equal(t, pkt, b)
	err = pr.ReadPacket(b)
	assert.Equal(t, nil, err)
	err = pr.ReadPacket(b)
	assert.Equal(t, io.EOF, err)
}
