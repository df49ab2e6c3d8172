// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/tsremove
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegts

import (
	"github.com/q191201771/naza/pkg/nazabits"
)

// ------------------------------------------------
// <iso13818-1.pdf> <2.4.3.2> <page 36/174>
// sync_byte                    [8b]  * always 0x47
// transport_error_indicator    [1b]
// payload_unit_start_indicator [1b]
// transport_priority           [1b]
// PID                          [13b] **
// transport_scrambling_control [2b]
// adaptation_field_control     [2b]
// continuity_counter           [4b]  *
// ------------------------------------------------
type TsPacketHeader struct {
	Sync             uint8
	Err              uint8
	PayloadUnitStart uint8
	Prio             uint8
	Pid              uint16
	Scra             uint8
	Adaptation       uint8
	Cc               uint8
}

// adaptation_field_control的取值
const (
	AdaptationFieldControlNo   uint8 = 0x1 // 仅payload
	AdaptationFieldControlOnly uint8 = 0x2 // 仅adaptation
	AdaptationFieldControlBoth uint8 = 0x3 // adaptation后跟payload
)

// 解析4字节TS Packet header
func ParseTsPacketHeader(b []byte) (h TsPacketHeader) {
	br := nazabits.NewBitReader(b)
	h.Sync, _ = br.ReadBits8(8)
	h.Err, _ = br.ReadBits8(1)
	h.PayloadUnitStart, _ = br.ReadBits8(1)
	h.Prio, _ = br.ReadBits8(1)
	h.Pid, _ = br.ReadBits16(13)
	h.Scra, _ = br.ReadBits8(2)
	h.Adaptation, _ = br.ReadBits8(2)
	h.Cc, _ = br.ReadBits8(4)
	return
}

// Pack 打包4字节TS Packet header
func (h TsPacketHeader) Pack(b []byte) {
	bw := nazabits.NewBitWriter(b)
	bw.WriteBits8(8, h.Sync)
	bw.WriteBits8(1, h.Err)
	bw.WriteBits8(1, h.PayloadUnitStart)
	bw.WriteBits8(1, h.Prio)
	bw.WriteBits16(13, h.Pid)
	bw.WriteBits8(2, h.Scra)
	bw.WriteBits8(2, h.Adaptation)
	bw.WriteBits8(4, h.Cc)
}

// HasPayload adaptation_field_control是否声明了payload
func (h TsPacketHeader) HasPayload() bool {
	return h.Adaptation&0x1 != 0
}

// PayloadOffset packet中payload的起始位置
//
// 注意，调用方需先判断 HasPayload
//
// @return: 如果packet结构异常，返回PacketSize，此时payload视为空
//
func PayloadOffset(b []byte) int {
	h := ParseTsPacketHeader(b)
	offset := 4
	if h.Adaptation&0x2 != 0 {
		if offset >= PacketSize {
			return PacketSize
		}
		offset += 1 + int(b[offset])
	}
	if offset > PacketSize {
		return PacketSize
	}
	return offset
}
