// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/tsremove
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

// Package mpegts 传输流packet层。TS packet header编解码，标准PID、table_id常量，CRC32等
//
package mpegts

import (
	"errors"

	"github.com/q191201771/naza/pkg/nazalog"
)

var Log = nazalog.GetGlobalLogger()

var (
	ErrShortBuffer = errors.New("tsremove.mpegts: buffer too short")
	ErrSyncByte    = errors.New("tsremove.mpegts: invalid sync byte")
	ErrNotOpened   = errors.New("tsremove.mpegts: file not opened")
)

const (
	PacketSize = 188

	syncByte = 0x47
)

// 标准PID
// <iso13818-1.pdf> <Table 2-3> 以及 <en_300468.pdf> <Table 1>
const (
	PidPat     uint16 = 0x0000
	PidCat     uint16 = 0x0001
	PidTsdt    uint16 = 0x0002
	PidNit     uint16 = 0x0010
	PidSdt     uint16 = 0x0011 // BAT、ST同PID
	PidEit     uint16 = 0x0012
	PidRst     uint16 = 0x0013
	PidTdt     uint16 = 0x0014 // TOT同PID
	PidNetSync uint16 = 0x0015
	PidRnt     uint16 = 0x0016
	PidInbSign uint16 = 0x001c
	PidMeasure uint16 = 0x001d
	PidDit     uint16 = 0x001e
	PidSit     uint16 = 0x001f
	PidNull    uint16 = 0x1fff
)

// 标准table_id
// <iso13818-1.pdf> <Table 2-31> 以及 <en_300468.pdf> <Table 2>
const (
	TidPat    uint8 = 0x00
	TidCat    uint8 = 0x01
	TidPmt    uint8 = 0x02
	TidTsdt   uint8 = 0x03
	TidNitAct uint8 = 0x40
	TidNitOth uint8 = 0x41
	TidSdtAct uint8 = 0x42
	TidSdtOth uint8 = 0x46
	TidBat    uint8 = 0x4a
)

// WriteNullPacket 将b的前188字节填充为一个null packet
//
func WriteNullPacket(b []byte) {
	b[0] = syncByte
	b[1] = uint8(PidNull >> 8)
	b[2] = uint8(PidNull & 0xff)
	b[3] = 0x10
	for i := 4; i < PacketSize; i++ {
		b[i] = 0xff
	}
}
