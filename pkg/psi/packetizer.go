// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/tsremove
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package psi

import (
	"github.com/q191201771/tsremove/pkg/mpegts"
)

// CyclingPacketizer 把一组section循环打包成固定PID上重复发送的TS packet
//
// 每个section从新packet开始（pointer_field为0），跨packet续传，
// 最后一个packet用0xff填充。队列为空时产出null packet
//
type CyclingPacketizer struct {
	pid      uint16
	cc       uint8
	sections []Section
	pos      int // 当前section下标
	off      int // 当前section内的偏移
}

func NewCyclingPacketizer(pid uint16) *CyclingPacketizer {
	return &CyclingPacketizer{
		pid: pid,
	}
}

func (pz *CyclingPacketizer) Pid() uint16 {
	return pz.pid
}

// SetPid 修改输出PID。已入队的section保留
func (pz *CyclingPacketizer) SetPid(pid uint16) {
	pz.pid = pid
}

// Reset 清空队列
func (pz *CyclingPacketizer) Reset() {
	pz.sections = nil
	pz.pos = 0
	pz.off = 0
}

// AddTable 入队一张表的所有section
//
// 注意，不做去重。替换场景先调 RemoveSections 或 RemoveTable
//
func (pz *CyclingPacketizer) AddTable(t BinaryTable) {
	pz.sections = append(pz.sections, t.Sections...)
}

func (pz *CyclingPacketizer) AddSection(s Section) {
	pz.sections = append(pz.sections, s)
}

// RemoveTable 移除指定table_id的所有section
func (pz *CyclingPacketizer) RemoveTable(tableId uint8) {
	pz.remove(func(s Section) bool {
		return s.TableId == tableId
	})
}

// RemoveSections 移除指定(table_id, table_id_extension)的所有section
func (pz *CyclingPacketizer) RemoveSections(tableId uint8, tableIdExt uint16) {
	pz.remove(func(s Section) bool {
		return s.TableId == tableId && s.TableIdExt == tableIdExt
	})
}

func (pz *CyclingPacketizer) remove(match func(s Section) bool) {
	var keep []Section
	for _, s := range pz.sections {
		if !match(s) {
			keep = append(keep, s)
		}
	}
	pz.sections = keep
	pz.pos = 0
	pz.off = 0
}

// NextPacket 产出下一个packet到b的前188字节
func (pz *CyclingPacketizer) NextPacket(b []byte) {
	if len(pz.sections) == 0 {
		mpegts.WriteNullPacket(b)
		return
	}
	if pz.pos >= len(pz.sections) {
		pz.pos = 0
		pz.off = 0
	}

	sec := pz.sections[pz.pos]
	pz.cc = (pz.cc + 1) & 0x0f

	h := mpegts.TsPacketHeader{
		Sync:       0x47,
		Pid:        pz.pid,
		Adaptation: mpegts.AdaptationFieldControlNo,
		Cc:         pz.cc,
	}
	wpos := 4
	if pz.off == 0 {
		h.PayloadUnitStart = 1
		h.Pack(b)
		b[wpos] = 0 // pointer_field
		wpos++
	} else {
		h.Pack(b)
	}

	n := copy(b[wpos:mpegts.PacketSize], sec.Raw[pz.off:])
	pz.off += n
	wpos += n
	for ; wpos < mpegts.PacketSize; wpos++ {
		b[wpos] = 0xff
	}

	if pz.off >= len(sec.Raw) {
		pz.pos++
		pz.off = 0
	}
}
