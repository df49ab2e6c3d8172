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

// TableHandler 一张表的所有section集齐后被调用
//
// 注意，在 SectionDemux.FeedPacket 内同步回调。回调中允许操作demux本身，
// 比如 SectionDemux.AddPid 和 SectionDemux.ResetPid
//
type TableHandler func(table BinaryTable)

// SectionDemux 从TS packet流中重组section，再按表聚合
//
// 每个完整出现的表都会重新回调一次，周期重复发送的表也是
//
type SectionDemux struct {
	onTable TableHandler
	pids    map[uint16]*pidScope
}

type pidScope struct {
	buf    []byte // 当前未完成section的数据
	lastCc int    // 上一个packet的continuity_counter，-1表示未知
	gen    int    // ResetPid时递增，打断进行中的投递循环

	accs map[uint32]*tableAcc // key: table_id<<16 | table_id_extension
}

type tableAcc struct {
	version  uint8
	last     uint8
	sections map[uint8]Section // key: section_number
}

func NewSectionDemux(onTable TableHandler) *SectionDemux {
	return &SectionDemux{
		onTable: onTable,
		pids:    make(map[uint16]*pidScope),
	}
}

// AddPid 开始监听一个PID。重复添加不产生影响
func (d *SectionDemux) AddPid(pid uint16) {
	if _, ok := d.pids[pid]; ok {
		return
	}
	d.pids[pid] = &pidScope{
		lastCc: -1,
		accs:   make(map[uint32]*tableAcc),
	}
}

// ResetPid 丢弃该PID上已缓存的section数据和未集齐的表
//
// PID保持监听状态，周期重发的section之后会被重新重组、重新投递
//
func (d *SectionDemux) ResetPid(pid uint16) {
	ps, ok := d.pids[pid]
	if !ok {
		return
	}
	ps.buf = nil
	ps.lastCc = -1
	ps.gen++
	ps.accs = make(map[uint32]*tableAcc)
}

// Reset 清空所有监听
func (d *SectionDemux) Reset() {
	d.pids = make(map[uint16]*pidScope)
}

// IsPidAdded 是否在监听该PID
func (d *SectionDemux) IsPidAdded(pid uint16) bool {
	_, ok := d.pids[pid]
	return ok
}

// FeedPacket 输入一个188字节TS packet
//
// 未监听的PID直接忽略。表集齐时同步回调TableHandler
//
func (d *SectionDemux) FeedPacket(b []byte) {
	h := mpegts.ParseTsPacketHeader(b)
	ps, ok := d.pids[h.Pid]
	if !ok {
		return
	}
	if h.Err != 0 || h.Scra != 0 || !h.HasPayload() {
		return
	}

	// continuity_counter检查
	// 重复packet忽略，不连续则丢弃进行中的section
	if ps.lastCc >= 0 {
		if h.Cc == uint8(ps.lastCc) {
			return
		}
		if h.Cc != (uint8(ps.lastCc)+1)&0x0f {
			ps.buf = nil
		}
	}
	ps.lastCc = int(h.Cc)

	offset := mpegts.PayloadOffset(b)
	if offset >= mpegts.PacketSize {
		return
	}
	payload := b[offset:mpegts.PacketSize]
	gen := ps.gen

	if h.PayloadUnitStart == 1 {
		// pointer_field之前的字节属于上一个section
		ptr := int(payload[0])
		if 1+ptr > len(payload) {
			ps.buf = nil
			return
		}
		if ps.buf != nil && ptr > 0 {
			ps.buf = append(ps.buf, payload[1:1+ptr]...)
			d.drainSections(h.Pid, ps)
			if ps.gen != gen {
				// 回调中调了ResetPid，放弃本packet剩余数据
				return
			}
		}
		ps.buf = nil
		tail := payload[1+ptr:]
		ps.buf = append(ps.buf, tail...)
		d.drainSections(h.Pid, ps)
	} else {
		// section中段。没有进行中的section则丢弃
		if ps.buf == nil {
			return
		}
		ps.buf = append(ps.buf, payload...)
		d.drainSections(h.Pid, ps)
	}
}

// drainSections 从缓存中解析出所有完整的section并投递，剩余的保留
func (d *SectionDemux) drainSections(pid uint16, ps *pidScope) {
	gen := ps.gen
	for {
		if len(ps.buf) == 0 {
			ps.buf = nil
			return
		}
		if ps.buf[0] == 0xff {
			// 填充字节，后面不会再有section
			ps.buf = nil
			return
		}
		if len(ps.buf) < 3 {
			return
		}
		secLen := 3 + (int(ps.buf[1]&0x0f)<<8 | int(ps.buf[2]))
		if secLen > maxSectionSize {
			Log.Warnf("section too large, drop. pid=%d, len=%d", pid, secLen)
			ps.buf = nil
			return
		}
		if len(ps.buf) < secLen {
			return
		}
		raw := make([]byte, secLen)
		copy(raw, ps.buf[:secLen])
		ps.buf = ps.buf[secLen:]

		d.feedSection(pid, ps, raw)
		if ps.gen != gen {
			// 回调中调了ResetPid，终止本packet的处理
			return
		}
	}
}

// feedSection 聚合一个section。一张表的section集齐时回调
func (d *SectionDemux) feedSection(pid uint16, ps *pidScope, raw []byte) {
	s, err := ParseSection(raw)
	if err != nil {
		// 非法section静默跳过
		Log.Debugf("invalid section, skip. pid=%d, err=%+v", pid, err)
		return
	}
	if s.CurrentNext == 0 {
		return
	}

	key := uint32(s.TableId)<<16 | uint32(s.TableIdExt)
	acc, ok := ps.accs[key]
	if !ok || acc.version != s.Version {
		acc = &tableAcc{
			version:  s.Version,
			last:     s.LastSectionNumber,
			sections: make(map[uint8]Section),
		}
		ps.accs[key] = acc
	}
	if s.LastSectionNumber != acc.last {
		// last_section_number变了，按新表重新聚合
		acc.last = s.LastSectionNumber
		acc.sections = make(map[uint8]Section)
	}
	acc.sections[s.SectionNumber] = s
	if len(acc.sections) != int(acc.last)+1 {
		return
	}

	table := BinaryTable{SourcePid: pid}
	for i := 0; i <= int(acc.last); i++ {
		sec, ok := acc.sections[uint8(i)]
		if !ok {
			return
		}
		table.Sections = append(table.Sections, sec)
	}

	// 聚合状态清掉，同一张表的下一个周期重新投递
	delete(ps.accs, key)

	if d.onTable != nil {
		d.onTable(table)
	}
}
