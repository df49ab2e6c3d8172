// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/tsremove
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package psi

import (
	"github.com/q191201771/naza/pkg/bele"
	"github.com/q191201771/naza/pkg/nazabits"

	"github.com/q191201771/tsremove/pkg/mpegts"
)

// ---------------------------------------------------------------
// <iso13818-1.pdf> <2.4.4.11> 长格式section
// table_id                 [8b]  *
// section_syntax_indicator [1b]
// '0'/reserved_future_use  [1b]
// reserved                 [2b]
// section_length           [12b] **
// table_id_extension       [16b] **
// reserved                 [2b]
// version_number           [5b]
// current_next_indicator   [1b]  *
// section_number           [8b]  *
// last_section_number      [8b]  *
// -----section body-----
// CRC_32                   [32b] ****
// ---------------------------------------------------------------
type Section struct {
	TableId           uint8
	TableIdExt        uint16
	Version           uint8
	CurrentNext       uint8
	SectionNumber     uint8
	LastSectionNumber uint8

	Raw []byte // 完整section数据，含头和CRC_32
}

// Body section body部分，不含头和CRC_32
func (s Section) Body() []byte {
	return s.Raw[sectionHeaderSize : len(s.Raw)-crc32Size]
}

// ParseSection 解析一个完整的长格式section，校验CRC_32
//
// 内部持有b的引用，调用方不应再修改b
//
func ParseSection(b []byte) (s Section, err error) {
	if len(b) < sectionHeaderSize+crc32Size {
		return s, ErrShortSection
	}
	if len(b) > maxSectionSize {
		return s, ErrSectionSize
	}
	br := nazabits.NewBitReader(b)
	s.TableId, _ = br.ReadBits8(8)
	_, _ = br.ReadBits8(4)
	sl, _ := br.ReadBits16(12)
	if int(sl)+3 != len(b) {
		return s, ErrShortSection
	}
	s.TableIdExt, _ = br.ReadBits16(16)
	_, _ = br.ReadBits8(2)
	s.Version, _ = br.ReadBits8(5)
	s.CurrentNext, _ = br.ReadBits8(1)
	s.SectionNumber, _ = br.ReadBits8(8)
	s.LastSectionNumber, _ = br.ReadBits8(8)
	if !mpegts.CheckCrc32(b) {
		return s, ErrCrc32
	}
	s.Raw = b
	return s, nil
}

// PackSection 打包一个长格式section，填充CRC_32
//
// @param priv: DVB SI私有section（SDT/NIT/BAT）为true，PSI（PAT/PMT）为false，
//              只影响section_length前的保留位
//
func PackSection(tableId uint8, tableIdExt uint16, version uint8, sn uint8, lsn uint8, priv bool, body []byte) Section {
	sl := 5 + len(body) + crc32Size
	b := make([]byte, 3+sl)
	b[0] = tableId
	syntax := uint8(0xb0)
	if priv {
		syntax = 0xf0
	}
	b[1] = syntax | uint8(sl>>8)
	b[2] = uint8(sl & 0xff)
	bele.BePutUint16(b[3:], tableIdExt)
	b[5] = 0xc0 | (version&0x1f)<<1 | 0x1 // current_next_indicator=1
	b[6] = sn
	b[7] = lsn
	copy(b[sectionHeaderSize:], body)
	crc := mpegts.CalcCrc32(b[:len(b)-crc32Size])
	bele.BePutUint32(b[len(b)-crc32Size:], crc)

	return Section{
		TableId:           tableId,
		TableIdExt:        tableIdExt,
		Version:           version,
		CurrentNext:       1,
		SectionNumber:     sn,
		LastSectionNumber: lsn,
		Raw:               b,
	}
}

// BinaryTable 一张完整的表。由同一(table_id, table_id_extension, version)
// 的所有section组成，按section_number排好序
type BinaryTable struct {
	SourcePid uint16
	Sections  []Section
}

func (t BinaryTable) TableId() uint8 {
	return t.Sections[0].TableId
}

func (t BinaryTable) TableIdExt() uint16 {
	return t.Sections[0].TableIdExt
}

func (t BinaryTable) Version() uint8 {
	return t.Sections[0].Version
}
