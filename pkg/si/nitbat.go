// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/tsremove
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package si

import (
	"github.com/q191201771/naza/pkg/bele"

	"github.com/q191201771/tsremove/pkg/mpegts"
	"github.com/q191201771/tsremove/pkg/psi"
)

// ---------------------------------------------------------------
// Network information section / Bouquet association section
// <en_300468.pdf> <5.2.1> <5.2.2>
// 两者二进制布局完全相同，共用一个类型。长头之后：
// reserved_future_use            [4b]
// network_descriptors_length     [12b] ** BAT里是bouquet_descriptors_length
// descriptor                     [..]
// reserved_future_use            [4b]
// transport_stream_loop_length   [12b] **
// -----loop-----
// transport_stream_id            [16b] **
// original_network_id            [16b] **
// reserved_future_use            [4b]
// transport_descriptors_length   [12b] **
// descriptor                     [..]
// --------------
// CRC_32                         [32b] ****
// ---------------------------------------------------------------
type TransportListTable struct {
	TableId     uint8  // TidNitAct、TidNitOth 或 TidBat
	IdExt       uint16 // network_id 或 bouquet_id
	Version     uint8
	Descriptors []Descriptor // 顶层descriptor循环
	Transports  []TransportEntry
}

type TransportEntry struct {
	TransportStreamId uint16
	OriginalNetworkId uint16
	Descriptors       []Descriptor
}

func ParseTransportListTable(t psi.BinaryTable) (tbl TransportListTable, err error) {
	tid := t.TableId()
	if tid != mpegts.TidNitAct && tid != mpegts.TidNitOth && tid != mpegts.TidBat {
		return tbl, ErrTableId
	}
	tbl.TableId = tid
	tbl.IdExt = t.TableIdExt()
	tbl.Version = t.Version()
	for _, sec := range t.Sections {
		body := sec.Body()
		if len(body) < 2 {
			return tbl, ErrShortBody
		}
		ndl := int(bele.BeUint16(body) & 0x0fff)
		if 2+ndl+2 > len(body) {
			return tbl, ErrShortBody
		}
		tbl.Descriptors = append(tbl.Descriptors, ParseDescriptors(body[2:2+ndl])...)
		body = body[2+ndl:]

		tsll := int(bele.BeUint16(body) & 0x0fff)
		body = body[2:]
		if tsll > len(body) {
			tsll = len(body)
		}
		body = body[:tsll]
		for len(body) >= 6 {
			var e TransportEntry
			e.TransportStreamId = bele.BeUint16(body)
			e.OriginalNetworkId = bele.BeUint16(body[2:])
			tdl := int(bele.BeUint16(body[4:]) & 0x0fff)
			if 6+tdl > len(body) {
				break
			}
			e.Descriptors = ParseDescriptors(body[6 : 6+tdl])
			tbl.Transports = append(tbl.Transports, e)
			body = body[6+tdl:]
		}
	}
	return tbl, nil
}

// Pack 打包。顶层descriptor只进第一个section，
// transport表项超出单个section容量时拆分
func (tbl TransportListTable) Pack() []psi.Section {
	topDs := PackDescriptors(tbl.Descriptors)

	var records [][]byte
	for _, e := range tbl.Transports {
		records = append(records, packTransportEntry(e))
	}

	type secBody struct {
		withTop bool
		records [][]byte
	}
	var bodies []secBody
	cur := secBody{withTop: true}
	used := 2 + len(topDs) + 2 // 两个length字段加顶层descriptor
	for _, r := range records {
		if used+len(r) > maxSectionBody {
			bodies = append(bodies, cur)
			cur = secBody{}
			used = 2 + 2
		}
		cur.records = append(cur.records, r)
		used += len(r)
	}
	bodies = append(bodies, cur)

	var secs []psi.Section
	lsn := uint8(len(bodies) - 1)
	priv := true
	for i, sb := range bodies {
		var body []byte
		if sb.withTop {
			body = make([]byte, 2, 4+len(topDs))
			bele.BePutUint16(body, 0xf000|uint16(len(topDs)))
			body = append(body, topDs...)
		} else {
			body = []byte{0xf0, 0x00}
		}
		tsLoopLen := 0
		for _, r := range sb.records {
			tsLoopLen += len(r)
		}
		lenField := make([]byte, 2)
		bele.BePutUint16(lenField, 0xf000|uint16(tsLoopLen))
		body = append(body, lenField...)
		for _, r := range sb.records {
			body = append(body, r...)
		}
		secs = append(secs, psi.PackSection(tbl.TableId, tbl.IdExt, tbl.Version, uint8(i), lsn, priv, body))
	}
	return secs
}

func packTransportEntry(e TransportEntry) []byte {
	ds := PackDescriptors(e.Descriptors)
	b := make([]byte, 6, 6+len(ds))
	bele.BePutUint16(b, e.TransportStreamId)
	bele.BePutUint16(b[2:], e.OriginalNetworkId)
	bele.BePutUint16(b[4:], 0xf000|uint16(len(ds)))
	return append(b, ds...)
}
