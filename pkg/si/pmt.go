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
// Program map section
// <iso13818-1.pdf> <2.4.4.8> <page 64/174>
// 长头之后：
// reserved            [3b]
// PCR_PID             [13b] **
// reserved            [4b]
// program_info_length [12b] **
// descriptor          [..]
// -----loop-----
// stream_type         [8b]  *
// reserved            [3b]
// elementary_PID      [13b] **
// reserved            [4b]
// ES_info_length      [12b] **
// descriptor          [..]
// --------------
// CRC_32              [32b] ****
// ---------------------------------------------------------------
//
// 本工具只读PMT，不改写，所以只有解析
type Pmt struct {
	ServiceId   uint16
	Version     uint8
	PcrPid      uint16
	Descriptors []Descriptor
	Streams     []PmtStream
}

type PmtStream struct {
	StreamType  uint8
	Pid         uint16
	Descriptors []Descriptor
}

func ParsePmt(t psi.BinaryTable) (pmt Pmt, err error) {
	if t.TableId() != mpegts.TidPmt {
		return pmt, ErrTableId
	}
	pmt.ServiceId = t.TableIdExt()
	pmt.Version = t.Version()
	for i, sec := range t.Sections {
		body := sec.Body()
		if len(body) < 4 {
			return pmt, ErrShortBody
		}
		if i == 0 {
			pmt.PcrPid = bele.BeUint16(body) & 0x1fff
		}
		pil := int(bele.BeUint16(body[2:]) & 0x0fff)
		if 4+pil > len(body) {
			return pmt, ErrShortBody
		}
		pmt.Descriptors = append(pmt.Descriptors, ParseDescriptors(body[4:4+pil])...)
		body = body[4+pil:]

		for len(body) >= 5 {
			st := body[0]
			pid := bele.BeUint16(body[1:]) & 0x1fff
			esil := int(bele.BeUint16(body[3:]) & 0x0fff)
			if 5+esil > len(body) {
				break
			}
			pmt.Streams = append(pmt.Streams, PmtStream{
				StreamType:  st,
				Pid:         pid,
				Descriptors: ParseDescriptors(body[5 : 5+esil]),
			})
			body = body[5+esil:]
		}
	}
	return pmt, nil
}
