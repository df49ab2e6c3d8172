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
// Program association section
// <iso13818-1.pdf> <2.4.4.3> <page 61/174>
// 长头之后：
// -----loop-----
// program_number  [16b] ** 0表示network_PID
// reserved        [3b]
// program_map_PID [13b] **
// --------------
// CRC_32          [32b] ****
// ---------------------------------------------------------------
type Pat struct {
	TransportStreamId uint16
	Version           uint8
	HasNitEntry       bool
	NitPid            uint16 // 无network_PID表项时为默认的 mpegts.PidNit
	Entries           []PatEntry
}

type PatEntry struct {
	ServiceId uint16
	PmtPid    uint16
}

func ParsePat(t psi.BinaryTable) (pat Pat, err error) {
	if t.TableId() != mpegts.TidPat {
		return pat, ErrTableId
	}
	pat.TransportStreamId = t.TableIdExt()
	pat.Version = t.Version()
	pat.NitPid = mpegts.PidNit
	for _, sec := range t.Sections {
		body := sec.Body()
		for len(body) >= 4 {
			pn := bele.BeUint16(body)
			pid := bele.BeUint16(body[2:]) & 0x1fff
			if pn == 0 {
				pat.HasNitEntry = true
				pat.NitPid = pid
			} else {
				pat.Entries = append(pat.Entries, PatEntry{ServiceId: pn, PmtPid: pid})
			}
			body = body[4:]
		}
	}
	return pat, nil
}

// Pack 打包。表项超出单个section容量时拆分成多个section
func (pat Pat) Pack() []psi.Section {
	var records [][]byte
	if pat.HasNitEntry {
		records = append(records, packPatEntry(0, pat.NitPid))
	}
	for _, e := range pat.Entries {
		records = append(records, packPatEntry(e.ServiceId, e.PmtPid))
	}

	var bodies [][]byte
	body := make([]byte, 0, maxSectionBody)
	for _, r := range records {
		if len(body)+len(r) > maxSectionBody {
			bodies = append(bodies, body)
			body = make([]byte, 0, maxSectionBody)
		}
		body = append(body, r...)
	}
	bodies = append(bodies, body)

	var secs []psi.Section
	lsn := uint8(len(bodies) - 1)
	for i, b := range bodies {
		secs = append(secs, psi.PackSection(mpegts.TidPat, pat.TransportStreamId, pat.Version, uint8(i), lsn, false, b))
	}
	return secs
}

// Find 查找service对应的PMT PID
func (pat Pat) Find(serviceId uint16) (pmtPid uint16, ok bool) {
	for _, e := range pat.Entries {
		if e.ServiceId == serviceId {
			return e.PmtPid, true
		}
	}
	return 0, false
}

// Remove 移除service表项，其余表项保持原顺序
func (pat *Pat) Remove(serviceId uint16) {
	var keep []PatEntry
	for _, e := range pat.Entries {
		if e.ServiceId != serviceId {
			keep = append(keep, e)
		}
	}
	pat.Entries = keep
}

func packPatEntry(pn uint16, pid uint16) []byte {
	b := make([]byte, 4)
	bele.BePutUint16(b, pn)
	bele.BePutUint16(b[2:], 0xe000|pid)
	return b
}
