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
// Service description section
// <en_300468.pdf> <5.2.3>
// 长头之后：
// original_network_id [16b] **
// reserved_future_use [8b]  *
// -----loop-----
// service_id                 [16b] **
// reserved_future_use        [6b]
// EIT_schedule_flag          [1b]
// EIT_present_following_flag [1b]  *
// running_status             [3b]
// free_CA_mode               [1b]
// descriptors_loop_length    [12b] **
// descriptor                 [..]
// --------------
// CRC_32                     [32b] ****
// ---------------------------------------------------------------
type Sdt struct {
	TableId           uint8 // TidSdtAct 或 TidSdtOth
	TransportStreamId uint16
	OriginalNetworkId uint16
	Version           uint8
	Services          []SdtService
}

type SdtService struct {
	ServiceId           uint16
	EitSchedule         uint8
	EitPresentFollowing uint8
	RunningStatus       uint8
	FreeCaMode          uint8
	Descriptors         []Descriptor
}

func ParseSdt(t psi.BinaryTable) (sdt Sdt, err error) {
	if t.TableId() != mpegts.TidSdtAct && t.TableId() != mpegts.TidSdtOth {
		return sdt, ErrTableId
	}
	sdt.TableId = t.TableId()
	sdt.TransportStreamId = t.TableIdExt()
	sdt.Version = t.Version()
	for i, sec := range t.Sections {
		body := sec.Body()
		if len(body) < 3 {
			return sdt, ErrShortBody
		}
		if i == 0 {
			sdt.OriginalNetworkId = bele.BeUint16(body)
		}
		body = body[3:]

		for len(body) >= 5 {
			var s SdtService
			s.ServiceId = bele.BeUint16(body)
			s.EitSchedule = body[2] >> 1 & 0x1
			s.EitPresentFollowing = body[2] & 0x1
			s.RunningStatus = body[3] >> 5
			s.FreeCaMode = body[3] >> 4 & 0x1
			dll := int(bele.BeUint16(body[3:]) & 0x0fff)
			if 5+dll > len(body) {
				break
			}
			s.Descriptors = ParseDescriptors(body[5 : 5+dll])
			sdt.Services = append(sdt.Services, s)
			body = body[5+dll:]
		}
	}
	return sdt, nil
}

// Pack 打包。service表项超出单个section容量时拆分
func (sdt Sdt) Pack() []psi.Section {
	var records [][]byte
	for _, s := range sdt.Services {
		records = append(records, packSdtService(s))
	}

	head := make([]byte, 3)
	bele.BePutUint16(head, sdt.OriginalNetworkId)
	head[2] = 0xff

	limit := maxSectionBody - len(head)
	var bodies [][]byte
	body := make([]byte, 0, limit)
	for _, r := range records {
		if len(body)+len(r) > limit {
			bodies = append(bodies, body)
			body = make([]byte, 0, limit)
		}
		body = append(body, r...)
	}
	bodies = append(bodies, body)

	var secs []psi.Section
	lsn := uint8(len(bodies) - 1)
	for i, b := range bodies {
		full := append(append([]byte{}, head...), b...)
		secs = append(secs, psi.PackSection(sdt.TableId, sdt.TransportStreamId, sdt.Version, uint8(i), lsn, true, full))
	}
	return secs
}

// FindByName 按服务名查找。忽略大小写和空白，见 SimilarServiceName
func (sdt Sdt) FindByName(name string) (serviceId uint16, ok bool) {
	for _, s := range sdt.Services {
		for _, d := range s.Descriptors {
			if d.Tag != DescriptorTagService {
				continue
			}
			sd, err := ParseServiceDescriptor(d)
			if err != nil {
				continue
			}
			if SimilarServiceName(sd.Name, name) {
				return s.ServiceId, true
			}
		}
	}
	return 0, false
}

// Find service是否存在
func (sdt Sdt) Find(serviceId uint16) bool {
	for _, s := range sdt.Services {
		if s.ServiceId == serviceId {
			return true
		}
	}
	return false
}

// Remove 移除service表项，其余表项保持原顺序
func (sdt *Sdt) Remove(serviceId uint16) {
	var keep []SdtService
	for _, s := range sdt.Services {
		if s.ServiceId != serviceId {
			keep = append(keep, s)
		}
	}
	sdt.Services = keep
}

func packSdtService(s SdtService) []byte {
	ds := PackDescriptors(s.Descriptors)
	b := make([]byte, 5, 5+len(ds))
	bele.BePutUint16(b, s.ServiceId)
	b[2] = 0xfc | s.EitSchedule<<1 | s.EitPresentFollowing
	bele.BePutUint16(b[3:], uint16(s.RunningStatus)<<13|uint16(s.FreeCaMode)<<12|uint16(len(ds)))
	return append(b, ds...)
}
