// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/tsremove
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package si

import (
	"strings"
	"unicode"

	"github.com/q191201771/naza/pkg/bele"
)

// Descriptor 通用descriptor。只展开tag和payload，
// 不认识的descriptor原样携带，不解析
type Descriptor struct {
	Tag     uint8
	Payload []byte
}

// ParseDescriptors 解析descriptor循环
//
// 尾部残缺的descriptor直接丢弃，不报错
//
func ParseDescriptors(b []byte) (ds []Descriptor) {
	for len(b) >= 2 {
		length := int(b[1])
		if 2+length > len(b) {
			break
		}
		ds = append(ds, Descriptor{
			Tag:     b[0],
			Payload: b[2 : 2+length],
		})
		b = b[2+length:]
	}
	return
}

// PackDescriptors 打包descriptor循环
func PackDescriptors(ds []Descriptor) []byte {
	b := make([]byte, 0, DescriptorsLength(ds))
	for _, d := range ds {
		b = append(b, d.Tag, uint8(len(d.Payload)))
		b = append(b, d.Payload...)
	}
	return b
}

func DescriptorsLength(ds []Descriptor) (length int) {
	for _, d := range ds {
		length += 2 + len(d.Payload)
	}
	return
}

// ---------------------------------------------------------------
// CA_descriptor
// <iso13818-1.pdf> <2.6.16>
// CA_system_ID [16b] **
// reserved     [3b]
// CA_PID       [13b] **
// private_data_byte [..]
// ---------------------------------------------------------------
type CaDescriptor struct {
	CaSystemId uint16
	CaPid      uint16
}

func ParseCaDescriptor(d Descriptor) (ca CaDescriptor, err error) {
	if d.Tag != DescriptorTagCa {
		return ca, ErrDescriptor
	}
	if len(d.Payload) < 4 {
		return ca, ErrDescriptor
	}
	ca.CaSystemId = bele.BeUint16(d.Payload)
	ca.CaPid = bele.BeUint16(d.Payload[2:]) & 0x1fff
	return ca, nil
}

// ---------------------------------------------------------------
// service_descriptor
// <en_300468.pdf> <6.2.33>
// service_type          [8b] *
// service_provider_name_length [8b] *
// char                  [..]
// service_name_length   [8b] *
// char                  [..]
// ---------------------------------------------------------------
type ServiceDescriptor struct {
	Type     uint8
	Provider string
	Name     string
}

func ParseServiceDescriptor(d Descriptor) (sd ServiceDescriptor, err error) {
	if d.Tag != DescriptorTagService {
		return sd, ErrDescriptor
	}
	b := d.Payload
	if len(b) < 2 {
		return sd, ErrDescriptor
	}
	sd.Type = b[0]
	pl := int(b[1])
	if 2+pl+1 > len(b) {
		return sd, ErrDescriptor
	}
	sd.Provider = decodeDvbString(b[2 : 2+pl])
	nl := int(b[2+pl])
	if 3+pl+nl > len(b) {
		return sd, ErrDescriptor
	}
	sd.Name = decodeDvbString(b[3+pl : 3+pl+nl])
	return sd, nil
}

// PackServiceDescriptor 测试和工具用，按latin编码打包
func PackServiceDescriptor(sd ServiceDescriptor) Descriptor {
	b := make([]byte, 0, 2+len(sd.Provider)+1+len(sd.Name))
	b = append(b, sd.Type, uint8(len(sd.Provider)))
	b = append(b, sd.Provider...)
	b = append(b, uint8(len(sd.Name)))
	b = append(b, sd.Name...)
	return Descriptor{Tag: DescriptorTagService, Payload: b}
}

// decodeDvbString DVB SI字符串解码
//
// <en_300468.pdf> <Annex A>
// 首字节小于0x20时是字符集选择，0x10后跟2字节编码表号。
// 只做工具需要的程度：跳过字符集选择，滤掉0x80~0x9f区间的控制符
//
func decodeDvbString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	if b[0] < 0x20 {
		if b[0] == 0x10 {
			if len(b) < 3 {
				return ""
			}
			b = b[3:]
		} else {
			b = b[1:]
		}
	}
	var sb strings.Builder
	for _, c := range b {
		if c >= 0x80 && c <= 0x9f {
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// SimilarServiceName 服务名相等判断。忽略大小写，忽略空白
func SimilarServiceName(a, b string) bool {
	return normalizeServiceName(a) == normalizeServiceName(b)
}

func normalizeServiceName(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		sb.WriteRune(unicode.ToLower(r))
	}
	return sb.String()
}
