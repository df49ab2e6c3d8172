// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/tsremove
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegts

// CRC-32/MPEG-2，多项式0x04C11DB7，不反转，初值0xFFFFFFFF
// PSI/SI section末尾的CRC_32字段用的是这个，不是IEEE
var crc32Table [256]uint32

func init() {
	for i := 0; i < 256; i++ {
		crc := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if crc&0x80000000 != 0 {
				crc = (crc << 1) ^ 0x04c11db7
			} else {
				crc <<= 1
			}
		}
		crc32Table[i] = crc
	}
}

func CalcCrc32(b []byte) uint32 {
	crc := uint32(0xffffffff)
	for _, v := range b {
		crc = (crc << 8) ^ crc32Table[uint8(crc>>24)^v]
	}
	return crc
}

// CheckCrc32 校验末尾带CRC_32字段的section数据
func CheckCrc32(b []byte) bool {
	if len(b) < 4 {
		return false
	}
	return CalcCrc32(b) == 0
}
