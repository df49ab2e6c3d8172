// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/tsremove
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package svremove

import (
	"github.com/q191201771/naza/pkg/bele"
)

// CompactFixedRecords 压缩固定步长的记录表
//
// service_list_descriptor（3字节一条）和logical_channel_number_descriptor
// （4字节一条）的记录都以16位service_id开头。等于目标id的记录被去掉，
// 其余保序前移。末尾不足一条记录的残余字节不参与扫描，原样保留
//
// 返回新的buffer，不和payload共享内存
//
func CompactFixedRecords(payload []byte, stride int, serviceId uint16) []byte {
	out := make([]byte, 0, len(payload))
	i := 0
	for ; i+stride <= len(payload); i += stride {
		if bele.BeUint16(payload[i:]) != serviceId {
			out = append(out, payload[i:i+stride]...)
		}
	}
	return append(out, payload[i:]...)
}
