// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/tsremove
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package svremove

// PidSet 8192个PID的位图
type PidSet [8192 / 64]uint64

func (ps *PidSet) Set(pid uint16) {
	ps[pid>>6] |= 1 << (pid & 63)
}

func (ps *PidSet) Has(pid uint16) bool {
	return ps[pid>>6]&(1<<(pid&63)) != 0
}

func (ps *PidSet) Reset() {
	for i := range ps {
		ps[i] = 0
	}
}

// Count 包含的PID个数，日志用
func (ps *PidSet) Count() (n int) {
	for _, v := range ps {
		for ; v != 0; v &= v - 1 {
			n++
		}
	}
	return
}
