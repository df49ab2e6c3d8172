// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/tsremove
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package svremove

import (
	"strconv"
	"strings"

	"github.com/q191201771/tsremove/pkg/si"
)

// ServiceTarget 要摘除的service
//
// 配置串能按整数解析（十进制或0x十六进制）则是service_id，
// 否则是服务名，等看到SDT再解析出id。id一旦确定不再变化
//
type ServiceTarget struct {
	name string
	id   uint16

	hasId     bool
	hasPmtPid bool
	pmtPid    uint16
}

func NewServiceTarget(desc string) (st ServiceTarget) {
	desc = strings.TrimSpace(desc)
	if v, err := strconv.ParseUint(desc, 0, 16); err == nil {
		st.id = uint16(v)
		st.hasId = true
		return
	}
	st.name = desc
	return
}

func (st *ServiceTarget) HasId() bool {
	return st.hasId
}

func (st *ServiceTarget) Id() uint16 {
	return st.id
}

func (st *ServiceTarget) Name() string {
	return st.name
}

// SetId 名字解析成功后回填id
func (st *ServiceTarget) SetId(id uint16) {
	st.id = id
	st.hasId = true
}

func (st *ServiceTarget) HasPmtPid() bool {
	return st.hasPmtPid
}

func (st *ServiceTarget) PmtPid() uint16 {
	return st.pmtPid
}

func (st *ServiceTarget) SetPmtPid(pid uint16) {
	st.pmtPid = pid
	st.hasPmtPid = true
}

// MatchName 名字是否匹配
func (st *ServiceTarget) MatchName(name string) bool {
	return si.SimilarServiceName(st.name, name)
}
