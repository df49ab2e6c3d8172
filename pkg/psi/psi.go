// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/tsremove
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

// Package psi section层。PSI/SI section编解码，section demux，循环打包器
//
// 只处理长格式section（section_syntax_indicator为1），PAT/PMT/SDT/NIT/BAT都是长格式
//
package psi

import (
	"errors"

	"github.com/q191201771/naza/pkg/nazalog"
)

var Log = nazalog.GetGlobalLogger()

var (
	ErrShortSection = errors.New("tsremove.psi: section too short")
	ErrCrc32        = errors.New("tsremove.psi: crc32 check failed")
	ErrSectionSize  = errors.New("tsremove.psi: section size exceeded")
)

const (
	// <en_300468.pdf> <5.1.2> private section最大4096字节，PSI section最大1024字节
	// demux按大的上限缓存
	maxSectionSize = 4096

	sectionHeaderSize = 8 // table_id到last_section_number
	crc32Size         = 4
)
