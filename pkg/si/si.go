// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/tsremove
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

// Package si PSI/SI表编解码。PAT、PMT、SDT、NIT/BAT以及本工具需要编辑的descriptor
//
package si

import (
	"errors"

	"github.com/q191201771/naza/pkg/nazalog"
)

var Log = nazalog.GetGlobalLogger()

var (
	ErrShortBody  = errors.New("tsremove.si: table body too short")
	ErrTableId    = errors.New("tsremove.si: unexpected table id")
	ErrDescriptor = errors.New("tsremove.si: invalid descriptor")
)

// descriptor tag
// <en_300468.pdf> <Table 12> 以及 <iso13818-1.pdf> <Table 2-45>
const (
	DescriptorTagCa                   uint8 = 0x09
	DescriptorTagServiceList          uint8 = 0x41
	DescriptorTagService              uint8 = 0x48
	DescriptorTagPrivateDataSpecifier uint8 = 0x5f
	DescriptorTagLogicalChannel       uint8 = 0x83 // EICTA私有
)

// EICTA/E-Book的private_data_specifier，logical_channel_number_descriptor挂在它下面
const PrivateDataSpecifierEicta uint32 = 0x00000028

// 一个section中section_length的上限（SDT/NIT/BAT以及PSI取较小的1021）
const maxSectionLength = 1021

// 对应的最大section body：减去长头5字节和CRC_32
const maxSectionBody = maxSectionLength - 5 - 4
