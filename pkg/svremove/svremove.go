// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/tsremove
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

// Package svremove 从TS流中摘除一个service
//
// 改写PAT、SDT、NIT/BAT，参考PMT判断哪些PID只被目标service引用可以丢弃，
// 哪些被其他service共享需要保留。逐packet输入，逐packet给出处理结论
//
package svremove

import (
	"errors"

	"github.com/q191201771/naza/pkg/nazalog"
)

var Log = nazalog.GetGlobalLogger()

var (
	ErrEmptyService = errors.New("tsremove.svremove: service not specified")
)

// Option Remover的配置
type Option struct {
	// 要摘除的service。十进制或0x前缀十六进制的service_id，
	// 或SDT中的服务名（忽略大小写和空白）
	Service string

	IgnoreAbsent bool // 流中不存在目标service时只告警不报错
	IgnoreBat    bool // 不改写BAT
	IgnoreNit    bool // 不改写NIT
	Stuffing     bool // 被摘除的packet用null packet占位，保持码率，默认直接删除
}

// Status ProcessPacket 对单个packet的处理结论
type Status int

const (
	StatusPass Status = iota // 原样或替换后输出，packet内容以调用后的buffer为准
	StatusNull               // buffer已被置为null packet，输出它以保持码率
	StatusDrop               // 丢弃，不输出
	StatusEnd                // 发生致命错误，终止整个流
)
