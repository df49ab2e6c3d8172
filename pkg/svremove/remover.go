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

	"github.com/q191201771/tsremove/pkg/mpegts"
	"github.com/q191201771/tsremove/pkg/psi"
	"github.com/q191201771/tsremove/pkg/si"
)

// Remover 摘除引擎。单协程使用，逐packet调 ProcessPacket
//
// 状态机：
//   初始                       -> 看到SDT解析出id（或id本来就已知）
//   id已知                     -> 看到PAT，登记目标的PMT PID和其他service的PMT PID
//   目标service的PMT处理完毕    -> ready，开始过滤
// 旁路：
//   transparent 目标不存在且配置了容忍，之后所有packet原样放行
//   abort       致命错误，之后终止整个流
// ready、transparent、abort一旦置位，本轮运行内不会清除
//
type Remover struct {
	opt        Option
	target     ServiceTarget
	dropStatus Status

	abort       bool
	ready       bool
	transparent bool

	dropPids PidSet // 待丢弃的PID
	refPids  PidSet // 其他service还引用着的PID，优先级高于dropPids

	demux      *psi.SectionDemux
	pzerPat    *psi.CyclingPacketizer
	pzerSdtBat *psi.CyclingPacketizer
	pzerNit    *psi.CyclingPacketizer
}

func NewRemover(opt Option) (*Remover, error) {
	if opt.Service == "" {
		return nil, ErrEmptyService
	}

	r := &Remover{
		opt:        opt,
		target:     NewServiceTarget(opt.Service),
		dropStatus: StatusDrop,
		pzerPat:    psi.NewCyclingPacketizer(mpegts.PidPat),
		pzerSdtBat: psi.NewCyclingPacketizer(mpegts.PidSdt),
		pzerNit:    psi.NewCyclingPacketizer(mpegts.PidNit),
	}
	if opt.Stuffing {
		r.dropStatus = StatusNull
	}
	r.demux = psi.NewSectionDemux(r.onTable)

	// SDT始终监听。id已知时才开始等PAT（以及NIT），
	// 按名字指定时要等SDT解析出id，之后才知道怎么改PAT
	r.demux.AddPid(mpegts.PidSdt)
	if r.target.HasId() {
		r.demux.AddPid(mpegts.PidPat)
		if !opt.IgnoreNit {
			r.demux.AddPid(mpegts.PidNit)
		}
	}

	// 标准PID预置为被引用，保证永远不会被误删
	for _, pid := range []uint16{
		mpegts.PidPat, mpegts.PidCat, mpegts.PidTsdt, mpegts.PidNull,
		mpegts.PidNit, mpegts.PidSdt, mpegts.PidEit, mpegts.PidRst,
		mpegts.PidTdt, mpegts.PidNetSync, mpegts.PidRnt, mpegts.PidInbSign,
		mpegts.PidMeasure, mpegts.PidDit, mpegts.PidSit,
	} {
		r.refPids.Set(pid)
	}

	return r, nil
}

// ProcessPacket 处理一个188字节packet
//
// b可能被原地改写：
//   - 命中packetizer的PID时，整个packet被替换为改写后的表数据
//   - 结论为 StatusNull 时，整个packet被替换为null packet
//
func (r *Remover) ProcessPacket(b []byte) Status {
	// transparent模式全部放行
	if r.transparent {
		return StatusPass
	}

	h := mpegts.ParseTsPacketHeader(b)

	r.demux.FeedPacket(b)

	// section处理中出了致命错误，到此为止
	if r.abort {
		return StatusEnd
	}

	// 目标service的PMT还没分析完，此时无法判定任何packet的归属
	if !r.ready {
		return r.drop(b)
	}

	// 被其他service引用的PID永远不丢
	if r.dropPids.Has(h.Pid) && !r.refPids.Has(h.Pid) {
		return r.drop(b)
	}

	// 表所在PID的packet替换为改写后的输出
	switch {
	case h.Pid == r.pzerPat.Pid():
		r.pzerPat.NextPacket(b)
	case h.Pid == r.pzerSdtBat.Pid():
		r.pzerSdtBat.NextPacket(b)
	case !r.opt.IgnoreNit && h.Pid == r.pzerNit.Pid():
		r.pzerNit.NextPacket(b)
	}
	return StatusPass
}

func (r *Remover) drop(b []byte) Status {
	if r.dropStatus == StatusNull {
		mpegts.WriteNullPacket(b)
	}
	return r.dropStatus
}

// ---------------------------------------------------------------------------

func (r *Remover) onTable(t psi.BinaryTable) {
	Log.Debugf("got table. tid=0x%02x, ext=0x%04x, version=%d, pid=%d(0x%04x)",
		t.TableId(), t.TableIdExt(), t.Version(), t.SourcePid, t.SourcePid)

	switch t.TableId() {
	case mpegts.TidPat:
		// 挂错PID的PAT不认
		if t.SourcePid != mpegts.PidPat {
			return
		}
		pat, err := si.ParsePat(t)
		if err != nil {
			Log.Debugf("invalid pat, skip. err=%+v", err)
			return
		}
		r.processPat(&pat)

	case mpegts.TidPmt:
		pmt, err := si.ParsePmt(t)
		if err != nil {
			Log.Debugf("invalid pmt, skip. err=%+v", err)
			return
		}
		r.processPmt(&pmt)

	case mpegts.TidSdtAct:
		if t.SourcePid != mpegts.PidSdt {
			return
		}
		sdt, err := si.ParseSdt(t)
		if err != nil {
			Log.Debugf("invalid sdt, skip. err=%+v", err)
			return
		}
		r.processSdt(&sdt)

	case mpegts.TidSdtOth:
		if t.SourcePid != mpegts.PidSdt {
			return
		}
		// SDT Other描述的是别的流上的service，原样转发
		r.pzerSdtBat.RemoveSections(mpegts.TidSdtOth, t.TableIdExt())
		r.pzerSdtBat.AddTable(t)

	case mpegts.TidBat:
		if t.SourcePid != mpegts.PidSdt {
			return
		}
		if r.processBat(t) {
			// 按名字指定且SDT还没出现，暂时不知道怎么改BAT。
			// 重置该PID的demux状态，这张BAT下个周期会重新投递
			r.demux.ResetPid(t.SourcePid)
		}

	case mpegts.TidNitAct:
		if t.SourcePid != r.pzerNit.Pid() {
			return
		}
		if r.processNitAct(t) {
			r.demux.ResetPid(t.SourcePid)
		}

	case mpegts.TidNitOth:
		if t.SourcePid != r.pzerNit.Pid() {
			return
		}
		// NIT Other同SDT Other，原样转发
		r.pzerNit.RemoveSections(mpegts.TidNitOth, t.TableIdExt())
		r.pzerNit.AddTable(t)
	}
}

func (r *Remover) processSdt(sdt *si.Sdt) {
	if r.target.HasId() {
		// SDT表项不是必须的，查不到只提示
		if !sdt.Find(r.target.Id()) {
			Log.Infof("service %d (0x%04x) not found in SDT, ignoring it", r.target.Id(), r.target.Id())
		}
	} else {
		id, ok := sdt.FindByName(r.target.Name())
		if !ok {
			// 按名字只能在当前流的SDT里找，找不到就是出错
			if r.opt.IgnoreAbsent {
				Log.Warnf("service %q not found in SDT, ignoring it", r.target.Name())
				r.transparent = true
			} else {
				Log.Errorf("service %q not found in SDT", r.target.Name())
				r.abort = true
			}
			return
		}
		// id解析出来了，从现在开始等PAT
		r.target.SetId(id)
		r.demux.AddPid(mpegts.PidPat)
		if !r.opt.IgnoreNit {
			r.demux.AddPid(mpegts.PidNit)
		}
		Log.Infof("found service %q, service id is 0x%04x", r.target.Name(), id)
	}

	if r.target.HasId() {
		sdt.Remove(r.target.Id())
	}

	r.pzerSdtBat.RemoveSections(mpegts.TidSdtAct, sdt.TransportStreamId)
	for _, s := range sdt.Pack() {
		r.pzerSdtBat.AddSection(s)
	}
}

func (r *Remover) processPat(pat *si.Pat) {
	// 走到这里id一定已知，id未知时不会订阅PAT的PID

	// PAT里声明的NIT PID
	if !r.opt.IgnoreNit {
		if !r.demux.IsPidAdded(pat.NitPid) {
			Log.Debugf("nit pid from pat. pid=0x%04x", pat.NitPid)
			r.demux.AddPid(pat.NitPid)
		}
		r.pzerNit.SetPid(pat.NitPid)
	}

	// 所有PMT都要扫。和其他service共享的PID必须保留，
	// 只看目标自己的PMT无法知道哪些被共享了
	found := false
	for _, e := range pat.Entries {
		r.demux.AddPid(e.PmtPid)
		if e.ServiceId == r.target.Id() {
			found = true
			r.target.SetPmtPid(e.PmtPid)
			r.dropPids.Set(e.PmtPid)
			Log.Infof("found service id 0x%04x, PMT PID is 0x%04x", r.target.Id(), e.PmtPid)
		} else {
			r.refPids.Set(e.PmtPid)
		}
	}

	if found {
		pat.Remove(r.target.Id())
	} else if r.opt.IgnoreAbsent || !r.opt.IgnoreNit || !r.opt.IgnoreBat {
		// 目标不在当前流里，但NIT/BAT可能还需要改，继续跑
		Log.Infof("service id 0x%04x not found in PAT, ignoring it", r.target.Id())
		r.ready = true
	} else {
		Log.Errorf("service id 0x%04x not found in PAT", r.target.Id())
		r.abort = true
	}

	// 不管改没改，都重新下发PAT，保持版本连续
	r.pzerPat.RemoveTable(mpegts.TidPat)
	for _, s := range pat.Pack() {
		r.pzerPat.AddSection(s)
	}
}

func (r *Remover) processPmt(pmt *si.Pmt) {
	removed := pmt.ServiceId == r.target.Id()

	// 目标自己的PMT，发现的PID进dropPids；
	// 其他service的PMT，发现的PID进refPids，保护被共享的PID
	set := &r.refPids
	if removed {
		set = &r.dropPids
	}

	r.addEcmPids(pmt.Descriptors, set)
	set.Set(pmt.PcrPid)
	for _, s := range pmt.Streams {
		set.Set(s.Pid)
		r.addEcmPids(s.Descriptors, set)
	}

	// 目标service的PMT分析完，可以开始过滤了
	if removed && !r.ready {
		r.ready = true
		Log.Debugf("target pmt processed, ready. drop=%d, ref=%d", r.dropPids.Count(), r.refPids.Count())
	}
}

// addEcmPids 把descriptor循环里所有CA descriptor声明的ECM PID加进集合
func (r *Remover) addEcmPids(ds []si.Descriptor, set *PidSet) {
	for _, d := range ds {
		if d.Tag != si.DescriptorTagCa {
			continue
		}
		ca, err := si.ParseCaDescriptor(d)
		if err != nil {
			// 解不出来的CA descriptor跳过
			continue
		}
		set.Set(ca.CaPid)
	}
}

// processBat 返回true表示推迟处理（id未知）
func (r *Remover) processBat(t psi.BinaryTable) bool {
	if !r.target.HasId() {
		return true
	}
	if r.opt.IgnoreBat {
		r.pzerSdtBat.RemoveSections(mpegts.TidBat, t.TableIdExt())
		r.pzerSdtBat.AddTable(t)
		return false
	}
	bat, err := si.ParseTransportListTable(t)
	if err != nil {
		Log.Debugf("invalid bat, skip. err=%+v", err)
		return false
	}
	r.processNitBat(&bat)
	r.pzerSdtBat.RemoveSections(mpegts.TidBat, bat.IdExt)
	for _, s := range bat.Pack() {
		r.pzerSdtBat.AddSection(s)
	}
	return false
}

// processNitAct 返回true表示推迟处理（id未知）
func (r *Remover) processNitAct(t psi.BinaryTable) bool {
	if !r.target.HasId() {
		return true
	}
	if r.opt.IgnoreNit {
		r.pzerNit.RemoveSections(mpegts.TidNitAct, t.TableIdExt())
		r.pzerNit.AddTable(t)
		return false
	}
	nit, err := si.ParseTransportListTable(t)
	if err != nil {
		Log.Debugf("invalid nit, skip. err=%+v", err)
		return false
	}
	r.processNitBat(&nit)
	r.pzerNit.RemoveSections(mpegts.TidNitAct, nit.IdExt)
	for _, s := range nit.Pack() {
		r.pzerNit.AddSection(s)
	}
	return false
}

// processNitBat 编辑NIT或BAT：顶层和每个transport的descriptor循环
func (r *Remover) processNitBat(tbl *si.TransportListTable) {
	tbl.Descriptors = r.compactDescriptorList(tbl.Descriptors)
	for i := range tbl.Transports {
		tbl.Transports[i].Descriptors = r.compactDescriptorList(tbl.Transports[i].Descriptors)
	}
}

// compactDescriptorList 去掉descriptor循环里目标service的记录
//
// service_list_descriptor直接处理；
// logical_channel_number_descriptor是EICTA私有tag，只在前面出现过
// 对应private_data_specifier时才处理
//
func (r *Remover) compactDescriptorList(ds []si.Descriptor) []si.Descriptor {
	var pds uint32
	for i := range ds {
		switch ds[i].Tag {
		case si.DescriptorTagPrivateDataSpecifier:
			if len(ds[i].Payload) >= 4 {
				pds = bele.BeUint32(ds[i].Payload)
			}
		case si.DescriptorTagServiceList:
			ds[i].Payload = CompactFixedRecords(ds[i].Payload, 3, r.target.Id())
		case si.DescriptorTagLogicalChannel:
			if pds == si.PrivateDataSpecifierEicta {
				ds[i].Payload = CompactFixedRecords(ds[i].Payload, 4, r.target.Id())
			}
		}
	}
	return ds
}
