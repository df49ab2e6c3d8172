// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/tsremove
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"

	ts "github.com/asticode/go-astits"
	"github.com/q191201771/naza/pkg/nazalog"
)

// 小工具，列出一个ts文件里的service、PMT和SDT服务名。
// 摘除service前后各跑一次，肉眼对比结果
//
func main() {
	filename := parseFlag()

	fp, err := os.Open(filename)
	if err != nil {
		nazalog.Errorf("open file failed. file=%s, err=%+v", filename, err)
		os.Exit(1)
	}
	defer fp.Close()

	var (
		pat  *ts.PATData
		pmts = make(map[uint16]*ts.PMTData)
		sdt  *ts.SDTData
	)

	demuxer := ts.NewDemuxer(context.Background(), bufio.NewReader(fp))
	for {
		d, err := demuxer.NextData()
		if err != nil {
			if err == ts.ErrNoMorePackets {
				break
			}
			nazalog.Warnf("demux failed. err=%+v", err)
			break
		}
		if d.PAT != nil {
			pat = d.PAT
		}
		if d.PMT != nil {
			pmts[d.PMT.ProgramNumber] = d.PMT
		}
		if d.SDT != nil {
			sdt = d.SDT
		}
		if pat != nil && sdt != nil && len(pmts) >= len(pat.Programs) {
			break
		}
	}

	if pat == nil {
		nazalog.Error("no PAT found.")
		os.Exit(1)
	}

	fmt.Printf("file: %s\n", filename)
	for _, p := range pat.Programs {
		fmt.Printf("service 0x%04x, PMT PID 0x%04x", p.ProgramNumber, p.ProgramMapID)
		if name := serviceName(sdt, p.ProgramNumber); name != "" {
			fmt.Printf(", name %q", name)
		}
		fmt.Println()
		if pmt, ok := pmts[p.ProgramNumber]; ok {
			fmt.Printf("  PCR PID 0x%04x\n", pmt.PCRPID)
			for _, es := range pmt.ElementaryStreams {
				fmt.Printf("  ES PID 0x%04x, stream type 0x%02x\n", es.ElementaryPID, es.StreamType)
			}
		}
	}
	if sdt != nil {
		for _, s := range sdt.Services {
			if inPat(pat, s.ServiceID) {
				continue
			}
			fmt.Printf("service 0x%04x only in SDT, name %q\n", s.ServiceID, serviceName(sdt, s.ServiceID))
		}
	}
}

func inPat(pat *ts.PATData, serviceId uint16) bool {
	for _, p := range pat.Programs {
		if p.ProgramNumber == serviceId {
			return true
		}
	}
	return false
}

func serviceName(sdt *ts.SDTData, serviceId uint16) string {
	if sdt == nil {
		return ""
	}
	for _, s := range sdt.Services {
		if s.ServiceID != serviceId {
			continue
		}
		for _, d := range s.Descriptors {
			if d.Service != nil {
				return string(d.Service.Name)
			}
		}
	}
	return ""
}

func parseFlag() string {
	i := flag.String("i", "", "specify ts file")
	flag.Parse()
	if *i == "" {
		flag.Usage()
		_, _ = fmt.Fprintf(os.Stderr, `Example:
  %s -i in.ts
`, os.Args[0])
		os.Exit(1)
	}
	return *i
}
