// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/tsremove
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/q191201771/naza/pkg/nazalog"

	"github.com/q191201771/tsremove/pkg/mpegts"
)

// 比较两个TS文件，按PID统计packet数量的差异。
// 用来核对摘除service前后的流：哪些PID被整个去掉了，哪些PID数量没变

func countPids(filename string) (map[uint16]int, int, error) {
	fp, err := os.Open(filename)
	if err != nil {
		return nil, 0, err
	}
	defer fp.Close()

	pids := make(map[uint16]int)
	total := 0
	r := mpegts.NewPacketReader(fp)
	b := make([]byte, mpegts.PacketSize)
	for {
		if err = r.ReadPacket(b); err != nil {
			if err == io.EOF {
				return pids, total, nil
			}
			return nil, 0, err
		}
		h := mpegts.ParseTsPacketHeader(b)
		pids[h.Pid]++
		total++
	}
}

func main() {
	var fileA, fileB string
	flag.StringVar(&fileA, "a", "", "ts file")
	flag.StringVar(&fileB, "b", "", "ts file")
	flag.Parse()
	if fileA == "" || fileB == "" {
		flag.Usage()
		os.Exit(1)
	}

	pidsA, totalA, err := countPids(fileA)
	nazalog.Assert(nil, err)
	pidsB, totalB, err := countPids(fileB)
	nazalog.Assert(nil, err)

	fmt.Printf("%s: %d packets, %d pids\n", fileA, totalA, len(pidsA))
	fmt.Printf("%s: %d packets, %d pids\n", fileB, totalB, len(pidsB))

	for pid := uint16(0); pid < 0x2000; pid++ {
		na, oka := pidsA[pid]
		nb, okb := pidsB[pid]
		switch {
		case oka && !okb:
			fmt.Printf("pid 0x%04x: only in %s, %d packets\n", pid, fileA, na)
		case !oka && okb:
			fmt.Printf("pid 0x%04x: only in %s, %d packets\n", pid, fileB, nb)
		case oka && okb && na != nb:
			fmt.Printf("pid 0x%04x: %d vs %d packets\n", pid, na, nb)
		}
	}
}
