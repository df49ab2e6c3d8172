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
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/haivision/srtgo"
	"github.com/q191201771/naza/pkg/bininfo"
	"github.com/q191201771/naza/pkg/nazalog"

	"github.com/q191201771/tsremove/pkg/mpegts"
	"github.com/q191201771/tsremove/pkg/svremove"
)

func main() {
	opt, in, out := parseFlag()

	remover, err := svremove.NewRemover(opt)
	if err != nil {
		nazalog.Errorf("create remover failed. err=%+v", err)
		os.Exit(1)
	}

	reader, err := openInput(in)
	if err != nil {
		nazalog.Errorf("open input failed. in=%s, err=%+v", in, err)
		os.Exit(1)
	}
	defer reader.Close()

	writer, err := openOutput(out)
	if err != nil {
		nazalog.Errorf("open output failed. out=%s, err=%+v", out, err)
		os.Exit(1)
	}
	defer writer.Close()

	var nIn, nOut, nDrop uint64
	pr := mpegts.NewPacketReader(reader)
	b := make([]byte, mpegts.PacketSize)
	for {
		err = pr.ReadPacket(b)
		if err == io.EOF {
			break
		}
		if err != nil {
			nazalog.Warnf("read packet failed, stop. err=%+v", err)
			break
		}
		nIn++

		switch remover.ProcessPacket(b) {
		case svremove.StatusPass, svremove.StatusNull:
			if _, err = writer.Write(b); err != nil {
				nazalog.Errorf("write packet failed. err=%+v", err)
				os.Exit(1)
			}
			nOut++
		case svremove.StatusDrop:
			nDrop++
		case svremove.StatusEnd:
			nazalog.Errorf("fatal error in stream, stop. in=%d", nIn)
			os.Exit(1)
		}
	}

	nazalog.Infof("done. in=%d, out=%d, dropped=%d", nIn, nOut, nDrop)
}

func openInput(in string) (io.ReadCloser, error) {
	if in == "-" {
		return os.Stdin, nil
	}
	if strings.HasPrefix(in, "srt://") {
		return openSrtInput(strings.TrimPrefix(in, "srt://"))
	}
	return os.Open(in)
}

// openSrtInput SRT监听模式，等一个publisher连上来
func openSrtInput(hostport string) (io.ReadCloser, error) {
	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		return nil, err
	}
	if host == "" {
		host = "0.0.0.0"
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return nil, err
	}

	options := make(map[string]string)
	options["transtype"] = "live"
	sck := srtgo.NewSrtSocket(host, uint16(port), options)
	if err = sck.Listen(1); err != nil {
		return nil, err
	}
	nazalog.Infof("srt listening. addr=%s:%d", host, port)
	conn, addr, err := sck.Accept()
	if err != nil {
		sck.Close()
		return nil, err
	}
	nazalog.Infof("srt accepted. remote=%s", addr.String())
	return &srtConn{listener: sck, conn: conn}, nil
}

type srtConn struct {
	listener *srtgo.SrtSocket
	conn     *srtgo.SrtSocket
}

func (sc *srtConn) Read(b []byte) (int, error) {
	return sc.conn.Read(b)
}

func (sc *srtConn) Close() error {
	sc.conn.Close()
	sc.listener.Close()
	return nil
}

func openOutput(out string) (io.WriteCloser, error) {
	if out == "-" {
		return os.Stdout, nil
	}
	var fw mpegts.FileWriter
	if err := fw.Create(out); err != nil {
		return nil, err
	}
	return &fw, nil
}

func parseFlag() (opt svremove.Option, in string, out string) {
	v := flag.Bool("v", false, "show bin info")
	i := flag.String("i", "", "specify input, ts file or '-' for stdin or srt://host:port")
	o := flag.String("o", "", "specify output, ts file or '-' for stdout")
	service := flag.String("service", "", "specify service to remove, service id (decimal or hex) or service name in SDT")
	ignoreAbsent := flag.Bool("ignore-absent", false, "ignore service if not present in the transport stream")
	ignoreBat := flag.Bool("ignore-bat", false, "do not modify the BAT")
	ignoreNit := flag.Bool("ignore-nit", false, "do not modify the NIT")
	stuffing := flag.Bool("stuffing", false, "replace excluded packets with null packets instead of removing them, keeps the bitrate")
	flag.Parse()

	if *v {
		_, _ = fmt.Fprint(os.Stderr, bininfo.StringifyMultiLine())
		os.Exit(0)
	}
	if *i == "" || *o == "" || *service == "" {
		flag.Usage()
		_, _ = fmt.Fprintf(os.Stderr, `Example:
  %s -i in.ts -o out.ts -service 0x0020
  %s -i in.ts -o out.ts -service "Channel 5" -ignore-absent
  %s -i srt://:6001 -o - -service 257 -stuffing
`, os.Args[0], os.Args[0], os.Args[0])
		os.Exit(1)
	}

	opt = svremove.Option{
		Service:      *service,
		IgnoreAbsent: *ignoreAbsent,
		IgnoreBat:    *ignoreBat,
		IgnoreNit:    *ignoreNit,
		Stuffing:     *stuffing,
	}
	return opt, *i, *o
}
