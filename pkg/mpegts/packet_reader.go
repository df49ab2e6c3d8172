// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/tsremove
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegts

import (
	"bufio"
	"io"
)

// PacketReader 从io.Reader中按188字节读取TS packet
//
// 丢失同步时逐字节扫描直到重新对齐sync_byte
//
type PacketReader struct {
	r *bufio.Reader
}

func NewPacketReader(r io.Reader) *PacketReader {
	return &PacketReader{
		r: bufio.NewReaderSize(r, 64*PacketSize),
	}
}

// ReadPacket 读取一个packet到b的前188字节
//
// @return: 文件读取完毕时返回io.EOF
//
func (pr *PacketReader) ReadPacket(b []byte) error {
	for {
		if _, err := io.ReadFull(pr.r, b[:1]); err != nil {
			return err
		}
		if b[0] == syncByte {
			break
		}
		Log.Warnf("packet reader out of sync, skip byte. b=0x%02x, err=%+v", b[0], ErrSyncByte)
	}
	if _, err := io.ReadFull(pr.r, b[1:PacketSize]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return ErrShortBuffer
		}
		return err
	}
	return nil
}
