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
	"os"
)

// FileWriter 带缓冲的ts文件输出
type FileWriter struct {
	fp *os.File
	w  *bufio.Writer
}

func (fw *FileWriter) Create(filename string) (err error) {
	fw.fp, err = os.Create(filename)
	if err != nil {
		return
	}
	fw.w = bufio.NewWriterSize(fw.fp, 64*PacketSize)
	return
}

func (fw *FileWriter) Write(b []byte) (int, error) {
	if fw.fp == nil {
		return 0, ErrNotOpened
	}
	return fw.w.Write(b)
}

// Close 刷掉缓冲并关闭文件
func (fw *FileWriter) Close() error {
	if fw.fp == nil {
		return ErrNotOpened
	}
	if err := fw.w.Flush(); err != nil {
		_ = fw.fp.Close()
		return err
	}
	return fw.fp.Close()
}

func (fw *FileWriter) Name() string {
	if fw.fp == nil {
		return ""
	}
	return fw.fp.Name()
}
