package qbin

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/dthelegend/diss/pkg/qubo"
)

// Write encodes p to w.
func Write(w io.Writer, p *qubo.Problem) error {
	n := p.Size()
	count := triangle(uint64(n))
	hdr := Header{
		Major:         CurrentMajor,
		Minor:         CurrentMinor,
		Size:          uint32(n),
		PayloadOffset: HeaderSize,
		ValueCount:    uint32(count),
		FileSize:      HeaderSize + count*valueBytes,
	}
	copy(hdr.Magic[:], Magic)

	bw := bufio.NewWriter(w)
	var raw [HeaderSize]byte
	encodeHeader(raw[:], hdr)
	if _, err := bw.Write(raw[:]); err != nil {
		return err
	}
	var buf [valueBytes]byte
	for i := range n {
		for j := i; j < n; j++ {
			binary.LittleEndian.PutUint32(buf[:], uint32(int32(p.At(i, j))))
			if _, err := bw.Write(buf[:]); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// WriteFile writes p to path, replacing any existing file.
func WriteFile(path string, p *qubo.Problem) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return Write(f, p)
}
