package qbin

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"

	"github.com/dthelegend/diss/pkg/qubo"
)

type File struct {
	Data    []byte
	Header  *Header
	mmapped bool
}

// Open maps a container read-only and validates its structure.
// If mmap is unavailable, it falls back to ReadAt-based loading.
// The returned file must be closed to release any mapping.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size64 := stat.Size()
	if size64 < HeaderSize || size64 > int64(int(^uint(0)>>1)) {
		return nil, ErrCorruptFile
	}
	size := int(size64)

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err == nil {
		qf, parseErr := parseFileData(data, true)
		if parseErr != nil {
			_ = unix.Munmap(data)
			return nil, parseErr
		}
		return qf, nil
	}

	data, err = readAllAt(f, size)
	if err != nil {
		return nil, err
	}
	return parseFileData(data, false)
}

// OpenReaderAt loads and validates a container from a random-access reader
// without mmap.
func OpenReaderAt(r io.ReaderAt, size int64) (*File, error) {
	if size < 0 || size > int64(int(^uint(0)>>1)) {
		return nil, ErrCorruptFile
	}
	data, err := readAllAt(r, int(size))
	if err != nil {
		return nil, err
	}
	return parseFileData(data, false)
}

func readAllAt(r io.ReaderAt, size int) ([]byte, error) {
	out := make([]byte, size)
	var off int64
	for off < int64(size) {
		n, err := r.ReadAt(out[off:], off)
		off += int64(n)
		switch {
		case off == int64(size) && (err == nil || err == io.EOF):
			return out, nil
		case err == io.EOF, err == nil && n == 0:
			return nil, fmt.Errorf("%w: read %d of %d bytes", io.ErrUnexpectedEOF, off, size)
		case err != nil:
			return nil, err
		}
	}
	return out, nil
}

func parseFileData(data []byte, mmapped bool) (*File, error) {
	hdr, ok := decodeHeader(data)
	if !ok {
		return nil, ErrCorruptFile
	}
	if !hdr.Valid() {
		return nil, ErrInvalidMagic
	}
	if !hdr.Compatible() {
		return nil, ErrUnsupportedMajor
	}
	if hdr.FileSize != uint64(len(data)) {
		return nil, fmt.Errorf("%w: header records %d bytes, file has %d", ErrCorruptFile, hdr.FileSize, len(data))
	}
	if hdr.Size == 0 || hdr.Size > qubo.MaxSize {
		return nil, fmt.Errorf("%w: %d variables", ErrCorruptFile, hdr.Size)
	}
	if uint64(hdr.ValueCount) != triangle(uint64(hdr.Size)) {
		return nil, fmt.Errorf("%w: %d values for %d variables", ErrCorruptFile, hdr.ValueCount, hdr.Size)
	}
	if hdr.PayloadOffset < HeaderSize || hdr.PayloadOffset%payloadAlign != 0 {
		return nil, fmt.Errorf("%w: payload offset %d", ErrCorruptFile, hdr.PayloadOffset)
	}
	end := uint64(hdr.PayloadOffset) + uint64(hdr.ValueCount)*valueBytes
	if end > uint64(len(data)) {
		return nil, fmt.Errorf("%w: payload out of bounds", ErrCorruptFile)
	}
	return &File{Data: data, Header: &hdr, mmapped: mmapped}, nil
}

// Problem decodes the payload into a new problem.
func (f *File) Problem() (*qubo.Problem, error) {
	if f == nil || f.Header == nil {
		return nil, ErrCorruptFile
	}
	n := int(f.Header.Size)
	p, err := qubo.New(n)
	if err != nil {
		return nil, err
	}
	payload := f.Data[f.Header.PayloadOffset:]
	off := 0
	for i := range n {
		for j := i; j < n; j++ {
			v := qubo.Value(int32(binary.LittleEndian.Uint32(payload[off : off+valueBytes])))
			off += valueBytes
			if v == 0 {
				continue
			}
			if err := p.Set(i, j, v); err != nil {
				return nil, err
			}
		}
	}
	return p, nil
}

// Close releases the mmap backing, if any.
func (f *File) Close() error {
	if f == nil || f.Data == nil {
		return nil
	}
	var err error
	if f.mmapped {
		err = unix.Munmap(f.Data)
	}
	f.Data = nil
	f.Header = nil
	f.mmapped = false
	return err
}

// Load opens path, decodes the problem and closes the file.
func Load(path string) (p *qubo.Problem, err error) {
	f, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			p, err = nil, cerr
		}
	}()
	return f.Problem()
}
