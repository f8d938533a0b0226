// Package archive provides direction-aware field transfer over a byte stream.
//
// An Archive is either loading (reading from an io.Reader) or saving (writing
// to an io.Writer). Every transfer method takes a pointer to the field: when
// loading the field is overwritten with the decoded value, when saving its
// current value is encoded. Record codecs therefore describe their field order
// once and run unchanged in both directions.
//
// All values are little-endian. Nothing is padded or aligned: each call moves
// exactly the size of the field.
//
// Errors are sticky. After the first stream failure every later call is a
// no-op and Err reports that first failure.
package archive

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/pkg/errors"
)

// Direction is the transfer direction of an Archive.
type Direction int

const (
	Load Direction = iota // Fields are read from the stream
	Save                  // Fields are written to the stream
)

// String returns "load" or "save".
func (d Direction) String() string {
	if d == Save {
		return "save"
	}
	return "load"
}

// ErrWrongDirection is returned for operations that only make sense in one direction.
var ErrWrongDirection = errors.New("archive: operation not valid in this direction")

// Archive transfers fields to or from a byte stream.
type Archive struct {
	r   io.Reader
	w   io.Writer
	dir Direction
	pos int64
	err error
	buf [4]byte
}

// NewReader returns a loading archive reading from r.
func NewReader(r io.Reader) *Archive {
	return &Archive{r: r, dir: Load}
}

// NewWriter returns a saving archive writing to w.
func NewWriter(w io.Writer) *Archive {
	return &Archive{w: w, dir: Save}
}

// Direction returns the transfer direction.
func (a *Archive) Direction() Direction {
	return a.dir
}

// IsLoading reports whether the archive reads from its stream.
func (a *Archive) IsLoading() bool {
	return a.dir == Load
}

// Pos returns the number of bytes transferred so far.
func (a *Archive) Pos() int64 {
	return a.pos
}

// Err returns the first error encountered, if any.
func (a *Archive) Err() error {
	return a.err
}

// Byte transfers a single byte.
func (a *Archive) Byte(v *byte) {
	b := a.buf[:1]
	b[0] = *v
	if a.transfer(b, "byte") && a.dir == Load {
		*v = b[0]
	}
}

// Uint16 transfers a 16-bit unsigned integer.
func (a *Archive) Uint16(v *uint16) {
	b := a.buf[:2]
	if a.dir == Save {
		binary.LittleEndian.PutUint16(b, *v)
	}
	if a.transfer(b, "uint16") && a.dir == Load {
		*v = binary.LittleEndian.Uint16(b)
	}
}

// Int16 transfers a 16-bit signed integer.
func (a *Archive) Int16(v *int16) {
	u := uint16(*v)
	a.Uint16(&u)
	*v = int16(u)
}

// Uint32 transfers a 32-bit unsigned integer.
func (a *Archive) Uint32(v *uint32) {
	b := a.buf[:4]
	if a.dir == Save {
		binary.LittleEndian.PutUint32(b, *v)
	}
	if a.transfer(b, "uint32") && a.dir == Load {
		*v = binary.LittleEndian.Uint32(b)
	}
}

// Int32 transfers a 32-bit signed integer.
func (a *Archive) Int32(v *int32) {
	u := uint32(*v)
	a.Uint32(&u)
	*v = int32(u)
}

// Float32 transfers an IEEE-754 single precision value bit-for-bit.
func (a *Archive) Float32(v *float32) {
	u := math.Float32bits(*v)
	a.Uint32(&u)
	*v = math.Float32frombits(u)
}

// Chars transfers exactly len(buf) raw bytes. No terminator is added or
// expected; the buffer is copied as-is in both directions.
func (a *Archive) Chars(buf []byte) {
	a.transfer(buf, "chars")
}

// Skip discards n bytes from a loading archive.
func (a *Archive) Skip(n int64) {
	if a.err != nil || n <= 0 {
		return
	}
	if a.dir != Load {
		a.err = errors.Wrapf(ErrWrongDirection, "skip %d bytes", n)
		return
	}
	copied, err := io.CopyN(io.Discard, a.r, n)
	a.pos += copied
	if err != nil {
		if err == io.EOF && copied > 0 {
			err = io.ErrUnexpectedEOF
		}
		a.err = errors.Wrapf(err, "skip %d bytes at offset %d", n, a.pos-copied)
	}
}

func (a *Archive) transfer(b []byte, kind string) bool {
	if a.err != nil {
		return false
	}
	start := a.pos

	var n int
	var err error
	if a.dir == Load {
		n, err = io.ReadFull(a.r, b)
	} else {
		n, err = a.w.Write(b)
		if err == nil && n < len(b) {
			err = io.ErrShortWrite
		}
	}
	a.pos += int64(n)

	if err != nil {
		a.err = errors.Wrapf(err, "%s %s at offset %d", a.dir, kind, start)
		return false
	}
	return true
}
