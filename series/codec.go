package series

import (
	"fmt"

	"github.com/viant/bintly"
)

// maxPoints bounds decoded series so a damaged length cannot trigger a huge allocation.
const maxPoints = 1 << 20

var (
	writers = bintly.NewWriters()
	readers = bintly.NewReaders()
)

// EncodeBinary encodes the series to a binary stream.
func (s *Series) EncodeBinary(stream *bintly.Writer) error {
	if len(s.Times) != len(s.Values) {
		return fmt.Errorf("%w: %d times, %d values", ErrLengthMismatch, len(s.Times), len(s.Values))
	}
	stream.String(s.Name)
	stream.Int(len(s.Values))
	for _, t := range s.Times {
		stream.Float64(t)
	}
	for _, v := range s.Values {
		stream.Float64(v)
	}
	return nil
}

// DecodeBinary decodes the series from a binary stream.
func (s *Series) DecodeBinary(stream *bintly.Reader) error {
	stream.String(&s.Name)
	var size int
	stream.Int(&size)
	if size < 0 || size > maxPoints {
		return fmt.Errorf("%w: implausible size %d", ErrInvalid, size)
	}
	s.Times = make([]float64, size)
	for i := range s.Times {
		stream.Float64(&s.Times[i])
	}
	s.Values = make([]float64, size)
	for i := range s.Values {
		stream.Float64(&s.Values[i])
	}
	return nil
}

// Marshal encodes s with a pooled writer.
func Marshal(s *Series) ([]byte, error) {
	w := writers.Get()
	defer writers.Put(w)
	if err := s.EncodeBinary(w); err != nil {
		return nil, err
	}
	return append([]byte(nil), w.Bytes()...), nil
}

// Unmarshal decodes data produced by Marshal. Truncated or damaged data fails with ErrInvalid.
func Unmarshal(data []byte) (ret *Series, err error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no data", ErrInvalid)
	}
	r := readers.Get()
	defer readers.Put(r)
	// bintly reads past the end of a short buffer instead of reporting it
	defer func() {
		if p := recover(); p != nil {
			ret, err = nil, fmt.Errorf("%w: %v", ErrInvalid, p)
		}
	}()
	if err := r.FromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	ret = &Series{}
	if err := ret.DecodeBinary(r); err != nil {
		return nil, err
	}
	return ret, nil
}
