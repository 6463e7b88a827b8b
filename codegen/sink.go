package codegen

import (
	"os"

	"github.com/pkg/errors"
)

// Sink is the seekable append target code generation writes to. The
// generator only ever appends except when backpatching an address
// placeholder, which is a seek-overwrite-seek-back round trip (spec.md
// §5).
type Sink interface {
	Write(p []byte) (int, error)
	Tell() (int64, error)
	Seek(offset int64) error
}

// FileSink adapts an *os.File to Sink, wrapping every I/O failure with
// github.com/pkg/errors so a stack trace survives up to the CLI's error
// reporting.
type FileSink struct {
	f *os.File
}

// NewFileSink wraps f, which the caller remains responsible for closing.
func NewFileSink(f *os.File) *FileSink {
	return &FileSink{f: f}
}

func (s *FileSink) Write(p []byte) (int, error) {
	n, err := s.f.Write(p)
	if err != nil {
		return n, errors.Wrap(err, "write output")
	}
	return n, nil
}

// Tell returns the file's current write offset.
func (s *FileSink) Tell() (int64, error) {
	pos, err := s.f.Seek(0, os.SEEK_CUR)
	if err != nil {
		return 0, errors.Wrap(err, "tell output position")
	}
	return pos, nil
}

// Seek moves the file's write offset to an absolute position.
func (s *FileSink) Seek(offset int64) error {
	if _, err := s.f.Seek(offset, os.SEEK_SET); err != nil {
		return errors.Wrap(err, "seek output")
	}
	return nil
}
