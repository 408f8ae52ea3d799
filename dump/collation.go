package dump

import (
	"bufio"
	"bytes"
	"io"
)

const (
	DefaultFromCollation = "utf8mb4_0900_ai_ci"
	DefaultToCollation   = "utf8mb4_general_ci"
)

// NewCollationReader returns r with every occurrence of from replaced by to.
// The stream is rewritten line by line, so arbitrarily large dumps pass
// through without being held in memory.
func NewCollationReader(r io.Reader, from, to string) io.Reader {
	if from == "" || from == to {
		return r
	}
	return &collationReader{src: bufio.NewReaderSize(r, 64*1024), from: []byte(from), to: []byte(to)}
}

type collationReader struct {
	src  *bufio.Reader
	from []byte
	to   []byte
	buf  []byte
	err  error
}

func (self *collationReader) Read(p []byte) (int, error) {
	for len(self.buf) == 0 {
		if self.err != nil {
			return 0, self.err
		}
		line, err := self.src.ReadBytes('\n')
		self.buf = bytes.ReplaceAll(line, self.from, self.to)
		self.err = err
	}
	n := copy(p, self.buf)
	self.buf = self.buf[n:]
	return n, nil
}
