package comm

import (
	"encoding/binary"
	"errors"

	"github.com/golang/glog"
)

// DumpSum is the value all words of a dump, checksum included, add up to.
const DumpSum uint32 = 0xFFFFFFFF

// DumpChecksum computes the checksum word terminating a dump of words.
func DumpChecksum(words []uint32) uint32 {
	var sum uint32
	for _, w := range words {
		sum += w
	}
	return DumpSum - sum
}

// EncodeDump builds the dump stream the firmware emits for words.
func EncodeDump(words []uint32) []byte {
	b := make([]byte, 4*(len(words)+2))
	binary.LittleEndian.PutUint32(b, uint32(len(words)))
	for i, w := range words {
		binary.LittleEndian.PutUint32(b[4*(i+1):], w)
	}
	binary.LittleEndian.PutUint32(b[4*(len(words)+1):], DumpChecksum(words))
	return b
}

// DecodeDumpWords interprets body as N data words followed by the
// checksum word, verifies the sum and returns the data words.
func DecodeDumpWords(body []byte) ([]uint32, error) {
	if len(body) < 4 || len(body)%4 != 0 {
		return nil, Errorf(CorruptDumpError, "dump", "body of %d bytes is not a whole number of words", len(body))
	}
	words := make([]uint32, len(body)/4)
	var sum uint32
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(body[4*i:])
		sum += words[i]
	}
	if sum != DumpSum {
		return nil, Errorf(ChecksumError, "dump", "words sum to 0x%08X", sum)
	}
	return words[:len(words)-1], nil
}

// ReadDump consumes a dump stream. The dump has to be triggered by the
// caller beforehand, usually by writing the capture module's control
// register. A declared length above maxWords fails before the body is read.
func (s *Session) ReadDump(maxWords int) ([]uint32, error) {
	if maxWords < 0 {
		return nil, Errorf(ValidationError, "dump", "negative word limit %d", maxWords)
	}
	head, err := s.transport.ReadExact(4, s.config.Timeout)
	if err != nil {
		return nil, dumpReadError(err, "length field is short")
	}
	n := binary.LittleEndian.Uint32(head)
	if uint64(n) > uint64(maxWords) {
		return nil, Errorf(CorruptDumpError, "dump", "length %d exceeds limit %d", n, maxWords)
	}
	body, err := s.transport.ReadExact(4*(int(n)+1), s.config.Timeout)
	if err != nil {
		return nil, dumpReadError(err, "too few bytes received")
	}
	words, err := DecodeDumpWords(body)
	if err != nil {
		return nil, err
	}
	glog.V(2).Infof("%s dump %d words", s.config.Name, len(words))
	return words, nil
}

// dumpReadError turns a short read into CorruptDumpError. Other
// transport failures are passed through.
func dumpReadError(err error, msg string) error {
	if errors.Is(err, ErrShortRead) {
		return &Error{Kind: CorruptDumpError, Op: "dump", Msg: msg, Err: ErrShortRead}
	}
	return err
}
