package journal

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
)

type RecordType uint8

const (
	RecordSubmit RecordType = iota + 1
	RecordCancel
)

func (t RecordType) String() string {
	switch t {
	case RecordSubmit:
		return "SUBMIT"
	case RecordCancel:
		return "CANCEL"
	default:
		return "UNKNOWN"
	}
}

// Record is one journalled command. Seq is the journal's own counter,
// independent of order ids.
type Record struct {
	Seq  uint64
	Time int64
	Type RecordType
	Data []byte
}

var ErrCorruptRecord = errors.New("journal: corrupted record")

// Framing: [len:4][crc:4][body], little-endian. The CRC covers the
// body only. body = [seq:8][time:8][type:1][data].
func encodeRecord(rec *Record) []byte {
	body := make([]byte, 17+len(rec.Data))
	binary.LittleEndian.PutUint64(body[0:8], rec.Seq)
	binary.LittleEndian.PutUint64(body[8:16], uint64(rec.Time))
	body[16] = byte(rec.Type)
	copy(body[17:], rec.Data)

	frame := make([]byte, 8+len(body))
	binary.LittleEndian.PutUint32(frame[0:4], uint32(len(body)))
	binary.LittleEndian.PutUint32(frame[4:8], crc32.ChecksumIEEE(body))
	copy(frame[8:], body)
	return frame
}

func decodeBody(body []byte, wantCRC uint32) (*Record, error) {
	if crc32.ChecksumIEEE(body) != wantCRC {
		return nil, ErrCorruptRecord
	}
	if len(body) < 17 {
		return nil, ErrCorruptRecord
	}
	rec := &Record{
		Seq:  binary.LittleEndian.Uint64(body[0:8]),
		Time: int64(binary.LittleEndian.Uint64(body[8:16])),
		Type: RecordType(body[16]),
	}
	if len(body) > 17 {
		rec.Data = append([]byte(nil), body[17:]...)
	}
	return rec, nil
}
