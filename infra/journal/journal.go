// Package journal is a segmented append-only log of accepted commands.
// It exists for audit and offline tooling; nothing in the engine reads
// it back at startup.
package journal

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"
)

type Config struct {
	Dir             string
	SegmentSize     int64
	SegmentDuration time.Duration
}

type Journal struct {
	dir             string
	segmentSize     int64
	segmentDuration time.Duration

	current      *segment
	nextIndex    int
	lastRotation time.Time

	seq uint64
}

func Open(cfg Config) (*Journal, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}

	// continue after existing segments rather than overwriting them
	existing, err := segmentFiles(cfg.Dir)
	if err != nil {
		return nil, err
	}
	next := len(existing)

	seg, err := openSegment(cfg.Dir, next)
	if err != nil {
		return nil, err
	}

	return &Journal{
		dir:             cfg.Dir,
		segmentSize:     cfg.SegmentSize,
		segmentDuration: cfg.SegmentDuration,
		current:         seg,
		nextIndex:       next,
		lastRotation:    time.Now(),
	}, nil
}

// Append frames and writes one record, rotating the segment afterward
// if it crossed the size or age threshold.
func (j *Journal) Append(t RecordType, data []byte) error {
	j.seq++
	rec := &Record{
		Seq:  j.seq,
		Time: time.Now().UnixNano(),
		Type: t,
		Data: data,
	}
	if err := j.current.append(encodeRecord(rec)); err != nil {
		return err
	}
	if j.shouldRotate() {
		return j.rotate()
	}
	return nil
}

func (j *Journal) Close() error {
	return j.current.close()
}

func (j *Journal) shouldRotate() bool {
	return j.current.offset >= j.segmentSize ||
		time.Since(j.lastRotation) >= j.segmentDuration
}

func (j *Journal) rotate() error {
	if err := j.current.close(); err != nil {
		return err
	}
	j.nextIndex++

	seg, err := openSegment(j.dir, j.nextIndex)
	if err != nil {
		return err
	}

	j.current = seg
	j.lastRotation = time.Now()
	return nil
}

// Scan replays every record in segment order. It stops on the first
// corrupt frame.
func (j *Journal) Scan(fn func(*Record) error) error {
	files, err := segmentFiles(j.dir)
	if err != nil {
		return err
	}

	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		err = scanSegment(f, fn)
		f.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func scanSegment(r io.Reader, fn func(*Record) error) error {
	header := make([]byte, 8)
	for {
		if _, err := io.ReadFull(r, header); err != nil {
			if err == io.EOF {
				return nil
			}
			return ErrCorruptRecord
		}
		n := binary.LittleEndian.Uint32(header[0:4])
		crc := binary.LittleEndian.Uint32(header[4:8])

		body := make([]byte, n)
		if _, err := io.ReadFull(r, body); err != nil {
			return ErrCorruptRecord
		}
		rec, err := decodeBody(body, crc)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}

func segmentFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.journal"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// ---- segment ----

type segment struct {
	file   *os.File
	offset int64
}

func openSegment(dir string, index int) (*segment, error) {
	path := filepath.Join(dir, fmt.Sprintf("%06d.journal", index))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &segment{file: f, offset: info.Size()}, nil
}

func (s *segment) append(b []byte) error {
	n, err := s.file.Write(b)
	s.offset += int64(n)
	return err
}

func (s *segment) close() error {
	return s.file.Close()
}
