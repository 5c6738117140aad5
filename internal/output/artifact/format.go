// Package artifact writes and reads the split and caption data files. Each
// file is a fixed header, a JSON payload and a checksum footer.
package artifact

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"

	apperrors "github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/errors"
)

// MagicBytes identifies an artifact file ("CSPL").
const (
	MagicBytes    uint32 = 0x4353504c
	FormatVersion uint32 = 1
	HeaderSize    int    = 32
	FooterSize    int    = 8
)

type Kind uint32

const (
	KindSplit Kind = 1
	KindData  Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindSplit:
		return "split"
	case KindData:
		return "data"
	default:
		return fmt.Sprintf("kind(%d)", uint32(k))
	}
}

// Header is the 32-byte header at the start of every artifact.
type Header struct {
	Magic       uint32
	Version     uint32
	Kind        Kind
	ItemCount   uint32
	PayloadSize uint64
}

func (h Header) encode() []byte {
	b := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(b[0:4], h.Magic)
	binary.LittleEndian.PutUint32(b[4:8], h.Version)
	binary.LittleEndian.PutUint32(b[8:12], uint32(h.Kind))
	binary.LittleEndian.PutUint32(b[12:16], h.ItemCount)
	binary.LittleEndian.PutUint64(b[16:24], h.PayloadSize)
	return b
}

func decodeHeader(b []byte) Header {
	return Header{
		Magic:       binary.LittleEndian.Uint32(b[0:4]),
		Version:     binary.LittleEndian.Uint32(b[4:8]),
		Kind:        Kind(binary.LittleEndian.Uint32(b[8:12])),
		ItemCount:   binary.LittleEndian.Uint32(b[12:16]),
		PayloadSize: binary.LittleEndian.Uint64(b[16:24]),
	}
}

// WriteFile atomically writes an artifact: it writes path.tmp, syncs and
// renames it over path. The temp file is removed on failure.
func WriteFile(path string, kind Kind, itemCount int, payload []byte) (err error) {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating temp artifact file: %w", err)
	}
	closed := false
	defer func() {
		if err == nil {
			return
		}
		if !closed {
			f.Close()
		}
		os.Remove(tmpPath)
	}()

	header := Header{
		Magic:       MagicBytes,
		Version:     FormatVersion,
		Kind:        kind,
		ItemCount:   uint32(itemCount),
		PayloadSize: uint64(len(payload)),
	}
	if _, err := f.Write(header.encode()); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if _, err := f.Write(payload); err != nil {
		return fmt.Errorf("writing payload: %w", err)
	}
	footer := make([]byte, FooterSize)
	binary.LittleEndian.PutUint32(footer[0:4], crc32.ChecksumIEEE(payload))
	binary.LittleEndian.PutUint32(footer[4:8], MagicBytes)
	if _, err := f.Write(footer); err != nil {
		return fmt.Errorf("writing footer: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing artifact file: %w", err)
	}
	closed = true
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing artifact file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming artifact file: %w", err)
	}
	return nil
}

// ReadFile reads and verifies an artifact, returning its header and payload.
func ReadFile(path string) (Header, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, nil, apperrors.Newf(apperrors.ErrInvalidInput, "opening artifact %s: %v", filepath.Base(path), err)
	}
	defer f.Close()
	return Read(f)
}

// Read decodes an artifact stream.
func Read(r io.Reader) (Header, []byte, error) {
	headerBytes := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return Header{}, nil, apperrors.Newf(apperrors.ErrInvalidInput, "reading header: %v", err)
	}
	header := decodeHeader(headerBytes)
	if header.Magic != MagicBytes {
		return header, nil, apperrors.Newf(apperrors.ErrInvalidInput, "invalid artifact: bad magic bytes %x", header.Magic)
	}
	if header.Version != FormatVersion {
		return header, nil, apperrors.Newf(apperrors.ErrInvalidInput, "unsupported artifact version %d", header.Version)
	}
	payload := make([]byte, header.PayloadSize)
	if _, err := io.ReadFull(r, payload); err != nil {
		return header, nil, apperrors.Newf(apperrors.ErrInvalidInput, "reading payload: %v", err)
	}
	footer := make([]byte, FooterSize)
	if _, err := io.ReadFull(r, footer); err != nil {
		return header, nil, apperrors.Newf(apperrors.ErrInvalidInput, "reading footer: %v", err)
	}
	if sum := binary.LittleEndian.Uint32(footer[0:4]); sum != crc32.ChecksumIEEE(payload) {
		return header, nil, apperrors.Newf(apperrors.ErrInvalidInput, "checksum mismatch: stored %08x, computed %08x", sum, crc32.ChecksumIEEE(payload))
	}
	return header, payload, nil
}
