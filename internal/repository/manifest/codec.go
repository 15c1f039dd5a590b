package manifest

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

type Compression string

const (
	None Compression = ""
	Gzip Compression = "gzip"
	Zstd Compression = "zstd"
)

const (
	gzipSuffix = ".gz"
	zstdSuffix = ".zst"
)

// Encoder and decoder are safe for concurrent EncodeAll/DecodeAll.
var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zstdDecoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
)

// CompressionFor picks the codec from the object path's suffix.
func CompressionFor(p string) Compression {
	switch {
	case strings.HasSuffix(p, gzipSuffix):
		return Gzip
	case strings.HasSuffix(p, zstdSuffix):
		return Zstd
	default:
		return None
	}
}

// Suffix is the path suffix that selects c.
func (c Compression) Suffix() string {
	switch c {
	case Gzip:
		return gzipSuffix
	case Zstd:
		return zstdSuffix
	default:
		return ""
	}
}

func compress(c Compression, data []byte) ([]byte, error) {
	switch c {
	case Gzip:
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case Zstd:
		return zstdEncoder.EncodeAll(data, nil), nil
	case None:
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported compression %q", c)
	}
}

func decompress(c Compression, data []byte) ([]byte, error) {
	switch c {
	case Gzip:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case Zstd:
		return zstdDecoder.DecodeAll(data, nil)
	case None:
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported compression %q", c)
	}
}
