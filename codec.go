package kv_benchmark

import (
	"github.com/boreq/errors"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
)

// Codec transforms an encoded row before it is handed to a storage
// engine and back. The benchmark matrix uses codecs to measure the cost
// of value compression per engine.
type Codec interface {
	Encode(data []byte) ([]byte, error)
	Decode(data []byte) ([]byte, error)
}

type NoopCodec struct {
}

func NewNoopCodec() NoopCodec {
	return NoopCodec{}
}

func (NoopCodec) Encode(data []byte) ([]byte, error) {
	return data, nil
}

func (NoopCodec) Decode(data []byte) ([]byte, error) {
	return data, nil
}

type SnappyCodec struct {
}

func NewSnappyCodec() SnappyCodec {
	return SnappyCodec{}
}

func (SnappyCodec) Encode(data []byte) ([]byte, error) {
	return snappy.Encode(nil, data), nil
}

func (SnappyCodec) Decode(data []byte) ([]byte, error) {
	decoded, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, errors.Wrap(err, "error decoding snappy data")
	}
	return decoded, nil
}

var (
	zstdDecoder *zstd.Decoder
	zstdEncoder *zstd.Encoder
)

func init() {
	var err error

	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic(err)
	}

	zstdEncoder, err = zstd.NewWriter(nil)
	if err != nil {
		panic(err)
	}
}

type ZSTDCodec struct {
}

func NewZSTDCodec() ZSTDCodec {
	return ZSTDCodec{}
}

func (ZSTDCodec) Encode(data []byte) ([]byte, error) {
	return zstdEncoder.EncodeAll(data, nil), nil
}

func (ZSTDCodec) Decode(data []byte) ([]byte, error) {
	decoded, err := zstdDecoder.DecodeAll(data, nil)
	if err != nil {
		return nil, errors.Wrap(err, "error decoding zstd data")
	}
	return decoded, nil
}
