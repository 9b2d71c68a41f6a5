// Package serializer gRPC 消息的 msgpack 编解码
package serializer

import (
	"bytes"
	"reflect"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-msgpack/v2/codec"
	"github.com/lk2023060901/xdooria-gdid/pkg/pool/bytebuff"
)

// CodecName gRPC content-subtype
const CodecName = "msgpack"

var msgpackHandle = &codec.MsgpackHandle{}

func init() {
	msgpackHandle.MapType = reflect.TypeOf(map[string]interface{}{})
	msgpackHandle.RawToString = true
}

// Encode 使用 msgpack 编码
func Encode(v any) ([]byte, error) {
	buf := bytebuff.Get()
	defer bytebuff.Put(buf)

	if err := codec.NewEncoder(buf, msgpackHandle).Encode(v); err != nil {
		return nil, errors.Wrap(err, "msgpack encode")
	}

	// buf 会被复用，需要复制
	out := make([]byte, buf.Len())
	copy(out, buf.B)
	return out, nil
}

// Decode 使用 msgpack 解码
func Decode(data []byte, v any) error {
	if err := codec.NewDecoder(bytes.NewReader(data), msgpackHandle).Decode(v); err != nil {
		return errors.Wrap(err, "msgpack decode")
	}
	return nil
}

// Codec 实现 grpc encoding.Codec，客户端通过 grpc.CallContentSubtype(CodecName) 选用
type Codec struct{}

// Marshal 编码
func (Codec) Marshal(v any) ([]byte, error) {
	return Encode(v)
}

// Unmarshal 解码
func (Codec) Unmarshal(data []byte, v any) error {
	return Decode(data, v)
}

// Name 编码名称
func (Codec) Name() string {
	return CodecName
}
