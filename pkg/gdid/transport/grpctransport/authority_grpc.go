// Package grpctransport 基于 gRPC + msgpack 的权威节点传输
//
// 没有 .proto 文件：服务描述手写，消息用 msgpack 编码，
// 客户端通过 content-subtype "msgpack" 选择编码。
package grpctransport

import (
	"context"

	"github.com/lk2023060901/xdooria-gdid/pkg/serializer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const (
	// ServiceName gRPC 服务名
	ServiceName = "gdid.Authority"
	// AllocateBlockMethod 完整方法名
	AllocateBlockMethod = "/" + ServiceName + "/AllocateBlock"
)

func init() {
	encoding.RegisterCodec(serializer.Codec{})
}

// AuthorityService 服务端实现的接口
type AuthorityService interface {
	AllocateBlock(ctx context.Context, req *AllocateRequest) (*AllocateResponse, error)
}

// ServiceDesc gdid.Authority 服务描述
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthorityService)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "AllocateBlock",
			Handler:    allocateBlockHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gdid/authority",
}

func allocateBlockHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(AllocateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuthorityService).AllocateBlock(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: AllocateBlockMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AuthorityService).AllocateBlock(ctx, req.(*AllocateRequest))
	}
	return interceptor(ctx, in, info, handler)
}
