// Package registry 权威节点的服务注册与发现
package registry

import "context"

// ServiceInfo 服务信息
type ServiceInfo struct {
	// ServiceName 服务名称
	ServiceName string `json:"service_name"`
	// Address gRPC 地址（如 10.0.1.5:7700）
	Address string `json:"address"`
	// Metadata 元数据（zone、host_name、authority_ids）
	Metadata map[string]string `json:"metadata,omitempty"`
}

// 常用元数据键
const (
	MetaZone         = "zone"
	MetaHostName     = "host_name"
	MetaAuthorityIDs = "authority_ids"
)

// Registrar 服务注册接口
type Registrar interface {
	Register(ctx context.Context, info *ServiceInfo) error
	Deregister(ctx context.Context) error
}

// Resolver 服务发现接口
type Resolver interface {
	// Resolve 解析当前注册的实例
	Resolve(ctx context.Context, serviceName string) ([]*ServiceInfo, error)
	// Watch 实例列表变化时推送完整列表，ctx 结束后关闭通道
	Watch(ctx context.Context, serviceName string) (<-chan []*ServiceInfo, error)
}
