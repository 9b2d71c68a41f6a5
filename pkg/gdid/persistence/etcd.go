package persistence

import (
	"context"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// EtcdKV EtcdLocation 需要的最小接口，clientv3.KV 满足
type EtcdKV interface {
	Put(ctx context.Context, key, val string, opts ...clientv3.OpOption) (*clientv3.PutResponse, error)
	Get(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error)
}

// EtcdLocation 以 etcd 键保存 "<era>::<value>"
type EtcdLocation struct {
	name   string
	kv     EtcdKV
	prefix string
	closer func() error
}

// NewEtcdLocation 创建 etcd 位置
func NewEtcdLocation(name string, kv EtcdKV, prefix string) *EtcdLocation {
	return &EtcdLocation{name: name, kv: kv, prefix: prefix}
}

func (e *EtcdLocation) Name() string { return e.name }

func (e *EtcdLocation) Write(ctx context.Context, authority uint8, scope, sequence string, id PersistedID) error {
	_, err := e.kv.Put(ctx, Key(e.prefix, authority, scope, sequence), id.String())
	return err
}

func (e *EtcdLocation) Read(ctx context.Context, authority uint8, scope, sequence string) (PersistedID, bool, error) {
	resp, err := e.kv.Get(ctx, Key(e.prefix, authority, scope, sequence))
	if err != nil {
		return PersistedID{}, false, err
	}
	if len(resp.Kvs) == 0 {
		return PersistedID{}, false, nil
	}
	id, err := ParsePersistedID(string(resp.Kvs[0].Value))
	if err != nil {
		return PersistedID{}, false, err
	}
	return id, true, nil
}

// Close 关闭由 Open 创建的 etcd 客户端
func (e *EtcdLocation) Close() error {
	if e.closer == nil {
		return nil
	}
	return e.closer()
}
