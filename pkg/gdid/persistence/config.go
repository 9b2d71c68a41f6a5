package persistence

import (
	"context"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-gdid/pkg/checksum"
	"github.com/lk2023060901/xdooria-gdid/pkg/database/postgres"
	"github.com/lk2023060901/xdooria-gdid/pkg/database/redis"
	"github.com/lk2023060901/xdooria-gdid/pkg/gdid"
	"github.com/spf13/afero"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// 位置类型，只有持久化的后端可以出现在配置里
const (
	TypeFile     = "file"
	TypeRedis    = "redis"
	TypePostgres = "postgres"
	TypeEtcd     = "etcd"
)

// Config 持久化配置
type Config struct {
	// Timeout 单个位置的读写超时
	Timeout   time.Duration    `mapstructure:"timeout" json:"timeout"`
	Locations []LocationConfig `mapstructure:"locations" json:"locations" validate:"required,min=1,dive"`
}

// LocationConfig 单个位置配置，Priority 越小越靠前
type LocationConfig struct {
	Name     string          `mapstructure:"name" json:"name" validate:"required"`
	Type     string          `mapstructure:"type" json:"type" validate:"required,oneof=file redis postgres etcd"`
	Priority int             `mapstructure:"priority" json:"priority"`
	File     *FileConfig     `mapstructure:"file" json:"file,omitempty"`
	Redis    *RedisConfig    `mapstructure:"redis" json:"redis,omitempty"`
	Postgres *PostgresConfig `mapstructure:"postgres" json:"postgres,omitempty"`
	Etcd     *EtcdConfig     `mapstructure:"etcd" json:"etcd,omitempty"`
}

// FileConfig 文件位置
type FileConfig struct {
	Root string `mapstructure:"root" json:"root"`
	// Checksum 为空时文件只含 "<era>::<value>"；可选 crc32 / crc32c / xxhash
	Checksum string `mapstructure:"checksum" json:"checksum" validate:"omitempty,oneof=crc32 crc32c xxhash"`
}

// RedisConfig redis 位置
type RedisConfig struct {
	redis.Config `mapstructure:",squash"`
	KeyPrefix    string `mapstructure:"key_prefix" json:"key_prefix"`
}

// PostgresConfig postgres 位置
type PostgresConfig struct {
	postgres.Config `mapstructure:",squash"`
	Table           string `mapstructure:"table" json:"table"`
	// CreateTable 启动时执行建表
	CreateTable bool `mapstructure:"create_table" json:"create_table"`
}

// EtcdConfig etcd 位置
type EtcdConfig struct {
	Endpoints   []string      `mapstructure:"endpoints" json:"endpoints"`
	DialTimeout time.Duration `mapstructure:"dial_timeout" json:"dial_timeout"`
	Username    string        `mapstructure:"username" json:"username"`
	Password    string        `mapstructure:"password" json:"password"`
	KeyPrefix   string        `mapstructure:"key_prefix" json:"key_prefix"`
}

// Validate 检查位置配置与类型是否匹配
func (c *Config) Validate() error {
	if c == nil || len(c.Locations) == 0 {
		return errors.Wrap(gdid.ErrInvalidConfig, "persistence: no locations")
	}

	seen := make(map[string]struct{}, len(c.Locations))
	for _, lc := range c.Locations {
		if lc.Name == "" {
			return errors.Wrap(gdid.ErrInvalidConfig, "persistence: location name is empty")
		}
		if _, dup := seen[lc.Name]; dup {
			return errors.Wrapf(gdid.ErrInvalidConfig, "persistence: duplicate location %s", lc.Name)
		}
		seen[lc.Name] = struct{}{}

		var missing bool
		switch lc.Type {
		case TypeFile:
			missing = lc.File == nil || lc.File.Root == ""
			if !missing && lc.File.Checksum != "" {
				if _, err := checksum.New(checksum.Type(lc.File.Checksum)); err != nil {
					return errors.Wrapf(gdid.ErrInvalidConfig, "persistence: file location %s: %v", lc.Name, err)
				}
			}
		case TypeRedis:
			missing = lc.Redis == nil
		case TypePostgres:
			missing = lc.Postgres == nil
		case TypeEtcd:
			missing = lc.Etcd == nil || len(lc.Etcd.Endpoints) == 0
		default:
			return errors.Wrapf(gdid.ErrInvalidConfig, "persistence: unknown type %q for %s", lc.Type, lc.Name)
		}
		if missing {
			return errors.Wrapf(gdid.ErrInvalidConfig, "persistence: %s location %s has no %s section", lc.Type, lc.Name, lc.Type)
		}
	}
	return nil
}

// Open 按配置创建全部位置并返回 Fanout；任何一个位置创建失败都会关闭已创建的位置
func Open(ctx context.Context, cfg *Config, fs afero.Fs, opts ...FanoutOption) (*Fanout, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ordered := make([]LocationConfig, len(cfg.Locations))
	copy(ordered, cfg.Locations)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority < ordered[j].Priority })

	locations := make([]Location, 0, len(ordered))
	for _, lc := range ordered {
		loc, err := openLocation(ctx, lc, fs)
		if err != nil {
			_ = (&Fanout{locations: locations}).Close()
			return nil, errors.Wrapf(err, "open location %s", lc.Name)
		}
		locations = append(locations, loc)
	}

	if cfg.Timeout > 0 {
		opts = append([]FanoutOption{WithTimeout(cfg.Timeout)}, opts...)
	}
	return NewFanout(locations, opts...)
}

func openLocation(ctx context.Context, lc LocationConfig, fs afero.Fs) (Location, error) {
	switch lc.Type {
	case TypeFile:
		var opts []FileOption
		if lc.File.Checksum != "" {
			h, err := checksum.New(checksum.Type(lc.File.Checksum))
			if err != nil {
				return nil, err
			}
			opts = append(opts, WithChecksum(h))
		}
		return NewFileLocation(lc.Name, fs, lc.File.Root, opts...)

	case TypeRedis:
		client, err := redis.NewClient(&lc.Redis.Config)
		if err != nil {
			return nil, err
		}
		loc := NewRedisLocation(lc.Name, client, lc.Redis.KeyPrefix)
		loc.closer = client.Close
		return loc, nil

	case TypePostgres:
		client, err := postgres.New(ctx, &lc.Postgres.Config)
		if err != nil {
			return nil, err
		}
		loc := NewPostgresLocation(lc.Name, client, lc.Postgres.Table)
		loc.closer = func() error { client.Close(); return nil }
		if lc.Postgres.CreateTable {
			if err := loc.EnsureSchema(ctx); err != nil {
				client.Close()
				return nil, err
			}
		}
		return loc, nil

	case TypeEtcd:
		dialTimeout := lc.Etcd.DialTimeout
		if dialTimeout <= 0 {
			dialTimeout = 5 * time.Second
		}
		client, err := clientv3.New(clientv3.Config{
			Endpoints:   lc.Etcd.Endpoints,
			DialTimeout: dialTimeout,
			Username:    lc.Etcd.Username,
			Password:    lc.Etcd.Password,
		})
		if err != nil {
			return nil, errors.Wrap(err, "create etcd client")
		}
		loc := NewEtcdLocation(lc.Name, client, lc.Etcd.KeyPrefix)
		loc.closer = client.Close
		return loc, nil
	}
	return nil, errors.Wrapf(gdid.ErrInvalidConfig, "unknown location type %q", lc.Type)
}
