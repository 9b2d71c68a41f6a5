package persistence

import (
	"context"
	"os"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-gdid/pkg/checksum"
	"github.com/lk2023060901/xdooria-gdid/pkg/gdid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{"nil", nil, true},
		{"empty", &Config{}, true},
		{"file", &Config{Locations: []LocationConfig{{Name: "f", Type: TypeFile, File: &FileConfig{Root: "/data"}}}}, false},
		{"memory is not durable", &Config{Locations: []LocationConfig{{Name: "m", Type: "memory"}}}, true},
		{"file with unknown checksum", &Config{Locations: []LocationConfig{{Name: "f", Type: TypeFile, File: &FileConfig{Root: "/data", Checksum: "md5"}}}}, true},
		{"file without root", &Config{Locations: []LocationConfig{{Name: "f", Type: TypeFile}}}, true},
		{"unknown type", &Config{Locations: []LocationConfig{{Name: "x", Type: "s3"}}}, true},
		{"duplicate", &Config{Locations: []LocationConfig{
			{Name: "f", Type: TypeFile, File: &FileConfig{Root: "/a"}},
			{Name: "f", Type: TypeFile, File: &FileConfig{Root: "/b"}},
		}}, true},
		{"etcd without endpoints", &Config{Locations: []LocationConfig{{Name: "e", Type: TypeEtcd, Etcd: &EtcdConfig{}}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, gdid.IsValidation(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestOpen_PriorityOrder(t *testing.T) {
	cfg := &Config{Locations: []LocationConfig{
		{Name: "disk", Type: TypeFile, Priority: 2, File: &FileConfig{Root: "/data"}},
		{Name: "sealed", Type: TypeFile, Priority: 1, File: &FileConfig{Root: "/sealed", Checksum: "crc32c"}},
	}}

	fs := afero.NewMemMapFs()
	f, err := Open(context.Background(), cfg, fs)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"sealed", "disk"}, f.Locations())

	ctx := context.Background()
	require.NoError(t, f.Write(ctx, 1, "S", "q", PersistedID{Era: 1, Value: 5}))
	id, err := f.Read(ctx, 1, "S", "q")
	require.NoError(t, err)
	assert.Equal(t, PersistedID{Era: 1, Value: 5}, id)

	plain, err := afero.ReadFile(fs, "/data/S/q/1.gdid")
	require.NoError(t, err)
	assert.Equal(t, "1::5", string(plain))
	sealed, err := afero.ReadFile(fs, "/sealed/S/q/1.gdid")
	require.NoError(t, err)
	assert.Equal(t, "1::5\n"+checksum.Seal(checksum.Default(), []byte("1::5"))+"\n", string(sealed))
}

// brokenFs 打开写文件时失败，读不受影响
type brokenFs struct {
	afero.Fs
	broken bool
}

func (b *brokenFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if b.broken && flag&(os.O_WRONLY|os.O_RDWR) != 0 {
		return nil, os.ErrPermission
	}
	return b.Fs.OpenFile(name, flag, perm)
}

func TestOpen_WriteFailsWhenEveryLocationFails(t *testing.T) {
	fs := &brokenFs{Fs: afero.NewMemMapFs()}
	cfg := &Config{Locations: []LocationConfig{
		{Name: "disk", Type: TypeFile, File: &FileConfig{Root: "/data"}},
	}}

	f, err := Open(context.Background(), cfg, fs)
	require.NoError(t, err)
	defer f.Close()

	ctx := context.Background()
	require.NoError(t, f.Write(ctx, 1, "S", "q", PersistedID{Value: 10}))

	fs.broken = true
	err = f.Write(ctx, 1, "S", "q", PersistedID{Value: 20})
	assert.True(t, errors.Is(err, gdid.ErrPersistenceUnavailable))

	// 重启后读到的仍是最后一次真正落盘的值
	restarted, err := Open(context.Background(), cfg, fs)
	require.NoError(t, err)
	defer restarted.Close()
	id, err := restarted.Read(ctx, 1, "S", "q")
	require.NoError(t, err)
	assert.Equal(t, PersistedID{Value: 10}, id)
}
