package persistence

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/lk2023060901/xdooria-gdid/pkg/checksum"
	"github.com/spf13/afero"
)

// FileLocation 每个键一个文件：<root>/<SCOPE>/<sequence>/<authority>.gdid
//
// 写入先落临时文件再 rename，读到的要么是旧值要么是新值。
// 默认文件内容就是 "<era>::<value>"；启用校验后追加第二行校验标记。
// 读取时两种格式都接受。
type FileLocation struct {
	name   string
	fs     afero.Fs
	root   string
	hasher checksum.Hasher
}

// FileOption 文件位置选项
type FileOption func(*FileLocation)

// WithChecksum 写入时追加校验行，h 为 nil 时不追加
func WithChecksum(h checksum.Hasher) FileOption {
	return func(f *FileLocation) { f.hasher = h }
}

// NewFileLocation 创建文件位置，fs 为 nil 时使用操作系统文件系统
func NewFileLocation(name string, fs afero.Fs, root string, opts ...FileOption) (*FileLocation, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if root == "" {
		return nil, errors.New("persistence: file location root is empty")
	}
	if err := fs.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create root %s", root)
	}
	f := &FileLocation{name: name, fs: fs, root: root}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

func (f *FileLocation) Name() string { return f.name }

func (f *FileLocation) path(authority uint8, scope, sequence string) string {
	return filepath.Join(f.root, scope, sequence, strconv.Itoa(int(authority))+".gdid")
}

func (f *FileLocation) Write(ctx context.Context, authority uint8, scope, sequence string, id PersistedID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := f.path(authority, scope, sequence)
	if err := f.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.Wrapf(err, "create dir for %s", target)
	}

	tmp := target + "." + uuid.NewString() + ".tmp"
	content := id.String()
	if f.hasher != nil {
		content += "\n" + checksum.Seal(f.hasher, []byte(content)) + "\n"
	}
	if err := afero.WriteFile(f.fs, tmp, []byte(content), 0o644); err != nil {
		_ = f.fs.Remove(tmp)
		return errors.Wrapf(err, "write %s", tmp)
	}
	if err := f.fs.Rename(tmp, target); err != nil {
		_ = f.fs.Remove(tmp)
		return errors.Wrapf(err, "rename %s", tmp)
	}
	return nil
}

func (f *FileLocation) Read(ctx context.Context, authority uint8, scope, sequence string) (PersistedID, bool, error) {
	if err := ctx.Err(); err != nil {
		return PersistedID{}, false, err
	}

	path := f.path(authority, scope, sequence)
	data, err := afero.ReadFile(f.fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return PersistedID{}, false, nil
		}
		return PersistedID{}, false, errors.Wrap(err, "read persisted id")
	}

	body, seal, sealed := strings.Cut(strings.TrimRight(string(data), "\n"), "\n")
	if sealed {
		if err := checksum.Verify([]byte(body), seal); err != nil {
			return PersistedID{}, false, errors.Mark(errors.Wrapf(err, "%s", path), ErrMalformedID)
		}
	}
	id, err := ParsePersistedID(body)
	if err != nil {
		return PersistedID{}, false, err
	}
	return id, true, nil
}
