// Package cli gdidctl 的参数解析与输出
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-gdid/pkg/gdid"
	"github.com/lk2023060901/xdooria-gdid/pkg/gdid/client"
)

// 输出格式
const (
	FormatText = "text" // era:authority:counter
	FormatID   = "id"   // authority 与 counter 打包后的 64 位值
	FormatHex  = "hex"
)

// ErrUsage 参数错误
var ErrUsage = errors.New("gdidctl: invalid arguments")

// Source 生成 ID，*client.Generator 满足
type Source interface {
	GenerateOne(ctx context.Context, scope, sequence string, opts ...client.GenerateOption) (gdid.GDID, error)
	TryGenerateManyConsecutive(ctx context.Context, scope, sequence string, count int, opts ...client.GenerateOption) ([]gdid.GDID, error)
}

// Request 一次命令行调用
type Request struct {
	Scope       string
	Sequence    string
	Count       int
	Consecutive bool
	BlockSize   int
	Format      string
}

// ParseHosts 解析 "addr" 或 "addr@distanceKm"，未给距离的按出现顺序递增
func ParseHosts(entries []string) ([]gdid.Host, error) {
	hosts := make([]gdid.Host, 0, len(entries))
	for i, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			return nil, errors.Wrap(ErrUsage, "empty host")
		}
		name, dist, found := strings.Cut(entry, "@")
		h := gdid.Host{Name: name, DistanceKm: float64(i)}
		if found {
			km, err := strconv.ParseFloat(dist, 64)
			if err != nil || km < 0 {
				return nil, errors.Wrapf(ErrUsage, "bad distance in host %q", entry)
			}
			h.DistanceKm = km
		}
		if h.Name == "" {
			return nil, errors.Wrapf(ErrUsage, "bad host %q", entry)
		}
		hosts = append(hosts, h)
	}
	return hosts, nil
}

// Format 按格式输出单个 ID
func Format(id gdid.GDID, format string) (string, error) {
	switch format {
	case "", FormatText:
		return id.String(), nil
	case FormatID:
		return strconv.FormatUint(id.ID(), 10), nil
	case FormatHex:
		return fmt.Sprintf("%d:%016x", id.Era, id.ID()), nil
	default:
		return "", errors.Wrapf(ErrUsage, "unknown format %q", format)
	}
}

// Run 生成 req.Count 个 ID 并逐行写入 w
//
// Consecutive 模式下重复调用 TryGenerateManyConsecutive 直到凑满数量。
func Run(ctx context.Context, src Source, req Request, w io.Writer) error {
	if req.Count <= 0 {
		return errors.Wrapf(ErrUsage, "count must be positive, got %d", req.Count)
	}
	if _, err := Format(gdid.Zero, req.Format); err != nil {
		return err
	}

	var opts []client.GenerateOption
	if req.BlockSize > 0 {
		opts = append(opts, client.WithBlockSize(req.BlockSize))
	}

	bw := bufio.NewWriter(w)
	emit := func(id gdid.GDID) error {
		s, _ := Format(id, req.Format)
		_, err := bw.WriteString(s + "\n")
		return err
	}

	err := generate(ctx, src, req, opts, emit)
	if ferr := bw.Flush(); err == nil {
		err = ferr
	}
	return err
}

func generate(ctx context.Context, src Source, req Request, opts []client.GenerateOption, emit func(gdid.GDID) error) error {
	for remaining := req.Count; remaining > 0; {
		if req.Consecutive {
			ids, err := src.TryGenerateManyConsecutive(ctx, req.Scope, req.Sequence, remaining, opts...)
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				return errors.Newf("gdidctl: empty batch for %s/%s", req.Scope, req.Sequence)
			}
			for _, id := range ids {
				if err := emit(id); err != nil {
					return err
				}
			}
			remaining -= len(ids)
			continue
		}

		id, err := src.GenerateOne(ctx, req.Scope, req.Sequence, opts...)
		if err != nil {
			return err
		}
		if err := emit(id); err != nil {
			return err
		}
		remaining--
	}
	return nil
}
