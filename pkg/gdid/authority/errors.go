package authority

import "github.com/cockroachdb/errors"

// ErrAlreadyRunning 同一进程只能存在一个 Allocator
var ErrAlreadyRunning = errors.New("authority: allocator already running in this process")

// ErrClosed Allocator 已关闭
var ErrClosed = errors.New("authority: allocator closed")
