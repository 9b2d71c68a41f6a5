package app

import (
	"github.com/google/wire"
)

// AppComponents Wire 注入的所有组件
type AppComponents struct {
	Servers []Server
	Closers []Closer
}

// ProviderSet 导出给 Wire 使用
var ProviderSet = wire.NewSet(
	NewBaseApp,
	InitApp,
)

// InitApp 把组件绑定到 BaseApp
func InitApp(app *BaseApp, comps AppComponents) Application {
	app.AppendServer(comps.Servers...)
	app.AppendCloser(comps.Closers...)
	return app
}

// CloserFunc 函数形式的 Closer
type CloserFunc func() error

// Close 调用函数
func (f CloserFunc) Close() error { return f() }
