package app

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
)

// 构建时注入：go build -ldflags "-X github.com/lk2023060901/xdooria-gdid/pkg/app.Version=v1.2.0"
var (
	Version   = ""
	GitCommit = ""
	BuildDate = ""
	AppName   = ""
)

func init() {
	if AppName == "" {
		AppName = "gdid"
		if execPath, err := os.Executable(); err == nil {
			AppName = filepath.Base(execPath)
		}
	}

	// 未注入时从模块构建信息补全
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	if Version == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if GitCommit == "" {
				GitCommit = s.Value
			}
		case "vcs.time":
			if BuildDate == "" {
				BuildDate = s.Value
			}
		}
	}
}

// Info 版本信息
type Info struct {
	AppName   string `json:"app_name"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// GetInfo 当前进程的版本信息
func GetInfo() Info {
	return Info{
		AppName:   AppName,
		Version:   orUnknown(Version),
		GitCommit: orUnknown(GitCommit),
		BuildDate: orUnknown(BuildDate),
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s, %s %s)",
		i.AppName, i.Version, i.GitCommit, i.BuildDate, i.GoVersion, i.Platform)
}
