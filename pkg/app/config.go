package app

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-gdid/pkg/config"
	"github.com/spf13/pflag"
)

// ConfigEnv 指定配置文件路径的环境变量
const ConfigEnv = config.DefaultEnvPrefix + "_CONFIG"

var configPath string

// LoadConfig 解析命令行后加载配置
//
// 配置文件路径：--config > 环境变量 GDID_CONFIG > <执行目录>/config.yaml；
// 值的优先级：环境变量 GDID_* > 配置文件 > 结构体默认值。
func LoadConfig(target any, opts ...config.Option) error {
	execDir, err := GetExecDir()
	if err != nil {
		return errors.Wrap(err, "failed to get executable directory")
	}
	defaultConfig := filepath.Join(execDir, "config.yaml")

	if pflag.Lookup("config") == nil {
		pflag.StringVarP(&configPath, "config", "c", defaultConfig, "path to config file")
	}
	if !pflag.Parsed() {
		pflag.Parse()
	}

	path := configPath
	if !pflag.CommandLine.Changed("config") {
		if env := os.Getenv(ConfigEnv); env != "" {
			path = env
		}
	}
	configPath = path
	return LoadConfigFile(path, target, opts...)
}

// LoadConfigFile 从指定文件加载配置并应用 GDID_ 环境变量覆盖
func LoadConfigFile(path string, target any, opts ...config.Option) error {
	if _, err := os.Stat(path); err != nil {
		return errors.Wrapf(config.ErrConfigFileNotFound, "%s", path)
	}

	mgr := config.NewManager(opts...)
	mgr.BindEnv(config.DefaultEnvPrefix)
	if err := mgr.LoadFile(path); err != nil {
		return err
	}
	return mgr.Unmarshal(target)
}

// GetExecDir 可执行文件所在目录（处理符号链接）
func GetExecDir() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", err
	}
	realPath, err := filepath.EvalSymlinks(execPath)
	if err != nil {
		return filepath.Dir(execPath), nil
	}
	return filepath.Dir(realPath), nil
}

// GetConfigPath 最终使用的配置文件路径
func GetConfigPath() string {
	return configPath
}
