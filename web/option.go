package web

import "fmt"

// ConfigSection 管理接口的配置节
const ConfigSection = "lazyload:admin"

// Options 管理接口配置
//
//	lazyload:
//	  admin:
//	    port: 8081
//	    basePath: /admin
type Options struct {
	Port     int    `json:"port"`     // 监听端口
	BasePath string `json:"basePath"` // 路由前缀
	Mode     string `json:"mode"`     // gin 模式：debug / release / test
}

// NewDefaultOptions 创建默认配置
func NewDefaultOptions() *Options {
	return &Options{
		Port:     8081,
		BasePath: "/admin",
		Mode:     "release",
	}
}

// Validate 验证配置
func (o *Options) Validate() error {
	if o.Port <= 0 || o.Port > 65535 {
		return fmt.Errorf("admin port must be between 1 and 65535")
	}
	switch o.Mode {
	case "", "debug", "release", "test":
	default:
		return fmt.Errorf("unknown gin mode '%s'", o.Mode)
	}
	return nil
}
