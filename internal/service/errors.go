// 文件路径: internal/service/errors.go
// 模块说明: 这是 internal 模块里的 errors 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package service

import "errors"

var (
	// ErrNotFound indicates requested resource does not exist.
	ErrNotFound = errors.New("service: not found / 未找到资源")
	// ErrBuildFailed indicates the profile could not be compiled into a configuration.
	ErrBuildFailed = errors.New("service: config build failed / 配置生成失败")
	// ErrInvalidMode indicates an unknown build mode was requested.
	ErrInvalidMode = errors.New("service: invalid build mode / 构建模式无效")
)
