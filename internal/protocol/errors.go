package protocol

import "errors"

var (
	// ErrInvalidRawConfig 表示原始配置不是合法的 JSON 对象。
	ErrInvalidRawConfig = errors.New("protocol: invalid raw config / 原始配置不是合法 JSON 对象")
	// ErrUnsupportedBean 表示该协议无法直接转换为出站。
	ErrUnsupportedBean = errors.New("protocol: unsupported bean / 不支持的协议")
	// ErrUnsupportedTransport 表示传输层类型未知。
	ErrUnsupportedTransport = errors.New("protocol: unsupported transport / 不支持的传输方式")
)
