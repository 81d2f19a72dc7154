// Package handler 按业务域划分的 HTTP 处理器，具体实现位于子包中。
//
// swag init --dir ./cmd/api-gateway,./internal/handler 需要该目录本身是合法的 Go 包。
package handler
