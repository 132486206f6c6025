// services/errors.go
package services

import (
	"fmt"
)

var (
	// ErrMissingFields 请求缺少必填字段
	ErrMissingFields = fmt.Errorf("missing required fields")
	// ErrUsernameTaken 用户名已被其他钱包占用
	ErrUsernameTaken = fmt.Errorf("username taken")
)
