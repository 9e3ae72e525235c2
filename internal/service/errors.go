package service

import (
	"errors"
	"fmt"
)

// ErrValidation 输入校验失败，不会创建任务
var ErrValidation = errors.New("invalid request")

var (
	ErrEmptyDocument    = fmt.Errorf("%w: 上传的文件为空", ErrValidation)
	ErrUnsupportedType  = fmt.Errorf("%w: 仅支持 PDF 文档", ErrValidation)
	ErrDocumentTooLarge = fmt.Errorf("%w: 文件过大", ErrValidation)
	ErrMissingFileName  = fmt.Errorf("%w: 缺少文件名", ErrValidation)

	ErrJobNotFound      = errors.New("任务不存在")
	ErrQueueUnavailable = errors.New("任务队列不可用")
)
