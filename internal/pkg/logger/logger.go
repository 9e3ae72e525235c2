package logger

import (
	"os"

	"github.com/phuslu/log"

	"github.com/qs3c/findoc_server/config"
)

// Setup 按配置替换全局 logger，console=false 时输出 JSON 行
func Setup(cfg config.LogConfig) {
	logger := log.Logger{
		Level:  log.ParseLevel(cfg.Level),
		Caller: 1,
	}
	if cfg.Console {
		logger.Writer = &log.ConsoleWriter{
			ColorOutput:    true,
			QuoteString:    true,
			EndWithMessage: true,
		}
	} else {
		logger.Writer = &log.IOWriter{Writer: os.Stderr}
	}
	log.DefaultLogger = logger
}
