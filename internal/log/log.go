package log

import (
	stdlog "log"

	"go.uber.org/zap"
)

// InitLogger 初始化全局 zap Logger，之后统一通过 zap.L() 使用
func InitLogger() {
	logger, err := zap.NewProduction()
	if err != nil {
		stdlog.Fatalf("failed to init logger: %v", err)
	}
	zap.ReplaceGlobals(logger)
}
