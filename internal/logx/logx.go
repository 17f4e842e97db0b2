package logx

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Logger = New("info", false)

// New 构建 zap logger；debug 模式使用彩色的开发配置
func New(level string, debug bool) *zap.SugaredLogger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	var logger *zap.Logger
	if debug {
		devConf := zap.NewDevelopmentConfig()
		devConf.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		devConf.Level = zap.NewAtomicLevelAt(lvl)
		logger = zap.Must(devConf.Build())
	} else {
		prodConf := zap.NewProductionConfig()
		prodConf.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		prodConf.Level = zap.NewAtomicLevelAt(lvl)
		logger = zap.Must(prodConf.Build())
	}
	return logger.Sugar()
}

// Init 替换全局 Logger，程序启动时调用一次
func Init(level string, debug bool) {
	Logger = New(level, debug)
}

type Logx struct{}

func ContextWithLogger(ctx context.Context, l *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, Logx{}, l)
}

func LoggerFromContext(ctx context.Context) *zap.SugaredLogger {
	if l, ok := ctx.Value(Logx{}).(*zap.SugaredLogger); ok {
		return l
	}
	return Logger
}
