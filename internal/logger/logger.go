package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	globalLogger *Logger
	once         sync.Once
)

// Logger 高性能日志记录器
type Logger struct {
	*zap.Logger
	sugar  *zap.SugaredLogger
	fields []zap.Field
}

// LogConfig 日志配置
type LogConfig struct {
	Level             string `mapstructure:"level"`              // 日志级别
	Format            string `mapstructure:"format"`             // 日志格式 json/console
	Output            string `mapstructure:"output"`             // 输出 stdout/stderr/file
	FilePath          string `mapstructure:"file_path"`          // 文件路径
	Development       bool   `mapstructure:"development"`        // 开发模式
	DisableCaller     bool   `mapstructure:"disable_caller"`     // 禁用调用者信息
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"` // 禁用堆栈跟踪
}

// NewLogger 创建新的日志记录器
func NewLogger(config *LogConfig) *Logger {
	// 解析日志级别
	level := parseLogLevel(config.Level)

	// 创建编码器
	encoderConfig := getEncoderConfig(config.Development)
	var encoder zapcore.Encoder
	if config.Format == "json" {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	// 创建写入器和核心
	writeSyncer := getLogWriter(config)
	core := zapcore.NewCore(encoder, writeSyncer, level)

	opts := buildLoggerOptions(config)
	zapLogger := zap.New(core, opts...)

	return &Logger{
		Logger: zapLogger,
		sugar:  zapLogger.Sugar(),
		fields: make([]zap.Field, 0),
	}
}

// parseLogLevel 解析日志级别
func parseLogLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// getEncoderConfig 获取编码器配置
func getEncoderConfig(development bool) zapcore.EncoderConfig {
	if development {
		config := zap.NewDevelopmentEncoderConfig()
		config.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
		config.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return config
	}

	config := zap.NewProductionEncoderConfig()
	config.TimeKey = "timestamp"
	config.LevelKey = "level"
	config.MessageKey = "message"
	config.CallerKey = "caller"
	config.StacktraceKey = "stacktrace"
	config.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncodeLevel = zapcore.LowercaseLevelEncoder
	config.EncodeDuration = zapcore.SecondsDurationEncoder
	config.EncodeCaller = zapcore.ShortCallerEncoder

	return config
}

// getLogWriter 获取日志写入器
func getLogWriter(config *LogConfig) zapcore.WriteSyncer {
	switch config.Output {
	case "stderr":
		return zapcore.AddSync(os.Stderr)
	case "file":
		if config.FilePath != "" {
			file, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
			if err == nil {
				return zapcore.AddSync(file)
			}
		}
		fallthrough
	default:
		return zapcore.AddSync(os.Stdout)
	}
}

// buildLoggerOptions 构建日志器选项
func buildLoggerOptions(config *LogConfig) []zap.Option {
	opts := make([]zap.Option, 0)

	if !config.DisableCaller {
		opts = append(opts, zap.AddCaller(), zap.AddCallerSkip(1))
	}
	if !config.DisableStacktrace {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}
	if config.Development {
		opts = append(opts, zap.Development())
	}

	return opts
}

// WithField 添加字段
func (l *Logger) WithField(key string, value interface{}) *Logger {
	newFields := make([]zap.Field, len(l.fields)+1)
	copy(newFields, l.fields)
	newFields[len(l.fields)] = zap.Any(key, value)

	return &Logger{
		Logger: l.Logger,
		sugar:  l.sugar,
		fields: newFields,
	}
}

// Debug 调试日志
func (l *Logger) Debug(msg string, fields ...zap.Field) {
	l.Logger.Debug(msg, append(l.fields, fields...)...)
}

// Info 信息日志
func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.Logger.Info(msg, append(l.fields, fields...)...)
}

// Warn 警告日志
func (l *Logger) Warn(msg string, fields ...zap.Field) {
	l.Logger.Warn(msg, append(l.fields, fields...)...)
}

// Error 错误日志
func (l *Logger) Error(msg string, fields ...zap.Field) {
	l.Logger.Error(msg, append(l.fields, fields...)...)
}

// Fatal 致命错误日志
func (l *Logger) Fatal(msg string, fields ...zap.Field) {
	l.Logger.Fatal(msg, append(l.fields, fields...)...)
}

// Debugf 格式化调试日志
func (l *Logger) Debugf(template string, args ...interface{}) {
	l.sugar.Debugf(template, args...)
}

// Infof 格式化信息日志
func (l *Logger) Infof(template string, args ...interface{}) {
	l.sugar.Infof(template, args...)
}

// Warnf 格式化警告日志
func (l *Logger) Warnf(template string, args ...interface{}) {
	l.sugar.Warnf(template, args...)
}

// Errorf 格式化错误日志
func (l *Logger) Errorf(template string, args ...interface{}) {
	l.sugar.Errorf(template, args...)
}

// Fatalf 格式化致命错误日志
func (l *Logger) Fatalf(template string, args ...interface{}) {
	l.sugar.Fatalf(template, args...)
}

// Sync 同步日志缓冲区
func (l *Logger) Sync() error {
	return l.Logger.Sync()
}

// InitGlobalLogger 初始化全局日志记录器
func InitGlobalLogger(config *LogConfig) {
	once.Do(func() {
		globalLogger = NewLogger(config)
	})
}

// GetGlobalLogger 获取全局日志记录器
func GetGlobalLogger() *Logger {
	if globalLogger == nil {
		// 使用默认配置初始化
		InitGlobalLogger(&LogConfig{
			Level:       "info",
			Format:      "console",
			Output:      "stdout",
			Development: true,
		})
	}
	return globalLogger
}

// 全局日志函数
func Debug(msg string, fields ...zap.Field) {
	GetGlobalLogger().Debug(msg, fields...)
}

func Debugf(template string, args ...interface{}) {
	GetGlobalLogger().Debugf(template, args...)
}

func Info(msg string, fields ...zap.Field) {
	GetGlobalLogger().Info(msg, fields...)
}

func Infof(template string, args ...interface{}) {
	GetGlobalLogger().Infof(template, args...)
}

func Warn(msg string, fields ...zap.Field) {
	GetGlobalLogger().Warn(msg, fields...)
}

func Warnf(template string, args ...interface{}) {
	GetGlobalLogger().Warnf(template, args...)
}

func Error(msg string, fields ...zap.Field) {
	GetGlobalLogger().Error(msg, fields...)
}

func Errorf(template string, args ...interface{}) {
	GetGlobalLogger().Errorf(template, args...)
}

func Fatal(msg string, fields ...zap.Field) {
	GetGlobalLogger().Fatal(msg, fields...)
}

func Fatalf(template string, args ...interface{}) {
	GetGlobalLogger().Fatalf(template, args...)
}

func WithField(key string, value interface{}) *Logger {
	return GetGlobalLogger().WithField(key, value)
}

// Sync 同步全局日志缓冲区
func Sync() error {
	return GetGlobalLogger().Sync()
}
