package logging

import (
	"strings"

	"github.com/axelarscope/dashboard/pkg/utils"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger. LOG_LEVEL selects debug|info|warn|error, LOG_ENCODING json|console.
// Every entry carries the service name so dashboard and CLI logs can be told apart.
func New(service string) (*zap.Logger, error) {
	return build(service, "stdout")
}

// NewStderr is New writing to stderr, for commands whose stdout carries the output.
func NewStderr(service string) (*zap.Logger, error) {
	return build(service, "stderr")
}

func build(service, output string) (*zap.Logger, error) {
	level := strings.ToLower(utils.Env("LOG_LEVEL", "info"))
	encoding := utils.Env("LOG_ENCODING", "json")

	cfg := zap.NewProductionConfig()
	cfg.Encoding = encoding
	switch level {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		cfg.Development = true
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	cfg.OutputPaths = []string{output}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.InitialFields = map[string]interface{}{"service": service}

	return cfg.Build()
}
