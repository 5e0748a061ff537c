/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// newLogger builds the CLI logger: JSON through a rotating file when
// log-file is set, otherwise colored console output on stderr.
func newLogger() (*zap.Logger, error) {
	level := logLevel()

	if path := viper.GetString("log-file"); path != "" {
		return zap.New(fileCore(path, level)), nil
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.DisableStacktrace = true
	return cfg.Build()
}

func logLevel() zapcore.Level {
	if viper.GetBool("verbose") {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}

func fileCore(path string, level zapcore.Level) zapcore.Core {
	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	})
	return zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), w, level)
}
