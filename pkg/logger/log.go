package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// FilePrefix и FileLayout задают имя дневного файла: app-2006-01-02.log
const (
	FilePrefix = "app-"
	FileLayout = "2006-01-02"
	FileSuffix = ".log"
)

func FileName(day time.Time) string {
	return FilePrefix + day.Format(FileLayout) + FileSuffix
}

// NewLogger пишет в stdout и в дневной файл внутри dir.
func NewLogger(level, dir string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("неверный уровень логирования %q: %w", level, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("не удалось создать каталог логов: %w", err)
	}

	dualConfig := zap.Config{
		Encoding:         "console",
		Level:            zap.NewAtomicLevelAt(lvl),
		OutputPaths:      []string{"stdout", filepath.Join(dir, FileName(time.Now()))},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig:    zap.NewProductionEncoderConfig(),
	}
	dualConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return dualConfig.Build()
}

type Loggers struct {
	Main       *zap.Logger
	Auth       *zap.Logger
	JobOrder   *zap.Logger
	Correction *zap.Logger
	Registry   *zap.Logger
	Scheduler  *zap.Logger
}

func NewLoggers(base *zap.Logger) *Loggers {
	return &Loggers{
		Main:       base.Named("main"),
		Auth:       base.Named("auth"),
		JobOrder:   base.Named("job_order"),
		Correction: base.Named("correction"),
		Registry:   base.Named("registry"),
		Scheduler:  base.Named("scheduler"),
	}
}
