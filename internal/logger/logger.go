package logger

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	Log *logrus.Logger

	fallbackOnce sync.Once
	fallback     *logrus.Logger
)

// Init инициализирует структурированный логгер.
func Init(level string) {
	Log = logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	// Используем JSON формат для production, text для development
	Log.SetFormatter(&logrus.JSONFormatter{})
}

// SetTextFormatter устанавливает текстовый формат логов (для development).
func SetTextFormatter() {
	if Log != nil {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
}

// Get возвращает глобальный логгер. Если Init не вызывался (тесты),
// отдаёт логгер, который ничего не пишет.
func Get() *logrus.Logger {
	if Log != nil {
		return Log
	}
	fallbackOnce.Do(func() {
		fallback = logrus.New()
		fallback.SetOutput(io.Discard)
	})
	return fallback
}

// WithComponent возвращает запись с полем component.
func WithComponent(name string) *logrus.Entry {
	return Get().WithField("component", name)
}
