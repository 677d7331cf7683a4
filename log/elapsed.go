package log

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type elapsed struct {
	start time.Time
	key   string
}

func (v *elapsed) MarshalLogObject(e zapcore.ObjectEncoder) error {
	e.AddDuration(v.key, time.Since(v.start))
	return nil
}

// Elapsed reports the time passed since its creation every time the
// returned field is encoded.
func Elapsed(key string) zap.Field {
	return zap.Inline(&elapsed{start: time.Now(), key: key})
}
