package obs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type ctxKey string

const RequestIDKey ctxKey = "req_id"

// Time measures an operation and logs its duration on return. Use as:
//
//	defer obs.Time(ctx, "optimizer.RunAutoPilot")(&err)
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()

	reqID, _ := ctx.Value(RequestIDKey).(string)

	return func(errp *error) {
		fields := []zap.Field{
			zap.String("op", name),
			zap.Duration("dur", time.Since(start)),
		}
		if reqID != "" {
			fields = append(fields, zap.String("req_id", reqID))
		}

		if errp != nil && *errp != nil {
			zap.L().Warn("op finished", append(fields, zap.Error(*errp))...)
			return
		}
		zap.L().Debug("op finished", fields...)
	}
}
