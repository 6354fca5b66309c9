// Package zap adapts a *zap.Logger to cacheaside.Logger.
package zap

import (
	"sort"

	"go.uber.org/zap"

	"github.com/unkn0wn-root/cacheaside"
)

var _ cacheaside.Logger = ZapLogger{}

type ZapLogger struct{ L *zap.Logger }

func New(l *zap.Logger) ZapLogger { return ZapLogger{L: l.Named("cacheaside")} }

func (z ZapLogger) Debug(msg string, f cacheaside.Fields) { z.L.Debug(msg, zf(f)...) }
func (z ZapLogger) Info(msg string, f cacheaside.Fields)  { z.L.Info(msg, zf(f)...) }
func (z ZapLogger) Warn(msg string, f cacheaside.Fields)  { z.L.Warn(msg, zf(f)...) }
func (z ZapLogger) Error(msg string, f cacheaside.Fields) { z.L.Error(msg, zf(f)...) }

// zf emits fields in key order; error values become zap.NamedError.
func zf(f cacheaside.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	ks := make([]string, 0, len(f))
	for k := range f {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	out := make([]zap.Field, 0, len(f))
	for _, k := range ks {
		if err, ok := f[k].(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, f[k]))
	}
	return out
}
