// Package sloghooks logs cacheaside hook events to a *slog.Logger with
// sampling and key redaction.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/cacheaside"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	ErrorEvery    uint64
	SelfHealEvery uint64
	// Negative writes are routine; logged at debug only when > 0.
	NegativeEvery uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	errCtr      atomic.Uint64
	selfHealCtr atomic.Uint64
	negCtr      atomic.Uint64
}

var _ cacheaside.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) Error(ev cacheaside.ErrorEvent) {
	if h.l == nil || !sample(h.opts.ErrorEvery, &h.errCtr) {
		return
	}
	h.l.Warn("cacheaside.error",
		"key", h.redact(ev.Key),
		"action", string(ev.Action),
		"err", ev.Err)
}

func (h *Hooks) SelfHeal(storageKey, codec string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Debug("cacheaside.self_heal",
		"key", h.redact(storageKey),
		"codec", codec)
}

func (h *Hooks) NegativeCached(storageKey string) {
	if h.l == nil || h.opts.NegativeEvery == 0 || !sample(h.opts.NegativeEvery, &h.negCtr) {
		return
	}
	h.l.Debug("cacheaside.negative_cached", "key", h.redact(storageKey))
}
