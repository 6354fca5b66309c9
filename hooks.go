package cacheaside

// Action names the operation that produced an ErrorEvent.
type Action string

const (
	ActionGet    Action = "get"
	ActionSet    Action = "set"
	ActionDecode Action = "decode"
	ActionDelete Action = "delete"
)

// ErrorEvent describes a failure the engine absorbed instead of returning.
type ErrorEvent struct {
	Key    string // logical key as passed by the caller
	Err    error
	Action Action
}

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The cache calls them on hot paths; a panic inside a hook is recovered and
// logged.
type Hooks interface {
	// A store, codec or delete failure was absorbed (counted, then degraded to
	// a miss or skipped write).
	Error(ev ErrorEvent)

	// A stored entry could not be decoded and was deleted on read.
	SelfHeal(storageKey, codec string)

	// A not-found placeholder was written.
	NegativeCached(storageKey string)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) Error(ErrorEvent)        {}
func (NopHooks) SelfHeal(string, string) {}
func (NopHooks) NegativeCached(string)   {}

// ErrorFunc adapts a plain error handler to Hooks.
type ErrorFunc func(ErrorEvent)

func (f ErrorFunc) Error(ev ErrorEvent)   { f(ev) }
func (ErrorFunc) SelfHeal(string, string) {}
func (ErrorFunc) NegativeCached(string)   {}
