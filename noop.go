package structlog

type noopLogger struct{}

// NewNopLogger returns a Logger that discards everything. Derivation methods
// return the receiver.
func NewNopLogger() Logger { return noopLogger{} }

func (noopLogger) Debug(string, ...any)       {}
func (noopLogger) Info(string, ...any)        {}
func (noopLogger) Warn(string, ...any)        {}
func (noopLogger) Error(string, ...any)       {}
func (noopLogger) Critical(string, ...any)    {}
func (noopLogger) Log(Level, string, ...any)  {}
func (noopLogger) Logf(Level, string, ...any) {}
func (n noopLogger) Bind(...any) Logger       { return n }
func (n noopLogger) Unbind(keys ...string) (Logger, error) {
	if len(keys) > 0 {
		return nil, &KeyNotBoundError{Keys: append([]string(nil), keys...)}
	}
	return n, nil
}
func (n noopLogger) TryUnbind(...string) Logger { return n }
func (n noopLogger) New(...any) Logger          { return n }
func (noopLogger) Name() string                 { return "" }
