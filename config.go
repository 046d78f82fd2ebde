package structlog

import (
	"errors"
	"fmt"
	"os"
	"sync"
)

// Config is the process-wide configuration surface: one shared processor
// chain, one emitter factory, and the caching flag. It is set once through
// Configure and read on every GetLogger.
type Config struct {
	// Processors is the chain executed in order on every log call. Order is
	// significant and caller-controlled; an expensive-rejection step such as
	// NewLevelFilter conventionally goes first, the terminal renderer last.
	Processors []Processor

	// Emitter resolves channel names to emitter handles.
	Emitter EmitterFactory

	// CacheLoggers caches the fully constructed logger per name on first
	// GetLogger, trading reconfiguration-after-first-use for per-call
	// construction cost. Configure and Reset invalidate the cache.
	CacheLoggers bool
}

// Registry holds one Config plus the logger cache behind a single lock, so
// no call ever observes a half-updated chain and concurrent first-use of a
// name converges on one cache entry. The package-level Configure, Reset and
// GetLogger delegate to a process default Registry; independent registries
// exist mostly for tests and embedded use.
type Registry struct {
	mu    sync.Mutex
	cfg   Config
	cache map[string]Logger
}

// NewRegistry returns a registry seeded with the default configuration:
// logger name, level, positional-arg interpolation, RFC3339 timestamps, and
// a logfmt renderer writing to stderr.
func NewRegistry() *Registry {
	return &Registry{cfg: defaultConfig()}
}

func defaultConfig() Config {
	return Config{
		Processors: []Processor{
			AddLoggerName(),
			AddLevel(),
			FormatArgs(),
			defaultTimestamper().Process,
			NewLogfmtRenderer(),
		},
		Emitter: NewWriterEmitter(os.Stderr),
	}
}

// defaultTimestamper is shared by every defaultConfig so Reset does not pile
// up cache refresh goroutines.
var defaultTimestamper = sync.OnceValue(func() *Timestamper {
	return NewTimestamper(TimestamperOptions{})
})

// Configure atomically replaces the registry's configuration and invalidates
// the logger cache. A bad chain or missing factory is reported here, at
// configure time, and leaves the previous configuration in place.
func (r *Registry) Configure(cfg Config) error {
	if len(cfg.Processors) == 0 {
		return errors.New("structlog: configure: empty processor chain")
	}
	for i, p := range cfg.Processors {
		if p == nil {
			return fmt.Errorf("structlog: configure: nil processor at index %d", i)
		}
	}
	if cfg.Emitter == nil {
		return errors.New("structlog: configure: nil emitter factory")
	}
	chain := make([]Processor, len(cfg.Processors))
	copy(chain, cfg.Processors)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg = Config{Processors: chain, Emitter: cfg.Emitter, CacheLoggers: cfg.CacheLoggers}
	r.cache = nil
	return nil
}

// Reset restores the default configuration and invalidates the cache.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg = defaultConfig()
	r.cache = nil
}

// GetLogger resolves name to a bound logger over the current chain and the
// emitter's channel for name. Under CacheLoggers the constructed logger is
// cached by name.
func (r *Registry) GetLogger(name string) Logger {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cfg.CacheLoggers {
		if logger, ok := r.cache[name]; ok {
			return logger
		}
	}
	logger := &boundLogger{
		name:    name,
		chain:   r.cfg.Processors,
		channel: r.cfg.Emitter.Channel(name),
	}
	if r.cfg.CacheLoggers {
		if r.cache == nil {
			r.cache = make(map[string]Logger)
		}
		r.cache[name] = logger
	}
	return logger
}

var processRegistry = sync.OnceValue(NewRegistry)

// Configure replaces the process-wide configuration. See Registry.Configure.
func Configure(cfg Config) error {
	return processRegistry().Configure(cfg)
}

// Reset restores the process-wide default configuration.
func Reset() {
	processRegistry().Reset()
}

// GetLogger resolves name against the process-wide registry.
func GetLogger(name string) Logger {
	return processRegistry().GetLogger(name)
}
