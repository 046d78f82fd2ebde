// Package structlog is a structured-logging front end built around an ordered
// processor chain. Every log call assembles an event record from bound
// context plus call-site key/value pairs, threads it through a configurable
// list of processors, and hands the terminal renderer's output to an emitter.
// The same rendering stage also serves records that originate inside log/slog,
// so a process can adopt structured logging without abandoning handlers and
// sinks already wired into the standard library.
//
// # Design overview
//
//   - Bound loggers are immutable: Bind, Unbind, TryUnbind and New return
//     derived loggers and never mutate the receiver, so a logger can be
//     shared across goroutines without synchronization.
//   - Processors are plain functions over an Event. Each step returns one of
//     three outcomes: a replacement record (Next), a terminal rendered value
//     (Rendered), or a drop signal (Discard). The chain executes strictly in
//     order and stops at the first terminal value or drop.
//   - Emitters are consumed behind the Channel and EmitterFactory interfaces.
//     The slog emitter routes rendered lines through named *slog.Logger
//     channels with live per-channel thresholds; the writer emitter skips the
//     legacy layer and writes lines straight to an io.Writer.
//   - The Formatter is a slog.Handler that serves two producers: records a
//     bound logger wrapped with Wrap (already processed once, rendered here
//     per sink) and genuine slog-origin records, which are normalized through
//     a foreign pre-chain first. Several Formatters can render the same
//     wrapped event independently, one per sink.
//
// # Usage
//
//	structlog.Configure(structlog.Config{
//		Processors: []structlog.Processor{
//			structlog.AddLoggerName(),
//			structlog.AddLevel(),
//			structlog.FormatArgs(),
//			ts.Process,
//			structlog.NewLogfmtRenderer(),
//		},
//		Emitter: structlog.NewWriterEmitter(os.Stderr),
//	})
//	log := structlog.GetLogger("checkout").Bind("env", "prod")
//	log.Info("ready", "port", 8080)
//
// To interoperate with log/slog, configure the chain to end in Wrap and
// attach one Formatter per sink:
//
//	console := structlog.NewFormatter(os.Stderr, structlog.NewConsoleRenderer(opts))
//	file := structlog.NewFormatter(f, structlog.NewJSONRenderer())
//	slog.SetDefault(slog.New(structlog.Tee(console, file)))
//
// # Integration notes
//
//   - NewLevelFilter placed first in the chain rejects records below the
//     channel's live threshold before any formatting work happens.
//   - LoggerFromContext returns a no-op logger when the context carries none,
//     so library code can log unconditionally.
//   - ObservedWriter wraps a sink and counts write failures without changing
//     logger call signatures.
package structlog
