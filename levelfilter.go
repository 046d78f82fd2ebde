package structlog

// NewLevelFilter returns the conventional first chain step: it queries the
// live effective threshold for the record's channel and discards records
// strictly below it. The query is never cached; thresholds can change at
// runtime and the filter must observe that. The step has no side effect
// beyond the query and is idempotent.
//
// Both SlogEmitter and WriterEmitter satisfy ThresholdSource, so the emitter
// the loggers already route through is usually the source to pass here. A nil
// source passes everything.
func NewLevelFilter(source ThresholdSource) Processor {
	return func(logger string, level Level, ev *Event) (Outcome, error) {
		if source == nil {
			return Next(ev), nil
		}
		if level < source.EffectiveLevel(logger) {
			return Discard(), nil
		}
		return Next(ev), nil
	}
}
