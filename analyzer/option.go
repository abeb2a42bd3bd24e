package analyzer

type Option func(*Analysis)

// WithConstantTracking switches the evaluator to propagation mode: literal
// constants surface as dependency tokens and user-defined callees are not
// descended. The transformers run in this mode.
func WithConstantTracking() Option {
	return func(a *Analysis) {
		a.trackConstants = true
	}
}

// WithReportExporter registers an exporter invoked by AnalyzeAll.
func WithReportExporter(exporter ReportExporter) Option {
	return func(a *Analysis) {
		a.exporter = exporter
	}
}
