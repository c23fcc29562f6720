// Package appender forwards log events to InfluxDB as data points.
//
// An Appender owns at most one backend connection. Activate connects,
// optionally over TLS pinned to a trust store, and makes sure the target
// database exists. Deliver turns each event into one point and writes it
// synchronously. Shutdown drops the connection.
//
// # Lifecycle
//
//	Uninitialized -> Activating -> Ready | Failed
//	any state -> Shutdown -> Uninitialized
//
// A failed activation is never retried automatically. Deliver is a silent
// no-op in every state except Ready.
//
// # Error Handling
//
// Nothing in this package returns or panics across the logging call path.
// Activation, probe and write failures are reported as text through the
// configured ErrorHandler and the affected event is dropped. The only error
// a caller ever sees is an unsupported consistency level, rejected by the
// config package before an Appender exists.
//
// # Usage
//
//	a := appender.New(appender.Options{
//	    Config:       cfg.Appender,
//	    Identity:     appender.ResolveIdentity(),
//	    ErrorHandler: appender.NewLogErrorHandler(logging.Default()),
//	})
//	a.Activate(ctx)
//	defer a.Shutdown()
//
//	slog.SetDefault(slog.New(appender.NewHandler(a, slog.LevelInfo)))
//
// # Thread Safety
//
// Deliver may be called from any number of goroutines. Activate and
// Shutdown are serialised with each other; the connection handle is
// published atomically so Deliver never blocks on them.
package appender
