// Package param models continuously variable and on/off control parameters
// shared between a control thread (automation, UI) and the real-time
// processing thread.
//
// Plain values live in atomic cells: any goroutine may Set or read them
// without locking. Each FloatParam also owns a smooth.Smoother that only the
// real-time thread advances through Next and NextBlock; those calls pick up
// the latest stored value as the smoothing target.
//
// Out-of-range values are clamped rather than rejected, since automation
// routinely sends boundary-crossing values. Errors are only reported for
// construction mistakes and unparsable strings.
package param
