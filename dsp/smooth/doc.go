// Package smooth turns stepwise control targets into click-free per-sample
// value streams.
//
// A Smoother advances exactly one step per call to Next, so callers must
// query it once per sample in increasing sample order. Four styles are
// provided:
//   - StyleNone: the target is returned immediately.
//   - StyleLinear: constant additive step over the smoothing time.
//   - StyleLogarithmic: constant multiplicative step, i.e. linear in the log
//     domain. Suited to gain factors and frequencies.
//   - StyleExponential: one-pole approach that leaves 0.01% of the distance
//     after the smoothing time.
//
// Every style lands exactly on the target after the configured number of
// steps and never overshoots it. Smoothers do not allocate or lock and are
// owned by the real-time thread.
package smooth
