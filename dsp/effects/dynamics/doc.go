// Package dynamics provides the stateless gain-staged hard clipper used by
// the real-time clipping engine.
//
// HardClipper applies input gain, a symmetric hard clip at a ceiling, a
// reduce factor that lowers the clip point below the ceiling, optional delta
// monitoring and output gain. ClipSample and ClipStage expose the transfer
// function directly; ProcessRamps takes one control value per sample so a
// host can feed smoothed parameters.
package dynamics
