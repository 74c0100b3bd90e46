// Package clipper composes smoothed parameters and the hard-clip transfer
// function into a block processor for a host-driven real-time thread.
//
// Control flow per block: every smoothed parameter renders one ramp value per
// sample index, the ramps are shared by all channels, and each channel is
// clipped in place. Process never allocates, locks or blocks; parameters may
// be written concurrently from other goroutines through Params or its
// registry.
//
// Delta monitoring defaults to the post-input-gain reference, i.e. it outputs
// exactly what the clipper removed from the signal it processed. The
// pre-gain variant is available through WithDeltaReference.
package clipper
