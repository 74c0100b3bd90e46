// Package buffer provides reusable float64 scratch storage for real-time
// processing. Buffers are sized once when a processor is prepared; the hot
// path only reslices them with Head and never allocates.
package buffer
