// Package mix sums the buffered capture inputs of a session.
//
// The mixer is the single consumer of every ring buffer. Each Pull drains up
// to the requested number of frames from each input, converts them to float64,
// applies the input gain and adds them together.
package mix
