// Package broadcast delivers the processed mix to every render sink.
//
// The broadcaster keeps a short history of published frames. Each sink owns a
// Cursor; a cursor that falls behind by more than the history jumps forward,
// and a cursor that runs dry plays silence until it has refilled. Neither
// case affects the other cursors.
package broadcast
