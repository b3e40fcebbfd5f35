// ABOUTME: Effect package for stateful per-sample processing of the mix
// ABOUTME: Provides echo, reverb and low quality mic chains
// Package effect implements the effects applied to the mixed signal.
//
// Every node owns its state (delay lines, hold memory, noise generator), so
// two chains never interfere. Reverb is a Chain of two Echo nodes rather than
// a separate node type.
//
// Example:
//
//	chain, err := effect.Build(effect.Settings{Kind: effect.KindEcho, Param1: 0.25, Param2: 0.5}, format)
//	chain.Process(block)
package effect
