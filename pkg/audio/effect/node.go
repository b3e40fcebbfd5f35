// ABOUTME: Effect node interface and ordered chains of nodes
// ABOUTME: Nodes process interleaved float64 blocks in place
package effect

// Node transforms an interleaved block in place. Nodes keep their own state
// between calls and are driven from a single goroutine.
type Node interface {
	Process(block []float64)
}

// Identity passes audio through unchanged
type Identity struct{}

func (Identity) Process([]float64) {}

// Chain runs its nodes in order. A chain is itself a Node.
type Chain struct {
	settings   Settings
	sampleRate int
	nodes      []Node
}

// NewChain creates a chain from nodes
func NewChain(nodes ...Node) *Chain {
	return &Chain{nodes: nodes}
}

// Process applies every node to block in order
func (c *Chain) Process(block []float64) {
	for _, n := range c.nodes {
		n.Process(block)
	}
}

// Nodes returns the nodes in processing order
func (c *Chain) Nodes() []Node {
	return c.nodes
}

// Len returns the number of nodes
func (c *Chain) Len() int {
	return len(c.nodes)
}

// Settings returns the settings the chain was built or last tuned with
func (c *Chain) Settings() Settings {
	return c.settings
}

// Tune re-applies the two slider parameters to the live nodes of a chain
// built by Build. Delay lines and hold state are kept. Chains without
// tunable parameters ignore the call.
func (c *Chain) Tune(param1, param2 float64) error {
	next := c.settings
	next.Param1, next.Param2 = param1, param2
	if err := next.Validate(); err != nil {
		return err
	}

	switch next.Kind {
	case KindEcho:
		if len(c.nodes) != 1 {
			return nil
		}
		if e, ok := c.nodes[0].(*Echo); ok {
			e.SetDelay(msToFrames(next.echoDelayMs(), c.sampleRate))
			e.SetDecay(next.echoDecay())
		}
	case KindLowQualityMic:
		if len(c.nodes) != 1 {
			return nil
		}
		if d, ok := c.nodes[0].(*Degrade); ok {
			d.SetBitLevels(next.bitLevels())
			d.SetNoise(next.noiseAmplitude())
		}
	}
	c.settings = next
	return nil
}
