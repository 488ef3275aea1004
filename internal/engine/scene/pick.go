package scene

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-rig/internal/engine/picking"
)

// PickPadding widens joint bounds so thin rigs remain pickable.
const PickPadding = 0.1

// Pick returns the model node whose posed joint bounds the ray enters
// first, along with the hit distance. Models that have not been updated
// yet cannot be picked.
func (g *Graph) Pick(r picking.Ray) (NodeID, float32, bool) {
	world := g.WorldTransforms()

	best, bestDist := NoNode, math32.Inf(1)
	for i := range g.nodes {
		n := &g.nodes[i]
		if !n.live || n.kind != KindModel || n.model == nil {
			continue
		}
		local, ok := n.model.JointBounds()
		if !ok {
			continue
		}
		d, hit := r.IntersectBounds(local.Expand(PickPadding).Transform(world[i]))
		if hit && d < bestDist {
			best, bestDist = NodeID(i), d
		}
	}
	if best == NoNode {
		return NoNode, 0, false
	}
	return best, bestDist, true
}
