package scene

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/midgard-rig/internal/engine/camera"
	"github.com/Faultbox/midgard-rig/internal/engine/model"
	"github.com/Faultbox/midgard-rig/pkg/math"
)

// RenderItem is what a renderer needs to draw one model node.
type RenderItem struct {
	Node   NodeID
	Model  *model.Model
	World  math.Mat4
	Normal math.Mat3
}

// SetActiveCamera selects the camera node that receives input and provides
// the view.
func (g *Graph) SetActiveCamera(id NodeID) error {
	n, err := g.get(id)
	if err != nil {
		return err
	}
	if n.kind != KindCamera || n.camera == nil {
		return fmt.Errorf("node %d (%s): %w", id, n.kind, ErrNotCamera)
	}
	g.active = id
	return nil
}

// ActiveCamera returns the active camera node and its camera.
func (g *Graph) ActiveCamera() (NodeID, *camera.Camera, bool) {
	if !g.Valid(g.active) {
		return NoNode, nil, false
	}
	return g.active, g.nodes[g.active].camera, true
}

// Update steps every camera on the calling goroutine, feeding in only to the
// active one, then updates all models in parallel. A model attached to
// several nodes is updated once.
func (g *Graph) Update(ctx context.Context, dt float32, in camera.Input) error {
	var models []*model.Model
	seen := make(map[*model.Model]struct{})

	for i := range g.nodes {
		n := &g.nodes[i]
		if !n.live {
			continue
		}
		switch n.kind {
		case KindCamera:
			if n.camera == nil {
				continue
			}
			if NodeID(i) == g.active {
				n.camera.Update(dt, in)
			} else {
				n.camera.Update(dt, camera.Input{})
			}
		case KindModel:
			if n.model == nil {
				continue
			}
			if _, ok := seen[n.model]; !ok {
				seen[n.model] = struct{}{}
				models = append(models, n.model)
			}
		}
	}

	eg, ctx := errgroup.WithContext(ctx)
	if g.workers > 0 {
		eg.SetLimit(g.workers)
	}
	for _, m := range models {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return m.Update(dt)
		})
	}
	return eg.Wait()
}

// RenderItems lists every model node with its world and normal matrices.
func (g *Graph) RenderItems() []RenderItem {
	world := g.WorldTransforms()

	var items []RenderItem
	for i := range g.nodes {
		n := &g.nodes[i]
		if !n.live || n.kind != KindModel || n.model == nil {
			continue
		}
		items = append(items, RenderItem{
			Node:   NodeID(i),
			Model:  n.model,
			World:  world[i],
			Normal: world[i].NormalMatrix(),
		})
	}
	return items
}
