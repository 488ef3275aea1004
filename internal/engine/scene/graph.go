// Package scene holds the node hierarchy that places models and cameras in
// the world. Nodes live in an arena and refer to each other by NodeID.
package scene

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-rig/internal/engine/camera"
	"github.com/Faultbox/midgard-rig/internal/engine/model"
	"github.com/Faultbox/midgard-rig/internal/engine/transform"
	"github.com/Faultbox/midgard-rig/internal/logger"
	"github.com/Faultbox/midgard-rig/pkg/math"
)

var (
	// ErrInvalidNode is returned for an ID that names no live node.
	ErrInvalidNode = errors.New("invalid scene node")
	// ErrCycle is returned when a reparent would make a node its own ancestor.
	ErrCycle = errors.New("scene node cycle")
	// ErrNotCamera is returned when a non-camera node is made the active camera.
	ErrNotCamera = errors.New("scene node is not a camera")
)

// NodeID addresses a node in a Graph.
type NodeID int

// NoNode is the parent of a root node.
const NoNode NodeID = -1

// Kind tags what a node carries.
type Kind int

// Node kinds.
const (
	KindEmpty Kind = iota
	KindModel
	KindCamera
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindModel:
		return "model"
	case KindCamera:
		return "camera"
	default:
		return "unknown"
	}
}

type node struct {
	name      string
	kind      Kind
	transform transform.Transform
	model     *model.Model
	camera    *camera.Camera

	parent   NodeID
	children []NodeID
	live     bool
}

// Graph is an arena of nodes. Freed slots are reused by later NewNode calls.
// A Graph is not safe for concurrent use; Update is the only method that
// fans work out to other goroutines.
type Graph struct {
	nodes   []node
	free    []NodeID
	active  NodeID
	workers int
}

// New creates an empty graph whose Update runs at most workers model
// updates at once. workers below 1 means one per model.
func New(workers int) *Graph {
	return &Graph{active: NoNode, workers: workers}
}

// NewNode allocates a root node with an identity transform.
func (g *Graph) NewNode(name string, kind Kind) NodeID {
	n := node{
		name:      name,
		kind:      kind,
		transform: transform.New(),
		parent:    NoNode,
		live:      true,
	}
	if k := len(g.free); k > 0 {
		id := g.free[k-1]
		g.free = g.free[:k-1]
		g.nodes[id] = n
		return id
	}
	g.nodes = append(g.nodes, n)
	return NodeID(len(g.nodes) - 1)
}

// NewModelNode allocates a root node carrying m.
func (g *Graph) NewModelNode(name string, m *model.Model) NodeID {
	id := g.NewNode(name, KindModel)
	g.nodes[id].model = m
	return id
}

// NewCameraNode allocates a root node carrying c. The first camera node
// becomes the active camera.
func (g *Graph) NewCameraNode(name string, c *camera.Camera) NodeID {
	id := g.NewNode(name, KindCamera)
	g.nodes[id].camera = c
	if g.active == NoNode {
		g.active = id
	}
	return id
}

// Valid reports whether id names a live node.
func (g *Graph) Valid(id NodeID) bool {
	return id >= 0 && int(id) < len(g.nodes) && g.nodes[id].live
}

func (g *Graph) get(id NodeID) (*node, error) {
	if !g.Valid(id) {
		return nil, fmt.Errorf("node %d: %w", id, ErrInvalidNode)
	}
	return &g.nodes[id], nil
}

// Add makes child a child of parent, detaching it from any previous parent.
// parent NoNode turns child into a root.
func (g *Graph) Add(parent, child NodeID) error {
	c, err := g.get(child)
	if err != nil {
		return err
	}
	if parent != NoNode {
		if _, err := g.get(parent); err != nil {
			return err
		}
		for p := parent; p != NoNode; p = g.nodes[p].parent {
			if p == child {
				return fmt.Errorf("node %d under %d: %w", child, parent, ErrCycle)
			}
		}
	}

	g.detach(child)
	c.parent = parent
	if parent != NoNode {
		g.nodes[parent].children = append(g.nodes[parent].children, child)
	}
	return nil
}

func (g *Graph) detach(id NodeID) {
	p := g.nodes[id].parent
	if p == NoNode {
		return
	}
	pn := &g.nodes[p]
	if i := slices.Index(pn.children, id); i >= 0 {
		pn.children = slices.Delete(pn.children, i, i+1)
	}
	g.nodes[id].parent = NoNode
}

// Remove frees id. Its children move to its former parent, taking its
// place in the sibling order, or become roots.
func (g *Graph) Remove(id NodeID) error {
	n, err := g.get(id)
	if err != nil {
		return err
	}

	parent := n.parent
	orphans := n.children
	for _, c := range orphans {
		g.nodes[c].parent = parent
	}
	if parent != NoNode {
		pn := &g.nodes[parent]
		i := slices.Index(pn.children, id)
		pn.children = slices.Replace(pn.children, i, i+1, orphans...)
	}

	if g.active == id {
		g.active = NoNode
	}
	g.nodes[id] = node{parent: NoNode}
	g.free = append(g.free, id)

	logger.Named("scene").Debug("node removed",
		zap.Int("node", int(id)),
		zap.Int("reparented", len(orphans)))
	return nil
}

// Children returns a copy of id's children in order. Invalid IDs have none.
func (g *Graph) Children(id NodeID) []NodeID {
	if !g.Valid(id) {
		return nil
	}
	return slices.Clone(g.nodes[id].children)
}

// Parent returns id's parent, or NoNode for roots and invalid IDs.
func (g *Graph) Parent(id NodeID) NodeID {
	if !g.Valid(id) {
		return NoNode
	}
	return g.nodes[id].parent
}

// Roots returns every live parentless node in ID order.
func (g *Graph) Roots() []NodeID {
	var roots []NodeID
	for i := range g.nodes {
		if g.nodes[i].live && g.nodes[i].parent == NoNode {
			roots = append(roots, NodeID(i))
		}
	}
	return roots
}

// Len returns the number of live nodes.
func (g *Graph) Len() int { return len(g.nodes) - len(g.free) }

// Name returns the node's name.
func (g *Graph) Name(id NodeID) string {
	if !g.Valid(id) {
		return ""
	}
	return g.nodes[id].name
}

// Kind returns the node's kind.
func (g *Graph) Kind(id NodeID) Kind {
	if !g.Valid(id) {
		return KindEmpty
	}
	return g.nodes[id].kind
}

// Model returns the model carried by id, or nil.
func (g *Graph) Model(id NodeID) *model.Model {
	if !g.Valid(id) {
		return nil
	}
	return g.nodes[id].model
}

// Camera returns the camera carried by id, or nil.
func (g *Graph) Camera(id NodeID) *camera.Camera {
	if !g.Valid(id) {
		return nil
	}
	return g.nodes[id].camera
}

// Transform returns the node's local transform.
func (g *Graph) Transform(id NodeID) (transform.Transform, bool) {
	if !g.Valid(id) {
		return transform.Transform{}, false
	}
	return g.nodes[id].transform, true
}

// SetTransform replaces the node's local transform.
func (g *Graph) SetTransform(id NodeID, t transform.Transform) error {
	n, err := g.get(id)
	if err != nil {
		return err
	}
	n.transform = t
	return nil
}

// WorldTransform composes local model matrices from id up to its root.
// Nothing is cached, so any ancestor change shows up on the next call.
func (g *Graph) WorldTransform(id NodeID) (math.Mat4, bool) {
	if !g.Valid(id) {
		return math.Identity(), false
	}
	world := g.nodes[id].transform.ModelMatrix()
	for p := g.nodes[id].parent; p != NoNode; p = g.nodes[p].parent {
		world = g.nodes[p].transform.ModelMatrix().Mul(world)
	}
	return world, true
}

// WorldTransforms computes every live node's world matrix in one pass from
// the roots down. The slice is indexed by NodeID; free slots hold identity.
func (g *Graph) WorldTransforms() []math.Mat4 {
	world := make([]math.Mat4, len(g.nodes))
	for i := range world {
		world[i] = math.Identity()
	}

	stack := g.Roots()
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := &g.nodes[id]
		local := n.transform.ModelMatrix()
		if n.parent != NoNode {
			world[id] = world[n.parent].Mul(local)
		} else {
			world[id] = local
		}
		stack = append(stack, n.children...)
	}
	return world
}
