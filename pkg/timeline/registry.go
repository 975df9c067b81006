package timeline

import "sync"

// NodeID identifies a sequence registered in a Registry.
type NodeID uint64

// Invalidator is implemented by registered nodes that cache data derived
// from an upstream node.
type Invalidator interface {
	// SourceChanged drops every cache derived from upstream. It must not
	// notify further dependents; the Registry walks the graph.
	SourceChanged(upstream NodeID)
}

// Registry owns the dependency graph between sequences. Nodes refer to each
// other by NodeID; a dependent never holds a pointer back to the node it
// watches, so removing a node only requires unregistering it.
type Registry struct {
	mu         sync.RWMutex
	next       NodeID
	nodes      map[NodeID]Source
	dependents map[NodeID]map[NodeID]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		nodes:      make(map[NodeID]Source),
		dependents: make(map[NodeID]map[NodeID]struct{}),
	}
}

// Register adds src and returns its id.
func (r *Registry) Register(src Source) NodeID {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.nodes[r.next] = src
	return r.next
}

// Lookup returns the source registered under id.
func (r *Registry) Lookup(id NodeID) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src, ok := r.nodes[id]
	return src, ok
}

// Unregister removes id and every dependency edge touching it. Every
// transitive dependent of id is notified afterwards and sees a broken
// reference.
func (r *Registry) Unregister(id NodeID) {
	r.mu.Lock()
	order, targets := r.walk(id)
	delete(r.nodes, id)
	delete(r.dependents, id)
	for _, deps := range r.dependents {
		delete(deps, id)
	}
	r.mu.Unlock()

	notify(order, targets)
}

// AddDependent records that dependent derives data from upstream.
func (r *Registry) AddDependent(upstream, dependent NodeID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	deps, ok := r.dependents[upstream]
	if !ok {
		deps = make(map[NodeID]struct{})
		r.dependents[upstream] = deps
	}
	deps[dependent] = struct{}{}
}

// RemoveDependent deletes the edge between upstream and dependent.
func (r *Registry) RemoveDependent(upstream, dependent NodeID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.dependents[upstream], dependent)
}

// Dependents returns the direct dependents of id.
func (r *Registry) Dependents(id NodeID) []NodeID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]NodeID, 0, len(r.dependents[id]))
	for d := range r.dependents[id] {
		out = append(out, d)
	}
	return out
}

// Changed notifies every transitive dependent of id exactly once.
func (r *Registry) Changed(id NodeID) {
	r.mu.RLock()
	order, targets := r.walk(id)
	r.mu.RUnlock()

	notify(order, targets)
}

type edge struct{ upstream, node NodeID }

// walk lists the transitive dependents of id breadth first, each with the
// upstream it was reached through. The caller holds r.mu.
func (r *Registry) walk(id NodeID) ([]edge, []Source) {
	var order []edge
	seen := map[NodeID]bool{id: true}
	queue := []NodeID{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for d := range r.dependents[cur] {
			if seen[d] {
				continue
			}
			seen[d] = true
			order = append(order, edge{upstream: cur, node: d})
			queue = append(queue, d)
		}
	}
	targets := make([]Source, len(order))
	for i, e := range order {
		targets[i] = r.nodes[e.node]
	}
	return order, targets
}

// notify runs outside the lock: invalidators look nodes up again.
func notify(order []edge, targets []Source) {
	for i, src := range targets {
		if inv, ok := src.(Invalidator); ok {
			inv.SourceChanged(order[i].upstream)
		}
	}
}
