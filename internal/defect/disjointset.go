package defect

// disjointSet is a union-find arena indexed by provisional label. Index 0 is
// the background and always its own root. The arena grows by appending one
// entry per new label.
type disjointSet struct {
	parent []int32
}

func newDisjointSet(capacityHint int) *disjointSet {
	parent := make([]int32, 1, capacityHint+1)
	parent[0] = 0
	return &disjointSet{parent: parent}
}

// makeSet allocates a new singleton label and returns it.
func (ds *disjointSet) makeSet() int32 {
	l := int32(len(ds.parent))
	ds.parent = append(ds.parent, l)
	return l
}

// size returns the number of labels allocated, background included.
func (ds *disjointSet) size() int { return len(ds.parent) }

// find returns the root of a, halving the path as it walks.
func (ds *disjointSet) find(a int32) int32 {
	for ds.parent[a] != a {
		ds.parent[a] = ds.parent[ds.parent[a]]
		a = ds.parent[a]
	}
	return a
}

// union attaches b's root under a's root.
func (ds *disjointSet) union(a, b int32) {
	ra, rb := ds.find(a), ds.find(b)
	if ra != rb {
		ds.parent[rb] = ra
	}
}

// flatten points every label directly at its root so later lookups are a
// single index.
func (ds *disjointSet) flatten() {
	for l := 1; l < len(ds.parent); l++ {
		ds.parent[l] = ds.find(int32(l))
	}
}

// root returns the representative of a flattened label.
func (ds *disjointSet) root(a int32) int32 { return ds.parent[a] }
