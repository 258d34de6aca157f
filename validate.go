package dagcheck

// Options selects how the validator treats duplicate node identifiers and
// edges that reference identifiers outside the node list.
//
// The zero value keeps the historical behaviour of the pipeline backend:
// duplicates are counted but processed once, so they fail the check, and
// dangling edges take part in in-degree bookkeeping.
type Options struct {
	// CollapseDuplicates compares the processed count against the number of
	// distinct node identifiers instead of the length of the node list.
	CollapseDuplicates bool `yaml:"collapse_duplicate_nodes" json:"collapse_duplicate_nodes"`

	// IgnoreDangling drops edges whose source or target is not a known node
	// before building the graph. Such edges still count toward NumEdges.
	IgnoreDangling bool `yaml:"ignore_dangling_edges" json:"ignore_dangling_edges"`
}

// Validate reports whether the graph formed by nodes and edges is acyclic,
// using the default Options.
func Validate(nodes []string, edges []Edge) Result {
	return Options{}.Validate(nodes, edges)
}

// Validate runs Kahn's algorithm over nodes and edges.
//
// It is a pure function: all bookkeeping is local to the call and the input
// slices are never modified. Runs in O(V+E).
func (o Options) Validate(nodes []string, edges []Edge) Result {
	res := Result{NumNodes: len(nodes), NumEdges: len(edges)}

	inDegree := make(map[string]int, len(nodes))
	for _, id := range nodes {
		inDegree[id] = 0
	}
	distinct := len(inDegree)

	adjacency := make(map[string][]string, len(inDegree))
	for _, e := range edges {
		if o.IgnoreDangling && !(known(inDegree, e.Source) && known(inDegree, e.Target)) {
			continue
		}
		adjacency[e.Source] = append(adjacency[e.Source], e.Target)
		if _, ok := inDegree[e.Target]; !ok {
			inDegree[e.Target] = 0
		}
		inDegree[e.Target]++
	}

	q := newQueue(distinct)
	seeded := make(map[string]struct{}, distinct)
	for _, id := range nodes {
		if _, dup := seeded[id]; dup {
			continue
		}
		seeded[id] = struct{}{}
		if inDegree[id] == 0 {
			q.Push(id)
		}
	}

	processed := 0
	for {
		id, ok := q.Pop()
		if !ok {
			break
		}
		processed++
		for _, next := range adjacency[id] {
			inDegree[next]--
			if inDegree[next] == 0 {
				q.Push(next)
			}
		}
	}

	want := len(nodes)
	if o.CollapseDuplicates {
		want = distinct
	}
	res.IsDAG = processed == want
	return res
}

func known(inDegree map[string]int, id string) bool {
	_, ok := inDegree[id]
	return ok
}
