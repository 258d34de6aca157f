package dagcheck

import "time"

// Pipeline is the graph a client submits for validation.
type Pipeline struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node represents a vertex of the pipeline.
// Only the identifier takes part in validation; any other attribute is ignored.
type Node struct {
	ID string `json:"id"`
}

// Edge represents a directed connection: Source must occur before Target.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// NodeIDs returns the node identifiers in input order, duplicates included.
func (p *Pipeline) NodeIDs() []string {
	ids := make([]string, len(p.Nodes))
	for i, n := range p.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// Result is the outcome of validating one pipeline.
type Result struct {
	NumNodes int  `json:"num_nodes"`
	NumEdges int  `json:"num_edges"`
	IsDAG    bool `json:"is_dag"`
}

// Record is one entry of the validation history.
// It holds the verdict only; the submitted graph is never stored.
type Record struct {
	ID        string    `json:"id"`
	NumNodes  int       `json:"num_nodes"`
	NumEdges  int       `json:"num_edges"`
	IsDAG     bool      `json:"is_dag"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewRecord builds a history entry from a processing response.
func NewRecord(resp Response) *Record {
	rec := &Record{Error: resp.Error}
	if resp.Result != nil {
		rec.NumNodes = resp.NumNodes
		rec.NumEdges = resp.NumEdges
		rec.IsDAG = resp.IsDAG
	}
	return rec
}
