package dagcheck

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// InvalidJSONMessage is the error text returned for payloads that are not JSON.
const InvalidJSONMessage = "Invalid JSON format"

// DecodeError reports a payload that could not be parsed as JSON at all.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	if e == nil || e.Err == nil {
		return "dagcheck: decode pipeline"
	}
	return fmt.Sprintf("dagcheck: decode pipeline: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ProcessError reports any other failure while turning a payload into a result.
// Msg is the human-readable text relayed to the caller.
type ProcessError struct {
	Msg string
	Err error
}

func (e *ProcessError) Error() string {
	if e == nil {
		return ""
	}
	return e.Msg
}

func (e *ProcessError) Unwrap() error { return e.Err }

func processErrorf(format string, args ...any) error {
	return &ProcessError{Msg: fmt.Sprintf(format, args...)}
}

// object holds one JSON object by exact key. encoding/json struct decoding
// folds key case, so "ID" or "Nodes" would otherwise stand in for the real keys.
type object map[string]json.RawMessage

var jsonNull = []byte("null")

// field returns the string stored under key. ok is false when the key is
// absent or null.
func (o object) field(key string) (value string, ok bool, err error) {
	raw, found := o[key]
	if !found || bytes.Equal(bytes.TrimSpace(raw), jsonNull) {
		return "", false, nil
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", false, err
	}
	return value, true, nil
}

// list returns the array elements stored under key; absent or null is empty.
func (o object) list(key string) ([]json.RawMessage, error) {
	raw, found := o[key]
	if !found {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &ProcessError{Msg: fmt.Sprintf("%s: %v", key, err), Err: err}
	}
	return items, nil
}

func decodeObject(raw json.RawMessage, what string, i int) (object, error) {
	var o object
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, &ProcessError{Msg: fmt.Sprintf("%s %d: %v", what, i, err), Err: err}
	}
	return o, nil
}

func requireField(o object, key, what string, i int) (string, error) {
	v, ok, err := o.field(key)
	if err != nil {
		return "", &ProcessError{Msg: fmt.Sprintf("%s %d: %s: %v", what, i, key, err), Err: err}
	}
	if !ok {
		return "", processErrorf("%s %d: missing %s", what, i, key)
	}
	return v, nil
}

// DecodePipeline parses a serialized pipeline.
//
// Keys are matched exactly ("nodes", "edges", "id", "source", "target"); when
// a key repeats, the last occurrence wins.
//
// Input that is not JSON yields a *DecodeError. JSON of the wrong shape, nodes
// without an id and edges without both endpoints yield a *ProcessError.
// Missing or null "nodes" and "edges" decode as empty.
func DecodePipeline(raw []byte) (*Pipeline, error) {
	if !json.Valid(raw) {
		var v any
		return nil, &DecodeError{Err: json.Unmarshal(raw, &v)}
	}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, processErrorf("pipeline must be a JSON object")
	}

	var top object
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, &ProcessError{Msg: err.Error(), Err: err}
	}
	rawNodes, err := top.list("nodes")
	if err != nil {
		return nil, err
	}
	rawEdges, err := top.list("edges")
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		Nodes: make([]Node, 0, len(rawNodes)),
		Edges: make([]Edge, 0, len(rawEdges)),
	}
	for i, rn := range rawNodes {
		o, err := decodeObject(rn, "node", i)
		if err != nil {
			return nil, err
		}
		id, err := requireField(o, "id", "node", i)
		if err != nil {
			return nil, err
		}
		p.Nodes = append(p.Nodes, Node{ID: id})
	}
	for i, re := range rawEdges {
		o, err := decodeObject(re, "edge", i)
		if err != nil {
			return nil, err
		}
		src, err := requireField(o, "source", "edge", i)
		if err != nil {
			return nil, err
		}
		dst, err := requireField(o, "target", "edge", i)
		if err != nil {
			return nil, err
		}
		p.Edges = append(p.Edges, Edge{Source: src, Target: dst})
	}
	return p, nil
}
