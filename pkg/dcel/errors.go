package dcel

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTopology is the sentinel every *TopologyError unwraps to. A mesh that
// returned it from a mutating call is in an undefined state and must be
// discarded.
var ErrTopology = errors.New("dcel: topology fault")

// ErrSplitPending is returned by Cut on a mesh that was already cut and has
// not been rebuilt through Break or Split yet.
var ErrSplitPending = errors.New("dcel: mesh was cut; split it before cutting again")

// FaultKind identifies the class of a topology fault.
type FaultKind int

const (
	FaultInvariant FaultKind = iota
	FaultDuplicateEdge
	FaultDegenerateEdge
	FaultOrphanedNeighbour
	FaultShortLoop
	FaultMissingFace
	FaultOpenChain
	FaultTraversalExceeded
	FaultTwinAsNext
	FaultDiscontinuous
	FaultTwoEdgeLoop
	FaultMalformedInput
	FaultReentrant
	FaultFaceOnPlane
)

var faultNames = map[FaultKind]string{
	FaultInvariant:         "invariant violated",
	FaultDuplicateEdge:     "duplicate edge",
	FaultDegenerateEdge:    "degenerate edge",
	FaultOrphanedNeighbour: "deleted edge still linked",
	FaultShortLoop:         "loop too short",
	FaultMissingFace:       "no face contains both vertices",
	FaultOpenChain:         "open cross-section chain",
	FaultTraversalExceeded: "traversal limit exceeded",
	FaultTwinAsNext:        "next set to twin",
	FaultDiscontinuous:     "next does not start where edge ends",
	FaultTwoEdgeLoop:       "two-edge loop",
	FaultMalformedInput:    "malformed input",
	FaultReentrant:         "mesh is already being mutated",
	FaultFaceOnPlane:       "face lies in the cutting plane",
}

func (k FaultKind) String() string {
	if s, ok := faultNames[k]; ok {
		return s
	}
	return fmt.Sprintf("fault(%d)", int(k))
}

// TopologyError describes a fault detected while building or mutating a
// mesh. Edge and Vertex are NoEdge / -1 when not applicable.
type TopologyError struct {
	Op         string
	Kind       FaultKind
	Edge       EdgeID
	Vertex     int
	Detail     string
	Violations []Violation
}

func (e *TopologyError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Kind.String())
	if e.Edge != NoEdge {
		fmt.Fprintf(&b, " (edge %d)", e.Edge)
	}
	if e.Vertex >= 0 {
		fmt.Fprintf(&b, " (vertex %d)", e.Vertex)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if n := len(e.Violations); n > 0 {
		fmt.Fprintf(&b, ": %d violation(s), first: %s", n, e.Violations[0].Error())
	}
	return b.String()
}

func (e *TopologyError) Unwrap() error { return ErrTopology }

func fault(op string, kind FaultKind, edge EdgeID, vertex int, format string, args ...any) *TopologyError {
	return &TopologyError{
		Op:     op,
		Kind:   kind,
		Edge:   edge,
		Vertex: vertex,
		Detail: fmt.Sprintf(format, args...),
	}
}

// IsFault reports whether err is a topology fault of the given kind.
func IsFault(err error, kind FaultKind) bool {
	var te *TopologyError
	return errors.As(err, &te) && te.Kind == kind
}
