package eventlog

import (
	"cmp"
	"slices"
	"strings"
)

// Kind distinguishes the variants of Node
type Kind uint8

const (
	// KindStart is the synthetic source of every case
	KindStart Kind = iota
	// KindActivity is a plain activity label from the log
	KindActivity
	// KindMetaState is an aggregated cycle of activities
	KindMetaState
	// KindEnd is the synthetic sink of every case
	KindEnd
)

// memberSep joins meta-state members inside the node key. Logs reject
// activity labels containing it.
const memberSep = "\x1f"

// Node identifies a vertex of the process map: a plain activity, a
// meta-state (ordered tuple of activities) or one of the Start/End
// sentinels. Node is comparable and safe to use as a map key.
type Node struct {
	kind Kind
	key  string
}

var (
	// Start marks the beginning of every case
	Start = Node{kind: KindStart}
	// End marks the end of every case
	End = Node{kind: KindEnd}
)

// Activity returns the node for a plain activity label.
func Activity(label string) Node {
	return Node{kind: KindActivity, key: label}
}

// MetaState returns the node for an ordered tuple of activity labels.
// Labels must not contain the unit separator \x1f.
func MetaState(labels ...string) Node {
	return Node{kind: KindMetaState, key: strings.Join(labels, memberSep)}
}

// MetaStateOf builds a meta-state from activity nodes. It reports false if
// any node is not a plain activity.
func MetaStateOf(nodes []Node) (Node, bool) {
	labels := make([]string, len(nodes))
	for i, n := range nodes {
		if n.kind != KindActivity {
			return Node{}, false
		}
		labels[i] = n.key
	}
	return MetaState(labels...), true
}

// Kind returns the variant of the node
func (n Node) Kind() Kind { return n.kind }

// IsActivity reports whether n is a plain activity
func (n Node) IsActivity() bool { return n.kind == KindActivity }

// IsMetaState reports whether n is an aggregated meta-state
func (n Node) IsMetaState() bool { return n.kind == KindMetaState }

// IsSentinel reports whether n is Start or End
func (n Node) IsSentinel() bool { return n.kind == KindStart || n.kind == KindEnd }

// Label returns the activity label. For meta-states it is the
// separator-joined member list; sentinels have no label.
func (n Node) Label() string { return n.key }

// Members returns the member activities of a meta-state in order.
// Any other node is its own single member.
func (n Node) Members() []Node {
	if n.kind != KindMetaState {
		return []Node{n}
	}
	labels := strings.Split(n.key, memberSep)
	members := make([]Node, len(labels))
	for i, l := range labels {
		members[i] = Activity(l)
	}
	return members
}

// Len returns the number of member activities.
func (n Node) Len() int {
	if n.kind != KindMetaState {
		return 1
	}
	return strings.Count(n.key, memberSep) + 1
}

// Contains reports whether member is part of the meta-state n.
func (n Node) Contains(member Node) bool {
	if n.kind != KindMetaState {
		return n == member
	}
	return slices.Contains(n.Members(), member)
}

func (n Node) String() string {
	switch n.kind {
	case KindStart:
		return "start"
	case KindEnd:
		return "end"
	case KindMetaState:
		return "(" + strings.ReplaceAll(n.key, memberSep, ", ") + ")"
	default:
		return n.key
	}
}

// Compare orders nodes: Start, activities, meta-states, End, then by key.
func Compare(a, b Node) int {
	if c := cmp.Compare(a.kind, b.kind); c != 0 {
		return c
	}
	return cmp.Compare(a.key, b.key)
}

// Less reports whether a sorts before b
func Less(a, b Node) bool { return Compare(a, b) < 0 }

// SortNodes sorts nodes in place by Compare and returns them.
func SortNodes(nodes []Node) []Node {
	slices.SortFunc(nodes, Compare)
	return nodes
}

// NodeSet is an unordered set of nodes
type NodeSet map[Node]struct{}

// NewNodeSet builds a set from the given nodes
func NewNodeSet(nodes ...Node) NodeSet {
	s := make(NodeSet, len(nodes))
	for _, n := range nodes {
		s[n] = struct{}{}
	}
	return s
}

// Add inserts n into the set
func (s NodeSet) Add(n Node) { s[n] = struct{}{} }

// Has reports membership
func (s NodeSet) Has(n Node) bool {
	_, ok := s[n]
	return ok
}

// Sorted returns the members ordered by Compare
func (s NodeSet) Sorted() []Node {
	out := make([]Node, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	return SortNodes(out)
}
