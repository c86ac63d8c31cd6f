package textpress

import (
	"container/heap"
	"fmt"
	"strings"
)

// Tree is a canonical prefix-code tree. Nodes live in one slice: leaves
// first in ascending symbol order, then internal nodes in creation order,
// so the root is always the last node.
//
// Construction order, applied to every tie:
//
//  1. lower weight first
//  2. at equal weight, leaves before internal nodes, leaves by symbol value
//  3. internal nodes by creation order, earlier first
//
// The first node taken becomes the left (0) child, the second the right (1)
// child. Two builds from equal tables are therefore identical.
type Tree struct {
	nodes []treeNode
}

type treeNode struct {
	weight int
	rank   int // symbol value for leaves, 256+creation index for internal nodes
	symbol Symbol
	leaf   bool
	left   int
	right  int
}

const internalRankBase = 256

// nodeHeap orders node indexes by (weight, rank).
type nodeHeap struct {
	nodes []treeNode
	index []int
}

func (h *nodeHeap) Len() int { return len(h.index) }

func (h *nodeHeap) Less(i, j int) bool {
	a, b := &h.nodes[h.index[i]], &h.nodes[h.index[j]]
	if a.weight != b.weight {
		return a.weight < b.weight
	}
	return a.rank < b.rank
}

func (h *nodeHeap) Swap(i, j int) { h.index[i], h.index[j] = h.index[j], h.index[i] }

func (h *nodeHeap) Push(x any) { h.index = append(h.index, x.(int)) }

func (h *nodeHeap) Pop() any {
	n := len(h.index) - 1
	v := h.index[n]
	h.index = h.index[:n]
	return v
}

// BuildTree builds the canonical tree for table.
func BuildTree(table FrequencyTable) (*Tree, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}

	symbols := table.Symbols()
	h := &nodeHeap{
		nodes: make([]treeNode, 0, 2*len(symbols)-1),
		index: make([]int, 0, len(symbols)),
	}
	for _, s := range symbols {
		h.nodes = append(h.nodes, treeNode{
			weight: table[s],
			rank:   int(s),
			symbol: s,
			leaf:   true,
			left:   -1,
			right:  -1,
		})
		h.index = append(h.index, len(h.nodes)-1)
	}
	heap.Init(h)

	for created := 0; h.Len() > 1; created++ {
		left := heap.Pop(h).(int)
		right := heap.Pop(h).(int)
		h.nodes = append(h.nodes, treeNode{
			weight: h.nodes[left].weight + h.nodes[right].weight,
			rank:   internalRankBase + created,
			left:   left,
			right:  right,
		})
		heap.Push(h, len(h.nodes)-1)
	}

	return &Tree{nodes: h.nodes}, nil
}

func (t *Tree) root() int { return len(t.nodes) - 1 }

// Leaves returns the number of distinct symbols in the tree.
func (t *Tree) Leaves() int { return (len(t.nodes) + 1) / 2 }

// Weight returns the root weight, the total symbol count.
func (t *Tree) Weight() int { return t.nodes[t.root()].weight }

// Codes derives the code table by walking the tree, left edge 0 and right
// edge 1. A tree with a single symbol assigns it the one-bit code "0".
func (t *Tree) Codes() CodeTable {
	codes := make(CodeTable, t.Leaves())
	root := t.root()
	if t.nodes[root].leaf {
		codes[t.nodes[root].symbol] = "0"
		return codes
	}

	var walk func(n int, prefix []byte)
	walk = func(n int, prefix []byte) {
		node := &t.nodes[n]
		if node.leaf {
			codes[node.symbol] = string(prefix)
			return
		}
		walk(node.left, append(prefix, '0'))
		walk(node.right, append(prefix, '1'))
	}
	walk(root, make([]byte, 0, 16))
	return codes
}

// String renders the tree in prefix form, e.g. (a (b c)), for debugging
// and determinism checks.
func (t *Tree) String() string {
	var sb strings.Builder
	var walk func(n int)
	walk = func(n int) {
		node := &t.nodes[n]
		if node.leaf {
			fmt.Fprintf(&sb, "%q:%d", rune(node.symbol), node.weight)
			return
		}
		sb.WriteByte('(')
		walk(node.left)
		sb.WriteByte(' ')
		walk(node.right)
		sb.WriteByte(')')
	}
	walk(t.root())
	return sb.String()
}

// CodeTable maps each symbol to its code as a string of '0'/'1'
// characters. Codes derived from a Tree are prefix-free.
type CodeTable map[Symbol]string

// Length returns the number of bits seq occupies under the code table, or
// -1 if seq contains a symbol without a code.
func (c CodeTable) Length(seq []Symbol) int {
	n := 0
	for _, s := range seq {
		code, ok := c[s]
		if !ok {
			return -1
		}
		n += len(code)
	}
	return n
}
