package mfunc

import "github.com/raymyers/ralph-ra/pkg/reg"

// numbering hands out fresh virtual register indices. Indices given by the
// function description are observed so fresh ones never collide with them.
type numbering struct {
	next reg.VReg // next available index
	used bool     // whether next is meaningful yet
}

func (n *numbering) observe(v reg.VReg) {
	if !n.used || v >= n.next {
		n.next = v + 1
		n.used = true
	}
}

// Fresh allocates a fresh virtual register index.
func (n *numbering) Fresh() reg.VReg {
	v := n.next
	n.next++
	n.used = true
	return v
}
