package models

import "sort"

// Partition is an ordered sequence of buses; each bus holds vertex indices.
// Only the optimizer stage that currently owns a partition may mutate it.
type Partition [][]int

// NewPartition creates a partition with numBuses empty buses
func NewPartition(numBuses int) Partition {
	p := make(Partition, numBuses)
	for i := range p {
		p[i] = make([]int, 0)
	}
	return p
}

// Clone creates a deep copy of the partition
func (p Partition) Clone() Partition {
	clone := make(Partition, len(p))
	for i, bus := range p {
		clone[i] = make([]int, len(bus))
		copy(clone[i], bus)
	}
	return clone
}

// Sizes returns the number of riders on each bus
func (p Partition) Sizes() []int {
	sizes := make([]int, len(p))
	for i, bus := range p {
		sizes[i] = len(bus)
	}
	return sizes
}

// Locate maps every vertex to its bus index; unassigned vertices map to -1.
// Vertices outside [0, n) are ignored.
func (p Partition) Locate(n int) []int {
	where := make([]int, n)
	for i := range where {
		where[i] = -1
	}
	for b, bus := range p {
		for _, v := range bus {
			if v >= 0 && v < n {
				where[v] = b
			}
		}
	}
	return where
}

// Remove deletes vertex v from bus b. Reports whether v was found.
func (p Partition) Remove(b, v int) bool {
	bus := p[b]
	for i, u := range bus {
		if u == v {
			bus[i] = bus[len(bus)-1]
			p[b] = bus[:len(bus)-1]
			return true
		}
	}
	return false
}

// Canonical returns a copy with every bus sorted. Bus order is preserved.
func (p Partition) Canonical() Partition {
	c := p.Clone()
	for _, bus := range c {
		sort.Ints(bus)
	}
	return c
}

// Named converts vertex indices back to the graph's vertex ids
func (p Partition) Named(g *Graph) [][]string {
	named := make([][]string, len(p))
	for b, bus := range p {
		named[b] = make([]string, len(bus))
		for i, v := range bus {
			named[b][i] = g.IDs[v]
		}
		sort.Strings(named[b])
	}
	return named
}
