// Package ring is a weighted consistent-hash ring.
//
// Each node owns a number of virtual points proportional to its share of the
// total weight. Points are xxhash64("<nodeKey>-<i>"), so a ring built from the
// same membership routes identically in every process.
package ring

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// PointsPerNode is the average number of virtual points per node.
const PointsPerNode = 160

var (
	ErrNoNodes       = errors.New("ring: no nodes")
	ErrEmptyNodeKey  = errors.New("ring: empty node key")
	ErrDuplicateNode = errors.New("ring: duplicate node key")
)

type Node struct {
	Key    string
	Weight int // relative capacity; <= 0 counts as 1
}

type point struct {
	hash  uint64
	owner int
}

// Ring is immutable after New and safe for concurrent use.
type Ring struct {
	nodes  []string
	points []point
}

func New(nodes ...Node) (*Ring, error) {
	if len(nodes) == 0 {
		return nil, ErrNoNodes
	}
	seen := make(map[string]struct{}, len(nodes))
	total := 0
	for _, n := range nodes {
		if n.Key == "" {
			return nil, ErrEmptyNodeKey
		}
		if _, dup := seen[n.Key]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateNode, n.Key)
		}
		seen[n.Key] = struct{}{}
		total += weight(n)
	}

	r := &Ring{nodes: make([]string, len(nodes))}
	for i, n := range nodes {
		r.nodes[i] = n.Key
		share := float64(weight(n)) / float64(total)
		cnt := max(1, int(math.Round(share*float64(PointsPerNode*len(nodes)))))
		for v := 0; v < cnt; v++ {
			r.points = append(r.points, point{
				hash:  xxhash.Sum64String(n.Key + "-" + strconv.Itoa(v)),
				owner: i,
			})
		}
	}
	// ties broken by node key so insertion order never changes routing
	sort.Slice(r.points, func(a, b int) bool {
		pa, pb := r.points[a], r.points[b]
		if pa.hash != pb.hash {
			return pa.hash < pb.hash
		}
		return r.nodes[pa.owner] < r.nodes[pb.owner]
	})
	return r, nil
}

// Get returns the key of the node owning key: the first point clockwise from
// the key's hash.
func (r *Ring) Get(key string) string {
	h := xxhash.Sum64String(key)
	i := sort.Search(len(r.points), func(i int) bool { return r.points[i].hash >= h })
	if i == len(r.points) {
		i = 0
	}
	return r.nodes[r.points[i].owner]
}

// Nodes returns node keys in construction order.
func (r *Ring) Nodes() []string { return slices.Clone(r.nodes) }

// Points reports the number of virtual points on the ring.
func (r *Ring) Points() int { return len(r.points) }

func weight(n Node) int {
	if n.Weight <= 0 {
		return 1
	}
	return n.Weight
}
