package community

import (
	"errors"
	"fmt"
)

// ErrNotFound is matched by every NotFoundError.
var ErrNotFound = errors.New("id not found")

// NotFoundError is returned by Find for an id that was never added.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("union-find: id %d not found", e.ID)
}

// Is makes errors.Is(err, ErrNotFound) hold.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// UnionFind is a disjoint-set forest with path compression and union by size.
// It is not safe for concurrent use.
type UnionFind struct {
	parent map[int64]int64
	size   map[int64]int
}

// NewUnionFind creates a structure with one singleton set per id.
func NewUnionFind(ids ...int64) *UnionFind {
	u := &UnionFind{
		parent: make(map[int64]int64, len(ids)),
		size:   make(map[int64]int, len(ids)),
	}
	u.Add(ids...)
	return u
}

// Add registers ids as singletons. Known ids are left untouched.
func (u *UnionFind) Add(ids ...int64) {
	for _, id := range ids {
		if _, ok := u.parent[id]; ok {
			continue
		}
		u.parent[id] = id
		u.size[id] = 1
	}
}

// Contains reports whether id was added.
func (u *UnionFind) Contains(id int64) bool {
	_, ok := u.parent[id]
	return ok
}

// Len returns the number of ids.
func (u *UnionFind) Len() int {
	return len(u.parent)
}

// Find returns the root of id's set and points every visited node at it.
func (u *UnionFind) Find(id int64) (int64, error) {
	if _, ok := u.parent[id]; !ok {
		return 0, &NotFoundError{ID: id}
	}

	root := id
	for u.parent[root] != root {
		root = u.parent[root]
	}

	for id != root {
		next := u.parent[id]
		u.parent[id] = root
		id = next
	}

	return root, nil
}

// Union merges the sets of a and b, adding either id first if unseen.
// The smaller set is attached below the larger one.
func (u *UnionFind) Union(a, b int64) {
	u.Add(a, b)

	// both ids are known, Find cannot fail
	ra, _ := u.Find(a)
	rb, _ := u.Find(b)
	if ra == rb {
		return
	}

	if u.size[ra] < u.size[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	u.size[ra] += u.size[rb]
	delete(u.size, rb)
}

// Size returns the number of members in id's set.
func (u *UnionFind) Size(id int64) (int, error) {
	root, err := u.Find(id)
	if err != nil {
		return 0, err
	}
	return u.size[root], nil
}

// Connected reports whether a and b share a set. Unknown ids are never connected.
func (u *UnionFind) Connected(a, b int64) bool {
	ra, err := u.Find(a)
	if err != nil {
		return false
	}
	rb, err := u.Find(b)
	if err != nil {
		return false
	}
	return ra == rb
}
