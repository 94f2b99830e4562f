package topology

import (
	"github.com/pkg/errors"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

type element interface {
	identity() string
	entityId() int64
	setId(id int64)
}

type namedElement[E any] interface {
	element
	entityName() string
	kind() string
	mismatch(other E) string
}

// sequence assigns ids to every entity and binding of one builder
type sequence struct {
	last int64
}

func (s *sequence) next() int64 {
	s.last++
	return s.last
}

// entityCollection deduplicates by full attribute identity and keeps insertion order
type entityCollection[E element] struct {
	seq   *sequence
	byKey *orderedmap.OrderedMap[string, E]
	byId  map[int64]E
}

func newEntityCollection[E element](seq *sequence) *entityCollection[E] {
	return &entityCollection[E]{
		seq:   seq,
		byKey: orderedmap.New[string, E](),
		byId:  make(map[int64]E),
	}
}

func (c *entityCollection[E]) GetOrAdd(candidate E) (E, bool) {
	key := candidate.identity()
	existing, ok := c.byKey.Get(key)
	if ok {
		return existing, false
	}

	candidate.setId(c.seq.next())
	c.byKey.Set(key, candidate)
	c.byId[candidate.entityId()] = candidate
	return candidate, true
}

func (c *entityCollection[E]) Get(id int64) (E, bool) {
	e, ok := c.byId[id]
	return e, ok
}

func (c *entityCollection[E]) Len() int {
	return c.byKey.Len()
}

func (c *entityCollection[E]) Each(f func(e E)) {
	for pair := c.byKey.Oldest(); pair != nil; pair = pair.Next() {
		f(pair.Value)
	}
}

// namedEntityCollection additionally allows at most one entity per name
type namedEntityCollection[E namedElement[E]] struct {
	*entityCollection[E]
	byName map[string]E
}

func newNamedEntityCollection[E namedElement[E]](seq *sequence) *namedEntityCollection[E] {
	return &namedEntityCollection[E]{
		entityCollection: newEntityCollection[E](seq),
		byName:           make(map[string]E),
	}
}

func (c *namedEntityCollection[E]) GetOrAdd(candidate E) (E, bool, error) {
	existing, ok := c.byKey.Get(candidate.identity())
	if ok {
		return existing, false, nil
	}

	existing, ok = c.byName[candidate.entityName()]
	if ok {
		var empty E
		return empty, false, errors.WithMessagef(
			ErrNamingConflict,
			"%s '%s' already declared, %s",
			candidate.kind(), candidate.entityName(), existing.mismatch(candidate),
		)
	}

	e, created := c.entityCollection.GetOrAdd(candidate)
	c.byName[e.entityName()] = e
	return e, created, nil
}

func (c *namedEntityCollection[E]) TryGetByName(name string) (E, bool) {
	e, ok := c.byName[name]
	return e, ok
}
