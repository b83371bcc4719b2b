package plan

import (
	"sync"

	"github.com/dissect-kit/dissect-go/pkg/model"
)

// Cache memoizes plans per composite. Cached plans are shared and must not be
// modified. A Cache is safe for concurrent use.
type Cache struct {
	full sync.Map // *model.Composite -> []FieldPlan
	size sync.Map // *model.Composite -> []FieldPlan
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{}
}

// Get returns the plans of c.
func (c *Cache) Get(comp *model.Composite) []FieldPlan {
	if v, ok := c.full.Load(comp); ok {
		return v.([]FieldPlan)
	}
	v, _ := c.full.LoadOrStore(comp, Plan(comp))
	return v.([]FieldPlan)
}

// GetSizeOnly returns the size-only plans of c.
func (c *Cache) GetSizeOnly(comp *model.Composite) []FieldPlan {
	if v, ok := c.size.Load(comp); ok {
		return v.([]FieldPlan)
	}
	v, _ := c.size.LoadOrStore(comp, SizeOnly(c.Get(comp)))
	return v.([]FieldPlan)
}

// Len returns the number of composites with cached plans.
func (c *Cache) Len() int {
	n := 0
	c.full.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
