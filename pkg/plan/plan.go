// Package plan turns a composite into an ordered list of field plans: what to
// do with each field, decided once per composite shape.
package plan

import (
	"github.com/dissect-kit/dissect-go/pkg/model"
	"github.com/dissect-kit/dissect-go/pkg/tap"
)

// Strategy is how a field's bytes are decoded. The set of strategies is
// closed: Subdissect, ConsumeWith, DecodeWith, Hidden and Default.
type Strategy interface {
	strategy()
}

// Subdissect hands the field's bytes to a dispatch table.
type Subdissect struct {
	Sub *model.Subdissector
}

// ConsumeWith lets a callback decide how many bytes the field takes.
type ConsumeWith struct {
	Fn tap.Callback
}

// DecodeWith decodes the field by its type and formats it with a callback.
type DecodeWith struct {
	Fn tap.Callback
}

// Hidden decodes the field without adding anything to the tree.
type Hidden struct{}

// Default decodes the field by its type.
type Default struct{}

func (Subdissect) strategy()  {}
func (ConsumeWith) strategy() {}
func (DecodeWith) strategy()  {}
func (Hidden) strategy()      {}
func (Default) strategy()     {}

// FieldPlan is the plan for one field of a composite.
type FieldPlan struct {
	Field *model.Field

	// Index is the field's position in its composite.
	Index int

	// Emit keeps the decoded value for later fields of the same composite.
	Emit bool

	// Save writes the decoded value to the field stores.
	Save bool

	// NeedsContext is set when a callback will see the field.
	NeedsContext bool

	Strategy Strategy
}

// Plan computes the field plans of c. It is pure: the same composite always
// gives the same plans.
func Plan(c *model.Composite) []FieldPlan {
	referenced := make(map[string]bool)
	for _, f := range c.Fields {
		if f.LengthField != "" {
			referenced[f.LengthField] = true
		}
		if f.Subdissector != nil {
			for _, k := range f.Subdissector.Keys {
				referenced[k] = true
			}
		}
	}

	plans := make([]FieldPlan, len(c.Fields))
	for i, f := range c.Fields {
		custom := !f.DecodeWith.IsZero() || !f.ConsumeWith.IsZero() || !f.Variant.IsZero()
		plans[i] = FieldPlan{
			Field:        f,
			Index:        i,
			Emit:         custom || len(f.Taps) > 0 || referenced[f.Name],
			Save:         f.Save,
			NeedsContext: custom || len(f.Taps) > 0,
			Strategy:     strategyOf(f),
		}
	}
	return plans
}

func strategyOf(f *model.Field) Strategy {
	switch {
	case f.Subdissector != nil:
		return Subdissect{Sub: f.Subdissector}
	case !f.ConsumeWith.IsZero():
		return ConsumeWith{Fn: f.ConsumeWith}
	case !f.DecodeWith.IsZero():
		return DecodeWith{Fn: f.DecodeWith}
	case f.Hidden:
		return Hidden{}
	default:
		return Default{}
	}
}

// SizeOnly returns a copy of plans with every strategy forced to Hidden.
func SizeOnly(plans []FieldPlan) []FieldPlan {
	out := make([]FieldPlan, len(plans))
	copy(out, plans)
	for i := range out {
		out[i].Strategy = Hidden{}
	}
	return out
}
