package plan

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dissect-kit/dissect-go/pkg/model"
	"github.com/dissect-kit/dissect-go/pkg/tap"
)

func decodeWith() tap.Callback {
	return tap.DecodeWith("fmt", func(*tap.Context) (string, error) { return "", nil })
}

func consumeWith() tap.Callback {
	return tap.ConsumeWith("tlv", func(*tap.Context) (int, string, error) { return 0, "", nil })
}

func TestStrategyPriority(t *testing.T) {
	tests := []struct {
		name  string
		field *model.Field
		want  Strategy
	}{
		{"default", &model.Field{Name: "a", Type: model.U8}, Default{}},
		{"hidden", &model.Field{Name: "a", Type: model.U8, Hidden: true}, Hidden{}},
		{"decode_with over hidden", &model.Field{Name: "a", Type: model.U8, Hidden: true, DecodeWith: decodeWith()}, DecodeWith{}},
		{"consume_with over decode_with", &model.Field{Name: "a", Type: model.Bytes(), ConsumeWith: consumeWith(), DecodeWith: decodeWith()}, ConsumeWith{}},
		{"subdissect over all", &model.Field{Name: "a", Type: model.Bytes(), Hidden: true, ConsumeWith: consumeWith(), Subdissector: model.DecodeAs("t")}, Subdissect{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plans := Plan(&model.Composite{Fields: []*model.Field{tt.field}})
			require.Len(t, plans, 1)
			assert.IsType(t, tt.want, plans[0].Strategy)
		})
	}
}

func TestEmitAndContext(t *testing.T) {
	c := &model.Composite{Fields: []*model.Field{
		{Name: "src_port", Type: model.U16, Taps: []tap.Callback{tap.Observe("t", func(*tap.Context) {})}},
		{Name: "dst_port", Type: model.U16},
		{Name: "len", Type: model.U8},
		{Name: "plain", Type: model.U8, Save: true},
		{Name: "items", Type: model.Vec(model.U8), LengthField: "len"},
		{Name: "payload", Type: model.Bytes(), Subdissector: model.TableLookup("t", "dst_port")},
		{Name: "fmt", Type: model.U8, DecodeWith: decodeWith()},
	}}
	plans := Plan(c)

	tests := []struct {
		i                  int
		emit, save, needCx bool
	}{
		{0, true, false, true},
		{1, true, false, false},
		{2, true, false, false},
		{3, false, true, false},
		{4, false, false, false},
		{5, false, false, false},
		{6, true, false, true},
	}
	for _, tt := range tests {
		p := plans[tt.i]
		assert.Equal(t, tt.i, p.Index)
		if p.Emit != tt.emit || p.Save != tt.save || p.NeedsContext != tt.needCx {
			t.Errorf("plan[%d] %s = emit %v save %v ctx %v, want %v %v %v",
				tt.i, p.Field.Name, p.Emit, p.Save, p.NeedsContext, tt.emit, tt.save, tt.needCx)
		}
	}
}

func TestSizeOnly(t *testing.T) {
	c := &model.Composite{Fields: []*model.Field{
		{Name: "a", Type: model.U8, DecodeWith: decodeWith()},
		{Name: "b", Type: model.Bytes(), Subdissector: model.DecodeAs("t")},
	}}
	plans := Plan(c)
	size := SizeOnly(plans)
	for i, p := range size {
		assert.IsType(t, Hidden{}, p.Strategy)
		assert.Equal(t, plans[i].Emit, p.Emit)
	}
	assert.IsType(t, DecodeWith{}, plans[0].Strategy, "SizeOnly must not modify its input")
}

func TestCache(t *testing.T) {
	c := &model.Composite{Fields: []*model.Field{{Name: "a", Type: model.U8}}}
	cache := NewCache()

	var wg sync.WaitGroup
	results := make([][]FieldPlan, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = cache.Get(c)
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Same(t, &results[0][0], &r[0], "all callers share one cached plan")
	}
	assert.Equal(t, 1, cache.Len())

	size := cache.GetSizeOnly(c)
	assert.IsType(t, Hidden{}, size[0].Strategy)
	assert.Same(t, &size[0], &cache.GetSizeOnly(c)[0])
}
