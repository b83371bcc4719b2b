package tree

// Entry is a flattened node, used for JSON output and capture records.
type Entry struct {
	Depth  int    `json:"depth" cbor:"1,keyasint"`
	Name   string `json:"name" cbor:"2,keyasint"`
	Path   string `json:"path,omitempty" cbor:"3,keyasint,omitempty"`
	Offset int    `json:"offset" cbor:"4,keyasint"`
	Length int    `json:"length" cbor:"5,keyasint"`
	Value  string `json:"value,omitempty" cbor:"6,keyasint,omitempty"`
	Error  string `json:"error,omitempty" cbor:"7,keyasint,omitempty"`
}

// Flatten lists the tree rooted at n in depth-first order.
func Flatten(n *Node) []Entry {
	var out []Entry
	Walk(n, func(c *Node, depth int) bool {
		e := Entry{
			Depth:  depth,
			Name:   c.Name,
			Path:   c.Path,
			Offset: c.Offset,
			Length: c.Length,
			Value:  c.ValueString(),
		}
		if c.Err != nil {
			e.Error = c.Err.Error()
		}
		out = append(out, e)
		return true
	})
	return out
}

// JSON is the nested JSON form of a node.
type JSON struct {
	Name     string  `json:"name"`
	Path     string  `json:"path,omitempty"`
	Offset   int     `json:"offset"`
	Length   int     `json:"length"`
	Value    string  `json:"value,omitempty"`
	Error    string  `json:"error,omitempty"`
	Children []*JSON `json:"children,omitempty"`
}

// ToJSON converts the tree rooted at n to its JSON form.
func ToJSON(n *Node) *JSON {
	if n == nil {
		return nil
	}
	j := &JSON{
		Name:   n.Name,
		Path:   n.Path,
		Offset: n.Offset,
		Length: n.Length,
		Value:  n.ValueString(),
	}
	if n.Err != nil {
		j.Error = n.Err.Error()
	}
	for _, c := range n.Children {
		j.Children = append(j.Children, ToJSON(c))
	}
	return j
}
