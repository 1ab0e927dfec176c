package persist

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/rs/zerolog/log"
)

// Node is the host tree contract: a named object with ordered children.
type Node interface {
	Name() string
	Children() []Node
}

// Target binds one tagged instance to its kept members.
// Instance is borrowed from the host tree and never owned.
type Target struct {
	Instance Node
	Members  []Member
	ByteSize int
}

// Discovery is the ordered result of one walk over a tree.
type Discovery struct {
	Targets     []*Target
	ByteSize    int
	Diagnostics []Diagnostic
}

// Discover walks root in pre-order and builds a Target for every tagged node
// that keeps at least one supported member. It never fails; anomalies are
// reported as diagnostics.
func (r *Registry) Discover(root Node) *Discovery {
	d := &Discovery{}
	if root == nil {
		return d
	}

	stack := []Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if table, ok := r.Lookup(n); ok {
			if target := d.buildTarget(n, table); target != nil {
				d.Targets = append(d.Targets, target)
				d.ByteSize += target.ByteSize
			}
		}

		children := n.Children()
		for i := len(children) - 1; i >= 0; i-- {
			if children[i] != nil {
				stack = append(stack, children[i])
			}
		}
	}

	log.Debug().Msgf("persist.Registry.Discover targets=%d bytes=%d diagnostics=%d",
		len(d.Targets), d.ByteSize, len(d.Diagnostics))
	return d
}

func (d *Discovery) buildTarget(n Node, table *Table) *Target {
	target := &Target{Instance: n, Members: make([]Member, 0, len(table.Fields))}
	for _, f := range table.Fields {
		v, err := f.Accessor.Get(n)
		if err != nil {
			d.report(Diagnostic{
				Kind: DiagAccessorFailed, Node: n.Name(), Type: table.Type.String(),
				Member: f.Name, Detail: err.Error(),
			})
			continue
		}
		k, ok := KindOf(v)
		if !ok {
			d.report(Diagnostic{
				Kind: DiagUnsupportedMemberKind, Node: n.Name(), Type: table.Type.String(),
				Member: f.Name, Detail: "value type " + typeName(v),
			})
			continue
		}
		m := newMember(f, k, reflect.TypeOf(v))
		target.Members = append(target.Members, m)
		target.ByteSize += m.Width
	}

	if len(target.Members) == 0 {
		d.report(Diagnostic{
			Kind: DiagEmptyTaggedObject, Node: n.Name(), Type: table.Type.String(),
			Detail: "no persisted members, target discarded",
		})
		return nil
	}
	return target
}

func (d *Discovery) report(diag Diagnostic) {
	diag.Log()
	d.Diagnostics = append(d.Diagnostics, diag)
}

// Describe renders the discovered layout, one line per member, for debugging.
func (d *Discovery) Describe() string {
	var b strings.Builder
	offset := 0
	for i, t := range d.Targets {
		fmt.Fprintf(&b, "[%d] %s (%s) bytes=%d\n", i, t.Instance.Name(), reflect.TypeOf(t.Instance), t.ByteSize)
		for _, m := range t.Members {
			fmt.Fprintf(&b, "    @%-6d %-16s %s\n", offset, m.Name, m.Kind)
			offset += m.Width
		}
	}
	return b.String()
}
