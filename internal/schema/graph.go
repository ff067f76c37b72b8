// AngelaMos | 2026
// graph.go

package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

type Table struct {
	Name string
	Key  []string
}

// Edge says rows of Child reference rows of Parent through ChildCols,
// which line up positionally with ParentCols.
type Edge struct {
	Parent     string
	ParentCols []string
	Child      string
	ChildCols  []string
}

// Ref declares an edge whose columns carry the same names on both sides.
func Ref(parent, child string, cols ...string) Edge {
	return Edge{Parent: parent, ParentCols: cols, Child: child, ChildCols: cols}
}

// RefAs declares an edge whose child columns are named differently.
func RefAs(parent string, parentCols []string, child string, childCols []string) Edge {
	return Edge{
		Parent:     parent,
		ParentCols: parentCols,
		Child:      child,
		ChildCols:  childCols,
	}
}

// Graph is the declarative parent to dependent map used to derive cascading
// deletes. Children are kept in declaration order.
type Graph struct {
	tables   map[string]Table
	order    []string
	children map[string][]Edge
}

func NewGraph(tables []Table, edges []Edge) (*Graph, error) {
	g := &Graph{
		tables:   make(map[string]Table, len(tables)),
		children: make(map[string][]Edge),
	}

	for _, t := range tables {
		if t.Name == "" || len(t.Key) == 0 {
			return nil, fmt.Errorf("table %q needs a name and a key", t.Name)
		}
		if _, dup := g.tables[t.Name]; dup {
			return nil, fmt.Errorf("table %q declared twice", t.Name)
		}
		g.tables[t.Name] = t
		g.order = append(g.order, t.Name)
	}

	for _, e := range edges {
		if _, ok := g.tables[e.Parent]; !ok {
			return nil, fmt.Errorf("edge %s -> %s: unknown parent", e.Parent, e.Child)
		}
		if _, ok := g.tables[e.Child]; !ok {
			return nil, fmt.Errorf("edge %s -> %s: unknown child", e.Parent, e.Child)
		}
		if len(e.ChildCols) == 0 || len(e.ChildCols) != len(e.ParentCols) {
			return nil, fmt.Errorf(
				"edge %s -> %s: column lists must be non-empty and equal length",
				e.Parent,
				e.Child,
			)
		}
		g.children[e.Parent] = append(g.children[e.Parent], e)
	}

	if cycle := g.findCycle(); cycle != nil {
		return nil, fmt.Errorf("dependency cycle: %s", strings.Join(cycle, " -> "))
	}

	return g, nil
}

func MustGraph(tables []Table, edges []Edge) *Graph {
	g, err := NewGraph(tables, edges)
	if err != nil {
		panic(err)
	}
	return g
}

func (g *Graph) findCycle() []string {
	const (
		unvisited = iota
		visiting
		done
	)

	state := make(map[string]int, len(g.tables))
	var path []string
	var cycle []string

	var visit func(name string) bool
	visit = func(name string) bool {
		state[name] = visiting
		path = append(path, name)

		for _, e := range g.children[name] {
			switch state[e.Child] {
			case visiting:
				cycle = append(append([]string{}, path...), e.Child)
				return true
			case unvisited:
				if visit(e.Child) {
					return true
				}
			}
		}

		path = path[:len(path)-1]
		state[name] = done
		return false
	}

	for name := range g.tables {
		if state[name] == unvisited && visit(name) {
			return cycle
		}
	}
	return nil
}

// InsertOrder lists every table after all of its parents. Ties keep
// declaration order.
func (g *Graph) InsertOrder() []string {
	pending := make(map[string]int, len(g.order))
	for _, edges := range g.children {
		for _, e := range edges {
			pending[e.Child]++
		}
	}

	out := make([]string, 0, len(g.order))
	placed := make(map[string]bool, len(g.order))
	for len(out) < len(g.order) {
		for _, name := range g.order {
			if placed[name] || pending[name] > 0 {
				continue
			}
			placed[name] = true
			out = append(out, name)
			for _, e := range g.children[name] {
				pending[e.Child]--
			}
			break
		}
	}
	return out
}

func (g *Graph) Children(table string) []Edge {
	return g.children[table]
}

type Step struct {
	Table string
	SQL   string
}

// Plan is an ordered list of DELETE statements, dependents first.
type Plan struct {
	Root  string
	Steps []Step
}

func (p Plan) Tables() []string {
	out := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		out[i] = s.Table
	}
	return out
}

// Plan derives the delete order for the rows of root selected by where.
// The predicate may use positional parameters; every step reuses them.
func (g *Graph) Plan(root, where string) (Plan, error) {
	if _, ok := g.tables[root]; !ok {
		return Plan{}, fmt.Errorf("plan: unknown table %q", root)
	}
	if strings.TrimSpace(where) == "" {
		return Plan{}, fmt.Errorf("plan %s: empty predicate", root)
	}

	p := Plan{Root: root}
	g.walk(root, where, &p.Steps)
	return p, nil
}

func (g *Graph) walk(table, where string, steps *[]Step) {
	for _, e := range g.children[table] {
		childWhere := fmt.Sprintf(
			"%s IN (SELECT %s FROM %s WHERE %s)",
			columnTuple(e.ChildCols),
			strings.Join(e.ParentCols, ", "),
			table,
			where,
		)
		g.walk(e.Child, childWhere, steps)
	}

	*steps = append(*steps, Step{
		Table: table,
		SQL:   fmt.Sprintf("DELETE FROM %s WHERE %s", table, where),
	})
}

func columnTuple(cols []string) string {
	if len(cols) == 1 {
		return cols[0]
	}
	return "(" + strings.Join(cols, ", ") + ")"
}

// Result holds rows removed per table.
type Result map[string]int64

func (r Result) Total() int64 {
	var n int64
	for _, v := range r {
		n += v
	}
	return n
}

// Cascade executes plan in order on q, which is expected to be the
// enclosing transaction. The first failing step aborts the cascade.
func Cascade(
	ctx context.Context,
	q sqlx.ExecerContext,
	plan Plan,
	args ...any,
) (Result, error) {
	res := make(Result, len(plan.Steps))

	for _, step := range plan.Steps {
		r, err := q.ExecContext(ctx, step.SQL, args...)
		if err != nil {
			return nil, fmt.Errorf("cascade %s: delete from %s: %w", plan.Root, step.Table, err)
		}

		n, err := r.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("cascade %s: rows affected for %s: %w", plan.Root, step.Table, err)
		}
		res[step.Table] += n
	}

	return res, nil
}
