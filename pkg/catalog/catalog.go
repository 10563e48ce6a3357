// Package catalog holds the fixed set of named warehouse queries and renders them from validated parameters.
package catalog

import (
	"bytes"
	"fmt"
	"text/template"
)

// Catalog is immutable after New and safe for concurrent use.
type Catalog struct {
	tmpl  *template.Template
	specs []*QuerySpec
	byID  map[string]*QuerySpec
}

// Bound is a query resolved against normalized parameters.
type Bound struct {
	Spec   *QuerySpec
	Params Params
	SQL    string
}

type renderData struct {
	Start   string
	End     string
	Trunc   string
	Filters []string
}

// New parses every query template once.
func New() (*Catalog, error) {
	tmpl, err := template.New("catalog").
		Option("missingkey=error").
		Funcs(template.FuncMap{
			"quote":    quote,
			"json":     jsonString,
			"num":      jsonNumber,
			"symbol":   symbolExpr,
			"contains": containsAny,
		}).
		Parse(queryTemplates)
	if err != nil {
		return nil, fmt.Errorf("parse query templates: %w", err)
	}

	c := &Catalog{tmpl: tmpl, byID: make(map[string]*QuerySpec)}
	for _, spec := range builtinSpecs() {
		if tmpl.Lookup(spec.template) == nil {
			return nil, fmt.Errorf("query %s: template %q not defined", spec.ID, spec.template)
		}
		if _, dup := c.byID[spec.ID]; dup {
			return nil, fmt.Errorf("query %s: duplicate id", spec.ID)
		}
		c.specs = append(c.specs, spec)
		c.byID[spec.ID] = spec
	}
	return c, nil
}

// MustNew is New for package initialization and tests.
func MustNew() *Catalog {
	c, err := New()
	if err != nil {
		panic(err)
	}
	return c
}

// Spec returns the query with the given id.
func (c *Catalog) Spec(id string) (*QuerySpec, error) {
	spec, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownQuery, id)
	}
	return spec, nil
}

// Specs returns all queries in catalog order.
func (c *Catalog) Specs() []*QuerySpec {
	return append([]*QuerySpec(nil), c.specs...)
}

// Bind validates p for the query, normalizes it, and renders the SQL text.
// Equal normalized parameters always render byte-identical text.
func (c *Catalog) Bind(id string, p Params) (*Bound, error) {
	spec, err := c.Spec(id)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(spec.Uses); err != nil {
		return nil, fmt.Errorf("query %s: %w", id, err)
	}
	n := p.Normalize(spec.Uses)

	data := renderData{
		Start:   n.Start.Format(DateLayout),
		End:     n.End.Format(DateLayout),
		Filters: n.Filters,
	}
	if spec.Uses.Has(UsesBucket) {
		data.Trunc = n.Bucket.truncFunc()
	}

	var buf bytes.Buffer
	if err := c.tmpl.ExecuteTemplate(&buf, spec.template, data); err != nil {
		return nil, fmt.Errorf("render query %s: %w", id, err)
	}
	return &Bound{Spec: spec, Params: n, SQL: buf.String()}, nil
}

// Render returns only the SQL text of Bind.
func (c *Catalog) Render(id string, p Params) (string, error) {
	b, err := c.Bind(id, p)
	if err != nil {
		return "", err
	}
	return b.SQL, nil
}
