// Package template parses prompt templates and checks their placeholders.
package template

import (
	"bytes"
	"fmt"
	"slices"
	"sort"
	"strings"
	"text/template"
	"text/template/parse"
)

// Template is a parsed prompt template with named placeholders ({{.Name}}).
type Template struct {
	name   string
	text   string
	tmpl   *template.Template
	fields []string
}

// Parse compiles text and records every top-level field it references.
func Parse(name, text string) (*Template, error) {
	t, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("template %s: parse: %w", name, err)
	}

	seen := map[string]bool{}
	if t.Tree != nil && t.Tree.Root != nil {
		collectFields(t.Tree.Root, seen)
	}
	fields := make([]string, 0, len(seen))
	for f := range seen {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	return &Template{name: name, text: text, tmpl: t, fields: fields}, nil
}

// Name returns the template name.
func (t *Template) Name() string { return t.name }

// Text returns the unparsed template body.
func (t *Template) Text() string { return t.text }

// Fields returns the sorted placeholder names the template references.
func (t *Template) Fields() []string { return slices.Clone(t.fields) }

// Check verifies the template references exactly the given placeholders.
func (t *Template) Check(placeholders []string) error {
	var missing, unknown []string
	for _, p := range placeholders {
		if !slices.Contains(t.fields, p) {
			missing = append(missing, p)
		}
	}
	for _, f := range t.fields {
		if !slices.Contains(placeholders, f) {
			unknown = append(unknown, f)
		}
	}
	var problems []string
	if len(missing) > 0 {
		problems = append(problems, "missing placeholders: "+strings.Join(missing, ", "))
	}
	if len(unknown) > 0 {
		problems = append(problems, "unknown placeholders: "+strings.Join(unknown, ", "))
	}
	if len(problems) > 0 {
		return fmt.Errorf("template %s: %s", t.name, strings.Join(problems, "; "))
	}
	return nil
}

// Render substitutes vars into the template.
func (t *Template) Render(vars map[string]string) (string, error) {
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("template %s: render: %w", t.name, err)
	}
	return buf.String(), nil
}

func collectFields(node parse.Node, seen map[string]bool) {
	switch n := node.(type) {
	case *parse.ListNode:
		if n == nil {
			return
		}
		for _, c := range n.Nodes {
			collectFields(c, seen)
		}
	case *parse.ActionNode:
		collectFields(n.Pipe, seen)
	case *parse.PipeNode:
		if n == nil {
			return
		}
		for _, c := range n.Cmds {
			collectFields(c, seen)
		}
	case *parse.CommandNode:
		for _, a := range n.Args {
			collectFields(a, seen)
		}
	case *parse.FieldNode:
		if len(n.Ident) > 0 {
			seen[n.Ident[0]] = true
		}
	case *parse.ChainNode:
		collectFields(n.Node, seen)
	case *parse.IfNode:
		collectBranch(&n.BranchNode, seen)
	case *parse.RangeNode:
		collectBranch(&n.BranchNode, seen)
	case *parse.WithNode:
		collectBranch(&n.BranchNode, seen)
	}
}

func collectBranch(b *parse.BranchNode, seen map[string]bool) {
	collectFields(b.Pipe, seen)
	collectFields(b.List, seen)
	if b.ElseList != nil {
		collectFields(b.ElseList, seen)
	}
}
