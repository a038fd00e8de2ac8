package main

import (
	"fmt"
	"strconv"
	"strings"
)

// Newick is the only tree format this program speaks. Lengths are written
// with 6 decimals, which is enough for branch lengths in substitutions per
// site and keeps the output diffable. Parse(Newick()) round-trips exactly.

func (t *Tree) Newick() string {
	var sb strings.Builder
	t.writeNewick(&sb, t.Root)
	sb.WriteString(";")
	return sb.String()
}

func (t *Tree) writeNewick(sb *strings.Builder, i int64) {
	if t.IsLeaf(i) {
		sb.WriteString(t.Nodes[i].Name)
	} else {
		sb.WriteString("(")
		for k, c := range t.Nodes[i].Children {
			if k > 0 {
				sb.WriteString(",")
			}
			t.writeNewick(sb, c)
		}
		sb.WriteString(")")
		sb.WriteString(t.Nodes[i].Name)
	}
	if i != t.Root {
		sb.WriteString(":")
		sb.WriteString(strconv.FormatFloat(t.Nodes[i].BranchLen, 'f', 6, 64))
	}
}

// ParseNewick builds a Tree from a Newick string. It accepts what this
// program and the usual phylogenetics tools produce: nested groups,
// multifurcations, optional internal node names, optional branch lengths.
// Quoted labels and comments are not supported. A malformed string goes
// through Check, so it panics unless CheckCrashes is off.
func ParseNewick(s string) Tree {
	p := newickParser{input: s}
	p.skipSpace()
	if p.peek() != '(' {
		Check(fmt.Errorf("newick: tree must start with '(', got %q", p.peek()))
	}

	t := NewTree()
	p.parseGroup(&t, t.Root)
	p.skipSpace()
	// The root may carry a name and even a length; the length is meaningless
	// for a rooted tree, so it is read and dropped.
	t.Nodes[t.Root].Name = p.parseName()
	p.parseLength()
	p.skipSpace()
	if p.peek() != ';' {
		Check(fmt.Errorf("newick: expected ';' at position %d", p.pos))
	}
	t.Nodes[t.Root].BranchLen = 0
	return t
}

type newickParser struct {
	input string
	pos   int
}

func (p *newickParser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *newickParser) skipSpace() {
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			break
		}
		p.pos++
	}
}

// parseGroup consumes "(subtree,subtree,...)" and attaches the subtrees as
// children of node i.
func (p *newickParser) parseGroup(t *Tree, i int64) {
	p.pos++ // consume '('
	for {
		p.parseSubtree(t, i)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return
		default:
			Check(fmt.Errorf("newick: expected ',' or ')' at position %d", p.pos))
		}
	}
}

func (p *newickParser) parseSubtree(t *Tree, parent int64) {
	p.skipSpace()
	if p.peek() == '(' {
		node := t.AddNode(parent, "")
		p.parseGroup(t, node)
		p.skipSpace()
		t.Nodes[node].Name = p.parseName()
		t.Nodes[node].BranchLen = p.parseLength()
	} else {
		name := p.parseName()
		if name == "" {
			Check(fmt.Errorf("newick: empty leaf name at position %d", p.pos))
		}
		node := t.AddNode(parent, name)
		t.Nodes[node].BranchLen = p.parseLength()
	}
}

func (p *newickParser) parseName() string {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c == '(' || c == ')' || c == ',' || c == ':' || c == ';' ||
			c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			break
		}
		p.pos++
	}
	return p.input[start:p.pos]
}

func (p *newickParser) parseLength() float64 {
	p.skipSpace()
	if p.peek() != ':' {
		return 0
	}
	p.pos++
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if (c < '0' || c > '9') && c != '.' && c != '-' && c != '+' &&
			c != 'e' && c != 'E' {
			break
		}
		p.pos++
	}
	l, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	Check(err)
	return l
}
