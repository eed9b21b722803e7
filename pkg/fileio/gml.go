package fileio

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/gilchrisn/bus-assignment-service/pkg/models"
)

// gmlNode is a parsed `node [ ... ]` block
type gmlNode struct {
	id    string
	label string
}

// ParseGML reads an undirected graph in GML form. Vertices are named by their
// label, falling back to the id when a node has no label. Edge endpoints
// reference node ids.
func ParseGML(r io.Reader) (*models.Graph, error) {
	tokens, err := tokenizeGML(r)
	if err != nil {
		return nil, err
	}

	p := &gmlParser{tokens: tokens}
	if err := p.expect("graph"); err != nil {
		return nil, err
	}
	if err := p.expect("["); err != nil {
		return nil, err
	}

	graph := models.NewGraph()
	names := make(map[string]string)
	type pending struct{ source, target string }
	edges := make([]pending, 0)

	for {
		key, ok := p.next()
		if !ok {
			return nil, fmt.Errorf("gml: unterminated graph block")
		}
		if key == "]" {
			break
		}

		switch key {
		case "node":
			attrs, err := p.block()
			if err != nil {
				return nil, err
			}
			node := gmlNode{id: attrs["id"], label: attrs["label"]}
			if node.id == "" {
				return nil, fmt.Errorf("gml: node without id")
			}
			if _, dup := names[node.id]; dup {
				return nil, fmt.Errorf("%w: gml: duplicate node id %s", ErrMalformedInput, node.id)
			}
			if node.label == "" {
				node.label = node.id
			}
			if _, dup := graph.Lookup(node.label); dup {
				return nil, fmt.Errorf("%w: gml: duplicate node label %q", ErrMalformedInput, node.label)
			}
			names[node.id] = node.label
			graph.AddVertex(node.label)
		case "edge":
			attrs, err := p.block()
			if err != nil {
				return nil, err
			}
			edges = append(edges, pending{source: attrs["source"], target: attrs["target"]})
		default:
			// graph-level attribute such as `directed 0` or `multigraph 1`
			value, ok := p.next()
			if !ok {
				return nil, fmt.Errorf("gml: missing value for %s", key)
			}
			if key == "directed" && value == "1" {
				return nil, fmt.Errorf("gml: directed graphs are not supported")
			}
			if value == "[" {
				if err := p.skip(); err != nil {
					return nil, err
				}
			}
		}
	}

	for _, e := range edges {
		u, ok := names[e.source]
		if !ok {
			return nil, fmt.Errorf("%w: edge source %s", models.ErrUnknownVertex, e.source)
		}
		v, ok := names[e.target]
		if !ok {
			return nil, fmt.Errorf("%w: edge target %s", models.ErrUnknownVertex, e.target)
		}
		if err := graph.AddEdge(u, v); err != nil {
			return nil, fmt.Errorf("gml: edge %s-%s: %w", u, v, err)
		}
	}

	return graph, nil
}

// WriteGML writes the graph in the layout networkx produces
func WriteGML(w io.Writer, g *models.Graph) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "graph [")
	for i, id := range g.IDs {
		fmt.Fprintf(bw, "  node [\n    id %d\n    label %q\n  ]\n", i, id)
	}
	for _, e := range g.Edges {
		fmt.Fprintf(bw, "  edge [\n    source %d\n    target %d\n  ]\n", e.U, e.V)
	}
	fmt.Fprintln(bw, "]")
	return bw.Flush()
}

type gmlParser struct {
	tokens []string
	pos    int
}

func (p *gmlParser) next() (string, bool) {
	if p.pos >= len(p.tokens) {
		return "", false
	}
	tok := p.tokens[p.pos]
	p.pos++
	return tok, true
}

func (p *gmlParser) expect(want string) error {
	tok, ok := p.next()
	if !ok || tok != want {
		return fmt.Errorf("gml: expected %q, got %q", want, tok)
	}
	return nil
}

// block reads `[ key value ... ]` and returns the scalar attributes
func (p *gmlParser) block() (map[string]string, error) {
	if err := p.expect("["); err != nil {
		return nil, err
	}
	attrs := make(map[string]string)
	for {
		key, ok := p.next()
		if !ok {
			return nil, fmt.Errorf("gml: unterminated block")
		}
		if key == "]" {
			return attrs, nil
		}
		value, ok := p.next()
		if !ok {
			return nil, fmt.Errorf("gml: missing value for %s", key)
		}
		if value == "[" {
			if err := p.skip(); err != nil {
				return nil, err
			}
			continue
		}
		attrs[key] = value
	}
}

// skip consumes a nested list whose opening bracket was already read
func (p *gmlParser) skip() error {
	depth := 1
	for depth > 0 {
		tok, ok := p.next()
		if !ok {
			return fmt.Errorf("gml: unterminated nested list")
		}
		switch tok {
		case "[":
			depth++
		case "]":
			depth--
		}
	}
	return nil
}

// tokenizeGML splits the input into keys, values and brackets. Quoted strings
// become a single token without their quotes; `#` starts a comment.
func tokenizeGML(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	tokens := make([]string, 0, 256)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		for i := 0; i < len(line); {
			c := rune(line[i])
			switch {
			case unicode.IsSpace(c):
				i++
			case c == '#':
				i = len(line)
			case c == '[' || c == ']':
				tokens = append(tokens, string(c))
				i++
			case c == '"':
				end := strings.IndexByte(line[i+1:], '"')
				if end < 0 {
					return nil, fmt.Errorf("gml: line %d: unterminated string", lineNum)
				}
				tokens = append(tokens, unescapeGML(line[i+1:i+1+end]))
				i += end + 2
			default:
				start := i
				for i < len(line) && !unicode.IsSpace(rune(line[i])) && line[i] != '[' && line[i] != ']' {
					i++
				}
				tokens = append(tokens, line[start:i])
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("gml: %w", err)
	}
	return tokens, nil
}

var gmlEntities = strings.NewReplacer("&quot;", `"`, "&amp;", "&", "&lt;", "<", "&gt;", ">")

func unescapeGML(s string) string {
	if !strings.ContainsRune(s, '&') {
		return s
	}
	return gmlEntities.Replace(s)
}
