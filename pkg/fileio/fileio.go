// Package fileio reads solver inputs (a GML friendship graph plus a parameters
// file) and reads and writes solution files.
package fileio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gilchrisn/bus-assignment-service/pkg/models"
)

const (
	// GraphFile is the graph file inside an input directory
	GraphFile = "graph.gml"
	// ParametersFile holds the bus count, bus size and rowdy groups
	ParametersFile = "parameters.txt"
	// SolutionExt is appended to the input name for solution files
	SolutionExt = ".out"
)

// ErrMalformedInput is wrapped by every parse failure of the text formats
var ErrMalformedInput = errors.New("malformed input")

// Parameters is the content of a parameters file
type Parameters struct {
	NumBuses int
	BusSize  int
	Groups   [][]string
}

// ReadInput loads `graph.gml` and `parameters.txt` from dir and builds a validated problem
func ReadInput(dir string) (*models.Problem, error) {
	gf, err := os.Open(filepath.Join(dir, GraphFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open graph: %w", err)
	}
	defer gf.Close()

	graph, err := ParseGML(gf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Join(dir, GraphFile), err)
	}

	pf, err := os.Open(filepath.Join(dir, ParametersFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open parameters: %w", err)
	}
	defer pf.Close()

	params, err := ParseParameters(pf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Join(dir, ParametersFile), err)
	}

	return models.NewProblem(graph, params.NumBuses, params.BusSize, params.Groups)
}

// ParseParameters reads the bus count, the bus size and one rowdy group per line
func ParseParameters(r io.Reader) (*Parameters, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	params := &Parameters{Groups: make([][]string, 0)}
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		switch lineNum {
		case 1, 2:
			n, err := strconv.Atoi(line)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: expected an integer, got %q", ErrMalformedInput, lineNum, line)
			}
			if lineNum == 1 {
				params.NumBuses = n
			} else {
				params.BusSize = n
			}
		default:
			if line == "" {
				continue
			}
			group, err := ParseList(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			params.Groups = append(params.Groups, group)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if lineNum < 2 {
		return nil, fmt.Errorf("%w: expected bus count and bus size", ErrMalformedInput)
	}

	return params, nil
}

// WriteParameters writes params in the layout ParseParameters reads
func WriteParameters(w io.Writer, params *Parameters) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n%d\n", params.NumBuses, params.BusSize)
	for _, group := range params.Groups {
		fmt.Fprintln(bw, FormatList(group))
	}
	return bw.Flush()
}

// ParseList parses a list literal such as `['a', 'b']`
func ParseList(line string) ([]string, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "[") || !strings.HasSuffix(line, "]") {
		return nil, fmt.Errorf("%w: not a list literal: %q", ErrMalformedInput, line)
	}
	body := strings.TrimSpace(line[1 : len(line)-1])
	if body == "" {
		return []string{}, nil
	}

	parts := strings.Split(body, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if len(item) >= 2 && (item[0] == '\'' || item[0] == '"') && item[len(item)-1] == item[0] {
			item = item[1 : len(item)-1]
		}
		if item == "" {
			return nil, fmt.Errorf("%w: empty list element in %q", ErrMalformedInput, line)
		}
		items = append(items, item)
	}
	return items, nil
}

// FormatList renders ids as a list literal with quoted elements
func FormatList(ids []string) string {
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = "'" + id + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// WriteSolution writes one bus per line, creating parent directories as needed
func WriteSolution(path string, buses [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create solution file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	for _, bus := range buses {
		fmt.Fprintln(w, FormatList(bus))
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write solution: %w", err)
	}
	return file.Close()
}

// ReadSolution reads a solution file written by WriteSolution. Empty lines
// are skipped; an empty list literal stands for an empty bus.
func ReadSolution(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open solution: %w", err)
	}
	defer file.Close()

	buses := make([][]string, 0)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		bus, err := ParseList(line)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, lineNum, err)
		}
		buses = append(buses, bus)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return buses, nil
}

// SolutionPath returns `<outputs>/<size>/<name>.out`
func SolutionPath(outputs, size, name string) string {
	return filepath.Join(outputs, size, name+SolutionExt)
}
