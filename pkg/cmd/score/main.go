package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/gilchrisn/bus-assignment-service/pkg/fileio"
	"github.com/gilchrisn/bus-assignment-service/pkg/scoring"
)

func main() {
	asJSON := flag.Bool("json", false, "print the full diagnostic as JSON")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-json] <input_dir> <solution.out>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}
	inputDir, solutionFile := flag.Arg(0), flag.Arg(1)

	problem, err := fileio.ReadInput(inputDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read input: %v\n", err)
		os.Exit(1)
	}

	buses, err := fileio.ReadSolution(solutionFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read solution: %v\n", err)
		os.Exit(1)
	}

	result := scoring.EvaluateNamed(problem, buses)

	if *asJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode result: %v\n", err)
			os.Exit(1)
		}
	} else {
		fmt.Printf("=== %s ===\n", solutionFile)
		fmt.Printf("Buses:       %d (size %d)\n", problem.NumBuses, problem.BusSize)
		fmt.Printf("Vertices:    %d\n", problem.NumVertices())
		fmt.Printf("Constraints: %d\n", len(problem.Constraints))
		fmt.Printf("Result:      %s\n", result.String())
	}

	if !result.Valid {
		os.Exit(1)
	}
}
