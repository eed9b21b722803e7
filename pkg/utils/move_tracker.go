package utils

import (
	"encoding/json"
	"os"
	"sync"
	"time"
)

// Relocation is one rider changing buses
type Relocation struct {
	Vertex string `json:"vertex"`
	From   int    `json:"from"`
	To     int    `json:"to"`
}

// MoveEvent is one accepted perturbation
type MoveEvent struct {
	MoveNumber  int          `json:"move"`
	Strategy    string       `json:"strategy"`
	Iteration   int          `json:"iteration"`
	Relocations []Relocation `json:"relocations"`
	Score       float64      `json:"score"`
	Timestamp   int64        `json:"timestamp"`
}

// MoveTracker appends accepted moves to a JSON-lines file. A nil tracker ignores every call.
type MoveTracker struct {
	mu      sync.Mutex
	file    *os.File
	encoder *json.Encoder
	moves   int
}

func NewMoveTracker(filename string) (*MoveTracker, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, err
	}

	return &MoveTracker{
		file:    file,
		encoder: json.NewEncoder(file),
	}, nil
}

func (mt *MoveTracker) LogMove(strategy string, iteration int, relocations []Relocation, score float64) error {
	if mt == nil {
		return nil
	}
	mt.mu.Lock()
	defer mt.mu.Unlock()

	mt.moves++
	event := MoveEvent{
		MoveNumber:  mt.moves,
		Strategy:    strategy,
		Iteration:   iteration,
		Relocations: relocations,
		Score:       score,
		Timestamp:   time.Now().Unix(),
	}

	return mt.encoder.Encode(event)
}

// Moves returns the number of moves logged so far
func (mt *MoveTracker) Moves() int {
	if mt == nil {
		return 0
	}
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return mt.moves
}

func (mt *MoveTracker) Close() error {
	if mt != nil && mt.file != nil {
		return mt.file.Close()
	}
	return nil
}
