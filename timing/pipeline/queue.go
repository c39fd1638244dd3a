package pipeline

import (
	"errors"

	"github.com/sarchlab/sbsim/insts"
)

var (
	// ErrQueueFull is returned when enqueueing into a full queue.
	ErrQueueFull = errors.New("instruction queue full")
	// ErrQueueEmpty is returned when reading from an empty queue.
	ErrQueueEmpty = errors.New("instruction queue empty")
)

// FetchedInstruction is a decoded instruction waiting in the queue.
type FetchedInstruction struct {
	// PC is the memory index the word was fetched from.
	PC uint16
	// Word is the encoded instruction.
	Word uint32
	Inst insts.Instruction
}

// InstructionQueue is a bounded FIFO between fetch and issue.
type InstructionQueue struct {
	entries []FetchedInstruction
	head    int
	size    int
}

// NewInstructionQueue creates a queue holding at most capacity entries.
func NewInstructionQueue(capacity int) *InstructionQueue {
	return &InstructionQueue{
		entries: make([]FetchedInstruction, capacity),
	}
}

// Len returns the number of queued instructions.
func (q *InstructionQueue) Len() int {
	return q.size
}

// Cap returns the capacity of the queue.
func (q *InstructionQueue) Cap() int {
	return len(q.entries)
}

// Full returns true if no more instructions fit.
func (q *InstructionQueue) Full() bool {
	return q.size == len(q.entries)
}

// Empty returns true if the queue holds nothing.
func (q *InstructionQueue) Empty() bool {
	return q.size == 0
}

// Enqueue appends f at the tail.
func (q *InstructionQueue) Enqueue(f FetchedInstruction) error {
	if q.Full() {
		return ErrQueueFull
	}

	q.entries[(q.head+q.size)%len(q.entries)] = f
	q.size++
	return nil
}

// Peek returns the head without removing it.
func (q *InstructionQueue) Peek() (*FetchedInstruction, error) {
	if q.Empty() {
		return nil, ErrQueueEmpty
	}
	return &q.entries[q.head], nil
}

// Pop removes and returns the head.
func (q *InstructionQueue) Pop() (FetchedInstruction, error) {
	if q.Empty() {
		return FetchedInstruction{}, ErrQueueEmpty
	}

	f := q.entries[q.head]
	q.entries[q.head] = FetchedInstruction{}
	q.head = (q.head + 1) % len(q.entries)
	q.size--
	return f, nil
}
