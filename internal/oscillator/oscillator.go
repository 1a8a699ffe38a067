// Package oscillator implements a phase-accumulating wavetable oscillator
package oscillator

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"
)

// DefaultTableSize is 1<<12 samples per cycle
const DefaultTableSize = 4096

var ErrTableSize = errors.New("table size must be a power of two")

// Table is one cycle of a sine wave. It is written once by NewTable and only
// read afterwards, so any number of goroutines may share it.
type Table struct {
	samples []float64
	mask    int
}

// NewTable builds a sine table with size entries
func NewTable(size int) (*Table, error) {
	if size < 2 || size&(size-1) != 0 {
		return nil, fmt.Errorf("%w: got %d", ErrTableSize, size)
	}

	t := &Table{
		samples: make([]float64, size),
		mask:    size - 1,
	}
	for i := range t.samples {
		t.samples[i] = math.Sin(2 * math.Pi * float64(i) / float64(size))
	}
	return t, nil
}

func (t *Table) Len() int { return len(t.samples) }

// At returns entry i, wrapping i into the table
func (t *Table) At(i int) float64 { return t.samples[i&t.mask] }

// Oscillator reads a Table at an atomically stored phase. Frequency is set
// by the control goroutine; phase is advanced by the render goroutine.
type Oscillator struct {
	table     *Table
	phase     atomic.Uint64 // float64 bits, [0, 1)
	frequency atomic.Uint64 // float64 bits, Hz
}

// New creates an oscillator at phase zero
func New(table *Table, frequency float64) *Oscillator {
	o := &Oscillator{table: table}
	o.SetFrequency(frequency)
	return o
}

// SetFrequency sets the frequency in Hz. It is picked up on the next sample.
func (o *Oscillator) SetFrequency(hz float64) {
	if hz < 0 || math.IsNaN(hz) {
		hz = 0
	}
	o.frequency.Store(math.Float64bits(hz))
}

func (o *Oscillator) Frequency() float64 { return math.Float64frombits(o.frequency.Load()) }

// SetPhase sets the phase, wrapping it into [0, 1)
func (o *Oscillator) SetPhase(p float64) {
	p -= math.Floor(p)
	if p >= 1 || math.IsNaN(p) {
		p = 0
	}
	o.phase.Store(math.Float64bits(p))
}

func (o *Oscillator) Phase() float64 { return math.Float64frombits(o.phase.Load()) }

func (o *Oscillator) Table() *Table { return o.table }

// Lookup returns the table entry at the current phase. The index is masked
// rather than taken modulo the table length.
func (o *Oscillator) Lookup() float64 {
	idx := int(o.Phase()*float64(len(o.table.samples))) & o.table.mask
	return o.table.samples[idx]
}

// Advance moves the phase forward by one sample at sampleRate. A single
// subtraction wraps it, which holds for any frequency below Nyquist.
func (o *Oscillator) Advance(sampleRate float64) {
	ph := o.Phase() + o.Frequency()/sampleRate
	if ph >= 1 {
		ph--
	}
	o.phase.Store(math.Float64bits(ph))
}
