package creature

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

var ErrRecordSize = errors.New("creature: record has wrong size")

// muscleRecord is the fixed-width wire form of a Muscle.
type muscleRecord struct {
	First, Second int32
	Extended      float64
	Contracted    float64
	Strength      float64
	Contracting   bool
}

// record is the raw little-endian layout of a saved creature. Field order
// and array capacities are the file format; there is no header.
type record struct {
	NumNodes   int32
	NumMuscles int32
	Clock      float64
	Energy     float64
	Fitness    float64
	Nodes      [MaxNodes]Node
	Muscles    [MaxMuscles]muscleRecord
	Behavior   [MaxActions]int32
}

// RecordSize is the exact byte length of a marshaled creature.
var RecordSize = binary.Size(record{})

func (c *Creature) toRecord() *record {
	r := &record{
		NumNodes:   int32(c.NumNodes),
		NumMuscles: int32(c.NumMuscles),
		Clock:      c.Clock,
		Energy:     c.Energy,
		Fitness:    c.Fitness,
		Nodes:      c.Nodes,
	}
	for i, m := range c.Muscles {
		r.Muscles[i] = muscleRecord{
			First:       int32(m.First),
			Second:      int32(m.Second),
			Extended:    m.Extended,
			Contracted:  m.Contracted,
			Strength:    m.Strength,
			Contracting: m.Contracting,
		}
	}
	for i, a := range c.Behavior {
		r.Behavior[i] = int32(a)
	}
	return r
}

func (r *record) creature() Creature {
	c := Creature{
		NumNodes:   int(r.NumNodes),
		NumMuscles: int(r.NumMuscles),
		Clock:      r.Clock,
		Energy:     r.Energy,
		Fitness:    r.Fitness,
		Nodes:      r.Nodes,
	}
	for i, m := range r.Muscles {
		c.Muscles[i] = Muscle{
			First:       int(m.First),
			Second:      int(m.Second),
			Extended:    m.Extended,
			Contracted:  m.Contracted,
			Strength:    m.Strength,
			Contracting: m.Contracting,
		}
	}
	for i, a := range r.Behavior {
		c.Behavior[i] = int(a)
	}
	return c
}

// MarshalBinary encodes c as a raw fixed-size record.
func (c *Creature) MarshalBinary() ([]byte, error) {
	return binary.Append(make([]byte, 0, RecordSize), binary.LittleEndian, c.toRecord())
}

// UnmarshalBinary replaces c with the record in data. The record must be
// exactly RecordSize bytes and describe a valid creature; c is left
// untouched otherwise.
func (c *Creature) UnmarshalBinary(data []byte) error {
	if len(data) != RecordSize {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrRecordSize, len(data), RecordSize)
	}
	var r record
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &r); err != nil {
		return fmt.Errorf("decode creature: %w", err)
	}
	decoded := r.creature()
	if err := decoded.Validate(); err != nil {
		return err
	}
	*c = decoded
	return nil
}
