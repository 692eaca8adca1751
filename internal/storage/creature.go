package storage

import (
	"fmt"
	"os"

	"github.com/san-kum/evosim/internal/creature"
)

// SaveCreature writes the raw record of c to path.
func SaveCreature(path string, c *creature.Creature) error {
	data, err := c.MarshalBinary()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadCreature reads and validates a raw creature record.
func LoadCreature(path string) (creature.Creature, error) {
	var c creature.Creature
	data, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := c.UnmarshalBinary(data); err != nil {
		return c, fmt.Errorf("decode %s: %w", path, err)
	}
	return c, nil
}
