package server

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/bwmarrin/snowflake"
)

// ID strategies accepted by NewIDGenerator.
const (
	IDStrategyRandom    = "random"
	IDStrategySnowflake = "snowflake"
	IDStrategySequence  = "sequence"
)

// IDGenerator hands out candidate primary keys for new organizations.
// A zero ID means the store assigns the key on insert.
// Uniqueness is not guaranteed; the store's primary key is the final arbiter.
type IDGenerator interface {
	NextID() int64
}

// IDConfig selects and parameterises an IDGenerator.
type IDConfig struct {
	// Strategy is one of random, snowflake or sequence.
	// Default: random
	Strategy string

	// Min and Max bound the random strategy, both inclusive.
	// Default: 1 and 2147483647
	Min int64
	Max int64

	// SnowflakeNode identifies this instance for the snowflake strategy (0-1023).
	SnowflakeNode int64

	// MaxAttempts is how many ids a single create may try before giving up.
	// Default: 5
	MaxAttempts uint
}

// ApplyDefaults applies default values to unset configuration fields.
func (c *IDConfig) ApplyDefaults() {
	if c.Strategy == "" {
		c.Strategy = IDStrategyRandom
	}
	if c.Min == 0 {
		c.Min = 1
	}
	if c.Max == 0 {
		c.Max = 2147483647
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 5
	}
}

// Validate checks that the id configuration is valid.
func (c *IDConfig) Validate() error {
	switch c.Strategy {
	case IDStrategyRandom:
		if c.Min < 1 {
			return errors.New("id min must be at least 1")
		}
		if c.Max < c.Min {
			return fmt.Errorf("id max (%d) must not be below id min (%d)", c.Max, c.Min)
		}
	case IDStrategySnowflake, IDStrategySequence:
	default:
		return fmt.Errorf("unknown id strategy %q", c.Strategy)
	}
	return nil
}

// NewIDGenerator builds the generator described by cfg.
func NewIDGenerator(cfg IDConfig) (IDGenerator, error) {
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid id config: %w", err)
	}

	switch cfg.Strategy {
	case IDStrategySnowflake:
		return NewSnowflakeIDs(cfg.SnowflakeNode)
	case IDStrategySequence:
		return SequenceIDs{}, nil
	default:
		return NewRandomIDs(cfg.Min, cfg.Max), nil
	}
}

// RandomIDs draws uniformly from [min, max].
type RandomIDs struct {
	min int64
	max int64
}

// NewRandomIDs creates a generator over the inclusive range [lo, hi].
func NewRandomIDs(lo, hi int64) *RandomIDs {
	return &RandomIDs{min: lo, max: hi}
}

func (r *RandomIDs) NextID() int64 {
	return r.min + rand.Int64N(r.max-r.min+1)
}

// SnowflakeIDs issues time ordered 63 bit ids from a snowflake node.
type SnowflakeIDs struct {
	node *snowflake.Node
}

// NewSnowflakeIDs creates a generator for the given node number.
func NewSnowflakeIDs(node int64) (*SnowflakeIDs, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node %d: %w", node, err)
	}
	return &SnowflakeIDs{node: n}, nil
}

func (s *SnowflakeIDs) NextID() int64 {
	return s.node.Generate().Int64()
}

// SequenceIDs leaves key assignment to the store.
type SequenceIDs struct{}

func (SequenceIDs) NextID() int64 {
	return 0
}
