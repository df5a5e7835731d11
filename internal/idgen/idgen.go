package idgen

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// Generator hands out snowflake IDs for every persisted entity.
type Generator struct {
	node *snowflake.Node
}

func New(nodeID int64) (*Generator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("init snowflake node %d: %w", nodeID, err)
	}
	return &Generator{node: node}, nil
}

func (g *Generator) NextID() int64 {
	return g.node.Generate().Int64()
}
