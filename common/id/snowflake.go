package id

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init initializes the Snowflake node. Each running process needs a distinct
// node ID (the API server and the reconciliation worker use different ones).
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// New generates a globally unique, time-ordered int64 ID.
func New() int64 {
	return node.Generate().Int64()
}
