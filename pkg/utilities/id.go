package utilities

import (
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

// NewRequestID returns a KSUID string used to correlate log lines of one request.
func NewRequestID() string {
	return ksuid.New().String()
}

// NewRunID returns a snowflake ID using the node from SNOWFLAKE_NODE
// (default 1). Initializer runs are tagged with it.
func NewRunID() string {
	nodeID := int64(1)
	if v := os.Getenv("SNOWFLAKE_NODE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			nodeID = n
		}
	}
	return NewRunIDWithNode(nodeID)
}

// NewRunIDWithNode falls back to a KSUID if the node cannot be initialized.
func NewRunIDWithNode(nodeID int64) string {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return NewRequestID()
	}
	return node.Generate().String()
}
