package id

import (
	"os"
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	once sync.Once
	node *snowflake.Node
)

// New returns a process-unique snowflake ID. The node number comes from
// ID_NODE (0 when unset) so replicas generate disjoint ranges.
func New() int64 {
	once.Do(func() {
		nodeNum := int64(0)
		if v := os.Getenv("ID_NODE"); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				nodeNum = n
			}
		}
		n, err := snowflake.NewNode(nodeNum)
		if err != nil {
			panic(err)
		}
		node = n
	})
	return node.Generate().Int64()
}
