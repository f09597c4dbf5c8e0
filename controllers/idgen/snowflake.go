package idgen

import (
	"log"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init creates the snowflake node. Movement records get their IDs from here so
// audit rows stay globally unique across databases.
func Init() {
	once.Do(func() {
		var err error
		node, err = snowflake.NewNode(1)
		if err != nil {
			log.Fatalf("Failed to init Snowflake: %v", err)
		}
	})
}

func GenerateID() int64 {
	Init()
	return node.Generate().Int64()
}
