// 文件: pkg/portfolio/snowflake.go
// 交易 ID 生成器
// 使用开源库: github.com/bwmarrin/snowflake

package portfolio

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	idNode   *snowflake.Node
	initOnce sync.Once
	initErr  error
)

// InitIDNode 初始化雪花节点
// nodeID: 节点ID (0-1023)，多进程导入交易时各自取不同节点
func InitIDNode(nodeID int64) error {
	initOnce.Do(func() {
		idNode, initErr = snowflake.NewNode(nodeID)
	})
	return initErr
}

// NewTradeID 生成交易 ID
func NewTradeID() string {
	if err := InitIDNode(0); err != nil {
		// 节点 0 总是合法的，走到这里说明之前用非法节点号初始化过
		panic("portfolio: snowflake node not initialised: " + err.Error())
	}
	return "T" + idNode.Generate().String()
}
