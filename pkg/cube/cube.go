// 文件: pkg/cube/cube.go
// 敞口立方体 (Exposure Cube)
//
// 四维数组: (实体, 日期, 样本, 结果列)
// - 实体: 交易 ID 或 净额结算集 ID
// - 日期: 模拟时间网格 (不含估值日, 估值日单独存 T0)
// - 样本: 蒙特卡洛路径
// - 结果列: NPV / EPE / ENE 等
//
// XVA 核心只读，从不修改。填充由上游 (模拟 / 敞口聚合) 完成。

package cube

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// Reader 只读接口
// =============================================================================

// Reader 立方体只读接口，XVA 计算器只依赖它
type Reader interface {
	AsOf() time.Time
	IDs() []string
	NumIDs() int
	Dates() []time.Time
	NumDates() int
	Samples() int
	Depth() int

	// IndexOf 实体 ID -> 行号
	IndexOf(id string) (int, bool)

	// GetT0 估值日的值
	GetT0(id, col int) float64

	// Get 网格日期上的值
	Get(id, date, sample, col int) float64
}

// 确保实现了接口
var _ Reader = (*InMemoryCube)(nil)

var (
	ErrEmptyID       = errors.New("cube: empty id")
	ErrDuplicateID   = errors.New("cube: duplicate id")
	ErrUnsortedDates = errors.New("cube: dates must be strictly increasing")
	ErrDimension     = errors.New("cube: samples and depth must be positive")
)

// =============================================================================
// InMemoryCube 内存实现
// =============================================================================

// InMemoryCube 稠密 float64 立方体
//
// 内存布局: data[((id*numDates+date)*samples+sample)*depth+col]
// 同一 (id, date) 的所有样本连续存放，按日期遍历时缓存友好。
type InMemoryCube struct {
	asOf    time.Time
	ids     []string
	index   map[string]int
	dates   []time.Time
	samples int
	depth   int

	t0   []float64 // [id*depth+col]
	data []float64
}

// New 创建立方体
func New(asOf time.Time, ids []string, dates []time.Time, samples, depth int) (*InMemoryCube, error) {
	if samples <= 0 || depth <= 0 {
		return nil, fmt.Errorf("%w: samples=%d, depth=%d", ErrDimension, samples, depth)
	}

	index := make(map[string]int, len(ids))
	for i, id := range ids {
		if id == "" {
			return nil, fmt.Errorf("%w at position %d", ErrEmptyID, i)
		}
		if _, ok := index[id]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, id)
		}
		index[id] = i
	}

	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			return nil, fmt.Errorf("%w: %s after %s", ErrUnsortedDates,
				dates[i].Format(time.DateOnly), dates[i-1].Format(time.DateOnly))
		}
	}

	c := &InMemoryCube{
		asOf:    asOf,
		ids:     append([]string(nil), ids...),
		index:   index,
		dates:   append([]time.Time(nil), dates...),
		samples: samples,
		depth:   depth,
		t0:      make([]float64, len(ids)*depth),
		data:    make([]float64, len(ids)*len(dates)*samples*depth),
	}
	return c, nil
}

func (c *InMemoryCube) AsOf() time.Time   { return c.asOf }
func (c *InMemoryCube) IDs() []string      { return c.ids }
func (c *InMemoryCube) NumIDs() int        { return len(c.ids) }
func (c *InMemoryCube) Dates() []time.Time { return c.dates }
func (c *InMemoryCube) NumDates() int      { return len(c.dates) }
func (c *InMemoryCube) Samples() int       { return c.samples }
func (c *InMemoryCube) Depth() int         { return c.depth }

func (c *InMemoryCube) IndexOf(id string) (int, bool) {
	i, ok := c.index[id]
	return i, ok
}

func (c *InMemoryCube) GetT0(id, col int) float64 {
	return c.t0[c.t0Pos(id, col)]
}

func (c *InMemoryCube) SetT0(v float64, id, col int) {
	c.t0[c.t0Pos(id, col)] = v
}

func (c *InMemoryCube) Get(id, date, sample, col int) float64 {
	return c.data[c.pos(id, date, sample, col)]
}

func (c *InMemoryCube) Set(v float64, id, date, sample, col int) {
	c.data[c.pos(id, date, sample, col)] = v
}

// Add 在原值上累加 (聚合净额结算集时使用)
func (c *InMemoryCube) Add(v float64, id, date, sample, col int) {
	c.data[c.pos(id, date, sample, col)] += v
}

func (c *InMemoryCube) t0Pos(id, col int) int {
	c.checkIDCol(id, col)
	return id*c.depth + col
}

func (c *InMemoryCube) pos(id, date, sample, col int) int {
	c.checkIDCol(id, col)
	if date < 0 || date >= len(c.dates) {
		panic(fmt.Sprintf("cube: date index %d out of range [0,%d)", date, len(c.dates)))
	}
	if sample < 0 || sample >= c.samples {
		panic(fmt.Sprintf("cube: sample index %d out of range [0,%d)", sample, c.samples))
	}
	return ((id*len(c.dates)+date)*c.samples+sample)*c.depth + col
}

func (c *InMemoryCube) checkIDCol(id, col int) {
	if id < 0 || id >= len(c.ids) {
		panic(fmt.Sprintf("cube: id index %d out of range [0,%d)", id, len(c.ids)))
	}
	if col < 0 || col >= c.depth {
		panic(fmt.Sprintf("cube: column %d out of range [0,%d)", col, c.depth))
	}
}
