package render

import "github.com/yanqian/genui-analytics/internal/domain/profile"

// BlockKind names a top-level section of a profile page.
type BlockKind string

const (
	BlockMessage BlockKind = "message"
	BlockMap     BlockKind = "map"
	BlockStats   BlockKind = "stats"
	BlockChart   BlockKind = "chart"
)

// Block is one section of the rendered page. Exactly one payload field is set, matching Kind.
type Block struct {
	Kind       BlockKind        `json:"kind"`
	Message    string           `json:"message,omitempty"`
	Map        *profile.MapSpec `json:"map,omitempty"`
	Stats      []profile.Stat   `json:"stats,omitempty"`
	Chart      *profile.Chart   `json:"chart,omitempty"`
	ChartIndex int              `json:"chart_index"`
}

// Schema lays out a response as message, map, stats, then one block per chart.
func Schema(resp profile.Response) []Block {
	blocks := make([]Block, 0, 3+len(resp.Charts))
	if resp.Message != nil && *resp.Message != "" {
		blocks = append(blocks, Block{Kind: BlockMessage, Message: *resp.Message})
	}
	if resp.Map != nil {
		spec := *resp.Map
		blocks = append(blocks, Block{Kind: BlockMap, Map: &spec})
	}
	if len(resp.Stats) > 0 {
		blocks = append(blocks, Block{Kind: BlockStats, Stats: resp.Stats})
	}
	for i := range resp.Charts {
		chart := resp.Charts[i]
		blocks = append(blocks, Block{Kind: BlockChart, Chart: &chart, ChartIndex: i})
	}
	return blocks
}
