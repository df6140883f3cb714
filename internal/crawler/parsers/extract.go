package parsers

import "fmt"

// StrategyCount records how many new IDs one strategy contributed.
type StrategyCount struct {
	Name  string
	Added int
}

// Result is the outcome of running the strategy chain over one page.
type Result struct {
	IDs    []string
	Counts []StrategyCount
}

// ExtractIDs runs the strategy chain over raw HTML and returns at most limit
// unique IDs in first-seen order. IDs in exclude (such as the author's own
// user ID) are skipped.
func (p *Parser) ExtractIDs(raw string, limit int, exclude ...string) (*Result, error) {
	page, err := NewPage(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing HTML: %w", err)
	}

	collector := NewCollector(limit, exclude...)
	result := &Result{}

	for _, strategy := range p.Strategies() {
		if collector.Full() {
			break
		}

		added := collector.AddAll(strategy.Find(page))
		result.Counts = append(result.Counts, StrategyCount{Name: strategy.Name, Added: added})
	}

	result.IDs = collector.IDs()

	return result, nil
}
