package source

import "sort"

// TableSource serves observations already held in memory, instrument by
// instrument in sorted id order.
type TableSource struct {
	data  map[string][]Observation
	order []string
	pos   int
}

func NewTableSource(data map[string][]Observation) *TableSource {
	order := make([]string, 0, len(data))
	for id := range data {
		order = append(order, id)
	}
	sort.Strings(order)

	return &TableSource{data: data, order: order}
}

func (s *TableSource) Next() (string, []Observation, bool, error) {
	if s.pos >= len(s.order) {
		return "", nil, false, nil
	}

	id := s.order[s.pos]
	s.pos++

	obs := make([]Observation, len(s.data[id]))
	copy(obs, s.data[id])
	sort.Slice(obs, func(i, j int) bool {
		return obs[i].Minute.Before(obs[j].Minute)
	})
	return id, obs, true, nil
}

var (
	_ Source = (*TableSource)(nil)
	_ Source = (*CSVSource)(nil)
)
