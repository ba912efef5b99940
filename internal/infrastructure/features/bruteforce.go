package features

import (
	"errors"

	"planar-recognizer/internal/domain/entity"
	"planar-recognizer/internal/domain/port"
)

// BruteForceMatcher полный перебор по расстоянию Хэмминга.
type BruteForceMatcher struct{}

// NewBruteForceMatcher создаёт матчер полного перебора.
func NewBruteForceMatcher() *BruteForceMatcher {
	return &BruteForceMatcher{}
}

// KnnMatch возвращает для каждого дескриптора query его k ближайших соседей из train.
// Соседи упорядочены по возрастанию расстояния, при равенстве по индексу train.
func (m *BruteForceMatcher) KnnMatch(query, train []entity.Descriptor, k int) ([][]entity.Neighbor, error) {
	if k <= 0 {
		return nil, errors.New("knn: k must be positive")
	}
	n := min(k, len(train))
	out := make([][]entity.Neighbor, len(query))
	for qi := range query {
		best := make([]entity.Neighbor, 0, n)
		for ti := range train {
			d := query[qi].Hamming(&train[ti])
			if len(best) == n && d >= best[n-1].Distance {
				continue
			}
			best = insertNeighbor(best, n, entity.Neighbor{QueryIdx: qi, TrainIdx: ti, Distance: d})
		}
		out[qi] = best
	}
	return out, nil
}

// insertNeighbor вставляет соседа в отсортированный срез длиной не больше n.
// Равные расстояния остаются в порядке поступления.
func insertNeighbor(best []entity.Neighbor, n int, nb entity.Neighbor) []entity.Neighbor {
	pos := len(best)
	for pos > 0 && best[pos-1].Distance > nb.Distance {
		pos--
	}
	if len(best) < n {
		best = append(best, entity.Neighbor{})
	}
	copy(best[pos+1:], best[pos:len(best)-1])
	best[pos] = nb
	return best
}

var _ port.DescriptorMatcher = (*BruteForceMatcher)(nil)
