package dedupe

import "github.com/sells-group/search-template/internal/model"

// Paginate splits points into consecutive pages of at most size rows.
// size <= 0 returns a single page. An empty input returns no pages.
func Paginate(points []model.Point, size int) [][]model.Point {
	if len(points) == 0 {
		return nil
	}
	if size <= 0 {
		return [][]model.Point{points}
	}
	pages := make([][]model.Point, 0, (len(points)+size-1)/size)
	for start := 0; start < len(points); start += size {
		end := min(start+size, len(points))
		pages = append(pages, points[start:end:end])
	}
	return pages
}
