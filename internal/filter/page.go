package filter

import "slices"

// Ellipsis marks a gap in a page list.
const Ellipsis = 0

// PageSizes are the page sizes offered by the list view.
var PageSizes = []int{10, 15, 20, 25, 30}

// Page returns the items on the 1-based page of the given size and the total
// page count. page is clamped into range; a non-positive size yields a single
// page holding everything.
func Page[T any](items []T, page, size int) ([]T, int) {
	if size <= 0 || len(items) == 0 {
		return items, 1
	}
	total := (len(items) + size - 1) / size
	page = min(max(page, 1), total)
	start := (page - 1) * size
	end := min(start+size, len(items))
	return items[start:end], total
}

// VisiblePages lists the page buttons for a wide pager: every page when there
// are at most five, otherwise the first and last page, the current page and
// its neighbours, with Ellipsis for each gap. current is 1-based.
func VisiblePages(current, total int) []int {
	if total <= 5 {
		return pageRange(1, total)
	}

	out := []int{1}
	if current > 3 {
		out = append(out, Ellipsis)
	}
	for i := max(2, current-1); i <= min(total-1, current+1); i++ {
		if !slices.Contains(out, i) {
			out = append(out, i)
		}
	}
	if current < total-2 {
		out = append(out, Ellipsis)
	}
	if !slices.Contains(out, total) {
		out = append(out, total)
	}
	return out
}

// CompactPages is the narrow pager: first, current and last page only.
func CompactPages(current, total int) []int {
	if total <= 4 {
		return pageRange(1, total)
	}

	out := []int{1}
	if current > 2 {
		out = append(out, Ellipsis)
	}
	if current > 1 && current < total && !slices.Contains(out, current) {
		out = append(out, current)
	}
	if current < total-1 {
		out = append(out, Ellipsis)
	}
	if !slices.Contains(out, total) {
		out = append(out, total)
	}
	return out
}

func pageRange(from, to int) []int {
	out := make([]int, 0, max(to-from+1, 0))
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}
