package viewer

// PageSize is the fixed number of registrants shown per page.
const PageSize = 15

// TotalPages returns ceil(n/size). It returns 0 for an empty collection or a non-positive size.
func TotalPages(n, size int) int {
	if n <= 0 || size <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

// Window returns the half-open index range [start, end) of page (1-indexed) over n items.
// Pages outside [1, TotalPages(n, size)] yield an empty range.
func Window(n, page, size int) (start, end int) {
	if page < 1 || page > TotalPages(n, size) {
		return 0, 0
	}
	start = (page - 1) * size
	end = start + size
	if end > n {
		end = n
	}
	return start, end
}
