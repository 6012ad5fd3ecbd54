package service

// Pagination describes one page of a live stream listing.
type Pagination struct {
	CurrentPage int `json:"current_page"`
	PageSize    int `json:"page_size"`
	TotalItems  int `json:"total_items"`
	TotalPages  int `json:"total_pages"`
}

// Page is the envelope returned for paginated listings.
type Page[T any] struct {
	Streams    []T        `json:"streams"`
	Pagination Pagination `json:"pagination"`
}

// Paginate slices items for page (1-based). size must be positive.
func Paginate[T any](items []T, page, size int) Page[T] {
	if page < 1 {
		page = 1
	}
	total := len(items)
	skip := total
	if page-1 <= total/size {
		skip = min((page-1)*size, total)
	}
	end := total
	if size < total-skip {
		end = skip + size
	}
	return Page[T]{
		Streams: append(make([]T, 0, end-skip), items[skip:end]...),
		Pagination: Pagination{
			CurrentPage: page,
			PageSize:    size,
			TotalItems:  total,
			TotalPages:  (total + size - 1) / size,
		},
	}
}
