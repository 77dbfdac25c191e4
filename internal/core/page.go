package core

// Page is one slice of a paginated list together with the numbers the
// footer needs ("Showing Start to End of Total").
type Page[T any] struct {
	Items      []T
	Number     int
	Size       int
	TotalPages int
	Start      int
	End        int
	Total      int
}

// Paginate returns page number of items using size entries per page. The
// page number is clamped to [1, TotalPages]; an empty list yields a single
// empty page reporting 0 to 0 of 0.
func Paginate[T any](items []T, number, size int) Page[T] {
	if size <= 0 {
		size = 10
	}
	total := len(items)
	pages := (total + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	if number < 1 {
		number = 1
	}
	if number > pages {
		number = pages
	}
	p := Page[T]{Number: number, Size: size, TotalPages: pages, Total: total}
	if total == 0 {
		p.Items = []T{}
		return p
	}
	lo := (number - 1) * size
	hi := min(lo+size, total)
	p.Items = items[lo:hi]
	p.Start = lo + 1
	p.End = hi
	return p
}

// HasPrev reports whether a previous page exists.
func (p Page[T]) HasPrev() bool { return p.Number > 1 }

// HasNext reports whether a next page exists.
func (p Page[T]) HasNext() bool { return p.Number < p.TotalPages }

func (p Page[T]) Prev() int { return p.Number - 1 }

func (p Page[T]) Next() int { return p.Number + 1 }
