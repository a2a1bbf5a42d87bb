package domain

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

type Page struct {
	Number  int
	PerPage int
}

// Normalize выставляет значения по умолчанию и ограничивает размер страницы
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.PerPage < 1 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	return p
}

func (p Page) Offset() int {
	n := p.Normalize()
	return (n.Number - 1) * n.PerPage
}

func (p Page) Limit() int {
	return p.Normalize().PerPage
}

type Paginated[T any] struct {
	Items   []T
	Total   int
	Page    int
	PerPage int
}

func (p Paginated[T]) TotalPages() int {
	if p.PerPage <= 0 {
		return 0
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}

func NewPaginated[T any](items []T, total int, page Page) Paginated[T] {
	n := page.Normalize()
	if items == nil {
		items = []T{}
	}
	return Paginated[T]{Items: items, Total: total, Page: n.Number, PerPage: n.PerPage}
}
