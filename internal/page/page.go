// Package page models paged queries: the request a client sends (page, size,
// sort), the slice of results a store returns, and the pagination headers
// (X-Total-Count and RFC 5988 Link) written back to the client.
package page

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

const (
	// DefaultSize is used when a request carries no usable size.
	DefaultSize = 20
	// MaxSize caps the size a client may ask for.
	MaxSize = 2000
)

// Config bounds the page sizes accepted from clients.
type Config struct {
	DefaultSize int
	MaxSize     int
}

// DefaultConfig returns the stock limits.
func DefaultConfig() Config {
	return Config{DefaultSize: DefaultSize, MaxSize: MaxSize}
}

// Order is a single sort instruction.
type Order struct {
	Field string
	Desc  bool
}

// SQL renders the order as an ORDER BY term. Field must already be a trusted column name.
func (o Order) SQL() string {
	if o.Desc {
		return o.Field + " DESC"
	}
	return o.Field + " ASC"
}

// Request is a zero-based page request.
type Request struct {
	Page int
	Size int
	Sort []Order
}

// Offset returns the number of rows to skip.
func (r Request) Offset() int {
	return r.Page * r.Size
}

// Limit returns the maximum number of rows in the page.
func (r Request) Limit() int {
	return r.Size
}

// OrderBy renders the sort as an ORDER BY clause body, falling back to def when unsorted.
func (r Request) OrderBy(def string) string {
	if len(r.Sort) == 0 {
		return def
	}
	return strings.Join(lo.Map(r.Sort, func(o Order, _ int) string { return o.SQL() }), ", ")
}

// Normalize applies defaults and caps.
func (r *Request) Normalize(cfg Config) {
	if cfg.DefaultSize <= 0 {
		cfg.DefaultSize = DefaultSize
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = MaxSize
	}
	if r.Page < 0 {
		r.Page = 0
	}
	if r.Size <= 0 {
		r.Size = cfg.DefaultSize
	}
	if r.Size > cfg.MaxSize {
		r.Size = cfg.MaxSize
	}
	// Keep Page*Size and Page+1 clear of int overflow.
	if maxPage := math.MaxInt32 / r.Size; r.Page > maxPage {
		r.Page = maxPage
	}
}

// ParseRequest extracts page, size and sort from query parameters.
//
// Sort parameters use the form "field[,field...][,asc|desc]" and may repeat;
// the direction applies to every field before it. allowed maps the public
// field name to its column; fields outside it are dropped.
func ParseRequest(q url.Values, cfg Config, allowed map[string]string) Request {
	var r Request
	if v, err := strconv.Atoi(q.Get("page")); err == nil {
		r.Page = v
	}
	if v, err := strconv.Atoi(q.Get("size")); err == nil {
		r.Size = v
	}
	for _, raw := range q["sort"] {
		r.Sort = append(r.Sort, parseSort(raw, allowed)...)
	}
	r.Normalize(cfg)
	return r
}

func parseSort(raw string, allowed map[string]string) []Order {
	parts := lo.Map(strings.Split(raw, ","), func(p string, _ int) string { return strings.TrimSpace(p) })

	desc := false
	if n := len(parts); n > 1 {
		switch strings.ToLower(parts[n-1]) {
		case "desc":
			desc = true
			parts = parts[:n-1]
		case "asc", "":
			parts = parts[:n-1]
		}
	}

	var orders []Order
	for _, field := range parts {
		if column, ok := allowed[field]; ok {
			orders = append(orders, Order{Field: column, Desc: desc})
		}
	}
	return orders
}

// Page is one slice of a larger result set.
type Page[T any] struct {
	Content       []T
	Number        int
	Size          int
	TotalElements int64
}

// New builds a page for req.
func New[T any](content []T, req Request, total int64) Page[T] {
	if content == nil {
		content = []T{}
	}
	return Page[T]{
		Content:       content,
		Number:        req.Page,
		Size:          req.Size,
		TotalElements: total,
	}
}

// TotalPages returns the number of pages at the current size.
func (p Page[T]) TotalPages() int {
	if p.Size <= 0 {
		return 1
	}
	pages := p.TotalElements / int64(p.Size)
	if p.TotalElements%int64(p.Size) > 0 {
		pages++
	}
	return int(pages)
}

// HasNext reports whether a page follows this one.
func (p Page[T]) HasNext() bool {
	return p.Number+1 < p.TotalPages()
}

// HasPrevious reports whether a page precedes this one.
func (p Page[T]) HasPrevious() bool {
	return p.Number > 0
}
