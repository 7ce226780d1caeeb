package api

import (
	"fmt"
	"net/http"
	"strconv"
)

const (
	defaultPageSize = 6
	maxPageSize     = 100
)

// Page: постраничный ответ с count, ссылками на соседние страницы и results.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

type pageParams struct {
	limit int
	page  int
}

func (p pageParams) offset() int { return (p.page - 1) * p.limit }

func parsePage(r *http.Request) (pageParams, error) {
	p := pageParams{limit: defaultPageSize, page: 1}
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return p, fmt.Errorf("%w: limit must be a positive integer", errBadRequest)
		}
		p.limit = min(n, maxPageSize)
	}
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return p, fmt.Errorf("%w: page must be a positive integer", errBadRequest)
		}
		p.page = n
	}
	return p, nil
}

func newPage[T any](r *http.Request, p pageParams, total int, items []T) Page[T] {
	out := Page[T]{Count: total, Results: items}
	if p.offset()+len(items) < total {
		out.Next = pageLink(r, p.page+1)
	}
	if p.page > 1 {
		out.Previous = pageLink(r, p.page-1)
	}
	return out
}

func pageLink(r *http.Request, page int) *string {
	u := *r.URL
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	s := u.String()
	return &s
}
