package pagination

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params holds the page/limit pair extracted from a request.
type Params struct {
	Page  int
	Limit int
}

// FromContext reads ?page and ?limit. page is at least 1; limit is clamped
// to [1, MaxLimit] and defaults to DefaultLimit when absent or unparseable.
// Like JavaScript's parseInt, a leading integer is accepted ("5abc" is 5).
func FromContext(c echo.Context) Params {
	return Parse(c.QueryParam("page"), c.QueryParam("limit"))
}

func Parse(rawPage, rawLimit string) Params {
	page, ok := leadingInt(rawPage)
	if !ok {
		page = DefaultPage
	}
	if page < 1 {
		page = 1
	}

	limit, ok := leadingInt(rawLimit)
	if !ok {
		limit = DefaultLimit
	}
	if limit < 1 {
		limit = 1
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Params{Page: page, Limit: limit}
}

func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Meta is the pagination block of a list response.
type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Response wraps one page of results.
type Response struct {
	Data       interface{} `json:"data"`
	Pagination Meta        `json:"pagination"`
}

func NewResponse(data interface{}, p Params, total int) *Response {
	return &Response{
		Data: data,
		Pagination: Meta{
			Page:       p.Page,
			Limit:      p.Limit,
			Total:      total,
			TotalPages: TotalPages(total, p.Limit),
		},
	}
}

// TotalPages is ceil(total/limit).
func TotalPages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		// overflow; treat as a very large value of the right sign
		if s[0] == '-' {
			return -1, true
		}
		return MaxLimit + 1, true
	}
	return n, true
}
