// Package query holds the user-controlled filter and pagination state sent
// to the jobs API.
package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// DefaultPageSize is the fixed number of cards per listing page.
const DefaultPageSize = 12

// Params is the listing state. Values are immutable: the With* methods
// return a modified copy.
type Params struct {
	Page       int
	PageSize   int
	Search     string
	RemoteOnly bool
}

// Default returns page 1 with the default page size and no filters.
func Default() Params {
	return Params{Page: 1, PageSize: DefaultPageSize}
}

// WithSearch changes the search text. A different value resets the page
// to 1 because the current page no longer means anything.
func (p Params) WithSearch(search string) Params {
	if search == p.Search {
		return p
	}
	p.Search = search
	p.Page = 1
	return p
}

// WithRemoteOnly toggles the remote filter, resetting the page on change.
func (p Params) WithRemoteOnly(remote bool) Params {
	if remote == p.RemoteOnly {
		return p
	}
	p.RemoteOnly = remote
	p.Page = 1
	return p
}

// WithPage moves to page n. Filters are left alone.
func (p Params) WithPage(n int) Params {
	p.Page = n
	return p
}

// FilterKey identifies the filter part of p (everything but the page).
func (p Params) FilterKey() string {
	return fmt.Sprintf("%q|%t|%d", p.Search, p.RemoteOnly, p.PageSize)
}

// Validate checks page ≥ 1 and pageSize > 0.
func (p Params) Validate() error {
	if p.Page < 1 {
		return fmt.Errorf("page must be >= 1, got %d", p.Page)
	}
	if p.PageSize <= 0 {
		return fmt.Errorf("page_size must be > 0, got %d", p.PageSize)
	}
	return nil
}

// Values encodes p as the GET /jobs query string. Empty search and a false
// remote flag are omitted, as the API treats absence as "no filter".
func (p Params) Values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(p.Page))
	v.Set("page_size", strconv.Itoa(p.PageSize))
	if s := strings.TrimSpace(p.Search); s != "" {
		v.Set("search", s)
	}
	if p.RemoteOnly {
		v.Set("remote", "true")
	}
	return v
}

// FromValues reads dashboard request parameters (page, search, remote).
// Anything malformed falls back to the default instead of failing.
func FromValues(v url.Values) Params {
	p := Default()
	p.Search = v.Get("search")
	p.RemoteOnly = parseBool(v.Get("remote"))
	if n, err := strconv.Atoi(v.Get("page")); err == nil && n >= 1 {
		p.Page = n
	}
	return p
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return s == "on"
	}
	return b
}
