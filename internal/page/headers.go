package page

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	// HeaderTotalCount carries the total number of elements across all pages.
	HeaderTotalCount = "X-Total-Count"
	// HeaderLink carries the next/prev/last/first relations.
	HeaderLink = "Link"
)

// Headers returns the pagination headers for p relative to baseURL.
func Headers[T any](p Page[T], baseURL string) http.Header {
	return buildHeaders(p.Number, p.Size, p.TotalPages(), p.TotalElements, func(n int) string {
		return pageURI(baseURL, n, p.Size)
	})
}

// SearchHeaders is Headers with the search query carried in every link.
func SearchHeaders[T any](query string, p Page[T], baseURL string) http.Header {
	escaped := url.QueryEscape(query)
	return buildHeaders(p.Number, p.Size, p.TotalPages(), p.TotalElements, func(n int) string {
		return pageURI(baseURL, n, p.Size) + "&query=" + escaped
	})
}

func buildHeaders(number, size, totalPages int, total int64, uri func(int) string) http.Header {
	h := make(http.Header)
	h.Set(HeaderTotalCount, strconv.FormatInt(total, 10))

	var links []string
	if number+1 < totalPages {
		links = append(links, link(uri(number+1), "next"))
	}
	if number > 0 {
		links = append(links, link(uri(number-1), "prev"))
	}
	lastPage := 0
	if totalPages > 0 {
		lastPage = totalPages - 1
	}
	links = append(links, link(uri(lastPage), "last"), link(uri(0), "first"))

	h.Set(HeaderLink, strings.Join(links, ","))
	return h
}

func link(uri, rel string) string {
	return fmt.Sprintf(`<%s>; rel="%s"`, uri, rel)
}

func pageURI(baseURL string, number, size int) string {
	sep := "?"
	if strings.Contains(baseURL, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%spage=%d&size=%d", baseURL, sep, number, size)
}

// CopyHeaders adds every value in src to dst.
func CopyHeaders(dst, src http.Header) {
	for k, vs := range src {
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
}
