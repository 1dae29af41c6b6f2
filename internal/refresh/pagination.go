package refresh

import (
	"strconv"
	"strings"

	"github.com/Zachdehooge/crossing-dashboard/internal/fetcher"
	"github.com/Zachdehooge/crossing-dashboard/internal/page"
)

const (
	PageSize = 10
	// linkWindow is how many neighbours of the current page get a link.
	linkWindow = 1
)

// ParsePage reads the 1-based page parameter. Anything that is not a
// positive integer means page 1.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Window returns the trains shown on pageNum. A page past the last yields
// nothing.
func Window(trains []fetcher.Train, pageNum int) []fetcher.Train {
	if pageNum < 1 {
		return nil
	}
	start := (pageNum - 1) * PageSize
	if start >= len(trains) {
		return nil
	}
	end := min(start+PageSize, len(trains))
	return trains[start:end]
}

// Paginate describes the page links for total trains with pageNum current.
func Paginate(total, pageNum int) page.Pagination {
	totalPages := max(1, (total+PageSize-1)/PageSize)
	return page.Pagination{
		Page:       pageNum,
		TotalPages: totalPages,
		Total:      total,
		Links:      pageLinks(pageNum, totalPages),
	}
}

// pageLinks keeps the first and last page plus the window around current and
// collapses each gap into one ellipsis.
func pageLinks(current, totalPages int) []page.PageLink {
	var links []page.PageLink
	for p := 1; p <= totalPages; p++ {
		if p == 1 || p == totalPages || abs(p-current) <= linkWindow {
			links = append(links, page.PageLink{Number: p, Current: p == current})
			continue
		}
		if len(links) > 0 && !links[len(links)-1].Ellipsis {
			links = append(links, page.PageLink{Ellipsis: true})
		}
	}
	return links
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
