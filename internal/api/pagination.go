package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultPage    = 1
	defaultPerPage = 10
	maxPerPage     = 100
)

// page is the feed's pagination envelope. Asking for a page past the end
// is not an error: the caller gets no items and the real totals.
type page struct {
	Number     int
	PerPage    int
	Total      int
	TotalPages int
	HasNext    bool
	HasPrev    bool
}

// parsePage reads ?page= and ?per_page=. Missing, unparsable and
// non-positive values fall back to the defaults. per_page is capped.
func parsePage(c *gin.Context) (number, perPage int) {
	number = queryInt(c, "page", defaultPage)
	perPage = queryInt(c, "per_page", defaultPerPage)
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return number, perPage
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v < 1 {
		return def
	}
	return v
}

func newPage(number, perPage, total int) page {
	totalPages := 0
	if total > 0 {
		totalPages = (total + perPage - 1) / perPage
	}
	return page{
		Number:     number,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    number < totalPages,
		HasPrev:    number > 1,
	}
}

// Empty reports whether the page lies entirely past the last row. It is
// decided on page numbers so a huge ?page= never reaches Offset.
func (p page) Empty() bool {
	return p.TotalPages == 0 || p.Number > p.TotalPages
}

// Offset is the number of rows before this page. Only meaningful when the
// page is not Empty.
func (p page) Offset() int {
	return (p.Number - 1) * p.PerPage
}
