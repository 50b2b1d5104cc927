package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params is a validated page window
type Params struct {
	Page  int
	Limit int
}

func (p Params) Offset() int { return (p.Page - 1) * p.Limit }

// Parse reads page and limit from the query string. Missing or malformed
// values fall back to the defaults; limit is capped at MaxLimit.
func Parse(c *gin.Context) Params {
	p := Params{
		Page:  atoiOr(c.Query("page"), DefaultPage),
		Limit: atoiOr(c.Query("limit"), DefaultLimit),
	}
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
