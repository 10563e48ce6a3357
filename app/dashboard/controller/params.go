package controller

import (
	"net/http"
	"strings"

	"github.com/axelarscope/dashboard/pkg/catalog"
)

// parseParams reads bucket, start, end and filter from the query string. Missing values stay zero so
// page defaults can fill them; malformed values fail with catalog.ErrInvalidParameter.
// filter may repeat or hold a comma-separated list.
func parseParams(r *http.Request) (catalog.Params, error) {
	q := r.URL.Query()
	var p catalog.Params

	if s := q.Get("bucket"); s != "" {
		b, err := catalog.ParseBucket(s)
		if err != nil {
			return p, err
		}
		p.Bucket = b
	}
	if s := q.Get("start"); s != "" {
		d, err := catalog.ParseDate("start", s)
		if err != nil {
			return p, err
		}
		p.Start = d
	}
	if s := q.Get("end"); s != "" {
		d, err := catalog.ParseDate("end", s)
		if err != nil {
			return p, err
		}
		p.End = d
	}
	for _, v := range q["filter"] {
		for _, f := range strings.Split(v, ",") {
			if f = strings.TrimSpace(f); f != "" {
				p.Filters = append(p.Filters, f)
			}
		}
	}
	return p, nil
}
