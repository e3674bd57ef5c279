package cmd

import (
	"strconv"
	"strings"

	"github.com/producttrack/producttrack/internal/ux"
)

// detail is a two-column field/value table over data. pairs alternate
// field and value; pairs with an empty value are left out.
func detail(data any, pairs ...string) *ux.Table {
	t := &ux.Table{Headers: []string{"Field", "Value"}, Data: data}
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			continue
		}
		t.Rows = append(t.Rows, []string{pairs[i], pairs[i+1]})
	}
	return t
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, usageError("invalid id %q", s)
	}
	return id, nil
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}
