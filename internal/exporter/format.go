package exporter

import (
	"fmt"
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

// formatFloat writes the shortest representation that round-trips
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatInt formats an int64 value for CSV output
func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// formatBool formats a boolean value for CSV output
func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// formatCell renders one table cell. nil is an empty cell.
func formatCell(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return formatFloat(c)
	case *float64:
		if c == nil {
			return ""
		}
		return formatFloat(*c)
	case int:
		return formatInt(int64(c))
	case int64:
		return formatInt(c)
	case uint64:
		return strconv.FormatUint(c, 10)
	case bool:
		return formatBool(c)
	case time.Time:
		return c.Format(dateLayout)
	default:
		return fmt.Sprint(c)
	}
}

func formatRow(row []any) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = formatCell(v)
	}
	return out
}
