package brewsvc

import (
	"strings"
)

// ParseServiceList parses the stdout of brew services list.
//
// The first line is the column header and is always discarded. Every other
// line yields exactly one record, even when it is blank or short, so the
// result has one entry per non-header line in input order.
func ParseServiceList(raw string) Snapshot {
	lines := strings.Split(raw, "\n")
	if len(lines) < 2 {
		return Snapshot{}
	}

	out := make(Snapshot, 0, len(lines)-1)
	for _, line := range lines[1:] {
		out = append(out, ParseServiceLine(line))
	}
	return out
}

// ParseServiceLine parses one space separated row.
//
// Columns are name, state, user and config path. Missing columns take their
// defaults; anything past the third column is rejoined with single spaces so
// config paths containing spaces survive.
func ParseServiceLine(line string) ServiceRecord {
	parts := splitColumns(line)

	rec := ServiceRecord{State: StateUnknown}
	if len(parts) >= 1 {
		rec.Name = parts[0]
	}
	if len(parts) >= 2 {
		rec.State = strings.ToLower(parts[1])
	}
	if len(parts) >= 3 {
		rec.User = parts[2]
	}
	if len(parts) >= 4 {
		rec.ConfigPath = strings.Join(parts[3:], " ")
		rec.HasConfig = true
	}
	return rec
}

// splitColumns splits on single spaces and drops empty tokens, which
// collapses runs of padding between columns
func splitColumns(line string) []string {
	raw := strings.Split(line, " ")
	parts := raw[:0]
	for _, p := range raw {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// trimListOutput strips the newlines brew prints around the table
func trimListOutput(out []byte) string {
	return strings.Trim(string(out), "\r\n")
}
