package publish

import "strings"

const versionKey = "version="

// versionParser tracks the version reported on stdout. An explicit
// version=<v> line wins over the last non-empty line regardless of order.
type versionParser struct {
	explicit string
	lastLine string
}

func (p *versionParser) observe(line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}
	if value, ok := strings.CutPrefix(trimmed, versionKey); ok {
		if value = strings.TrimSpace(value); value != "" {
			p.explicit = value
		}
		return
	}
	p.lastLine = trimmed
}

func (p *versionParser) version() string {
	if p.explicit != "" {
		return p.explicit
	}
	return p.lastLine
}
