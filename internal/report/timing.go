// SPDX-License-Identifier: MPL-2.0

package report

import (
	"bufio"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

// Operation names every driver reports.
const (
	OpEncode = "encode"
	OpDecode = "decode"
)

type (
	// Measurement is one per-operation timing parsed from driver output.
	Measurement struct {
		Op      string  `json:"op" yaml:"op"`
		NsPerOp float64 `json:"ns_per_op" yaml:"ns_per_op"`
	}

	// Extractor parses timing lines out of driver output.
	Extractor struct {
		re                    *regexp.Regexp
		opIdx, valIdx, uniIdx int
	}
)

var unitScale = map[string]float64{
	"ns": 1,
	"us": 1e3,
	"µs": 1e3,
	"ms": 1e6,
	"s":  1e9,
}

// NewExtractor creates an Extractor. re must have the named groups op, value and unit.
func NewExtractor(re *regexp.Regexp) (*Extractor, error) {
	e := &Extractor{
		re:     re,
		opIdx:  re.SubexpIndex("op"),
		valIdx: re.SubexpIndex("value"),
		uniIdx: re.SubexpIndex("unit"),
	}
	if e.opIdx < 0 || e.valIdx < 0 || e.uniIdx < 0 {
		return nil, fmt.Errorf("timing pattern %q needs the named groups op, value and unit", re.String())
	}
	return e, nil
}

// Extract returns the measurements in output, one per operation in order of
// first appearance. A later line for the same operation replaces the earlier value.
func (e *Extractor) Extract(output string) []Measurement {
	var ms []Measurement
	index := make(map[string]int)

	sc := bufio.NewScanner(strings.NewReader(output))
	// A line can never be longer than the whole output.
	sc.Buffer(nil, max(len(output)+1, bufio.MaxScanTokenSize))
	for sc.Scan() {
		m := e.re.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		scale, ok := unitScale[strings.ToLower(m[e.uniIdx])]
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(m[e.valIdx], 64)
		if err != nil {
			continue
		}
		op := strings.ToLower(m[e.opIdx])
		ns := v * scale
		if i, seen := index[op]; seen {
			ms[i].NsPerOp = ns
			continue
		}
		index[op] = len(ms)
		ms = append(ms, Measurement{Op: op, NsPerOp: ns})
	}
	if err := sc.Err(); err != nil {
		slog.Warn("timing extraction stopped early", "error", err)
	}
	return ms
}

// FormatNs renders a per-op duration with a unit that keeps it readable.
func FormatNs(ns float64) string {
	switch {
	case ns >= 1e9:
		return strconv.FormatFloat(ns/1e9, 'f', 2, 64) + "s"
	case ns >= 1e6:
		return strconv.FormatFloat(ns/1e6, 'f', 2, 64) + "ms"
	case ns >= 1e3:
		return strconv.FormatFloat(ns/1e3, 'f', 2, 64) + "µs"
	default:
		return strconv.FormatFloat(ns, 'f', 1, 64) + "ns"
	}
}
