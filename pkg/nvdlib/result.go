package nvdlib

import (
	"github.com/tidwall/gjson"
)

// CVEURL pairs a CVE ID with its detail page address. URL stays empty
// unless the caller asked for addresses.
type CVEURL struct {
	CVEID string
	URL   string
}

// ResultList stores the CVE items of one or more API answers in
// arrival order. No two entries share a CVE ID after a Union.
type ResultList struct {
	// NumResults is the totalResults count the service reported for a
	// single payload. Merged lists carry no count.
	NumResults int

	Results []*Cve
}

// NewResultList returns an empty list.
func NewResultList() *ResultList {
	return &ResultList{Results: []*Cve{}}
}

// ParseResultList decodes one API payload. A single malformed item
// discards the whole payload.
func ParseResultList(data []byte) (*ResultList, error) {
	rl := NewResultList()
	rl.NumResults = int(gjson.GetBytes(data, "totalResults").Int())

	for _, item := range gjson.GetBytes(data, "result.CVE_Items").Array() {
		cve, err := parseCveItem(item)
		if err != nil {
			return nil, err
		}

		rl.Results = append(rl.Results, cve)
	}

	return rl, nil
}

// Latest returns the most recently published CVE, or nil for an empty
// list. The first stored of equally dated entries wins.
func (rl *ResultList) Latest() *Cve {
	var latest *Cve

	for _, c := range rl.Results {
		if latest == nil || c.PublishedDate.After(latest.PublishedDate) {
			latest = c
		}
	}

	return latest
}

// MaxSeverity returns the highest severity level of the list, the
// first stored winning ties. The empty list yields an empty Severity.
func (rl *ResultList) MaxSeverity() (Severity, error) {
	if len(rl.Results) == 0 {
		return "", nil
	}

	top := rl.Results[0].Level
	topRank, err := top.Rank()
	if err != nil {
		return "", err
	}

	for _, c := range rl.Results[1:] {
		rank, err := c.Level.Rank()
		if err != nil {
			return "", err
		}

		if rank > topRank {
			top = c.Level
			topRank = rank
		}
	}

	return top, nil
}

// CVEIDList lists (ID, URL) pairs in storage order. With makeURLs set
// false no URL is assembled at all.
func (rl *ResultList) CVEIDList(makeURLs bool) []CVEURL {
	list := make([]CVEURL, 0, len(rl.Results))

	for _, c := range rl.Results {
		pair := CVEURL{CVEID: c.CVEID}
		if makeURLs {
			pair.URL = c.DetailURL()
		}

		list = append(list, pair)
	}

	return list
}

// Union merges two lists with first-wins deduplication by CVE ID: the
// receiver's record is kept when both sides carry the same ID. The
// upstream count describes one raw payload only and is dropped from
// the merged list.
func (rl *ResultList) Union(other *ResultList) *ResultList {
	merged := NewResultList()
	seen := make(map[string]bool, len(rl.Results))

	for _, c := range rl.Results {
		if seen[c.CVEID] {
			continue
		}

		seen[c.CVEID] = true
		merged.Results = append(merged.Results, c)
	}

	for _, c := range other.Results {
		if seen[c.CVEID] {
			continue
		}

		seen[c.CVEID] = true
		merged.Results = append(merged.Results, c)
	}

	return merged
}
