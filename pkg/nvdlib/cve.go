package nvdlib

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

const (
	// DetailViewPrefix is the public NVD detail page of a single CVE.
	DetailViewPrefix = "https://nvd.nist.gov/vuln/detail/"

	itemDateLayout = "2006-01-02T15:04Z"
)

// Cve holds the fields of one NVD CVE item. Values are set once at
// parse time and never mutated afterwards.
type Cve struct {
	CVEID            string
	PublishedDate    time.Time
	LastModifiedDate time.Time
	Level            Severity

	// Ranges comes from the optional configurations block and may be empty.
	Ranges []VersionRange
}

// parseCveItem builds a Cve from one element of result.CVE_Items.
func parseCveItem(item gjson.Result) (*Cve, error) {
	id := item.Get("cve.CVE_data_meta.ID")
	if !id.Exists() || id.String() == "" {
		err := &ParseError{Message: "CVE item without an ID"}
		log.Printf("%v", err)
		return nil, err
	}

	pubDate, err := parseItemDate(item, "publishedDate")
	if err != nil {
		return nil, err
	}

	modDate, err := parseItemDate(item, "lastModifiedDate")
	if err != nil {
		return nil, err
	}

	// NVD leaves impact empty for low-information entries
	level := SeverityUnknown
	if impact := item.Get("impact"); impact.Exists() && len(impact.Map()) > 0 {
		severity := impact.Get("baseMetricV2.severity")
		if !severity.Exists() {
			perr := &ParseError{Message: fmt.Sprintf("%s: impact without baseMetricV2 severity", id.String())}
			log.Printf("%v", perr)
			return nil, perr
		}
		level = Severity(severity.String())
	}

	return &Cve{
		CVEID:            id.String(),
		PublishedDate:    pubDate,
		LastModifiedDate: modDate,
		Level:            level,
		Ranges:           parseRanges(item),
	}, nil
}

func parseItemDate(item gjson.Result, field string) (time.Time, error) {
	value := item.Get(field)
	if !value.Exists() {
		err := &ParseError{Message: fmt.Sprintf("CVE item without %s", field)}
		log.Printf("%v", err)
		return time.Time{}, err
	}

	date, err := time.Parse(itemDateLayout, value.String())
	if err != nil {
		perr := &ParseError{Message: fmt.Sprintf("bad %s %q", field, value.String())}
		log.Printf("%v", perr)
		return time.Time{}, perr
	}

	return date, nil
}

// DetailURL assembles the NVD detail page address. No network access
// is involved.
func (c *Cve) DetailURL() string {
	return DetailViewPrefix + c.CVEID
}

// CheckDetailURL verifies that the detail page answers with a 200
// before handing the address out. A missing page is an expected
// outcome, not an error.
func (c *Cve) CheckDetailURL(cli *http.Client) (string, bool) {
	url := c.DetailURL()

	res, err := cli.Head(url)
	if err != nil {
		return "", false
	}

	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", false
	}

	return url, true
}
