package nvdlib

import (
	"context"
	"database/sql"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	searchURLSpecific = "https://services.nvd.nist.gov/rest/json/cve/1.0"
	searchURLMulti    = "https://services.nvd.nist.gov/rest/json/cves/1.0"

	// NVD rejects date-range queries spanning more than 120 days.
	maxQuerySpan = 120 * 24 * time.Hour

	ratePeriod = 60 * time.Second

	// pubDateSuffix reproduces the fixed offset the service expects in
	// pubStartDate/pubEndDate regardless of the caller's timezone.
	pubDateSuffix = ":000 UTC-05:00"
)

// Client queries the NVD REST API. Every outbound request waits on
// the rate gate first: 100 calls per minute with an API key, 10
// without, matching the published service limits.
type Client struct {
	Cli *http.Client
	DB  *sql.DB

	Store string

	apiKey  string
	limiter *rate.Limiter

	specificURL string
	multiURL    string
	now         func() time.Time
}

// NewClient builds a client, keyed or anonymous.
func NewClient(apiKey string) *Client {
	tr := &http.Transport{
		IdleConnTimeout:    60 * time.Second,
		DisableCompression: true,
	}

	maxCalls := 10
	if apiKey != "" {
		maxCalls = 100
	}

	return &Client{
		Cli: &http.Client{
			Transport: tr,
		},
		apiKey:      apiKey,
		limiter:     rate.NewLimiter(rate.Every(ratePeriod/time.Duration(maxCalls)), 1),
		specificURL: searchURLSpecific,
		multiURL:    searchURLMulti,
		now:         time.Now,
	}
}

// SearchByID fetches the record of one CVE number. A lookup the
// service cannot answer is an APIError, not an empty list.
func (c *Client) SearchByID(ctx context.Context, cveID string) (*ResultList, error) {
	body, err := c.performRequest(ctx, c.specificURL+"/"+cveID, url.Values{})
	if err != nil {
		return nil, err
	}

	message := gjson.GetBytes(body, "message")
	if (message.Exists() && strings.Contains(message.String(), "Unable to find vuln")) ||
		gjson.GetBytes(body, "totalResults").Int() == 0 {
		apiErr := &APIError{Message: fmt.Sprintf("no data for cve with id %s (resultcount = 0)", cveID)}
		log.Printf("%v", apiErr)
		return nil, apiErr
	}

	return ParseResultList(body)
}

// SearchByKeywordSince queries every CVE matching the keyword that
// was published between startDate and now. The range is cut into
// windows of at most 120 days, one request per window, and the
// answers are folded into one list with the earlier windows winning
// on duplicate IDs. A failing window aborts the whole search.
func (c *Client) SearchByKeywordSince(ctx context.Context, keyword string, startDate time.Time) (*ResultList, error) {
	now := c.now()

	results := []*ResultList{}
	for _, r := range splitRange(startDate, now) {
		body, err := c.nameDateQuery(ctx, keyword, r[0], r[1])
		if err != nil {
			return nil, err
		}

		rl, err := ParseResultList(body)
		if err != nil {
			return nil, err
		}

		results = append(results, rl)
	}

	log.Printf("%s -- performed %d range queries", strings.ToUpper(keyword), len(results))

	merged := NewResultList()
	for _, rl := range results {
		merged = merged.Union(rl)
	}

	return merged, nil
}

// splitRange cuts [start, end) into consecutive windows of at most
// 120 days, the last one ending exactly at end.
func splitRange(start, end time.Time) [][2]time.Time {
	ranges := [][2]time.Time{}

	curr := start
	for end.Sub(curr) > maxQuerySpan {
		ranges = append(ranges, [2]time.Time{curr, curr.Add(maxQuerySpan)})
		curr = curr.Add(maxQuerySpan)
	}

	return append(ranges, [2]time.Time{curr, end})
}

func (c *Client) nameDateQuery(ctx context.Context, keyword string, start, end time.Time) ([]byte, error) {
	params := url.Values{}
	params.Set("keyword", keyword)
	params.Set("pubStartDate", formatPubDate(start))
	params.Set("pubEndDate", formatPubDate(end))

	return c.performRequest(ctx, c.multiURL, params)
}

// formatPubDate renders the service's own timestamp format. The fixed
// UTC-05:00 offset is what the service accepts and is kept verbatim.
func formatPubDate(t time.Time) string {
	return t.Format("2006-01-02T15:04:05") + pubDateSuffix
}

// performRequest issues one GET after acquiring the rate gate.
func (c *Client) performRequest(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	if c.apiKey != "" {
		params.Set("apiKey", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.URL.RawQuery = params.Encode()

	res, err := c.Cli.Do(req)
	if err != nil {
		apiErr := &APIError{Message: fmt.Sprintf("API call for %s failed: %v", rawURL, err)}
		log.Printf("%v", apiErr)
		return nil, apiErr
	}

	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		apiErr := &APIError{Message: fmt.Sprintf("API call for %s not 'ok': %s", rawURL, res.Status)}
		log.Printf("%v", apiErr)
		return nil, apiErr
	}

	return ioutil.ReadAll(res.Body)
}
