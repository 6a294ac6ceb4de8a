package nvdlib

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

// testClient returns a client pointed at a test server, with the rate
// gate opened so tests do not pace themselves.
func testClient(srvURL string, now time.Time) *Client {
	c := NewClient("")
	c.limiter = rate.NewLimiter(rate.Inf, 0)
	c.specificURL = srvURL
	c.multiURL = srvURL
	c.now = func() time.Time { return now }
	return c
}

func TestSplitRange(t *testing.T) {
	day := 24 * time.Hour
	now := time.Date(2022, 6, 1, 12, 0, 0, 0, time.UTC)

	type args struct {
		start time.Time
	}
	tests := []struct {
		name       string
		args       args
		wantChunks int
	}{
		{
			name:       "shortRange",
			args:       args{start: now.Add(-30 * day)},
			wantChunks: 1,
		},
		{
			name:       "exactLimit",
			args:       args{start: now.Add(-120 * day)},
			wantChunks: 1,
		},
		{
			name:       "fourHundredDays",
			args:       args{start: now.Add(-400 * day)},
			wantChunks: 4,
		},
		{
			name:       "startAfterNow",
			args:       args{start: now.Add(10 * day)},
			wantChunks: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitRange(tt.args.start, now)

			if len(got) != tt.wantChunks {
				t.Errorf("splitRange() chunks = %v, want %v", len(got), tt.wantChunks)
			}

			// Windows cover [start, now) without gaps or overlaps
			if got[0][0] != tt.args.start {
				t.Errorf("splitRange() first start = %v, want %v", got[0][0], tt.args.start)
			}
			for i := 1; i < len(got); i++ {
				if got[i][0] != got[i-1][1] {
					t.Errorf("splitRange() gap between chunk %d and %d", i-1, i)
				}
			}
			if got[len(got)-1][1] != now {
				t.Errorf("splitRange() last end = %v, want %v", got[len(got)-1][1], now)
			}

			// No window spans more than 120 days
			for i, r := range got {
				if r[1].Sub(r[0]) > maxQuerySpan {
					t.Errorf("splitRange() chunk %d spans %v, over the limit", i, r[1].Sub(r[0]))
				}
			}
		})
	}
}

func TestFormatPubDate(t *testing.T) {
	type args struct {
		t time.Time
	}
	tests := []struct {
		name string
		args args
		want string
	}{
		{
			name: "serviceFormat",
			args: args{t: time.Date(2021, 3, 1, 20, 15, 0, 0, time.UTC)},
			want: "2021-03-01T20:15:00:000 UTC-05:00",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatPubDate(tt.args.t); got != tt.want {
				t.Errorf("formatPubDate() got = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSearchByID(t *testing.T) {
	type args struct {
		body   string
		status int
	}
	tests := []struct {
		name    string
		args    args
		wantIDs []string
		wantErr bool
	}{
		{
			name: "oneResult",
			args: args{status: http.StatusOK, body: `{"totalResults": 1, "result": {"CVE_Items": [
				{"cve": {"CVE_data_meta": {"ID": "CVE-2021-0001"}},
				 "publishedDate": "2021-01-05T10:15Z", "lastModifiedDate": "2021-01-06T10:15Z",
				 "impact": {"baseMetricV2": {"severity": "HIGH"}}}]}}`},
			wantIDs: []string{"CVE-2021-0001"},
		},
		{
			name:    "explicitNotFoundMessage",
			args:    args{status: http.StatusOK, body: `{"message": "Unable to find vuln CVE-1999-9999"}`},
			wantErr: true,
		},
		{
			name:    "zeroResults",
			args:    args{status: http.StatusOK, body: `{"totalResults": 0, "result": {"CVE_Items": []}}`},
			wantErr: true,
		},
		{
			name:    "serviceError",
			args:    args{status: http.StatusServiceUnavailable, body: `{}`},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.args.status)
				fmt.Fprint(w, tt.args.body)
			}))
			defer srv.Close()

			c := testClient(srv.URL, time.Now())
			got, err := c.SearchByID(context.Background(), "CVE-2021-0001")

			if (err != nil) != tt.wantErr {
				t.Errorf("SearchByID() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err != nil {
				if _, ok := err.(*APIError); !ok {
					t.Errorf("SearchByID() error type = %T, want *APIError", err)
				}
				return
			}
			if !reflect.DeepEqual(ids(got), tt.wantIDs) {
				t.Errorf("SearchByID() ids = %v, want %v", ids(got), tt.wantIDs)
			}
		})
	}
}

func TestSearchByKeywordSince(t *testing.T) {
	day := 24 * time.Hour
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start.Add(200 * day)

	chunk1 := `{"totalResults": 2, "result": {"CVE_Items": [
		{"cve": {"CVE_data_meta": {"ID": "CVE-1"}},
		 "publishedDate": "2021-01-05T10:15Z", "lastModifiedDate": "2021-01-06T10:15Z",
		 "impact": {"baseMetricV2": {"severity": "HIGH"}}},
		{"cve": {"CVE_data_meta": {"ID": "CVE-2"}},
		 "publishedDate": "2021-02-05T10:15Z", "lastModifiedDate": "2021-02-06T10:15Z",
		 "impact": {"baseMetricV2": {"severity": "LOW"}}}]}}`

	chunk2 := `{"totalResults": 2, "result": {"CVE_Items": [
		{"cve": {"CVE_data_meta": {"ID": "CVE-2"}},
		 "publishedDate": "2021-06-05T10:15Z", "lastModifiedDate": "2021-06-06T10:15Z",
		 "impact": {"baseMetricV2": {"severity": "CRITICAL"}}},
		{"cve": {"CVE_data_meta": {"ID": "CVE-3"}},
		 "publishedDate": "2021-06-10T10:15Z", "lastModifiedDate": "2021-06-11T10:15Z",
		 "impact": {"baseMetricV2": {"severity": "MEDIUM"}}}]}}`

	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++

		if r.URL.Query().Get("keyword") != "test" {
			t.Errorf("request keyword = %q, want %q", r.URL.Query().Get("keyword"), "test")
		}

		if r.URL.Query().Get("pubStartDate") == formatPubDate(start) {
			fmt.Fprint(w, chunk1)
		} else {
			fmt.Fprint(w, chunk2)
		}
	}))
	defer srv.Close()

	c := testClient(srv.URL, now)
	got, err := c.SearchByKeywordSince(context.Background(), "test", start)
	if err != nil {
		t.Fatalf("SearchByKeywordSince() error = %v", err)
	}

	if requests != 2 {
		t.Errorf("SearchByKeywordSince() issued %d requests, want 2", requests)
	}
	if !reflect.DeepEqual(ids(got), []string{"CVE-1", "CVE-2", "CVE-3"}) {
		t.Errorf("SearchByKeywordSince() ids = %v, want [CVE-1 CVE-2 CVE-3]", ids(got))
	}

	// The first chunk's CVE-2 wins over the later duplicate
	for _, c := range got.Results {
		if c.CVEID == "CVE-2" && c.Level != SeverityLow {
			t.Errorf("SearchByKeywordSince() CVE-2 level = %v, want LOW", c.Level)
		}
	}

	max, err := got.MaxSeverity()
	if err != nil {
		t.Fatalf("MaxSeverity() error = %v", err)
	}
	if max != SeverityHigh {
		t.Errorf("MaxSeverity() got = %v, want HIGH", max)
	}
}

func TestSearchByKeywordSinceChunkFailureAborts(t *testing.T) {
	day := 24 * time.Hour
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start.Add(200 * day)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("pubStartDate") == formatPubDate(start) {
			fmt.Fprint(w, `{"totalResults": 0, "result": {"CVE_Items": []}}`)
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := testClient(srv.URL, now)
	got, err := c.SearchByKeywordSince(context.Background(), "test", start)

	if err == nil {
		t.Fatalf("SearchByKeywordSince() expected an error, got %v", got)
	}
	if _, ok := err.(*APIError); !ok {
		t.Errorf("SearchByKeywordSince() error type = %T, want *APIError", err)
	}
	if got != nil {
		t.Errorf("SearchByKeywordSince() got = %v, want no partial result", got)
	}
}

func TestNewClientRateBudget(t *testing.T) {
	type args struct {
		apiKey string
	}
	tests := []struct {
		name string
		args args
		want rate.Limit
	}{
		{
			name: "anonymous",
			args: args{apiKey: ""},
			want: rate.Every(ratePeriod / 10),
		},
		{
			name: "keyed",
			args: args{apiKey: "secret"},
			want: rate.Every(ratePeriod / 100),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(tt.args.apiKey)
			if got := c.limiter.Limit(); got != tt.want {
				t.Errorf("NewClient() rate = %v, want %v", got, tt.want)
			}
		})
	}
}
