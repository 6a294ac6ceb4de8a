package report

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cvewatch/cvewatch/config"
	"github.com/cvewatch/cvewatch/pkg/nvdlib"

	"github.com/olekukonko/tablewriter"
)

// ResolveSearchData prints the result of a search
func ResolveSearchData(ctx context.Context, rl *nvdlib.ResultList) error {

	critical, high, medium, low := 0, 0, 0, 0

	for _, c := range rl.Results {
		switch strings.ToLower(string(c.Level)) {
		case "critical":
			critical += 1
		case "high":
			high += 1
		case "medium":
			medium += 1
		case "low":
			low += 1
		default:
			// ignore
		}
	}

	fmt.Printf("\nFound %s CVEs | "+
		"Critical: %s High: %s Medium: %s Low: %s\n\n",
		config.Yellow(len(rl.Results)),
		config.Red(critical),
		config.Pink(high),
		config.Yellow(medium),
		config.Green(low))

	makeURLs := false
	if v := ctx.Value("urls"); v != nil {
		makeURLs = v.(bool)
	}

	table := tablewriter.NewWriter(os.Stdout)

	table.SetHeader([]string{"ID", "CVEID", "Published", "Last Modified", "Severity", "URL"})
	table.SetRowLine(true)

	pairs := rl.CVEIDList(makeURLs)
	for i, c := range rl.Results {
		cveData := []string{
			strconv.Itoa(i + 1), c.CVEID,
			c.PublishedDate.Format("2006-01-02 15:04"),
			c.LastModifiedDate.Format("2006-01-02 15:04"),
			judgeSeverity(string(c.Level)), pairs[i].URL,
		}

		table.Append(cveData)
	}

	table.Render()

	if latest := rl.Latest(); latest != nil {
		fmt.Printf("\nLatest entry: %s (published %s)\n",
			latest.CVEID, latest.PublishedDate.Format("2006-01-02"))
	}

	if max, err := rl.MaxSeverity(); err == nil && max != "" {
		fmt.Printf("Highest severity: %s\n", judgeSeverity(string(max)))
	}

	return nil
}

// ResolveCachedData prints rows served from the local cache.
func ResolveCachedData(ctx context.Context, rows []*nvdlib.DBRow) {
	if len(rows) == 0 {
		fmt.Println("No cached entries.")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)

	table.SetHeader([]string{"ID", "CVEID", "Keyword", "Published", "Last Modified", "Severity"})
	table.SetRowLine(true)

	for i, r := range rows {
		table.Append([]string{
			strconv.Itoa(i + 1), r.CVEID, r.Keyword,
			r.PublishedDate, r.LastModifiedDate, judgeSeverity(r.Level),
		})
	}

	table.Render()
}

func judgeSeverity(severity string) string {

	severityLow := strings.ToLower(severity)

	switch severityLow {
	case "critical":
		return config.Red("critical")
	case "high":
		return config.Pink("high")
	case "medium":
		return config.Yellow("medium")
	case "low":
		return config.Green("low")
	default:
		// ignore
	}
	return "unknown"
}
