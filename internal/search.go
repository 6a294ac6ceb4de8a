package internal

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/cvewatch/cvewatch/config"
	"github.com/cvewatch/cvewatch/internal/report"
	"github.com/cvewatch/cvewatch/pkg/nvdlib"
)

// DoSearch runs one keyword search against NVD, prints the folded
// result and caches it locally.
func DoSearch(ctx context.Context, keyword string) {
	cli := nvdlib.NewClient(ctx.Value("apiKey").(string))
	since := ctx.Value("since").(time.Time)

	log.Printf(config.Green(fmt.Sprintf("Begin to search NVD for '%s'", keyword)))

	rl, err := cli.SearchByKeywordSince(ctx, keyword, since)
	if err != nil {
		log.Printf("search for '%s' failed, error: %v", keyword, err)
		return
	}

	if !ctx.Value("skip").(bool) {
		if err := cacheResults(cli, keyword, rl); err != nil {
			log.Printf("failed to cache results, error: %v", err)
		}
	}

	display := &nvdlib.ResultList{Results: sortBySeverity(rl.Results)}
	if err := report.ResolveSearchData(ctx, display); err != nil {
		log.Printf("failed to print results, error: %v", err)
	}

	if err := report.SearchToJson(ctx, rl); err != nil {
		log.Printf("failed to write output file, error: %v", err)
	}
}

// DoLookup fetches one CVE by its number, or serves it from the local
// cache.
func DoLookup(ctx context.Context, cveID string) {
	cli := nvdlib.NewClient(ctx.Value("apiKey").(string))

	if ctx.Value("cached").(bool) {
		if err := cli.InitDB(); err != nil {
			log.Printf("failed to init cache, error: %v", err)
			return
		}

		defer cli.DB.Close()

		rows, err := cli.QueryByCVEID(cveID)
		if err != nil {
			log.Printf("failed to query cache, error: %v", err)
			return
		}

		report.ResolveCachedData(ctx, rows)
		return
	}

	rl, err := cli.SearchByID(ctx, cveID)
	if err != nil {
		log.Printf("lookup of %s failed, error: %v", cveID, err)
		return
	}

	if err := report.ResolveSearchData(ctx, rl); err != nil {
		log.Printf("failed to print results, error: %v", err)
	}
}

func cacheResults(cli *nvdlib.Client, keyword string, rl *nvdlib.ResultList) error {
	if err := cli.InitDB(); err != nil {
		return err
	}

	defer cli.DB.Close()

	return cli.SaveResults(keyword, rl)
}

// sortBySeverity orders a copy of the records for display, the worst
// first. Fetch order is kept intact on the list itself.
func sortBySeverity(cves []*nvdlib.Cve) []*nvdlib.Cve {
	sorted := make([]*nvdlib.Cve, len(cves))
	copy(sorted, cves)

	sort.SliceStable(sorted, func(i, j int) bool {
		return config.SeverityMap[strings.ToLower(string(sorted[i].Level))] >
			config.SeverityMap[strings.ToLower(string(sorted[j].Level))]
	})

	return sorted
}
