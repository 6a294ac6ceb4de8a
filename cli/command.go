package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cvewatch/cvewatch/config"
	"github.com/cvewatch/cvewatch/internal"
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "cvewatch [OPTIONS]",
		Short: "NVD CVE search",
		Long: `Cvewatch searches the NVD vulnerability database by keyword or CVE number
               and keeps a local cache of the answers`,
	}

	versions = "v0.1.0"

	apiKey    string
	since     string
	outfile   string
	withURLs  bool
	skipCache bool
	cached    bool
)

func Execute() error {
	searchCmd := &cobra.Command{
		Use:   "search keyword",
		Short: "search CVEs by keyword",
		Long: `Examples:
  # Search everything published since a date
  $ cvewatch search openssl --since 2021-01-01

  # Include detail page URLs in the listing
  $ cvewatch search openssl --urls

  # Use an API key for the higher request quota
  $ cvewatch search openssl --key <API KEY>`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) < 1 {
				fmt.Println("Require a search keyword.")
				os.Exit(1)
			}

			startDate, err := time.Parse("2006-01-02", since)
			if err != nil {
				log.Printf("bad --since value '%s', expected YYYY-MM-DD", since)
				os.Exit(1)
			}

			ctx := config.Ctx
			ctx = context.WithValue(ctx, "apiKey", resolveKey())
			ctx = context.WithValue(ctx, "since", startDate)
			ctx = context.WithValue(ctx, "urls", withURLs)
			ctx = context.WithValue(ctx, "skip", skipCache)
			ctx = context.WithValue(ctx, "output", outfile)

			internal.DoSearch(ctx, args[0])
		},
	}

	lookupCmd := &cobra.Command{
		Use:   "lookup CVE-ID",
		Short: "look up a single CVE number",
		Long: `Examples:
  # Fetch one CVE from the service
  $ cvewatch lookup CVE-2021-44228

  # Serve the lookup from the local cache
  $ cvewatch lookup CVE-2021-44228 --cached`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) < 1 {
				fmt.Println("Require a CVE number.")
				os.Exit(1)
			}

			ctx := config.Ctx
			ctx = context.WithValue(ctx, "apiKey", resolveKey())
			ctx = context.WithValue(ctx, "urls", withURLs)
			ctx = context.WithValue(ctx, "cached", cached)

			internal.DoLookup(ctx, args[0])
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information and quit",
		Args:  NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(versions)
		},
	}

	searchCmd.Flags().StringVar(&since, "since",
		time.Now().AddDate(0, 0, -120).Format("2006-01-02"),
		"start of the publication window (YYYY-MM-DD)")
	searchCmd.Flags().StringVarP(&apiKey, "key", "k", "", "NVD API key")
	searchCmd.Flags().StringVarP(&outfile, "output", "o", "output", "output file location")
	searchCmd.Flags().BoolVar(&withURLs, "urls", false, "list detail page URLs")
	searchCmd.Flags().BoolVar(&skipCache, "skip", false, "skip caching the results")

	lookupCmd.Flags().StringVarP(&apiKey, "key", "k", "", "NVD API key")
	lookupCmd.Flags().BoolVar(&withURLs, "urls", false, "list detail page URLs")
	lookupCmd.Flags().BoolVar(&cached, "cached", false, "serve the lookup from the local cache")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(versionCmd)
	return rootCmd.Execute()
}

func resolveKey() string {
	if apiKey != "" {
		return apiKey
	}

	conf, err := config.LoadFileConfig()
	if err != nil {
		log.Printf("failed to read config file, error: %v", err)
		return ""
	}

	return conf.ApiKey
}
