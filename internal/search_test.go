package internal

import (
	"reflect"
	"testing"
	"time"

	"github.com/cvewatch/cvewatch/pkg/nvdlib"
)

func TestSortBySeverity(t *testing.T) {
	day := time.Date(2021, 3, 1, 10, 0, 0, 0, time.UTC)

	cves := []*nvdlib.Cve{
		{CVEID: "CVE-1", PublishedDate: day, Level: nvdlib.SeverityHigh},
		{CVEID: "CVE-2", PublishedDate: day, Level: nvdlib.SeverityLow},
		{CVEID: "CVE-3", PublishedDate: day, Level: nvdlib.SeverityCritical},
		{CVEID: "CVE-4", PublishedDate: day, Level: nvdlib.SeverityUnknown},
	}

	sorted := sortBySeverity(cves)

	wantOrder := []string{"CVE-3", "CVE-1", "CVE-2", "CVE-4"}
	gotOrder := []string{}
	for _, c := range sorted {
		gotOrder = append(gotOrder, c.CVEID)
	}

	if !reflect.DeepEqual(gotOrder, wantOrder) {
		t.Errorf("sortBySeverity() order = %v, want %v", gotOrder, wantOrder)
	}

	// The fetch order itself is untouched
	if cves[0].CVEID != "CVE-1" {
		t.Errorf("sortBySeverity() mutated the input slice")
	}
}
