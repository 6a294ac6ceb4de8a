package nvdlib

import (
	"strings"

	version2 "github.com/hashicorp/go-version"
	rpmversion "github.com/knqyf263/go-rpm-version"
	"github.com/tidwall/gjson"
)

// VersionRange is one vulnerable version window taken from the
// configurations block. A "=" prefix marks an inclusive bound and
// "0.0" leaves the lower end open.
type VersionRange struct {
	Product    string
	MinVersion string
	MaxVersion string
}

// parseRanges reads configurations.nodes[].cpe_match[] when present.
// Entries without the block simply never match a version.
func parseRanges(item gjson.Result) []VersionRange {
	ranges := []VersionRange{}

	nodes := item.Get("configurations.nodes")
	if !nodes.Exists() {
		return ranges
	}

	for _, node := range nodes.Array() {
		for _, match := range node.Get("cpe_match").Array() {
			if !match.Get("vulnerable").Bool() {
				continue
			}

			cpe23 := strings.Split(match.Get("cpe23Uri").String(), ":")
			if len(cpe23) < 6 {
				continue
			}

			vr := VersionRange{
				Product:    cpe23[4],
				MinVersion: "0.0",
				MaxVersion: cpe23[5],
			}

			if v := match.Get("versionStartIncluding"); v.Exists() {
				vr.MinVersion = "=" + v.String()
			} else if v := match.Get("versionStartExcluding"); v.Exists() {
				vr.MinVersion = v.String()
			}

			if v := match.Get("versionEndIncluding"); v.Exists() {
				vr.MaxVersion = "=" + v.String()
			} else if v := match.Get("versionEndExcluding"); v.Exists() {
				vr.MaxVersion = v.String()
			}

			// Filter the special character
			if vr.MaxVersion == "-" {
				vr.MaxVersion = "0.0"
			}
			if vr.MinVersion == "-" {
				vr.MinVersion = "0.0"
			}

			ranges = append(ranges, vr)
		}
	}

	return ranges
}

// AffectsVersion reports whether the given product version falls in
// one of the vulnerable windows of this CVE. Versions that do not
// parse as semver are compared as rpm versions.
func (c *Cve) AffectsVersion(product, current string) bool {
	for _, vr := range c.Ranges {
		if vr.Product != product {
			continue
		}

		// A wildcard upper bound gives no usable window
		if vr.MaxVersion == "*" {
			continue
		}

		if withinRange(vr, current) {
			return true
		}
	}

	return false
}

func withinRange(vr VersionRange, current string) bool {
	maxInclusive := strings.HasPrefix(vr.MaxVersion, "=")
	minInclusive := strings.HasPrefix(vr.MinVersion, "=")
	maxRaw := strings.TrimPrefix(vr.MaxVersion, "=")
	minRaw := strings.TrimPrefix(vr.MinVersion, "=")

	currentVersion, err := version2.NewVersion(current)
	if err == nil {
		maxVersion, maxErr := version2.NewVersion(maxRaw)
		minVersion, minErr := version2.NewVersion(minRaw)
		if maxErr != nil || minErr != nil {
			return false
		}

		return compareWithin(currentVersion.Compare(maxVersion),
			currentVersion.Compare(minVersion), maxInclusive, minInclusive)
	}

	rpmCurrent := rpmversion.NewVersion(current)

	return compareWithin(rpmCurrent.Compare(rpmversion.NewVersion(maxRaw)),
		rpmCurrent.Compare(rpmversion.NewVersion(minRaw)), maxInclusive, minInclusive)
}

func compareWithin(maxCmp, minCmp int, maxInclusive, minInclusive bool) bool {
	if maxInclusive {
		if maxCmp > 0 {
			return false
		}
	} else if maxCmp >= 0 {
		return false
	}

	if minInclusive {
		return minCmp >= 0
	}

	return minCmp > 0
}
