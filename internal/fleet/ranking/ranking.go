// Package ranking filters and orders device lists for the fleet views.
package ranking

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"kernex-dashboard/internal/fleet/model"
)

type SortField int

const (
	SortByName SortField = iota
	SortByStatus
	SortByVersion
	SortByLastHeartbeat
)

var sortFieldNames = map[SortField]string{
	SortByName:          "name",
	SortByStatus:        "status",
	SortByVersion:       "version",
	SortByLastHeartbeat: "lastHeartbeat",
}

func (f SortField) String() string {
	if name, ok := sortFieldNames[f]; ok {
		return name
	}
	return fmt.Sprintf("SortField(%d)", int(f))
}

// ParseSortField maps a query-string value onto a sort field. An empty
// value selects SortByName.
func ParseSortField(s string) (SortField, error) {
	if s == "" {
		return SortByName, nil
	}
	for f, name := range sortFieldNames {
		if name == s {
			return f, nil
		}
	}
	return SortByName, fmt.Errorf("unknown sort field %q", s)
}

// statusPriority is the fixed ordering used by SortByStatus.
var statusPriority = map[model.DeviceStatus]int{
	model.DeviceOnline:   0,
	model.DeviceDegraded: 1,
	model.DeviceOffline:  2,
	model.DeviceError:    3,
}

const otherStatusPriority = 4

// StatusPriority returns the rank of a status; unknown values sort last.
func StatusPriority(s model.DeviceStatus) int {
	if p, ok := statusPriority[s]; ok {
		return p
	}
	return otherStatusPriority
}

type comparator func(a, b model.Device) int

var comparators = map[SortField]comparator{
	SortByName: func(a, b model.Device) int {
		return strings.Compare(a.Name, b.Name)
	},
	SortByStatus: func(a, b model.Device) int {
		return StatusPriority(a.Status) - StatusPriority(b.Status)
	},
	SortByVersion: func(a, b model.Device) int {
		return strings.Compare(a.BundleVersion, b.BundleVersion)
	},
	SortByLastHeartbeat: func(a, b model.Device) int {
		return a.LastSeen.Compare(b.LastSeen)
	},
}

// Rank returns the devices whose name, id, or type contains query
// (case-insensitively), stably sorted by field. The input is not modified.
func Rank(devices []model.Device, query string, field SortField, ascending bool) []model.Device {
	fold := cases.Fold()
	needle := fold.String(query)

	out := make([]model.Device, 0, len(devices))
	for _, d := range devices {
		if matches(fold, d, needle) {
			out = append(out, d)
		}
	}

	cmp, ok := comparators[field]
	if !ok {
		cmp = comparators[SortByName]
	}
	slices.SortStableFunc(out, func(a, b model.Device) int {
		if ascending {
			return cmp(a, b)
		}
		return cmp(b, a)
	})
	return out
}

func matches(fold cases.Caser, d model.Device, needle string) bool {
	if needle == "" {
		return true
	}
	for _, field := range []string{d.Name, d.ID, d.Type} {
		if strings.Contains(fold.String(field), needle) {
			return true
		}
	}
	return false
}
