// Package translate holds normalization shared by the per-board translators:
// employment-type codes and structured-location formatting.
package translate

import (
	"sort"
	"strings"

	"jobscout-engine/internal/domain"
)

// RemoteFallback is the generic region label used when a posting carries no
// structured location at all.
const RemoteFallback = "Remote / Worldwide"

// EmploymentType maps a provider-specific code onto the closed enum. Unknown
// or empty codes degrade to undefined, never an error.
func EmploymentType(code string) domain.EmploymentType {
	code = strings.ToLower(strings.TrimSpace(code))
	code = strings.NewReplacer("-", "_", " ", "_").Replace(code)
	switch code {
	case "full_time", "fulltime", "permanent":
		return domain.EmploymentFullTime
	case "part_time", "parttime":
		return domain.EmploymentPartTime
	case "contract", "contract_job", "freelance", "temporary":
		return domain.EmploymentContract
	default:
		return domain.EmploymentUndefined
	}
}

// IsRemoteLabel reports provider location names that describe a region rather
// than a place ("Flexible / Remote", "Worldwide").
func IsRemoteLabel(name string) bool {
	l := strings.ToLower(name)
	for _, kw := range []string{"remote", "flexible", "worldwide", "anywhere", "global"} {
		if strings.Contains(l, kw) {
			return true
		}
	}
	return false
}

// LocationMap groups "City, Country" style names by their last component.
// Names without a comma become a country with no cities; remote-style labels
// are skipped (the caller falls back to RemoteFallback).
func LocationMap(names []string) map[string][]string {
	out := make(map[string][]string)
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || IsRemoteLabel(name) {
			continue
		}
		if i := strings.LastIndex(name, ","); i >= 0 {
			country := strings.TrimSpace(name[i+1:])
			city := strings.TrimSpace(name[:i])
			if country == "" {
				country = city
				city = ""
			}
			if city != "" {
				out[country] = append(out[country], city)
				continue
			}
			if _, ok := out[country]; !ok {
				out[country] = nil
			}
			continue
		}
		if _, ok := out[name]; !ok {
			out[name] = nil
		}
	}
	return out
}

// FormatLocationMap renders a country->cities map as a stable human-readable
// string: "France: Lyon, Paris; USA: New York". Empty input yields fallback.
func FormatLocationMap(byCountry map[string][]string, fallback string) string {
	if len(byCountry) == 0 {
		return fallback
	}
	countries := make([]string, 0, len(byCountry))
	for c := range byCountry {
		countries = append(countries, c)
	}
	sort.Strings(countries)

	parts := make([]string, 0, len(countries))
	for _, c := range countries {
		cities := dedupeSorted(byCountry[c])
		if len(cities) == 0 {
			parts = append(parts, c)
			continue
		}
		parts = append(parts, c+": "+strings.Join(cities, ", "))
	}
	return strings.Join(parts, "; ")
}

func dedupeSorted(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
