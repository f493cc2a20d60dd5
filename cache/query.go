// ABOUTME: Account-scoped queries and stats over a loaded cache index
// ABOUTME: Read-only; never contacts the provider
package cache

import (
	"sort"
	"strings"

	"github.com/harperreed/salesdesk/models"
)

// QueryOptions narrows an account lookup. MaxResults of 0 means unbounded.
// Domain, when set, also matches records by participant email domain.
type QueryOptions struct {
	MaxResults int
	Domain     string
}

// CallsForAccount returns the cached calls matching an account name. A record
// matches when the lower-cased query is a substring of any extracted company
// name or of the title, or when Domain is set and any participant email ends
// with "@<domain>". Results are sorted by scheduled time descending, most
// recent first; that ordering is part of the contract.
func CallsForAccount(index *models.CacheIndex, nameOrQuery string, opts QueryOptions) []models.CallRecord {
	query := strings.ToLower(strings.TrimSpace(nameOrQuery))
	domain := strings.ToLower(strings.TrimSpace(opts.Domain))

	var matched []models.CallRecord
	for _, call := range index.Calls {
		if matchesAccount(call, query, domain) {
			matched = append(matched, call)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Scheduled.After(matched[j].Scheduled)
	})

	if opts.MaxResults > 0 && len(matched) > opts.MaxResults {
		matched = matched[:opts.MaxResults]
	}

	return matched
}

func matchesAccount(call models.CallRecord, query, domain string) bool {
	if query != "" {
		if strings.Contains(strings.ToLower(call.Title), query) {
			return true
		}
		for _, name := range call.CompanyNames {
			if strings.Contains(name, query) {
				return true
			}
		}
	}

	if domain != "" {
		suffix := "@" + domain
		for _, email := range call.ParticipantEmails {
			if strings.HasSuffix(email, suffix) {
				return true
			}
		}
	}

	return false
}

// Stats summarizes the index. An empty cache yields Empty=true with zero
// range values instead of an error.
func Stats(index *models.CacheIndex) models.CacheStats {
	stats := models.CacheStats{
		TotalCalls: len(index.Calls),
		LastSyncAt: index.LastSyncAt,
	}

	if len(index.Calls) == 0 {
		stats.Empty = true
		return stats
	}

	companies := make(map[string]bool)
	oldest := index.Calls[0].Scheduled
	newest := index.Calls[0].Scheduled

	for _, call := range index.Calls {
		for _, name := range call.CompanyNames {
			companies[name] = true
		}
		if call.Scheduled.Before(oldest) {
			oldest = call.Scheduled
		}
		if call.Scheduled.After(newest) {
			newest = call.Scheduled
		}
	}

	stats.UniqueCompanies = len(companies)
	stats.OldestCall = oldest
	stats.NewestCall = newest

	return stats
}
