package services

import (
	"strings"

	"github.com/yashrajoria/inventory-service/models"
)

const (
	upstreamRun  = 4
	secondaryRun = 1
)

// Interleave orders records as runs of four upstream records followed by one
// secondary record until both sources are exhausted. Relative order within
// each source is kept.
func Interleave(records []models.InventoryRecord) []models.InventoryRecord {
	var upstream, secondary []models.InventoryRecord
	for _, r := range records {
		if r.Source == models.SourceSecondary {
			secondary = append(secondary, r)
		} else {
			upstream = append(upstream, r)
		}
	}

	out := make([]models.InventoryRecord, 0, len(records))
	u, s := 0, 0
	for u < len(upstream) || s < len(secondary) {
		for i := 0; i < upstreamRun && u < len(upstream); i++ {
			out = append(out, upstream[u])
			u++
		}
		for i := 0; i < secondaryRun && s < len(secondary); i++ {
			out = append(out, secondary[s])
			s++
		}
	}
	return out
}

// FilterBySource keeps records whose source matches, ignoring case.
func FilterBySource(records []models.InventoryRecord, source string) []models.InventoryRecord {
	out := make([]models.InventoryRecord, 0)
	for _, r := range records {
		if strings.EqualFold(r.Source, source) {
			out = append(out, r)
		}
	}
	return out
}

// CountBySource returns the number of upstream and secondary records.
func CountBySource(records []models.InventoryRecord) (upstream, secondary int) {
	for _, r := range records {
		if r.Source == models.SourceSecondary {
			secondary++
		} else {
			upstream++
		}
	}
	return upstream, secondary
}

// NormalizePage clamps page to at least 1 and limit to [1, MaxPageLimit],
// defaulting limit to DefaultPageLimit.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = models.DefaultPageLimit
	}
	if limit > models.MaxPageLimit {
		limit = models.MaxPageLimit
	}
	return page, limit
}

// Paginate slices [offset, offset+limit) out of records. Totals are computed
// from the full list.
func Paginate(records []models.InventoryRecord, page, limit int) ([]models.InventoryRecord, models.Pagination) {
	page, limit = NormalizePage(page, limit)
	total := len(records)

	p := models.Pagination{
		Page:        page,
		Limit:       limit,
		TotalItems:  total,
		TotalPages:  (total + limit - 1) / limit,
		HasPrevPage: page > 1,
	}
	// pages past the end are rejected before (page-1)*limit can overflow
	if page > p.TotalPages {
		return []models.InventoryRecord{}, p
	}
	offset := (page - 1) * limit
	p.HasNextPage = offset+limit < total
	end := offset + limit
	if end > total {
		end = total
	}
	return records[offset:end], p
}
