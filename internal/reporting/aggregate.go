package reporting

import (
	"sort"

	"github.com/partsledger/partsledger/internal/shared"
)

const topSellerLimit = 10

// RankTopSellers aggregates sold item rows per part, summing units and
// revenue, and returns the best sellers by units descending. Ties break
// by part name so the ranking is stable.
func RankTopSellers(rows []SoldItemRow) []TopSeller {
	byPart := make(map[string]*TopSeller)
	for _, row := range rows {
		entry, ok := byPart[row.PartID]
		if !ok {
			entry = &TopSeller{PartID: row.PartID, PartName: row.PartName}
			byPart[row.PartID] = entry
		}
		entry.UnitsSold += row.Quantity
		entry.Revenue = shared.SumAmounts(entry.Revenue, row.Total)
	}

	sellers := make([]TopSeller, 0, len(byPart))
	for _, entry := range byPart {
		sellers = append(sellers, *entry)
	}
	sort.Slice(sellers, func(i, j int) bool {
		if sellers[i].UnitsSold != sellers[j].UnitsSold {
			return sellers[i].UnitsSold > sellers[j].UnitsSold
		}
		return sellers[i].PartName < sellers[j].PartName
	})

	if len(sellers) > topSellerLimit {
		sellers = sellers[:topSellerLimit]
	}
	return sellers
}

// GroupMonthlySales buckets bills by calendar month and returns the
// buckets in chronological order. Months with no bills do not appear.
func GroupMonthlySales(rows []BillRow) []MonthlySales {
	byMonth := make(map[string]*MonthlySales)
	for _, row := range rows {
		month := row.CreatedAt.Format("2006-01")
		entry, ok := byMonth[month]
		if !ok {
			entry = &MonthlySales{Month: month, Label: row.CreatedAt.Format("Jan 2006")}
			byMonth[month] = entry
		}
		entry.BillCount++
		entry.Revenue = shared.SumAmounts(entry.Revenue, row.TotalAmount)
	}

	months := make([]MonthlySales, 0, len(byMonth))
	for _, entry := range byMonth {
		months = append(months, *entry)
	}
	sort.Slice(months, func(i, j int) bool {
		return months[i].Month < months[j].Month
	})
	return months
}
