package models

import (
	"strings"
	"time"
)

// GroupedProduct aggregates the stocked SKU rows of one product group.
type GroupedProduct struct {
	ID         int       `db:"id" json:"id"`
	UserID     int       `db:"user_id" json:"-"`
	GroupID    string    `db:"group_id" json:"groupId"`
	Name       string    `db:"name" json:"name"`
	StockCode  string    `db:"stock_code" json:"stockCode"`
	Variants   string    `db:"variants" json:"variants"`
	ImageURLs  string    `db:"image_urls" json:"imageUrls"`
	TotalStock int       `db:"total_stock" json:"totalStock"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`

	PreviouslySent bool `db:"previously_sent" json:"previouslySent"`
}

// Images splits the stored image list. Both ';' and ',' separate entries.
func (g *GroupedProduct) Images() []string {
	fields := strings.FieldsFunc(g.ImageURLs, func(r rune) bool { return r == ';' || r == ',' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
