package dashboard

import (
	"time"

	"github.com/web3-frozen/near-dashboard/internal/defi"
	"github.com/web3-frozen/near-dashboard/internal/display"
	"github.com/web3-frozen/near-dashboard/internal/series"
)

// Page slugs.
const (
	Activity    = "activity"
	Performance = "performance"
	Staking     = "staking"
	DeFi        = "defi"
)

// Meta describes a page for navigation.
type Meta struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

var pages = []Meta{
	{Slug: Activity, Title: "On-Chain Activity", Icon: "📊", Description: "Blockchain activity"},
	{Slug: Performance, Title: "Blockchain Performance", Icon: "📈", Description: "Blockchain performance"},
	{Slug: Staking, Title: "Staking", Icon: "🪙", Description: "Staking and validators"},
	{Slug: DeFi, Title: "Decentralized Finance", Icon: "🏦", Description: "Decentralized finance"},
}

// Index is the landing page.
type Index struct {
	Title   string   `json:"title"`
	Pages   []Meta   `json:"pages"`
	Sources []string `json:"sources"`
}

// Home returns the static landing page.
func Home() Index {
	return Index{
		Title:   "NEAR Mega Dashboard",
		Pages:   append([]Meta(nil), pages...),
		Sources: []string{"Flipside Crypto", "DefiLlama", "NEAR RPC Node"},
	}
}

func metaFor(slug string) (Meta, bool) {
	for _, m := range pages {
		if m.Slug == slug {
			return m, true
		}
	}
	return Meta{}, false
}

// Page is a rendered dashboard page. A degraded page still carries every
// section; values that could not be fetched are blank and charts empty.
type Page struct {
	Meta
	Degraded    bool           `json:"degraded"`
	Errors      []string       `json:"errors,omitempty"`
	Sections    []Section      `json:"sections"`
	Failures    []defi.Failure `json:"failures,omitempty"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// Section is one titled block of cards with an optional chart or table.
type Section struct {
	Title      string             `json:"title"`
	Metrics    []display.Metric   `json:"metrics,omitempty"`
	Chart      *series.Frame      `json:"chart,omitempty"`
	Ranking    []defi.Ranked      `json:"ranking,omitempty"`
	Validators []series.Validator `json:"validators,omitempty"`
}

func (p *Page) fail(source string, err error) {
	p.Degraded = true
	p.Errors = append(p.Errors, source+": "+err.Error())
}

func chart(f series.Frame) *series.Frame { return &f }
