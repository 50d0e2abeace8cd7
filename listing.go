package pricewatch

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ListingSite describes where a shop's search results live.
type ListingSite struct {
	Name            string `json:"name"`
	SearchURL       string `json:"search_url"` // %s is replaced by the escaped search term
	ConsentSelector string `json:"consent_selector,omitempty"`
	GridSelector    string `json:"grid_selector"`
	CardSelector    string `json:"card_selector"`
	TitleSelector   string `json:"title_selector"`
	PriceSelector   string `json:"price_selector,omitempty"`
	LinkSelector    string `json:"link_selector,omitempty"`
}

var (
	EmagSite = ListingSite{
		Name:            "emag",
		SearchURL:       "https://www.emag.ro/search/%s",
		ConsentSelector: ElementWithText("button", "Accept toate"),
		GridSelector:    "#card_grid",
		CardSelector:    ".card-item",
		TitleSelector:   "h2.card-v2-title-wrapper a",
		PriceSelector:   "p.product-new-price",
		LinkSelector:    "h2.card-v2-title-wrapper a",
	}
	EbaySite = ListingSite{
		Name:            "ebay",
		SearchURL:       "https://www.ebay.com/sch/i.html?_nkw=%s",
		ConsentSelector: ElementWithText("button", "Accept all"),
		GridSelector:    "#srp-river-results",
		CardSelector:    ".s-item",
		TitleSelector:   ".s-item__title",
		PriceSelector:   ".s-item__price",
		LinkSelector:    "a.s-item__link",
	}
)

func (site ListingSite) SearchPage(term string) string {
	return fmt.Sprintf(site.SearchURL, url.QueryEscape(term))
}

// ParseListing turns the cards under selection into candidates, in page
// order. Cards without a title are skipped. resolve turns relative links into
// absolute ones and may be nil.
func ParseListing(selection *goquery.Selection, site ListingSite, resolve func(string) (string, error), log Logger) []Candidate {
	var candidates []Candidate
	selection.Find(site.CardSelector).Each(func(i int, card *goquery.Selection) {
		var title string
		if err := Unmarshal(&title, card.Find(site.TitleSelector).First(), UnmarshalOption{TrimSpace: true}); err != nil || title == "" {
			log.Printf("card #%d: no title", i)
			return
		}
		c := Candidate{Title: title}

		if site.PriceSelector != "" {
			var price *string
			if err := Unmarshal(&price, card.Find(site.PriceSelector).First(), UnmarshalOption{TrimSpace: true}); err == nil && price != nil {
				c.Price = *price
			}
		}
		if site.LinkSelector != "" {
			var link *string
			if err := Unmarshal(&link, card.Find(site.LinkSelector).First(), UnmarshalOption{Attr: "href"}); err == nil && link != nil {
				c.URL = *link
				if resolve != nil {
					if abs, err := resolve(*link); err == nil {
						c.URL = abs
					}
				}
			}
		}
		candidates = append(candidates, c)
	})
	return candidates
}

// BrowserListing searches a shop with a WebAgent. Every Snapshot reloads the
// search page.
type BrowserListing struct {
	Agent       WebAgent
	Site        ListingSite
	Term        string
	WaitTimeout time.Duration
	Log         Logger
}

func (listing *BrowserListing) String() string {
	return listing.Site.SearchPage(listing.Term)
}

func (listing *BrowserListing) timeout() time.Duration {
	if listing.WaitTimeout == 0 {
		return DefaultTimeout
	}
	return listing.WaitTimeout
}

func (listing *BrowserListing) Snapshot(ctx context.Context) ([]Candidate, error) {
	searchPage := listing.Site.SearchPage(listing.Term)
	if err := listing.Agent.Navigate(ctx, searchPage); err != nil {
		return nil, err
	}

	if listing.Site.ConsentSelector != "" {
		if err := ClickSelector(ctx, listing.Agent, listing.Site.ConsentSelector, 2*time.Second); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
		} else {
			listing.Log.Printf("consent accepted")
		}
	}

	if _, err := listing.Agent.WaitFor(ctx, listing.Site.GridSelector, listing.timeout()); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// a search without results has no grid
		listing.Log.Printf("no result grid: %v", err)
		return nil, nil
	}

	html, err := listing.Agent.OuterHTML(ctx, listing.Site.GridSelector)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(searchPage)
	if err != nil {
		return nil, err
	}
	resolve := func(link string) (string, error) {
		u, err := base.Parse(link)
		if err != nil {
			return "", err
		}
		return u.String(), nil
	}
	return ParseListing(doc.Selection, listing.Site, resolve, listing.Log), nil
}

// HTTPListing fetches server rendered search results without a browser.
type HTTPListing struct {
	Session *Session
	Site    ListingSite
	Term    string
}

func (listing *HTTPListing) String() string {
	return listing.Site.SearchPage(listing.Term)
}

func (listing *HTTPListing) Snapshot(ctx context.Context) ([]Candidate, error) {
	page, err := listing.Session.GetPage(ctx, listing.Site.SearchPage(listing.Term))
	if err != nil {
		return nil, err
	}
	if err := listing.Session.SaveCookie(); err != nil {
		listing.Session.Printf("save cookie: %v", err)
	}
	grid := page.Find(listing.Site.GridSelector)
	if grid.Length() == 0 {
		listing.Session.Printf("no result grid %v", listing.Site.GridSelector)
		return nil, nil
	}
	return ParseListing(grid, listing.Site, page.ResolveLink, listing.Session.Log), nil
}
