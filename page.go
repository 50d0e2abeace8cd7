package pricewatch

import (
	"net/url"

	"github.com/PuerkitoBio/goquery"
)

type Page struct {
	*goquery.Document
	BaseUrl *url.URL
	Logger  Logger
}

func (page *Page) ResolveLink(relativeURL string) (string, error) {
	reqUrl, err := page.BaseUrl.Parse(relativeURL)
	if err != nil {
		return "", err
	}
	return reqUrl.String(), nil
}
