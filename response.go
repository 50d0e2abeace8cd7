package pricewatch

import (
	"bytes"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dimchansky/utfbom"
	"golang.org/x/text/encoding"
)

type Response struct {
	Request     *http.Request
	ContentType string
	CharSet     string
	Body        []byte
	Encoding    encoding.Encoding
	Logger      Logger
}

var metaCharsetRe = regexp.MustCompile(`\bcharset=([\w-]*)`)

func (response *Response) Page() (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(utfbom.SkipOnly(bytes.NewReader(response.Body)))
	if err != nil {
		return nil, err
	}

	if response.Encoding == nil {
		charset, ok := doc.Find("head meta[charset]").Attr("charset")
		if !ok {
			if content, exists := doc.Find("meta[http-equiv=Content-Type]").Attr("content"); exists {
				if m := metaCharsetRe.FindStringSubmatch(strings.ToLower(content)); len(m) == 2 {
					charset = m[1]
				}
			}
		}
		if encoding := charsetEncoding(charset); encoding != nil {
			response.Logger.Printf("converting from %v...", encoding)
			b, err := convertEncodingToUtf8(response.Body, encoding)
			if err != nil {
				return nil, err
			}
			response.Body = b
			response.Encoding = encoding

			// replace doc with converted body
			doc, err = goquery.NewDocumentFromReader(utfbom.SkipOnly(bytes.NewReader(response.Body)))
			if err != nil {
				return nil, err
			}
		}
	}

	// goquery.NewDocumentFromReader leaves Url unset
	doc.Url = response.Request.URL
	baseUrl := doc.Url

	base := doc.Find("head base")
	if base.Length() == 1 {
		if href, exists := base.Attr("href"); exists {
			baseUrl, err = url.Parse(href)
			if err != nil {
				return nil, err
			}
		}
	}

	response.Logger.Printf("* %v", strings.TrimSpace(doc.Find("title").Text()))

	return &Page{doc, baseUrl, response.Logger}, nil
}
