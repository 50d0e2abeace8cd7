package pricewatch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	cookiejar "github.com/orirawlings/persistent-cookiejar"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

const (
	UserAgent_firefox128 = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:128.0) Gecko/20100101 Firefox/128.0"
	UserAgent_default    = UserAgent_firefox128
)

// Session is a plain HTTP client for file downloads and server rendered
// listings. Cookies live in memory unless LoadCookie is called.
type Session struct {
	Name               string // directory name to store session files (cookies)
	client             http.Client
	Encoding           encoding.Encoding // force charset over Content-Type response header
	UserAgent          string            // specify User-Agent
	FilePrefix         string            // prefix to directory of session files
	ShowRequestHeader  bool              // print request headers with Logger
	ShowResponseHeader bool              // print response headers with Logger
	Log                Logger
	jar                *cookiejar.Jar
	cookieFile         string
}

type RequestError struct {
	RequestURL *url.URL
	Err        error
}

func (err RequestError) Error() string {
	return fmt.Sprintf("%v request error: %v", err.RequestURL.String(), err.Err)
}

func (err RequestError) Unwrap() error {
	return err.Err
}

type ResponseError struct {
	RequestURL *url.URL
	Response   *http.Response
}

func (err ResponseError) Error() string {
	return fmt.Sprintf("%v response code: %v", err.RequestURL.String(), err.Response.Status)
}

func NewSession(name string, log Logger) *Session {
	jar, _ := cookiejar.New(nil)
	return &Session{
		Name:      name,
		UserAgent: UserAgent_default,
		client: http.Client{
			Jar: jar,
		},
		Log: log,
		jar: jar,
	}
}

func (session *Session) Printf(format string, a ...interface{}) {
	session.Log.Printf(format, a...)
}

func (session *Session) getDirectory() string {
	return fmt.Sprintf("%v%v", session.FilePrefix, session.Name)
}

func (session *Session) LoadCookie() error {
	if err := os.MkdirAll(session.getDirectory(), 0744); err != nil {
		return err
	}
	filename := filepath.Join(session.getDirectory(), "cookie")

	jar, err := cookiejar.New(&cookiejar.Options{
		Filename:              filename,
		PersistSessionCookies: true,
	})
	if err == nil {
		session.jar = jar
		session.client.Jar = jar
		session.cookieFile = filename
	}
	return err
}

// SaveCookie stores cookies to the file opened by LoadCookie.
// Without LoadCookie cookies stay in memory and nothing is written.
func (session *Session) SaveCookie() error {
	if session.cookieFile == "" {
		return nil
	}
	return session.jar.Save()
}

// charsetEncoding parses charset string and returns encoding.Encoding.
// nil means UTF-8 or unknown.
func charsetEncoding(charset string) encoding.Encoding {
	var encode encoding.Encoding
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "windows-1250", "cp1250", "x-cp1250":
		encode = charmap.Windows1250
	case "iso-8859-2", "latin2", "iso_8859-2":
		encode = charmap.ISO8859_2
	case "iso-8859-16", "latin10":
		encode = charmap.ISO8859_16
	case "windows-1252", "iso-8859-1", "latin1":
		encode = charmap.Windows1252
	}
	return encode
}

// convertEncodingToUtf8 converts body(given encoding) to UTF-8.
func convertEncodingToUtf8(body []byte, encoding encoding.Encoding) ([]byte, error) {
	if encoding == nil {
		return body, nil
	}
	b, _, err := transform.Bytes(encoding.NewDecoder(), body)
	if err != nil {
		return nil, err
	}
	return b, nil
}

var charsetRe = regexp.MustCompile(`(?i)charset=([^;\s]+)`)

func charsetFromContentType(contentType string) string {
	m := charsetRe.FindStringSubmatch(contentType)
	if len(m) < 2 {
		return ""
	}
	return strings.Trim(m[1], `"'`)
}

func (session *Session) invoke(req *http.Request) (*Response, error) {
	if session.ShowRequestHeader {
		session.Printf("REQUEST: %v %v", req.Method, req.URL.String())
	}

	userAgent := session.UserAgent
	if userAgent == "" {
		userAgent = UserAgent_default
	}
	req.Header.Set("User-agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	if session.ShowRequestHeader {
		for k, v := range req.Header {
			session.Printf("  %v: %v", k, v)
		}
	}

	response, err := session.client.Do(req)
	if err != nil {
		return nil, RequestError{req.URL, err}
	}
	defer response.Body.Close()

	req = response.Request // update req.Url after redirects

	if response.StatusCode/100 != 2 {
		return nil, ResponseError{req.URL, response}
	}

	if session.ShowResponseHeader {
		session.Printf("Response Header:")
		for k, v := range response.Header {
			session.Printf("  %v: %v", k, v)
		}
	}

	contentType := response.Header.Get("content-type")
	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, RequestError{req.URL, err}
	}

	return &Response{
		Request:     req,
		ContentType: contentType,
		CharSet:     charsetFromContentType(contentType),
		Body:        body,
		Logger:      session,
	}, nil
}

// Get invokes HTTP GET request.
func (session *Session) Get(ctx context.Context, getUrl string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, getUrl, nil)
	if err != nil {
		return nil, err
	}
	return session.invoke(req)
}

// GetPage gets the URL and returns a Page decoded to UTF-8.
func (session *Session) GetPage(ctx context.Context, getUrl string) (*Page, error) {
	resp, err := session.Get(ctx, getUrl)
	if err != nil {
		return nil, err
	}
	encode := session.Encoding
	if encode == nil {
		encode = charsetEncoding(resp.CharSet)
	}
	if encode != nil {
		if session.ShowResponseHeader {
			session.Printf("converting from %v...", encode)
		}
		b, err := convertEncodingToUtf8(resp.Body, encode)
		if err != nil {
			return nil, err
		}
		resp.Body = b
		resp.Encoding = encode
	}
	return resp.Page()
}

// Download saves the body of url as dir/filename and returns the path.
func (session *Session) Download(ctx context.Context, fileUrl, dir, filename string) (string, error) {
	resp, err := session.Get(ctx, fileUrl)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	local := filepath.Join(dir, filename)
	if err := os.WriteFile(local, resp.Body, 0644); err != nil {
		return "", err
	}
	session.Printf("**** SAVE %v to %v (%v bytes)", fileUrl, local, len(resp.Body))
	return local, nil
}
