package whttp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/net/html"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:83.0) Gecko/20100101 Firefox/83.0"

var ErrStatus = errors.New("unexpected status code")

type Header struct {
	Name  string
	Value string
}

type Request struct {
	URL     string
	Method  string
	Headers []Header
}

type Response struct {
	StatusCode int
	HTTPTitle  string
	Body       []byte
}

// NewClient returns a retrying client, routed through proxy when set.
func NewClient(proxy string) (*retryablehttp.Client, error) {
	client := retryablehttp.NewClient()
	client.Logger = log.New(io.Discard, "", 0)
	client.RetryMax = 5
	client.HTTPClient.Timeout = 5 * time.Minute

	if proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %v", err)
		}
		client.HTTPClient.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	}
	return client, nil
}

func Send(ctx context.Context, wReq *Request, client *retryablehttp.Client) (*Response, error) {
	method := wReq.Method
	if method == "" {
		method = http.MethodGet
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, wReq.URL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Cache-Control", "no-transform")
	req.Header.Set("Accept-Language", "en")
	for _, h := range wReq.Headers {
		req.Header.Add(h.Name, h.Value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	wRes := &Response{StatusCode: resp.StatusCode, Body: body}
	if strings.Contains(resp.Header.Get("Content-Type"), "html") {
		if title, ok := Title(string(body)); ok {
			wRes.HTTPTitle = title
		}
	}
	return wRes, nil
}

// Download fetches rawURL into dest. Anything but a 200 is an ErrStatus and
// leaves dest untouched.
func Download(ctx context.Context, rawURL, dest string, client *retryablehttp.Client) (*Response, error) {
	res, err := Send(ctx, &Request{URL: rawURL}, client)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return res, fmt.Errorf("%w: %d", ErrStatus, res.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return res, err
	}
	tmp := dest + ".part"
	if err := os.WriteFile(tmp, res.Body, 0o644); err != nil {
		return res, err
	}
	return res, os.Rename(tmp, dest)
}

// Title returns the text of the first <title> element of an HTML page.
func Title(body string) (string, bool) {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return "", false
	}
	title, ok := traverse(doc)
	if !ok {
		return "", false
	}
	title = strings.ReplaceAll(strings.ReplaceAll(title, "\n", ""), "\r", "")
	return strings.ToValidUTF8(strings.TrimSpace(title), ""), true
}

func isTitleElement(n *html.Node) bool {
	return n.Type == html.ElementNode && n.Data == "title"
}

func traverse(n *html.Node) (string, bool) {
	if isTitleElement(n) {
		if n.FirstChild != nil {
			return n.FirstChild.Data, true
		}
		return "", true
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		result, ok := traverse(c)
		if ok {
			return result, ok
		}
	}

	return "", false
}
