// Package convert extracts the results document embedded in a saved
// election results page and writes it out as JSON.
package convert

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/benfordscope/benfordscope/internal/utils"
	"github.com/benfordscope/benfordscope/pkg/whttp"
)

var (
	ErrNoScript = errors.New("no embedded results script")
	ErrBadJSON  = errors.New("embedded results are not valid JSON")
)

var (
	reScript2012 = regexp.MustCompile(`data: (\{.+\})`)
	reScript2016 = regexp.MustCompile(`eln_races = (.+),`)
)

const mapDataSelector = "script.e-map-data"

// Extract returns the raw JSON embedded in an HTML results page. The 2012
// and 2016 layouts assign it in inline JavaScript; the 2020 layout carries
// it in a dedicated script element.
func Extract(page []byte) (string, error) {
	for _, re := range []*regexp.Regexp{reScript2012, reScript2016} {
		if m := re.FindSubmatch(page); m != nil {
			return string(m[1]), nil
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", err
	}
	sel := doc.Find(mapDataSelector).First()
	if sel.Length() == 0 {
		return "", ErrNoScript
	}
	return strings.TrimSpace(sel.Text()), nil
}

// Document reduces the embedded JSON to its races array when it has one and
// re-encodes it with sorted keys and two-space indentation.
func Document(raw string) ([]byte, error) {
	if !gjson.Valid(raw) {
		return nil, ErrBadJSON
	}
	res := gjson.Parse(raw)
	if res.IsObject() {
		if races := res.Get("races"); races.Exists() && races.Raw != "[]" && races.Raw != "null" {
			res = races
		}
	}

	dec := json.NewDecoder(strings.NewReader(res.Raw))
	dec.UseNumber()
	var value interface{}
	if err := dec.Decode(&value); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadJSON, err)
	}
	return json.MarshalIndent(value, "", "  ")
}

// OutputPath maps page.html to page-html.json.
func OutputPath(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename)) + "-html.json"
}

// File converts one saved page and returns the path written.
func File(filename string) (string, error) {
	page, err := os.ReadFile(filename)
	if err != nil {
		return "", err
	}
	if title, ok := whttp.Title(string(page)); ok {
		utils.Log.Debugf("[convert] %s: %s", filename, title)
	}

	raw, err := Extract(page)
	if err != nil {
		return "", err
	}
	out, err := Document(raw)
	if err != nil {
		return "", err
	}

	output := OutputPath(filename)
	if err := os.WriteFile(output, append(out, '\n'), 0o644); err != nil {
		return "", err
	}
	return output, nil
}

// Folder converts every .html file directly inside dir. Failures are logged
// and skipped.
func Folder(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && filepath.Ext(e.Name()) == ".html" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var outputs []string
	for _, name := range names {
		filename := filepath.Join(dir, name)
		output, err := File(filename)
		if err != nil {
			status := "convert__error"
			switch {
			case errors.Is(err, ErrNoScript):
				status = "convert__script_error"
			case errors.Is(err, ErrBadJSON):
				status = "convert__json_error"
			}
			utils.Log.WithFields(logrus.Fields{
				"status":   status,
				"filename": filename,
			}).Warn(err)
			continue
		}
		utils.Log.Infof("[convert] %s -> %s", filename, output)
		outputs = append(outputs, output)
	}
	return outputs, nil
}
