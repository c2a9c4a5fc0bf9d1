package gforms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"leave_form_bot/internal/domain/form"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

const (
	// Field keywords matched against question labels. Matching is a plain
	// substring check in document order, first match per field wins.
	nameKeyword   = "姓名"
	optionKeyword = "排休"
	reasonKeyword = "原因"

	// tokenField is the hidden input Google Forms plants on every view page.
	tokenField = "fbzx"

	// maxPageBytes caps how much of a form page we are willing to parse.
	maxPageBytes = 4 << 20
)

// formDataPattern locates the embedded structure blob on the view page.
var formDataPattern = regexp.MustCompile(`var FB_PUBLIC_LOAD_DATA_ = (.*?);`)

var ErrTokenNotFound = fmt.Errorf("fbzx token not found on form page")
var ErrFormDataNotFound = fmt.Errorf("form structure data (FB_PUBLIC_LOAD_DATA_) not found on page")

// PageInspector scrapes a form's view page for the hidden token and the
// entry IDs of its questions.
type PageInspector struct {
	client *http.Client
	logger *logrus.Entry
}

func NewPageInspector(timeout time.Duration, logger *logrus.Entry) *PageInspector {
	return &PageInspector{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Token fetches the view page and pulls the hidden fbzx input out of it.
func (p *PageInspector) Token(ctx context.Context, formURL string) (string, error) {
	body, err := p.fetchPage(ctx, formURL)
	if err != nil {
		return "", err
	}

	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to parse form page: %w", err)
	}

	token := findInputValue(doc, tokenField)
	if token == "" {
		return "", ErrTokenNotFound
	}
	return token, nil
}

// Discover fetches the view page and maps question labels to entry IDs.
// A keyword that matches no label leaves that field empty; only structural
// problems (fetch, marker, JSON, nesting) return an error.
func (p *PageInspector) Discover(ctx context.Context, formURL string, needReason bool) (form.FieldIDs, error) {
	var ids form.FieldIDs

	body, err := p.fetchPage(ctx, formURL)
	if err != nil {
		return ids, err
	}

	match := formDataPattern.FindStringSubmatch(body)
	if match == nil {
		return ids, ErrFormDataNotFound
	}

	var formData []any
	dec := json.NewDecoder(strings.NewReader(match[1]))
	dec.UseNumber() // entry IDs must not go through float64
	if err := dec.Decode(&formData); err != nil {
		return ids, fmt.Errorf("failed to decode form structure data: %w", err)
	}

	questions, err := questionList(formData)
	if err != nil {
		return ids, err
	}

	for _, row := range questions {
		label, entryID, ok := questionEntry(row)
		if !ok {
			continue // title rows and section breaks carry no entry
		}
		if ids.Name == "" && strings.Contains(label, nameKeyword) {
			ids.Name = entryID
		}
		if ids.Option == "" && strings.Contains(label, optionKeyword) {
			ids.Option = entryID
		}
		if needReason && ids.Reason == "" && strings.Contains(label, reasonKeyword) {
			ids.Reason = entryID
		}
	}

	log := p.logger.WithField("form_url", formURL)
	if needReason {
		log.Infof("Discovered field IDs: name=%s option=%s reason=%s", ids.Name, ids.Option, ids.Reason)
	} else {
		log.Infof("Discovered field IDs: name=%s option=%s (no reason field needed)", ids.Name, ids.Option)
	}
	return ids, nil
}

func (p *PageInspector) fetchPage(ctx context.Context, formURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, formURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build form page request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch form page %s: %w", formURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("form page %s answered status %d", formURL, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read form page %s: %w", formURL, err)
	}
	return string(raw), nil
}

// findInputValue walks the document for an <input> with the given name and
// returns its value attribute.
func findInputValue(doc *html.Node, name string) string {
	var value string
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if value != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "input" {
			var nameAttr, valueAttr string
			for _, attr := range n.Attr {
				switch attr.Key {
				case "name":
					nameAttr = attr.Val
				case "value":
					valueAttr = attr.Val
				}
			}
			if nameAttr == name {
				value = valueAttr
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)
	return value
}

// questionList digs the question rows out of the decoded page blob. The
// layout is undocumented but stable: data[1][1] is the list of questions.
func questionList(formData []any) ([]any, error) {
	if len(formData) < 2 {
		return nil, fmt.Errorf("form structure data too short: %d top-level elements", len(formData))
	}
	inner, ok := formData[1].([]any)
	if !ok || len(inner) < 2 {
		return nil, fmt.Errorf("form structure data has no question section")
	}
	questions, ok := inner[1].([]any)
	if !ok {
		return nil, fmt.Errorf("form structure data question section is not a list")
	}
	return questions, nil
}

// questionEntry extracts an answerable question's label and entry ID, found
// at row[1] and row[4][0][0].
func questionEntry(row any) (label, entryID string, ok bool) {
	q, isList := row.([]any)
	if !isList || len(q) < 5 {
		return "", "", false
	}
	label, isString := q[1].(string)
	if !isString {
		return "", "", false
	}
	answers, isList := q[4].([]any)
	if !isList || len(answers) == 0 {
		return "", "", false
	}
	first, isList := answers[0].([]any)
	if !isList || len(first) == 0 {
		return "", "", false
	}
	id, isNumber := first[0].(json.Number)
	if !isNumber {
		return "", "", false
	}
	return label, "entry." + id.String(), true
}
