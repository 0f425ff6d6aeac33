package crawler

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/lukemcguire/leadcrawl/result"
)

// contextRadius is the number of bytes searched on each side of an email
// occurrence for a name or job title.
const contextRadius = 100

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`(\+\d{1,2}\s)?\(?\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{4}`)
	namePattern  = regexp.MustCompile(`[A-Z][a-z]+(?:\s[A-Z][a-z]+)+`)
	titlePattern = regexp.MustCompile(`(?i)\b(?:CEO|CTO|CFO|COO|Director|Manager|President|VP|Vice President|Chief|Officer|Founder|Co-founder|Lead|Head|Principal)\b`)
)

// webmailDomains are public mailbox providers; their addresses are rarely
// useful B2B contacts.
var webmailDomains = map[string]struct{}{
	"gmail.com": {}, "yahoo.com": {}, "hotmail.com": {}, "outlook.com": {},
	"aol.com": {}, "icloud.com": {}, "protonmail.com": {}, "mail.com": {},
	"zoho.com": {}, "yandex.com": {}, "live.com": {}, "msn.com": {},
	"me.com": {}, "gmx.com": {}, "inbox.com": {},
}

// assetSuffixes catch retina asset names such as "logo@2x.png" that are
// shaped like email addresses.
var assetSuffixes = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".css", ".js"}

// ExtractedData is what one page yields.
type ExtractedData struct {
	Title  string
	Emails []result.EmailRecord // New business emails in document order
	Phones []string             // Normalized phone numbers
}

// Extractor mines contact details from parsed pages.
type Extractor struct {
	names  bool
	titles bool
	phones bool
}

// NewExtractor creates an Extractor with the configuration's toggles.
func NewExtractor(cfg Config) *Extractor {
	return &Extractor{
		names:  cfg.ExtractNames,
		titles: cfg.ExtractJobTitles,
		phones: cfg.ExtractPhones,
	}
}

// ParseHTML parses a page body into a queryable document.
func ParseHTML(body []byte) (*goquery.Document, error) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return goquery.NewDocumentFromNode(root), nil
}

// Extract finds business emails and phone numbers on a page. Emails for
// which known returns true are skipped before any context work is done;
// known may be nil.
func (e *Extractor) Extract(pageURL string, doc *goquery.Document, known func(email string) bool) ExtractedData {
	data := ExtractedData{Title: strings.TrimSpace(doc.Find("title").First().Text())}

	text := visibleText(doc.Nodes...)

	seen := make(map[string]bool)
	for _, email := range emailPattern.FindAllString(text, -1) {
		if seen[email] || !IsBusinessEmail(email) {
			continue
		}
		seen[email] = true
		if known != nil && known(email) {
			continue
		}

		rec := result.EmailRecord{
			Email:     email,
			SourceURL: pageURL,
			PageTitle: data.Title,
		}
		if e.names {
			rec.Name = nameFromLocalPart(email)
		}
		if (e.names && rec.Name == "") || e.titles {
			for _, contextText := range emailContexts(doc, email) {
				if e.names && rec.Name == "" {
					rec.Name = nameNear(contextText, email)
				}
				if e.titles && rec.JobTitle == "" {
					rec.JobTitle = titleNear(contextText, email)
				}
			}
		}
		data.Emails = append(data.Emails, rec)
	}

	if e.phones {
		data.Phones = extractPhones(text)
	}
	return data
}

// IsBusinessEmail reports whether email is not at a public webmail provider.
func IsBusinessEmail(email string) bool {
	at := strings.LastIndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := strings.ToLower(email[at+1:])
	for _, suffix := range assetSuffixes {
		if strings.HasSuffix(domain, suffix) {
			return false
		}
	}
	_, webmail := webmailDomains[domain]
	return !webmail
}

// nameFromLocalPart turns "jane.doe@..." into "Jane Doe". Anything other than
// exactly two dot-separated segments longer than one character yields "".
func nameFromLocalPart(email string) string {
	local, _, ok := strings.Cut(email, "@")
	if !ok {
		return ""
	}
	parts := strings.Split(local, ".")
	if len(parts) != 2 {
		return ""
	}
	first, last := titleCase(parts[0]), titleCase(parts[1])
	if utf8.RuneCountInString(first) <= 1 || utf8.RuneCountInString(last) <= 1 {
		return ""
	}
	return first + " " + last
}

// nameNear returns the first capitalized multi-word sequence in the window
// around email.
func nameNear(text, email string) string {
	window, ok := contextWindow(text, email)
	if !ok {
		return ""
	}
	for _, candidate := range namePattern.FindAllString(window, -1) {
		words := strings.Fields(candidate)
		if len(words) < 2 {
			continue
		}
		plausible := true
		for _, w := range words {
			if utf8.RuneCountInString(w) <= 1 {
				plausible = false
				break
			}
		}
		if plausible {
			return strings.Join(words, " ")
		}
	}
	return ""
}

// titleNear returns the first role keyword in the window around email.
func titleNear(text, email string) string {
	window, ok := contextWindow(text, email)
	if !ok {
		return ""
	}
	return titlePattern.FindString(window)
}

// contextWindow returns up to contextRadius bytes either side of the start
// of the first occurrence of email, snapped to rune boundaries.
func contextWindow(text, email string) (string, bool) {
	idx := strings.Index(text, email)
	if idx < 0 {
		return "", false
	}
	start := max(0, idx-contextRadius)
	end := min(len(text), idx+contextRadius)
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}
	return text[start:end], true
}

// emailContexts returns, in document order, the text of the innermost
// visible elements whose text contains email. An element also qualifies when
// one of its own text nodes carries the address.
func emailContexts(doc *goquery.Document, email string) []string {
	var contexts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		own, nested := false, false
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			switch {
			case child.Type == html.TextNode && strings.Contains(child.Data, email):
				own = true
			case child.Type == html.ElementNode && !isInvisible(child) &&
				strings.Contains(visibleText(child), email):
				nested = true
			}
		}
		if own || !nested {
			contexts = append(contexts, visibleText(n))
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == html.ElementNode && !isInvisible(child) &&
				strings.Contains(visibleText(child), email) {
				walk(child)
			}
		}
	}
	for _, n := range doc.Nodes {
		if strings.Contains(visibleText(n), email) {
			walk(n)
		}
	}
	return contexts
}

// extractPhones returns the distinct normalized phone numbers in text.
func extractPhones(text string) []string {
	var phones []string
	seen := make(map[string]bool)
	for _, match := range phonePattern.FindAllString(text, -1) {
		phone := normalizePhone(match)
		if phone == "" || seen[phone] {
			continue
		}
		seen[phone] = true
		phones = append(phones, phone)
	}
	return phones
}

// normalizePhone keeps digits only, with a leading "+" when the match
// carried a country code.
func normalizePhone(raw string) string {
	var b strings.Builder
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "+") {
		b.WriteByte('+')
	}
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() < 10 {
		return ""
	}
	return b.String()
}

// visibleText concatenates the text under the given nodes, skipping script,
// style and similar non-rendered elements. Inline markup adds nothing, so
// "<b>jane</b>@acme.com" reads as one address; block elements and line breaks
// are separated by a space so neighbouring blocks do not fuse.
func visibleText(nodes ...*html.Node) string {
	var b strings.Builder
	separate := func() {
		if b.Len() > 0 && !strings.HasSuffix(b.String(), " ") {
			b.WriteByte(' ')
		}
	}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			if isInvisible(n) {
				return
			}
			if isBlock(n) {
				separate()
				defer separate()
			}
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.CommentNode:
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return strings.TrimSpace(b.String())
}

func isBlock(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Address, atom.Article, atom.Aside, atom.Blockquote, atom.Body, atom.Br,
		atom.Dd, atom.Div, atom.Dl, atom.Dt, atom.Fieldset, atom.Figcaption, atom.Figure,
		atom.Footer, atom.Form, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Header, atom.Hr, atom.Li, atom.Main, atom.Nav, atom.Ol, atom.Option, atom.P,
		atom.Pre, atom.Section, atom.Table, atom.Td, atom.Th, atom.Tr, atom.Ul:
		return true
	}
	return false
}

func isInvisible(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Title, atom.Head:
		return true
	}
	return false
}

// titleCase upper-cases the first letter of each letter run and lower-cases
// the rest: "o'neil" -> "O'Neil", "mary-ann" -> "Mary-Ann".
func titleCase(s string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		prevLetter = false
		b.WriteRune(r)
	}
	return b.String()
}
