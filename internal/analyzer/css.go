package analyzer

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"github.com/gorilla/css/scanner"

	"github.com/nao1215/pagecarbon/internal/model"
)

const backgroundImageProperty = "background-image"

// cssURLRe captures the argument of url(...). Quoted forms are matched
// first so a ")" inside quotes does not end the argument.
var cssURLRe = regexp.MustCompile(`url\(\s*(?:"([^"]*)"|'([^']*)'|([^)]*?))\s*\)`)

// BackgroundImages returns one reference per url(...) found in a
// background-image declaration, first in <style> elements and then in
// inline style attributes. A stylesheet the parser rejects, such as one
// using @layer or nesting, is scanned token by token instead.
func BackgroundImages(d *Document) []model.ResourceReference {
	var refs []model.ResourceReference
	add := func(decls []*css.Declaration) {
		for _, loc := range backgroundURLs(decls) {
			refs = append(refs, d.reference(model.KindBackgroundImage, loc))
		}
	}

	d.find(selStyleTag).Each(func(_ int, s *goquery.Selection) {
		text := s.Text()
		sheet, err := parser.Parse(text)
		if err != nil || !wellFormed(sheet.Rules) {
			for _, loc := range scanBackgroundURLs(text) {
				refs = append(refs, d.reference(model.KindBackgroundImage, loc))
			}
			return
		}
		walkRules(sheet.Rules, add)
	})

	d.find(selStyleAttr).Each(func(_ int, s *goquery.Selection) {
		decls, err := parser.ParseDeclarations(s.AttrOr("style", ""))
		if err != nil {
			return
		}
		add(decls)
	})

	return refs
}

// walkRules visits the declarations of every rule, descending into at-rule
// blocks such as @media and @supports.
func walkRules(rules []*css.Rule, visit func([]*css.Declaration)) {
	for _, rule := range rules {
		if len(rule.Declarations) > 0 {
			visit(rule.Declarations)
		}
		if len(rule.Rules) > 0 {
			walkRules(rule.Rules, visit)
		}
	}
}

// wellFormed reports whether no declaration swallowed a block boundary.
// The parser accepts an unterminated rule by folding the next selector
// into a property name such as "red .a{background-image".
func wellFormed(rules []*css.Rule) bool {
	for _, rule := range rules {
		for _, decl := range rule.Declarations {
			if strings.ContainsAny(decl.Property, "{};") {
				return false
			}
		}
		if !wellFormed(rule.Rules) {
			return false
		}
	}
	return true
}

// backgroundURLs extracts url(...) arguments from background-image values.
func backgroundURLs(decls []*css.Declaration) []string {
	var urls []string
	for _, decl := range decls {
		if isBackgroundImage(decl.Property) {
			urls = append(urls, cssURLs(decl.Value)...)
		}
	}
	return urls
}

// scanBackgroundURLs finds background-image declarations in raw CSS
// without building a rule tree, so unknown at-rules and broken rules do
// not hide the declarations around them.
func scanBackgroundURLs(text string) []string {
	var (
		urls    []string
		s       = scanner.New(text)
		prop    string
		inValue bool
		value   strings.Builder
	)
	flush := func() {
		if inValue && isBackgroundImage(prop) {
			urls = append(urls, cssURLs(value.String())...)
		}
		prop, inValue = "", false
		value.Reset()
	}

	for {
		tok := s.Next()
		switch tok.Type {
		case scanner.TokenEOF, scanner.TokenError:
			flush()
			return urls
		case scanner.TokenComment, scanner.TokenS:
			if inValue {
				value.WriteString(" ")
			}
			continue
		}

		if inValue {
			if tok.Type == scanner.TokenChar && strings.ContainsAny(tok.Value, ";{}") {
				flush()
				continue
			}
			value.WriteString(tok.Value)
			continue
		}

		switch {
		case tok.Type == scanner.TokenIdent:
			prop = tok.Value
		case tok.Type == scanner.TokenChar && tok.Value == ":" && prop != "":
			inValue = true
		default:
			prop = ""
		}
	}
}

func isBackgroundImage(property string) bool {
	return strings.EqualFold(strings.TrimSpace(property), backgroundImageProperty)
}

// cssURLs returns the non-empty url(...) arguments in a property value.
func cssURLs(value string) []string {
	var urls []string
	for _, m := range cssURLRe.FindAllStringSubmatch(value, -1) {
		loc := m[1] + m[2] + strings.Trim(m[3], `"'`)
		if loc == "" {
			continue
		}
		urls = append(urls, loc)
	}
	return urls
}
