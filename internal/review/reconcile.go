package review

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"
)

// issueBaseURL is the "file an issue" deep link rendered under each
// suggestion so reviewers can escalate model feedback.
const issueBaseURL = "https://github.com/Paul-Clue/code-review-agent/issues/new"

// xmlReview mirrors the structured response document.
type xmlReview struct {
	XMLName     xml.Name        `xml:"review"`
	Suggestions []xmlSuggestion `xml:"suggestion"`
}

type xmlSuggestion struct {
	Describe string `xml:"describe"`
	Type     string `xml:"type"`
	Comment  string `xml:"comment"`
	Code     string `xml:"code"`
	Filename string `xml:"filename"`
}

// ParseStructured parses each group's raw output as a structured review
// document and flattens all suggestion lists into one sequence. Malformed
// structure is a hard error: the caller falls through to the next strategy.
func ParseStructured(raws []string) ([]Suggestion, error) {
	var all []Suggestion
	for i, raw := range raws {
		doc, err := extractReviewDocument(raw)
		if err != nil {
			return nil, fmt.Errorf("group %d: %w", i, err)
		}

		var parsed xmlReview
		if err := xml.Unmarshal([]byte(wrapCodeCDATA(doc)), &parsed); err != nil {
			return nil, fmt.Errorf("group %d: malformed review XML: %w", i, err)
		}

		for _, s := range parsed.Suggestions {
			all = append(all, Suggestion{
				Description: strings.TrimSpace(s.Describe),
				Category:    strings.TrimSpace(s.Type),
				Comment:     strings.TrimSpace(s.Comment),
				Code:        trimCodeEdges(s.Code),
				Filename:    strings.TrimSpace(s.Filename),
			})
		}
	}
	return all, nil
}

// extractReviewDocument isolates the <review>...</review> element from model
// output that may carry prose or fences around it.
func extractReviewDocument(raw string) (string, error) {
	start := strings.Index(raw, "<review")
	end := strings.LastIndex(raw, "</review>")
	if start < 0 || end < 0 || end < start {
		if strings.Contains(raw, "<review></review>") || strings.Contains(raw, "<review/>") {
			return "<review></review>", nil
		}
		return "", fmt.Errorf("no <review> document found in response")
	}
	return raw[start : end+len("</review>")], nil
}

// wrapCodeCDATA wraps every <code> payload in a CDATA section so embedded
// angle brackets and ampersands in code do not break XML parsing. Payloads
// already wrapped are left alone.
func wrapCodeCDATA(doc string) string {
	var b strings.Builder
	rest := doc
	for {
		open := strings.Index(rest, "<code>")
		if open < 0 {
			b.WriteString(rest)
			return b.String()
		}
		end := strings.Index(rest[open:], "</code>")
		if end < 0 {
			b.WriteString(rest)
			return b.String()
		}
		end += open

		payload := rest[open+len("<code>") : end]
		b.WriteString(rest[:open])
		b.WriteString("<code>")
		if strings.HasPrefix(strings.TrimSpace(payload), "<![CDATA[") {
			b.WriteString(payload)
		} else {
			b.WriteString("<![CDATA[")
			b.WriteString(payload)
			b.WriteString("]]>")
		}
		b.WriteString("</code>")
		rest = rest[end+len("</code>"):]
	}
}

// trimCodeEdges drops the first and last lines of a code block when they are
// blank or markdown fences. Interior whitespace and indentation are
// preserved verbatim: it may be semantically significant code structure.
func trimCodeEdges(code string) string {
	lines := strings.Split(code, "\n")
	if len(lines) > 1 && isCodeEdge(lines[0]) {
		lines = lines[1:]
	}
	if len(lines) > 1 && isCodeEdge(lines[len(lines)-1]) {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

func isCodeEdge(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed == "" || strings.HasPrefix(trimmed, "```")
}

// Deduplicate collapses suggestions with identical semantic identity
// (filename, comment, code). Later entries overwrite earlier ones; the
// position of the first occurrence is kept so rendering stays stable.
// Idempotent: deduplicating an already-deduplicated set is a no-op.
func Deduplicate(suggestions []Suggestion) []Suggestion {
	byKey := make(map[string]int, len(suggestions))
	var deduped []Suggestion
	for _, s := range suggestions {
		key := s.Key()
		if idx, seen := byKey[key]; seen {
			deduped[idx] = s
			continue
		}
		byKey[key] = len(deduped)
		deduped = append(deduped, s)
	}
	return deduped
}

// RenderComment renders deduplicated suggestions into one aggregate comment:
// one block per target file (in first-occurrence order), one formatted entry
// per suggestion. maxLinkLength caps the "file an issue" deep link; when the
// fully populated link would exceed it, the code payload is dropped from the
// link while the base link is kept.
func RenderComment(suggestions []Suggestion, maxLinkLength int) string {
	if len(suggestions) == 0 {
		return ""
	}

	byFile := make(map[string][]Suggestion)
	var fileOrder []string
	for _, s := range suggestions {
		if _, seen := byFile[s.Filename]; !seen {
			fileOrder = append(fileOrder, s.Filename)
		}
		byFile[s.Filename] = append(byFile[s.Filename], s)
	}

	var b strings.Builder
	for i, file := range fileOrder {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "### %s\n", file)
		for _, s := range byFile[file] {
			b.WriteString("\n")
			if s.Category != "" {
				fmt.Fprintf(&b, "**%s** — %s\n", s.Category, s.Comment)
			} else {
				fmt.Fprintf(&b, "%s\n", s.Comment)
			}
			if s.Code != "" {
				fmt.Fprintf(&b, "\n```\n%s\n```\n", s.Code)
			}
			fmt.Fprintf(&b, "\n[Report an issue](%s)\n", issueLink(s, maxLinkLength))
		}
	}
	return b.String()
}

// issueLink builds the escalation deep link for one suggestion.
func issueLink(s Suggestion, maxLength int) string {
	title := s.Description
	if title == "" {
		title = s.Comment
	}

	full := issueBaseURL + "?" + url.Values{
		"title": {title},
		"body":  {s.Comment + "\n\n```\n" + s.Code + "\n```"},
	}.Encode()
	if maxLength <= 0 || len(full) <= maxLength {
		return full
	}

	// Too long with the code payload: keep the base link without it.
	return issueBaseURL + "?" + url.Values{
		"title": {title},
		"body":  {s.Comment},
	}.Encode()
}

// plainSeparator joins per-group narrative outputs in the fallback path.
const plainSeparator = "\n\n---\n\n"

// JoinPlain concatenates raw group outputs for the plain-text strategy.
// The result carries no structured suggestions.
func JoinPlain(raws []string) string {
	var nonEmpty []string
	for _, raw := range raws {
		if trimmed := strings.TrimSpace(raw); trimmed != "" {
			nonEmpty = append(nonEmpty, trimmed)
		}
	}
	return strings.Join(nonEmpty, plainSeparator)
}
