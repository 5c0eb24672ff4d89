package normalizer

import (
	"regexp"
	"strings"
)

// ContactKind 联系方式类别
type ContactKind string

const (
	ContactNone     ContactKind = ""
	ContactEmail    ContactKind = "email"
	ContactPhone    ContactKind = "phone"
	ContactLinkedIn ContactKind = "linkedin"
	ContactGitHub   ContactKind = "github"
	ContactURL      ContactKind = "url"
	ContactLocation ContactKind = "location"
)

var (
	emailRegex    = regexp.MustCompile(`(?i)[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}`)
	phoneRegex    = regexp.MustCompile(`\+?\(?\d[\d\s().-]{6,}\d`)
	linkedinRegex = regexp.MustCompile(`(?i)linkedin(?:\.com)?`)
	githubRegex   = regexp.MustCompile(`(?i)github(?:\.com)?`)
	urlRegex      = regexp.MustCompile(`(?i)(?:https?://|www\.)\S+|\b[a-z0-9-]+\.(?:com|io|dev|org|net|me|ai)\b`)
	contactSplit  = regexp.MustCompile(`\s*(?:\||•|·)\s*`)
)

// ClassifyContact 识别单个联系方式片段的类别
func (n *Normalizer) ClassifyContact(item string) ContactKind {
	item = strings.TrimSpace(item)
	switch {
	case item == "":
		return ContactNone
	case emailRegex.MatchString(item):
		return ContactEmail
	case linkedinRegex.MatchString(item):
		return ContactLinkedIn
	case githubRegex.MatchString(item):
		return ContactGitHub
	case urlRegex.MatchString(item):
		return ContactURL
	case phoneRegex.MatchString(item):
		return ContactPhone
	case matches(n.locationRegex, item):
		return ContactLocation
	}
	return ContactNone
}

// IsContactLine 行内任意片段是联系方式即视为联系方式行
func (n *Normalizer) IsContactLine(line string) bool {
	for _, item := range splitContactItems(line) {
		if n.ClassifyContact(item) != ContactNone {
			return true
		}
	}
	return false
}

// splitContactItems 按竖线和圆点拆分联系方式行
func splitContactItems(line string) []string {
	line = plainText(line)
	parts := contactSplit.Split(line, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
