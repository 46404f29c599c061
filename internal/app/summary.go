package app

import (
	"fmt"
	"strings"
	"time"
)

// StartupSummary is printed once before serving.
type StartupSummary struct {
	Env            string
	HTTPAddr       string
	CatalogSource  string
	CatalogRoles   int
	CatalogWatched bool
	StoreDriver    string
	AuditPath      string
	Theme          string
	Mode           string
	PollInterval   time.Duration
	ReadyTimeout   time.Duration
	FrontendAuth   bool
}

func (s *StartupSummary) Print() {
	fmt.Print(s.String())
}

func (s *StartupSummary) String() string {
	var b strings.Builder
	line := strings.Repeat("=", 80)
	title := "STARTUP SUMMARY"
	fmt.Fprintln(&b, line)
	fmt.Fprintf(&b, "%*s\n", 40+len(title)/2, title)
	fmt.Fprintln(&b, line)

	fmt.Fprintln(&b, "[SERVICE]")
	fmt.Fprintf(&b, "  env:            %s\n", orDash(s.Env))
	fmt.Fprintf(&b, "  http:           %s\n", orDash(s.HTTPAddr))
	fmt.Fprintf(&b, "  frontend auth:  %s\n", onOff(s.FrontendAuth))
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "[ROLE CATALOG]")
	fmt.Fprintf(&b, "  source:         %s\n", orDash(s.CatalogSource))
	fmt.Fprintf(&b, "  roles:          %d\n", s.CatalogRoles)
	fmt.Fprintf(&b, "  hot reload:     %s\n", onOff(s.CatalogWatched))
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "[CONFIGURATION STORE]")
	fmt.Fprintf(&b, "  driver:         %s\n", orDash(s.StoreDriver))
	fmt.Fprintf(&b, "  audit log:      %s\n", orDash(s.AuditPath))
	fmt.Fprintf(&b, "  readiness:      every %s, give up after %s\n", s.PollInterval, s.ReadyTimeout)
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "[PANEL]")
	fmt.Fprintf(&b, "  theme / mode:   %s / %s\n", orDash(s.Theme), orDash(s.Mode))
	fmt.Fprintln(&b, line)
	return b.String()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
