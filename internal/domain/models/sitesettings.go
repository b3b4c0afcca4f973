// internal/domain/models/sitesettings.go
package models

// SiteSettings holds the site-wide display text. Values come from
// configuration; empty fields fall back to the defaults below.
type SiteSettings struct {
	SiteName   string // name shown in the menu header
	FooterHTML string // custom HTML for the footer
	AboutTitle string
	AboutHTML  string // body of the About page
}

// WithDefaults fills empty fields with the default text.
func (s SiteSettings) WithDefaults() SiteSettings {
	if s.SiteName == "" {
		s.SiteName = DefaultSiteName
	}
	if s.FooterHTML == "" {
		s.FooterHTML = DefaultFooterHTML
	}
	if s.AboutTitle == "" {
		s.AboutTitle = DefaultAboutTitle
	}
	if s.AboutHTML == "" {
		s.AboutHTML = DefaultAboutHTML
	}
	return s
}

// DefaultSiteName is the default site name used when none is configured.
const DefaultSiteName = "Disease Simulation App"

// DefaultFooterHTML is the default footer text.
const DefaultFooterHTML = "Disease Simulation App © 2024"

// DefaultAboutTitle is the heading of the About page.
const DefaultAboutTitle = "About This Simulation"

// DefaultAboutHTML is the default About page content.
const DefaultAboutHTML = `<p>This simulation models the spread of a disease through a population using adjustable parameters.</p>
<p>You can modify variables such as the initial number of infected individuals, transmission probabilities, recovery rates, and more to observe their effects on the infection curve.</p>
<p>The purpose of this simulation is to provide insight into how diseases spread and the impact of different factors on an outbreak.</p>`
