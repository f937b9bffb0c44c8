package httpx

import "github.com/equinetracker/equinetracker/internal/domain/shell"

// ShellRootID is the id of the element wrapping the whole shell. Soft reloads
// target it so the chrome and the page are swapped together.
const ShellRootID = "shell-root"

// Page identifiers for pages that are not part of the shell navigation.
const (
	PageNotFound  = "notfound"
	PageSignedOut = "signedout"
)

// Template paths used for loading templates in tests and production.
const (
	TemplatePathFromRoot = "frontend/templates"       // From project root
	TemplatePathFromTest = "../../frontend/templates" // From internal/http test files

	staticPathFromRoot = "frontend/static"
)

// Cookie names shared by the auth handlers and middleware.
const (
	sessionCookieName  = "session_id"
	stateCookieName    = "oauth_state"
	nonceCookieName    = "oauth_nonce"
	redirectCookieName = "post_login_redirect"
)

// HX-Trigger events emitted by shell handlers.
const (
	EventNavActivate  = "nav:activate"
	EventSwitchFailed = "shell:switch-failed"
)

// switchErrorParam is appended to the return path when a surfaced switch failure redirects back.
const switchErrorParam = "switch_error"

// PageSpec describes one shell page: its logical name, titles and content template.
type PageSpec struct {
	Page        shell.Page
	Title       string
	Description string
}

// Content templates are defined once and reused to avoid per-call allocations.
//
//nolint:gochecknoglobals // static read-only lookup for templates; avoids per-call allocations
var contentTemplates = map[string]string{
	string(shell.PageDashboard):     "dashboard-content",
	string(shell.PageBarnSelection): "barnselection-content",
	PageNotFound:                    "notfound-content",
	PageSignedOut:                   "signedout-content",
}

// ContentTemplateFor returns the content template for the given page.
// Pages without a dedicated template share the placeholder.
func ContentTemplateFor(page string) string {
	if name, ok := contentTemplates[page]; ok {
		return name
	}
	return "placeholder-content"
}

// ShellPages lists every page rendered inside the shell, in route order.
func ShellPages() []PageSpec {
	return []PageSpec{
		{shell.PageDashboard, "Dashboard", "An overview of the active barn."},
		{shell.PageHorses, "Horses", "Every horse stabled at this barn."},
		{shell.PageTrainingLogs, "Training Logs", "Workouts, lessons and rides."},
		{shell.PageFeedingSchedules, "Feeding", "Rations and feeding times."},
		{shell.PageVeterinaryRecords, "Veterinary", "Vet visits, vaccinations and treatments."},
		{shell.PageShoeingRecords, "Shoeing", "Farrier visits and shoeing history."},
		{shell.PageProfile, "Profile", "Your account details."},
		{shell.PageAddHorse, "Add Horse", "Register a new horse."},
		{shell.PageAddTrainingLog, "Log Training", "Record a training session."},
		{shell.PageAddFeedingSchedule, "Add Feeding", "Create a feeding schedule."},
		{shell.PageAddVetVisit, "Add Vet Visit", "Record a veterinary visit."},
		{shell.PageAddShoeingRecord, "Add Shoeing", "Record a farrier visit."},
	}
}
