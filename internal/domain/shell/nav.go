// Package shell holds the pure rules of the application shell: barn context
// resolution, the render gate, navigation targets and active-route matching.
// It has no I/O; services feed it loaded users and barns.
package shell

import "strings"

// Page is a logical page name. URLs are derived from it by PageURL.
type Page string

const (
	PageDashboard          Page = "Dashboard"
	PageHorses             Page = "Horses"
	PageTrainingLogs       Page = "TrainingLogs"
	PageFeedingSchedules   Page = "FeedingSchedules"
	PageVeterinaryRecords  Page = "VeterinaryRecords"
	PageShoeingRecords     Page = "ShoeingRecords"
	PageProfile            Page = "Profile"
	PageBarnSelection      Page = "BarnSelection"
	PageAddHorse           Page = "AddHorse"
	PageAddTrainingLog     Page = "AddTrainingLog"
	PageAddFeedingSchedule Page = "AddFeedingSchedule"
	PageAddVetVisit        Page = "AddVetVisit"
	PageAddShoeingRecord   Page = "AddShoeingRecord"
)

// PageURL builds the route path for a logical page name:
// "/" + lower-cased name with spaces replaced by dashes.
func PageURL(p Page) string {
	return "/" + strings.ReplaceAll(strings.ToLower(strings.TrimSpace(string(p))), " ", "-")
}

// NavItem is one sidebar link.
type NavItem struct {
	Title string `json:"title"`
	Page  Page   `json:"page"`
	URL   string `json:"url"`
	Icon  string `json:"icon"`
}

func navItem(title string, page Page, icon string) NavItem {
	return NavItem{Title: title, Page: page, URL: PageURL(page), Icon: icon}
}

// NavigationItems returns the sidebar navigation in display order.
func NavigationItems() []NavItem {
	return []NavItem{
		navItem("Dashboard", PageDashboard, "home"),
		navItem("Horses", PageHorses, "heart"),
		navItem("Training Logs", PageTrainingLogs, "file-text"),
		navItem("Feeding", PageFeedingSchedules, "utensils"),
		navItem("Veterinary", PageVeterinaryRecords, "stethoscope"),
		navItem("Shoeing", PageShoeingRecords, "hammer"),
		navItem("Profile", PageProfile, "user"),
	}
}

// QuickActions returns the record-creation shortcuts in display order.
func QuickActions() []NavItem {
	return []NavItem{
		navItem("Add Horse", PageAddHorse, "plus"),
		navItem("Log Training", PageAddTrainingLog, "file-text"),
		navItem("Add Feeding", PageAddFeedingSchedule, "utensils"),
		navItem("Add Vet Visit", PageAddVetVisit, "stethoscope"),
		navItem("Add Shoeing", PageAddShoeingRecord, "hammer"),
	}
}

// IsActive reports whether item should be highlighted for currentPath.
// Exact matches always win; every entry except Dashboard also matches its sub-routes.
func IsActive(currentPath string, item NavItem) bool {
	if currentPath == item.URL {
		return true
	}
	if item.URL == PageURL(PageDashboard) {
		return false
	}
	return strings.HasPrefix(currentPath, item.URL)
}

// ActiveNavigation returns NavigationItems paired with their highlight state.
func ActiveNavigation(currentPath string) []NavEntry {
	items := NavigationItems()
	out := make([]NavEntry, len(items))
	for i, it := range items {
		out[i] = NavEntry{NavItem: it, Active: IsActive(currentPath, it)}
	}
	return out
}

// NavEntry is a NavItem with its computed highlight state.
type NavEntry struct {
	NavItem
	Active bool `json:"active"`
}
