// Package resources serves the dashboard's static assets.
package resources

// StaticDirectoryPath is the path to static assets from the project root.
const StaticDirectoryPath = "internal/ui/resources/static"

// StaticPath returns the URL path for a static asset. When the build knows
// the asset's content version it is appended as ?v=, which lets the handler
// cache the response for good.
func StaticPath(name string) string {
	if v := assetVersion(name); v != "" {
		return "/static/" + name + "?v=" + v
	}
	return "/static/" + name
}
