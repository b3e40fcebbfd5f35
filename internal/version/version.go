// ABOUTME: Build and product identification for the vmic binary
// ABOUTME: Version is overridden at link time with -ldflags "-X"
package version

// Version is set by the release build
var Version = "0.1.0-dev"

const (
	Product      = "vmic"
	Manufacturer = "vmic-audio"
)

// String renders "vmic 0.1.0-dev (vmic-audio)"
func String() string {
	return Product + " " + Version + " (" + Manufacturer + ")"
}
