// Package version reports the tilefilter build.
//
// Values are injected at link time and fall back to the VCS stamp that
// the Go toolchain embeds:
//
//	go build -ldflags "-X github.com/kbukum/tilefilter/version.Version=1.2.0" ./cmd/tilefilter
package version
