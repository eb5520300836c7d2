// Package fileutil moves finished archives into place.
package fileutil
