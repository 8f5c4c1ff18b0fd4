// Package mediainfo fills in technical properties of media files (container,
// codecs, resolution, duration) by running ffprobe.
//
// Inspection results are written into the catalog.MediaFile in place. Files
// already inspected are skipped unless a refresh is forced. Offline stubs
// (".disc") have nothing to probe and are left untouched.
package mediainfo
