// Package mediatypes classifies the files found next to movies.
//
// A [Classifier] maps a path to a [FileType] from filename markers
// ("trailer", "-poster", "fanart", folders such as extrafanart/) and the
// configured extension sets. [IsDiscFile] marks files that belong to a DVD,
// Blu-ray or HD-DVD structure regardless of their extension; the scanner
// uses it to detect disc folders.
package mediatypes
