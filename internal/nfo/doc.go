// Package nfo reads movie metadata files (".nfo") into catalog movies.
//
// Two XML dialects are supported:
//   - Kodi (formerly XBMC): <movie> with <uniqueid>, repeated <genre> and
//     <director> elements and a <set> that is either plain text or holds
//     a <name> element
//   - MediaPortal: <movie> with wrapped <genres> and <sets> lists and the
//     IMDB id in <id> or <imdb>
//
// A Reader tries its preferred dialect first and falls back to the other
// one. Files that cannot be parsed in either dialect yield ErrNoMovie;
// callers treat that as "no metadata available". Documents declaring a
// non UTF-8 encoding are transcoded through golang.org/x/text.
package nfo
