// Package parser derives movie facts from file and folder names: the clean
// title and year, stacking markers of split videos, edition and 3D markers,
// the media source and IMDB ids found in paths or text.
//
// All functions are pure and safe for concurrent use.
package parser
