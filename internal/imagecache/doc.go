// Package imagecache keeps downscaled copies of movie artwork in a cache
// directory.
//
// Cache files are named after a blake2b hash of the source path. A cached
// copy is rebuilt when the source file is newer. PNG artwork stays PNG so
// logos and clearart keep their transparency; everything else is stored as
// JPEG.
package imagecache
