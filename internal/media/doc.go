// Package media provides image decoding helpers: reading pixel dimensions
// from file headers, size-constrained full decodes, and thumbnail
// generation. WebP, BMP and TIFF support comes from golang.org/x/image in
// addition to the stdlib GIF/JPEG/PNG decoders.
package media
