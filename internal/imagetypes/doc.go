// Package imagetypes defines the set of image file formats the catalog
// recognizes.
package imagetypes
