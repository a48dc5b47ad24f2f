// Package normalize provides the pure transformations applied to loaded
// records before embedding.
//
// Text canonicalizes quotes, dashes and whitespace in the content that is
// sent to the embedding service. Fields rescales numeric columns to [0,1]
// using min/max statistics gathered across the whole record set.
package normalize
