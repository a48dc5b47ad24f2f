// Package source loads records from input files.
//
// Two formats are supported, selected by file extension with ForPath:
//
//   - csv: a delimited file whose header row names the fields
//   - json: an object whose data field holds an array of entry objects
//
// Both formats must expose a content field holding the text to embed.
// Sources read the whole file before returning because field normalization
// needs statistics over every record.
package source
