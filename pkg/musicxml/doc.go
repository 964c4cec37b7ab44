// Package musicxml reads and writes MusicXML score-partwise documents.
//
// OMR output is noisy and uses far more of the MusicXML vocabulary than
// the pipeline ever touches, so documents are decoded into a generic
// ordered element tree rather than a fixed struct schema. Markup the
// pipeline does not understand survives a decode/encode round trip
// unchanged, which is what makes "measures below the threshold come back
// identical" a testable guarantee rather than a hope.
//
// Typed views (Score, Part, Measure, Note) sit on top of the tree and
// expose only what the combine and transpose stages need: part order,
// measure number attributes, note pitches, key signature fifths, and
// lyrics. Everything else is opaque.
//
// Compressed fragments (.mxl, a zip container) are accepted on input;
// output is always uncompressed score-partwise XML with the standard
// MusicXML 3.1 doctype.
package musicxml
