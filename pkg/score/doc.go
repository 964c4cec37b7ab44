// Package score implements the pitch arithmetic used by the transposition
// pipeline: spelled pitches, directed intervals, and key signatures.
//
// A pitch is stored the way notation software stores it, as a letter step,
// a signed accidental alteration, and an octave, rather than as a bare
// MIDI number. This keeps enharmonic spelling intact: transposing F#4 down
// a minor second yields E#4 (the same keyboard key as F4, spelled for the
// interval), not an arbitrary respelling.
//
// # Intervals
//
// Intervals use the conventional quality+number notation with an optional
// leading sign: "-m2" is down a minor second (one semitone down), "M3" up a
// major third, "P8" up an octave. An interval resolves to two directed
// deltas, diatonic steps and chromatic semitones, which is exactly the
// information needed to transpose a spelled pitch.
//
// # Key signatures
//
// Key signatures are signed fifths counts (positive sharps, negative
// flats). Transposing a signature moves its major-key tonic by the interval
// and recomputes the count; results outside the engravable [-7, 7] range
// are simplified to the enharmonic key (F# major down a semitone is written
// as F major, not E# major).
package score
