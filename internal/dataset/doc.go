// Package dataset provides the in-memory table model shared by every
// pipeline stage, plus CSV load and store for the flat-file artifacts.
//
// Tables keep column order and row order stable so a rerun over the
// same snapshots produces byte-identical outputs. Values stay raw
// strings; interpretation (numbers, dates) belongs to the consumers.
package dataset
