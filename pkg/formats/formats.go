// Package formats provides parsers for legacy racing game asset formats.
//
// DMODEL files hold a vehicle model: a fixed 0x30 byte header, an array of
// float32 vertices and a stream of variable length polygon commands.
// Decoding is pure and stateless; ParseDModel may be called concurrently
// on independent buffers.
package formats

// Note: Header and vertex decoding are in dmodel.go
// Note: The polygon command interpreter is in dmodel_commands.go
