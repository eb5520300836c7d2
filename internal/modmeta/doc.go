// Package modmeta assembles the metadata record embedded into created mods.
//
// Assemble fills each field independently from its default, so supplying a
// version never changes the default name. The package also derives the default
// archive path from the working directory and the defaulted name, and reads the
// optional YAML manifest that can stand in for individual create flags.
package modmeta
