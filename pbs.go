/*
Package pbs is a pure Go implementation of the programmable bootstrapping of the TFHE scheme
over the discretized torus Z/2^32 and Z/2^64.

It provides LWE, GLWE and GGSW ciphertexts, a negacyclic FFT on the torus, the external product
and CMUX, the blind rotation, the programmable bootstrapping with arbitrary look-up tables and
the extraction of the bits of an encrypted message. Every operation comes in a checked flavor,
validating the dimensions and returning typed errors, and an unchecked flavor for hot paths,
both drawing their temporary memory from a caller-provided scratch arena sized by a query.
*/
package pbs
