// Package certpair locates and loads the private key and certificate used
// by the encrypted listener.
//
// A missing pair is not an error: Probe reports which files are absent so
// the caller can skip the encrypted listener.
package certpair
