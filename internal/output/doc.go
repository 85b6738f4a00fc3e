// Package output writes captured buffers to the local standard streams,
// routing by the descriptor the traced process wrote to.
package output
