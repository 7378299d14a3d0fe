// Package engine owns script compilation and execution against a live
// interpreter namespace.
//
// Ownership boundary:
// - completeness classification of accumulated raw source
// - compile/execute lifecycle of one snippet
// - seed binding injection and the Ans last-result binding
// - capture of output written by executed snippets
//
// The engine never lets executed code take down the host process.
package engine
