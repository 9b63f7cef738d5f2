// Package scene holds the live fragments of a shatter session: the solids a
// script defines and the pieces every cut leaves behind. Each fragment owns
// a half-edge mesh; cutting a fragment replaces it with its pieces.
package scene
