// Package builder provides a fluent API for assembling flow definitions
//
// Builders are immutable; every method returns a derived copy, so partial
// chains can be shared and specialized. Step order is assigned from
// position in the chain, with parallel peers collapsing onto the order of
// the earliest peer
package builder
