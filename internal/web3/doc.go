// Package web3 holds chain-agnostic helpers shared by the tool layer: the
// per-network contract address table and the conversion between display
// amounts and integer base units. The go-ethereum specific connection,
// signing and ABI handling live in the ethereum subpackage.
package web3
