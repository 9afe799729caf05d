// Package wallet provides [goSpace.WalletProvider] implementations for hosts
// that do not talk to a browser wallet: a fixed account list, a function
// adapter and a provider that reports itself unavailable.
package wallet
